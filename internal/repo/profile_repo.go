// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Profile model.
//
// Functions:
//
//   - GetProfile(ctx, db, userID) -> *domain.Profile, error
//   - UpsertProfile(ctx, db, p) -> *domain.Profile, error
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/safestudent/safe-student-backend/internal/domain"
)

// GetProfile returns the profile of userID or ErrNotFound.
func GetProfile(ctx context.Context, db *gorm.DB, userID string) (*domain.Profile, error) {
	var p domain.Profile
	if err := db.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// UpsertProfile creates the profile or overwrites every editable field.
// CreatedAt is preserved on update.
func UpsertProfile(ctx context.Context, db *gorm.DB, p *domain.Profile) (*domain.Profile, error) {
	now := time.Now().UTC()
	row := *p
	row.CreatedAt = now
	row.UpdatedAt = now

	err := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"full_name", "student_class",
				"parent_name", "parent_phone", "parent_email",
				"teacher_name", "teacher_phone", "teacher_email",
				"updated_at",
			}),
		}).
		Create(&row).Error
	if err != nil {
		return nil, err
	}
	return GetProfile(ctx, db, p.UserID)
}
