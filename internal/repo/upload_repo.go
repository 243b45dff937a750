// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Upload model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions. They follow the "thin repository"
// approach: no business rules beyond owner scoping and compare-and-set
// status updates.
//
// Error semantics:
//   - Missing (or foreign-owned) uploads yield gorm.ErrRecordNotFound
//     (exported as ErrNotFound).
//   - TransitionStatus returns ErrStaleStatus when the row is not in the
//     expected state anymore, and domain.ErrIllegalTransition for an
//     unknown target status.
//   - Other DB errors are propagated unchanged.
//
// Functions:
//
//   - CreateUpload(ctx, db, userID, imageURL, objectKey, contentType) -> *domain.Upload, error
//   - GetUpload(ctx, db, id, userID) -> *domain.Upload, error
//   - ListUploads(ctx, db, userID) -> []domain.Upload, error
//   - TransitionStatus(ctx, db, id, from, to) -> error
//   - DeleteUpload(ctx, db, id, userID) -> error
//   - FailStaleAnalyses(ctx, db, olderThan) -> int64, error
package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/safestudent/safe-student-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// ErrStaleStatus is returned by TransitionStatus when the upload is missing
// or its status no longer matches the expected one.
var ErrStaleStatus = errors.New("upload status changed concurrently")

// CreateUpload inserts a pending upload owned by userID.
// The ID is a random UUID and UploadedAt is set to UTC now.
func CreateUpload(ctx context.Context, db *gorm.DB, userID, imageURL, objectKey, contentType string) (*domain.Upload, error) {
	now := time.Now().UTC()
	u := &domain.Upload{
		ID:          uuid.NewString(),
		UserID:      userID,
		ImageURL:    imageURL,
		ObjectKey:   objectKey,
		ContentType: contentType,
		Status:      domain.StatusPending,
		UploadedAt:  now,
		UpdatedAt:   now,
	}
	if err := db.WithContext(ctx).Create(u).Error; err != nil {
		return nil, err
	}
	return u, nil
}

// GetUpload fetches one upload by ID and owner, or ErrNotFound.
func GetUpload(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Upload, error) {
	var u domain.Upload
	err := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ListUploads returns all uploads of userID, newest first. Ties on
// uploaded_at are broken by id to keep the order deterministic.
func ListUploads(ctx context.Context, db *gorm.DB, userID string) ([]domain.Upload, error) {
	var out []domain.Upload
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("uploaded_at desc").
		Order("id desc").
		Find(&out).Error
	return out, err
}

// TransitionStatus moves an upload from one status to another only when the
// stored status still equals from. Zero affected rows means another request
// won the race (or the row is gone) and ErrStaleStatus is returned. A to
// value outside the four persisted statuses is domain.ErrIllegalTransition.
func TransitionStatus(ctx context.Context, db *gorm.DB, id string, from, to domain.Status) error {
	if !to.Valid() {
		return fmt.Errorf("%w: unknown status %q", domain.ErrIllegalTransition, to)
	}
	res := db.WithContext(ctx).
		Model(&domain.Upload{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{"status": to, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStaleStatus
	}
	return nil
}

// DeleteUpload removes the upload row. Its analysis and feedback are
// removed by the ON DELETE CASCADE constraints.
func DeleteUpload(ctx context.Context, db *gorm.DB, id, userID string) error {
	res := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&domain.Upload{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// FailStaleAnalyses marks uploads stuck in "analyzing" since before
// olderThan as "error" and returns how many were changed.
func FailStaleAnalyses(ctx context.Context, db *gorm.DB, olderThan time.Time) (int64, error) {
	res := db.WithContext(ctx).
		Model(&domain.Upload{}).
		Where("status = ? AND updated_at < ?", domain.StatusAnalyzing, olderThan).
		Updates(map[string]any{"status": domain.StatusError, "updated_at": time.Now().UTC()})
	return res.RowsAffected, res.Error
}
