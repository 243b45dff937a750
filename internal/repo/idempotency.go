package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/safestudent/safe-student-backend/internal/domain"
)

// ErrDuplicate reports that a row with the same unique key already exists.
var ErrDuplicate = errors.New("duplicate")

// IdemKey identifies a completed request: the caller, the "METHOD route"
// scope and the client-chosen Idempotency-Key.
type IdemKey struct {
	UserID string
	Scope  string
	Key    string
}

func (k IdemKey) blank() bool {
	return strings.TrimSpace(k.Scope) == "" || strings.TrimSpace(k.Key) == ""
}

// FindIdempotency returns the live record for k, or ErrNotFound when there
// is none or it expired at or before now.
func FindIdempotency(ctx context.Context, db *gorm.DB, k IdemKey, now time.Time) (*domain.Idempotency, error) {
	if k.blank() {
		return nil, ErrNotFound
	}
	var rec domain.Idempotency
	err := db.WithContext(ctx).
		Where(map[string]any{"user_id": k.UserID, "scope": k.Scope, "key": k.Key}).
		Where("expires_at > ?", now).
		Take(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// SaveIdempotency records resourceID as the outcome of k until now+ttl.
// An expired record for the same key is overwritten in place; a live one
// is left untouched and ErrDuplicate is returned.
func SaveIdempotency(ctx context.Context, db *gorm.DB, k IdemKey, resourceID string, status int, now time.Time, ttl time.Duration) error {
	rec := &domain.Idempotency{
		ID:         uuid.NewString(),
		UserID:     k.UserID,
		Scope:      k.Scope,
		Key:        k.Key,
		ResourceID: resourceID,
		Status:     status,
		CreatedAt:  now,
		ExpiresAt:  now.Add(ttl),
	}
	table := rec.TableName()
	res := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "scope"}, {Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"resource_id", "status", "created_at", "expires_at"}),
		Where: clause.Where{Exprs: []clause.Expression{
			clause.Expr{SQL: table + ".expires_at <= ?", Vars: []any{now}},
		}},
	}).Create(rec)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrDuplicate
	}
	return nil
}

// PurgeExpiredIdempotency deletes records whose TTL elapsed at or before now.
func PurgeExpiredIdempotency(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	res := db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&domain.Idempotency{})
	return res.RowsAffected, res.Error
}
