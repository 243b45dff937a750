// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate/statistics queries used
// for conditional responses (ETag generation) and the history summary.
// Each function is context-aware and safe to call from services or handlers.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/safestudent/safe-student-backend/internal/domain"
)

// UploadsStats returns aggregate metadata for a user's uploads: the total
// number of rows and the maximum UpdatedAt timestamp among those rows.
//
// When the user has no uploads, the returned count is 0 and maxUpdatedAt is
// nil.
//
// Return values:
//   - count:        total uploads for userID
//   - maxUpdatedAt: pointer to the greatest UpdatedAt, or nil if no rows
//   - err:          database error, if any
func UploadsStats(ctx context.Context, db *gorm.DB, userID string) (count int64, maxUpdatedAt *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.Upload{}).Where("user_id = ?", userID)

	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Get latest updated_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		UpdatedAt time.Time
	}
	if err = db.WithContext(ctx).Model(&domain.Upload{}).
		Where("user_id = ?", userID).
		Select("updated_at").Order("updated_at DESC").Limit(1).
		Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.UpdatedAt, nil
}

// LatestAnalysisUpdate returns the greatest analysis UpdatedAt among the
// user's uploads, or nil when none has been analyzed. Re-analysis bumps it,
// so it complements UploadsStats in the history ETag.
func LatestAnalysisUpdate(ctx context.Context, db *gorm.DB, userID string) (*time.Time, error) {
	var rows []struct {
		UpdatedAt time.Time
	}
	err := db.WithContext(ctx).
		Table("ai_analysis").
		Select("ai_analysis.updated_at").
		Joins("JOIN uploads ON uploads.id = ai_analysis.upload_id").
		Where("uploads.user_id = ?", userID).
		Order("ai_analysis.updated_at DESC").
		Limit(1).
		Scan(&rows).Error
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return &rows[0].UpdatedAt, nil
}

// RiskCount is one bucket of CountByRiskLevel.
type RiskCount struct {
	RiskLevel domain.RiskLevel
	Count     int64
}

// CountByRiskLevel groups the user's current analyses by risk level. Only
// uploads in status analyzed count: a failed or running re-analysis keeps
// the previous row until it succeeds. Levels without analyses are absent.
func CountByRiskLevel(ctx context.Context, db *gorm.DB, userID string) ([]RiskCount, error) {
	var out []RiskCount
	err := db.WithContext(ctx).
		Table("ai_analysis").
		Select("ai_analysis.risk_level AS risk_level, COUNT(*) AS count").
		Joins("JOIN uploads ON uploads.id = ai_analysis.upload_id").
		Where("uploads.user_id = ? AND uploads.status = ?", userID, domain.StatusAnalyzed).
		Group("ai_analysis.risk_level").
		Scan(&out).Error
	return out, err
}

// CountByStatus groups the user's uploads by lifecycle status.
func CountByStatus(ctx context.Context, db *gorm.DB, userID string) (map[domain.Status]int64, error) {
	var rows []struct {
		Status domain.Status
		Count  int64
	}
	err := db.WithContext(ctx).
		Model(&domain.Upload{}).
		Select("status, COUNT(*) AS count").
		Where("user_id = ?", userID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[domain.Status]int64, len(rows))
	for _, r := range rows {
		out[r.Status] = r.Count
	}
	return out, nil
}
