// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Analysis
// model.
//
// An upload has at most one analysis. Re-analysis replaces it in place via
// an upsert keyed on upload_id, so readers never observe a window without
// an analysis row for an analyzed upload.
//
// Functions:
//
//   - UpsertAnalysis(ctx, db, a) -> *domain.Analysis, error
//   - GetAnalysisByUpload(ctx, db, uploadID) -> *domain.Analysis, error
//   - ListAnalysesForUploads(ctx, db, uploadIDs) -> map[string]*domain.Analysis, error
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/safestudent/safe-student-backend/internal/domain"
)

// UpsertAnalysis inserts the analysis for a.UploadID or overwrites the
// existing one. On overwrite the original row ID is kept. The stored row is
// read back and returned.
func UpsertAnalysis(ctx context.Context, db *gorm.DB, a *domain.Analysis) (*domain.Analysis, error) {
	now := time.Now().UTC()
	row := *a
	if row.ID == "" {
		row.ID = uuid.NewString()
	}
	if row.AnalyzedAt.IsZero() {
		row.AnalyzedAt = now
	}
	row.UpdatedAt = now

	err := db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "upload_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"risk_level", "risk_type", "confidence_score",
				"extracted_text", "summary", "model",
				"analyzed_at", "updated_at",
			}),
		}).
		Create(&row).Error
	if err != nil {
		return nil, err
	}
	return GetAnalysisByUpload(ctx, db, a.UploadID)
}

// GetAnalysisByUpload returns the analysis of uploadID or ErrNotFound.
func GetAnalysisByUpload(ctx context.Context, db *gorm.DB, uploadID string) (*domain.Analysis, error) {
	var a domain.Analysis
	if err := db.WithContext(ctx).Where("upload_id = ?", uploadID).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// ListAnalysesForUploads loads the analyses of the given uploads in one
// query, keyed by upload ID. Uploads without an analysis are absent.
func ListAnalysesForUploads(ctx context.Context, db *gorm.DB, uploadIDs []string) (map[string]*domain.Analysis, error) {
	out := make(map[string]*domain.Analysis, len(uploadIDs))
	if len(uploadIDs) == 0 {
		return out, nil
	}
	var rows []domain.Analysis
	if err := db.WithContext(ctx).Where("upload_id IN ?", uploadIDs).Find(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		out[rows[i].UploadID] = &rows[i]
	}
	return out, nil
}
