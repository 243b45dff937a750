// Package services – HistoryService
//
// This file implements the HistoryService, the read side of the pipeline:
// listing a student's uploads joined with their analyses, reading one entry,
// deleting an entry together with its stored image, and the dashboard
// counters. All operations are scoped to the owner.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/safestudent/safe-student-backend/internal/domain"
	"github.com/safestudent/safe-student-backend/internal/repo"
	"github.com/safestudent/safe-student-backend/internal/search"
)

// Filter narrows a history listing. Zero values match everything.
type Filter struct {
	// Query is matched case- and accent-insensitively against the summary and
	// the extracted text.
	Query string
	// RiskLevel, when set, must equal the analysis risk level.
	RiskLevel string
}

// active reports whether the filter excludes anything.
func (f Filter) active() bool {
	return strings.TrimSpace(f.Query) != "" || strings.TrimSpace(f.RiskLevel) != ""
}

// Stats are the dashboard counters for one student. Analyzed, ByRiskLevel,
// Alerts and SafeRatio cover uploads whose status is analyzed.
type Stats struct {
	Total       int64                      `json:"total"`
	ByStatus    map[domain.Status]int64    `json:"by_status"`
	ByRiskLevel map[domain.RiskLevel]int64 `json:"by_risk_level"`
	Analyzed    int64                      `json:"analyzed"`
	Alerts      int64                      `json:"alerts"`
	SafeRatio   float64                    `json:"safe_ratio"`
}

// HistoryService reads and deletes a student's history.
type HistoryService struct {
	DB    *gorm.DB
	Store ObjectStore
}

// List returns the owner's entries, newest first, filtered by f.
// Entries without an analysis never match an active filter.
func (s *HistoryService) List(ctx context.Context, ownerID string, f Filter) ([]domain.Entry, error) {
	tr := otel.Tracer("services/HistoryService")
	ctx, span := tr.Start(ctx, "List",
		trace.WithAttributes(
			attribute.String("user.id", ownerID),
			attribute.Bool("filter.active", f.active()),
		),
	)
	defer span.End()

	var level domain.RiskLevel
	if lv := strings.ToLower(strings.TrimSpace(f.RiskLevel)); lv != "" {
		l, ok := domain.ParseRiskLevel(lv)
		if !ok {
			return nil, fmt.Errorf("%w: risk_level %q", ErrInvalidFilter, f.RiskLevel)
		}
		level = l
	}

	uploads, err := repo.ListUploads(ctx, s.DB, ownerID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(uploads))
	for i := range uploads {
		ids[i] = uploads[i].ID
	}
	analyses, err := repo.ListAnalysesForUploads(ctx, s.DB, ids)
	if err != nil {
		return nil, err
	}

	query := strings.TrimSpace(f.Query)
	out := make([]domain.Entry, 0, len(uploads))
	for _, up := range uploads {
		a := analyses[up.ID]
		if f.active() {
			if a == nil {
				continue
			}
			if level != "" && a.RiskLevel != level {
				continue
			}
			if query != "" && !search.ContainsFolded(a.Summary+"\n"+a.ExtractedText, query) {
				continue
			}
		}
		out = append(out, domain.Entry{Upload: up, Analysis: a})
	}
	span.SetAttributes(attribute.Int("entries", len(out)))
	return out, nil
}

// Get returns one entry, or ErrUploadNotFound.
func (s *HistoryService) Get(ctx context.Context, ownerID, uploadID string) (*domain.Entry, error) {
	up, err := repo.GetUpload(ctx, s.DB, uploadID, ownerID)
	if err != nil {
		return nil, notFoundAs(err, ErrUploadNotFound)
	}
	entry := &domain.Entry{Upload: *up}
	a, err := repo.GetAnalysisByUpload(ctx, s.DB, up.ID)
	switch {
	case err == nil:
		entry.Analysis = a
	case errors.Is(err, repo.ErrNotFound):
	default:
		return nil, err
	}
	return entry, nil
}

// Delete removes the stored image and then the record; the analysis and its
// feedback cascade. If the image cannot be removed the record is kept and
// ErrImageDeleteFailed is returned. Uploads being analyzed are refused.
func (s *HistoryService) Delete(ctx context.Context, ownerID, uploadID string) error {
	tr := otel.Tracer("services/HistoryService")
	ctx, span := tr.Start(ctx, "Delete",
		trace.WithAttributes(
			attribute.String("upload.id", uploadID),
			attribute.String("user.id", ownerID),
		),
	)
	defer span.End()

	up, err := repo.GetUpload(ctx, s.DB, uploadID, ownerID)
	if err != nil {
		return notFoundAs(err, ErrUploadNotFound)
	}
	if up.Status == domain.StatusAnalyzing {
		return ErrAnalysisInProgress
	}

	key, err := objectKey(up)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrImageDeleteFailed, err)
	}
	if err := s.Store.Remove(ctx, key); err != nil {
		span.RecordError(err)
		zerolog.Ctx(ctx).Error().Err(err).Str("upload_id", up.ID).Str("object_key", key).Msg("remove image failed")
		return fmt.Errorf("%w: %w", ErrImageDeleteFailed, err)
	}

	if err := repo.DeleteUpload(ctx, s.DB, up.ID, ownerID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrUploadNotFound
		}
		return err
	}
	zerolog.Ctx(ctx).Info().Str("upload_id", up.ID).Msg("upload deleted")
	return nil
}

// Stats computes the dashboard counters.
func (s *HistoryService) Stats(ctx context.Context, ownerID string) (*Stats, error) {
	tr := otel.Tracer("services/HistoryService")
	ctx, span := tr.Start(ctx, "Stats", trace.WithAttributes(attribute.String("user.id", ownerID)))
	defer span.End()

	byStatus, err := repo.CountByStatus(ctx, s.DB, ownerID)
	if err != nil {
		return nil, err
	}
	levels, err := repo.CountByRiskLevel(ctx, s.DB, ownerID)
	if err != nil {
		return nil, err
	}

	st := &Stats{
		ByStatus: map[domain.Status]int64{
			domain.StatusPending:   0,
			domain.StatusAnalyzing: 0,
			domain.StatusAnalyzed:  0,
			domain.StatusError:     0,
		},
		ByRiskLevel: map[domain.RiskLevel]int64{
			domain.RiskHigh:   0,
			domain.RiskMedium: 0,
			domain.RiskLow:    0,
		},
	}
	for status, n := range byStatus {
		st.ByStatus[status] = n
		st.Total += n
	}
	for _, rc := range levels {
		st.ByRiskLevel[rc.RiskLevel] = rc.Count
		st.Analyzed += rc.Count
		if rc.RiskLevel.Alerting() {
			st.Alerts += rc.Count
		}
	}
	if st.Analyzed > 0 {
		st.SafeRatio = float64(st.ByRiskLevel[domain.RiskLow]) / float64(st.Analyzed)
	}
	return st, nil
}

// Version returns the number of uploads and the latest change across uploads
// and analyses, used to build the history ETag.
func (s *HistoryService) Version(ctx context.Context, ownerID string) (int64, time.Time, error) {
	count, lastUpload, err := repo.UploadsStats(ctx, s.DB, ownerID)
	if err != nil {
		return 0, time.Time{}, err
	}
	lastAnalysis, err := repo.LatestAnalysisUpdate(ctx, s.DB, ownerID)
	if err != nil {
		return 0, time.Time{}, err
	}
	var latest time.Time
	if lastUpload != nil {
		latest = *lastUpload
	}
	if lastAnalysis != nil && lastAnalysis.After(latest) {
		latest = *lastAnalysis
	}
	return count, latest.UTC(), nil
}
