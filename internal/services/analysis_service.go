// Package services – AnalysisService
//
// This file implements the AnalysisService, which runs the external model on
// an uploaded screenshot and persists the normalized verdict.
//
// Status handling: the upload moves pending→analyzing (Analyze) or
// analyzed|error→analyzing (Reanalyze) with a compare-and-set update, so only
// one request can analyze an upload at a time. The verdict is upserted and
// the status set to analyzed in one transaction; any failure after the
// upload entered analyzing moves it to error.
//
// Error policy: model, parsing and persistence failures are fatal for the
// attempt (ErrAnalysisFailed, no retry). Alert delivery is best-effort and
// never fails the call.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/safestudent/safe-student-backend/internal/analyzer"
	"github.com/safestudent/safe-student-backend/internal/domain"
	"github.com/safestudent/safe-student-backend/internal/notify"
	"github.com/safestudent/safe-student-backend/internal/observability"
	"github.com/safestudent/safe-student-backend/internal/repo"
	"github.com/safestudent/safe-student-backend/internal/storage"
)

// DefaultModelTimeout bounds a model call when AnalysisService.ModelTimeout is unset.
const DefaultModelTimeout = 60 * time.Second

// VisionModel analyzes a screenshot and returns free text embedding a JSON
// object (implemented by analyzer.OpenAI and analyzer.Anthropic).
type VisionModel interface {
	Name() string
	AnalyzeImage(ctx context.Context, img analyzer.Image) (string, error)
}

// Alerter notifies guardians about risky analyses (implemented by
// notify.Dispatcher).
type Alerter interface {
	MaybeAlert(ctx context.Context, a domain.Analysis, ac notify.Context) bool
}

// Outcome is the result of a successful analysis.
type Outcome struct {
	Analysis  *domain.Analysis `json:"analysis"`
	AlertSent bool             `json:"alert_sent"`
}

// AnalysisService runs and persists screenshot analyses.
type AnalysisService struct {
	DB     *gorm.DB
	Store  ObjectStore
	Model  VisionModel
	Alerts Alerter // optional

	// ModelTimeout bounds each model call; <= 0 uses DefaultModelTimeout.
	ModelTimeout time.Duration
}

const (
	kindAnalyze   = "analyze"
	kindReanalyze = "reanalyze"
)

// Analyze runs the first analysis of a pending upload.
//
// Errors:
//   - ErrUploadNotFound if the upload is missing or foreign
//   - ErrAnalysisInProgress if another request is analyzing it
//   - ErrInvalidState if it is already analyzed or failed (use Reanalyze)
//   - ErrAnalysisFailed if the model, parsing or persistence failed
func (s *AnalysisService) Analyze(ctx context.Context, ownerID, uploadID string) (*Outcome, error) {
	return s.run(ctx, kindAnalyze, ownerID, uploadID, func(st domain.Status) (domain.Status, error) {
		return st.Transition(domain.StatusAnalyzing)
	})
}

// Reanalyze replaces the analysis of an analyzed or failed upload. The old
// verdict stays visible until the new one is committed; its feedback is
// cleared with the swap.
func (s *AnalysisService) Reanalyze(ctx context.Context, ownerID, uploadID string) (*Outcome, error) {
	return s.run(ctx, kindReanalyze, ownerID, uploadID, func(st domain.Status) (domain.Status, error) {
		return st.Restart()
	})
}

func (s *AnalysisService) run(ctx context.Context, kind, ownerID, uploadID string, next func(domain.Status) (domain.Status, error)) (*Outcome, error) {
	tr := otel.Tracer("services/AnalysisService")
	spanName := "Analyze"
	if kind == kindReanalyze {
		spanName = "Reanalyze"
	}
	ctx, span := tr.Start(ctx, spanName,
		trace.WithAttributes(
			attribute.String("upload.id", uploadID),
			attribute.String("user.id", ownerID),
		),
	)
	defer span.End()
	log := zerolog.Ctx(ctx).With().Str("upload_id", uploadID).Str("kind", kind).Logger()

	up, err := repo.GetUpload(ctx, s.DB, uploadID, ownerID)
	if err != nil {
		return nil, notFoundAs(err, ErrUploadNotFound)
	}

	to, err := next(up.Status)
	if err != nil {
		if up.Status == domain.StatusAnalyzing {
			return nil, ErrAnalysisInProgress
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidState, err)
	}
	if err := repo.TransitionStatus(ctx, s.DB, up.ID, up.Status, to); err != nil {
		if errors.Is(err, repo.ErrStaleStatus) {
			return nil, ErrAnalysisInProgress
		}
		return nil, err
	}

	saved, err := s.analyzeAndStore(ctx, up)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "analysis failed")
		log.Error().Err(err).Msg("analysis failed")
		s.markFailed(ctx, up.ID)
		observability.AnalysesTotal.WithLabelValues(kind, observability.OutcomeError).Inc()
		return nil, fmt.Errorf("%w: %w", ErrAnalysisFailed, err)
	}
	observability.AnalysesTotal.WithLabelValues(kind, observability.OutcomeSuccess).Inc()
	observability.AnalysisRiskTotal.WithLabelValues(string(saved.RiskLevel)).Inc()
	span.SetAttributes(
		attribute.String("analysis.risk_level", string(saved.RiskLevel)),
		attribute.Float64("analysis.confidence", saved.ConfidenceScore),
	)
	log.Info().Str("risk_level", string(saved.RiskLevel)).Str("risk_type", saved.RiskType).Msg("analysis stored")

	return &Outcome{Analysis: saved, AlertSent: s.alert(ctx, up, saved)}, nil
}

// analyzeAndStore fetches the image, calls the model, normalizes and commits.
func (s *AnalysisService) analyzeAndStore(ctx context.Context, up *domain.Upload) (*domain.Analysis, error) {
	key, err := objectKey(up)
	if err != nil {
		return nil, err
	}
	data, err := s.Store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("fetch image: %w", err)
	}
	mime := up.ContentType
	if mime == "" {
		mime = mimetype.Detect(data).String()
	}

	text, err := s.callModel(ctx, analyzer.Image{Data: data, MIMEType: mime})
	if err != nil {
		return nil, err
	}
	raw, err := analyzer.ExtractJSON(text)
	if err != nil {
		return nil, err
	}
	res := Normalize(raw)

	var saved *domain.Analysis
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		a, err := repo.UpsertAnalysis(ctx, tx, &domain.Analysis{
			UploadID:        up.ID,
			RiskLevel:       res.RiskLevel,
			RiskType:        res.RiskType,
			ConfidenceScore: res.ConfidenceScore,
			ExtractedText:   res.ExtractedText,
			Summary:         res.Summary,
			Model:           s.Model.Name(),
			AnalyzedAt:      time.Now().UTC(),
		})
		if err != nil {
			return fmt.Errorf("upsert analysis: %w", err)
		}
		if err := repo.DeleteFeedbackForAnalysis(ctx, tx, a.ID); err != nil {
			return fmt.Errorf("clear feedback: %w", err)
		}
		if err := repo.TransitionStatus(ctx, tx, up.ID, domain.StatusAnalyzing, domain.StatusAnalyzed); err != nil {
			return fmt.Errorf("mark analyzed: %w", err)
		}
		saved = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

func (s *AnalysisService) callModel(ctx context.Context, img analyzer.Image) (string, error) {
	timeout := s.ModelTimeout
	if timeout <= 0 {
		timeout = DefaultModelTimeout
	}
	mctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	text, err := s.Model.AnalyzeImage(mctx, img)
	outcome := observability.OutcomeSuccess
	if err != nil {
		outcome = observability.OutcomeError
	}
	observability.ModelRequestDuration.WithLabelValues(s.Model.Name(), outcome).Observe(time.Since(start).Seconds())
	if err != nil {
		return "", fmt.Errorf("model %s: %w", s.Model.Name(), err)
	}
	return text, nil
}

// markFailed moves the upload from analyzing to error. It runs detached from
// the request context so a cancelled request still records the failure.
func (s *AnalysisService) markFailed(ctx context.Context, uploadID string) {
	bg, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := repo.TransitionStatus(bg, s.DB, uploadID, domain.StatusAnalyzing, domain.StatusError); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("upload_id", uploadID).Msg("mark upload as error failed")
	}
}

func (s *AnalysisService) alert(ctx context.Context, up *domain.Upload, a *domain.Analysis) bool {
	if s.Alerts == nil {
		return false
	}
	profile, err := repo.GetProfile(ctx, s.DB, up.UserID)
	if err != nil {
		if !errors.Is(err, repo.ErrNotFound) {
			zerolog.Ctx(ctx).Warn().Err(err).Msg("load profile for alert failed")
		}
		profile = nil
	}
	return s.Alerts.MaybeAlert(ctx, *a, notify.ContextFromProfile(profile, up.ImageURL))
}

// FailStale moves uploads stuck in analyzing for longer than olderThan to
// error and returns how many were changed.
func (s *AnalysisService) FailStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	n, err := repo.FailStaleAnalyses(ctx, s.DB, time.Now().UTC().Add(-olderThan))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		observability.StaleAnalysesFailed.Add(float64(n))
		zerolog.Ctx(ctx).Warn().Int64("count", n).Msg("stale analyses marked as error")
	}
	return n, nil
}

// objectKey prefers the stored key and falls back to the URL layout.
func objectKey(up *domain.Upload) (string, error) {
	if up.ObjectKey != "" {
		return up.ObjectKey, nil
	}
	return storage.KeyFromURL(up.ImageURL)
}
