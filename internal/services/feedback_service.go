package services

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/safestudent/safe-student-backend/internal/repo"
)

// FeedbackService records whether a student agrees (+1) or disagrees (-1)
// with the analysis of one of their uploads.
type FeedbackService struct {
	DB *gorm.DB
}

// Leave stores value for the analysis of uploadID on behalf of ownerID.
// It returns ErrInvalidFeedback for a value other than -1 or 1,
// ErrUploadNotFound when the upload is missing or owned by someone else,
// ErrAnalysisNotFound before the first analysis, and ErrDuplicateFeedback
// when the student already rated this analysis. A re-analysis clears the
// ratings, so a new verdict can be rated again.
func (s *FeedbackService) Leave(ctx context.Context, ownerID, uploadID string, value int) (err error) {
	ctx, span := otel.Tracer("services/FeedbackService").Start(ctx, "Leave")
	span.SetAttributes(attribute.String("upload.id", uploadID), attribute.Int("feedback.value", value))
	defer func() {
		if err != nil && !errors.Is(err, ErrDuplicateFeedback) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if value != -1 && value != 1 {
		return ErrInvalidFeedback
	}
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		up, err := repo.GetUpload(ctx, tx, uploadID, ownerID)
		if err != nil {
			return notFoundAs(err, ErrUploadNotFound)
		}
		a, err := repo.GetAnalysisByUpload(ctx, tx, up.ID)
		if err != nil {
			return notFoundAs(err, ErrAnalysisNotFound)
		}
		if err := repo.CreateFeedback(ctx, tx, a.ID, ownerID, value); errors.Is(err, repo.ErrDuplicate) {
			return ErrDuplicateFeedback
		} else if err != nil {
			return err
		}
		return nil
	})
}
