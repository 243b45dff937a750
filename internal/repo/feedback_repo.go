package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/safestudent/safe-student-backend/internal/domain"
)

// CreateFeedback stores value (-1 or 1) from userID on analysisID. A second
// rating by the same user is ignored by the unique index and reported as
// ErrDuplicate; a bad value or unknown analysis fails its constraint.
func CreateFeedback(ctx context.Context, db *gorm.DB, analysisID, userID string, value int) error {
	res := db.WithContext(ctx).
		Omit("Analysis").
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&domain.Feedback{
			ID:         uuid.NewString(),
			AnalysisID: analysisID,
			UserID:     userID,
			Value:      value,
			CreatedAt:  time.Now().UTC(),
		})
	switch {
	case res.Error != nil:
		return res.Error
	case res.RowsAffected == 0:
		return ErrDuplicate
	}
	return nil
}

// DeleteFeedbackForAnalysis removes every rating of an analysis that is
// about to be replaced.
func DeleteFeedbackForAnalysis(ctx context.Context, db *gorm.DB, analysisID string) error {
	return db.WithContext(ctx).
		Where("analysis_id = ?", analysisID).
		Delete(&domain.Feedback{}).Error
}
