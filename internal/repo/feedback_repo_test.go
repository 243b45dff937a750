package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/safestudent/safe-student-backend/internal/domain"
)

func TestCreateFeedback_DuplicateAndClear(t *testing.T) {
	db := newMigratedDB(t)
	ctx := context.Background()
	seedUpload(t, db, "u1", "s1", domain.StatusAnalyzed, time.Now().UTC())
	an, err := UpsertAnalysis(ctx, db, &domain.Analysis{UploadID: "u1", RiskLevel: domain.RiskLow, RiskType: "safe", ConfidenceScore: 50})
	if err != nil {
		t.Fatalf("seed analysis: %v", err)
	}

	if err := CreateFeedback(ctx, db, an.ID, "s1", 1); err != nil {
		t.Fatalf("CreateFeedback: %v", err)
	}
	if err := CreateFeedback(ctx, db, an.ID, "s1", -1); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	if err := DeleteFeedbackForAnalysis(ctx, db, an.ID); err != nil {
		t.Fatalf("DeleteFeedbackForAnalysis: %v", err)
	}
	if err := CreateFeedback(ctx, db, an.ID, "s1", -1); err != nil {
		t.Fatalf("expected feedback allowed after clear, got %v", err)
	}
}

func TestCreateFeedback_RejectsBadValueAndUnknownAnalysis(t *testing.T) {
	db := newMigratedDB(t)
	ctx := context.Background()
	seedUpload(t, db, "u1", "s1", domain.StatusAnalyzed, time.Now().UTC())
	an, _ := UpsertAnalysis(ctx, db, &domain.Analysis{UploadID: "u1", RiskLevel: domain.RiskLow, RiskType: "safe", ConfidenceScore: 50})

	if err := CreateFeedback(ctx, db, an.ID, "s1", 2); err == nil {
		t.Fatalf("expected check constraint failure for value=2")
	}
	if err := CreateFeedback(ctx, db, "missing", "s1", 1); err == nil {
		t.Fatalf("expected foreign key failure")
	}
}
