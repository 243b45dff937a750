package repo

import (
	"context"
	"testing"
	"time"

	"github.com/safestudent/safe-student-backend/internal/domain"
)

func TestUploadsStats_CountError_NoTable(t *testing.T) {
	db := newTestDB(t /* no migrations */)
	if _, _, err := UploadsStats(context.Background(), db, "s1"); err == nil {
		t.Fatalf("expected error due to missing uploads table")
	}
}

func TestUploadsStats_ZeroRows(t *testing.T) {
	db := newMigratedDB(t)
	count, maxAt, err := UploadsStats(context.Background(), db, "s1")
	if err != nil {
		t.Fatalf("UploadsStats error: %v", err)
	}
	if count != 0 || maxAt != nil {
		t.Fatalf("expected (0, nil), got (%d, %v)", count, maxAt)
	}
}

func TestUploadsStats_CountAndLatest(t *testing.T) {
	db := newMigratedDB(t)
	t1 := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	seedUpload(t, db, "u1", "s1", domain.StatusPending, t1)
	seedUpload(t, db, "u2", "s1", domain.StatusPending, t1.Add(2*time.Hour))
	seedUpload(t, db, "u3", "s2", domain.StatusPending, t1.Add(5*time.Hour))

	count, maxAt, err := UploadsStats(context.Background(), db, "s1")
	if err != nil {
		t.Fatalf("UploadsStats: %v", err)
	}
	if count != 2 || maxAt == nil || !maxAt.Equal(t1.Add(2*time.Hour)) {
		t.Fatalf("unexpected stats: count=%d maxAt=%v", count, maxAt)
	}
}

func TestLatestAnalysisUpdate_AndRiskCounts(t *testing.T) {
	db := newMigratedDB(t)
	ctx := context.Background()
	now := time.Now().UTC()
	seedUpload(t, db, "u1", "s1", domain.StatusAnalyzed, now)
	seedUpload(t, db, "u2", "s1", domain.StatusAnalyzed, now)
	seedUpload(t, db, "u3", "s1", domain.StatusPending, now)
	seedUpload(t, db, "x1", "s2", domain.StatusAnalyzed, now)

	if at, err := LatestAnalysisUpdate(ctx, db, "s1"); err != nil || at != nil {
		t.Fatalf("expected nil before any analysis, got %v err=%v", at, err)
	}

	for _, a := range []domain.Analysis{
		{UploadID: "u1", RiskLevel: domain.RiskHigh, RiskType: "scam", ConfidenceScore: 90},
		{UploadID: "u2", RiskLevel: domain.RiskHigh, RiskType: "scam", ConfidenceScore: 80},
		{UploadID: "x1", RiskLevel: domain.RiskLow, RiskType: "safe", ConfidenceScore: 50},
	} {
		a := a
		if _, err := UpsertAnalysis(ctx, db, &a); err != nil {
			t.Fatalf("seed analysis: %v", err)
		}
	}

	at, err := LatestAnalysisUpdate(ctx, db, "s1")
	if err != nil || at == nil {
		t.Fatalf("LatestAnalysisUpdate: %v err=%v", at, err)
	}

	counts, err := CountByRiskLevel(ctx, db, "s1")
	if err != nil {
		t.Fatalf("CountByRiskLevel: %v", err)
	}
	if len(counts) != 1 || counts[0].RiskLevel != domain.RiskHigh || counts[0].Count != 2 {
		t.Fatalf("unexpected risk counts: %+v", counts)
	}

	byStatus, err := CountByStatus(ctx, db, "s1")
	if err != nil {
		t.Fatalf("CountByStatus: %v", err)
	}
	if byStatus[domain.StatusAnalyzed] != 2 || byStatus[domain.StatusPending] != 1 {
		t.Fatalf("unexpected status counts: %v", byStatus)
	}
}

func TestCountByRiskLevel_OnlyAnalyzedUploads(t *testing.T) {
	db := newMigratedDB(t)
	ctx := context.Background()
	now := time.Now().UTC()
	seedUpload(t, db, "u1", "s1", domain.StatusAnalyzed, now)
	seedUpload(t, db, "u2", "s1", domain.StatusAnalyzed, now)
	seedUpload(t, db, "u3", "s1", domain.StatusAnalyzed, now)
	for _, a := range []domain.Analysis{
		{UploadID: "u1", RiskLevel: domain.RiskHigh, RiskType: "scam", ConfidenceScore: 90},
		{UploadID: "u2", RiskLevel: domain.RiskMedium, RiskType: "bully", ConfidenceScore: 70},
		{UploadID: "u3", RiskLevel: domain.RiskMedium, RiskType: "bully", ConfidenceScore: 60},
	} {
		a := a
		if _, err := UpsertAnalysis(ctx, db, &a); err != nil {
			t.Fatalf("seed analysis: %v", err)
		}
	}
	// u2's re-analysis failed and u3's is running; both keep the old row.
	if err := TransitionStatus(ctx, db, "u2", domain.StatusAnalyzed, domain.StatusAnalyzing); err != nil {
		t.Fatalf("restart u2: %v", err)
	}
	if err := TransitionStatus(ctx, db, "u2", domain.StatusAnalyzing, domain.StatusError); err != nil {
		t.Fatalf("fail u2: %v", err)
	}
	if err := TransitionStatus(ctx, db, "u3", domain.StatusAnalyzed, domain.StatusAnalyzing); err != nil {
		t.Fatalf("restart u3: %v", err)
	}

	counts, err := CountByRiskLevel(ctx, db, "s1")
	if err != nil {
		t.Fatalf("CountByRiskLevel: %v", err)
	}
	if len(counts) != 1 || counts[0].RiskLevel != domain.RiskHigh || counts[0].Count != 1 {
		t.Fatalf("expected only u1 counted, got %+v", counts)
	}
}
