package domain

import (
	"errors"
	"testing"
)

func TestStatus_Valid(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusAnalyzing, StatusAnalyzed, StatusError} {
		if !s.Valid() {
			t.Fatalf("%q should be valid", s)
		}
	}
	for _, s := range []Status{"", "done", "PENDING"} {
		if s.Valid() {
			t.Fatalf("%q should be invalid", s)
		}
	}
}

func TestStatus_Transition(t *testing.T) {
	legal := []struct{ from, to Status }{
		{StatusPending, StatusAnalyzing},
		{StatusAnalyzing, StatusAnalyzed},
		{StatusAnalyzing, StatusError},
	}
	for _, tc := range legal {
		got, err := tc.from.Transition(tc.to)
		if err != nil || got != tc.to {
			t.Fatalf("%s -> %s: got %q err=%v", tc.from, tc.to, got, err)
		}
	}

	illegal := []struct{ from, to Status }{
		{StatusAnalyzed, StatusPending},
		{StatusAnalyzed, StatusAnalyzing},
		{StatusError, StatusAnalyzing},
		{StatusPending, StatusAnalyzed},
		{StatusPending, StatusError},
		{StatusAnalyzing, StatusPending},
		{StatusAnalyzing, StatusAnalyzing},
	}
	for _, tc := range illegal {
		got, err := tc.from.Transition(tc.to)
		if !errors.Is(err, ErrIllegalTransition) {
			t.Fatalf("%s -> %s: expected ErrIllegalTransition, got %v", tc.from, tc.to, err)
		}
		if got != tc.from {
			t.Fatalf("%s -> %s: state changed to %q on failure", tc.from, tc.to, got)
		}
	}
}

func TestStatus_Restart(t *testing.T) {
	for _, s := range []Status{StatusAnalyzed, StatusError} {
		got, err := s.Restart()
		if err != nil || got != StatusAnalyzing {
			t.Fatalf("restart from %s: got %q err=%v", s, got, err)
		}
	}
	for _, s := range []Status{StatusPending, StatusAnalyzing} {
		if _, err := s.Restart(); !errors.Is(err, ErrIllegalTransition) {
			t.Fatalf("restart from %s should fail, got %v", s, err)
		}
	}
}

func TestRiskLevel(t *testing.T) {
	if l, ok := ParseRiskLevel("medium"); !ok || l != RiskMedium {
		t.Fatalf("ParseRiskLevel(medium) = %q,%v", l, ok)
	}
	if _, ok := ParseRiskLevel("HIGH"); ok {
		t.Fatalf("ParseRiskLevel expects normalized input")
	}
	if !RiskHigh.Alerting() || !RiskMedium.Alerting() || RiskLow.Alerting() {
		t.Fatalf("unexpected Alerting() results")
	}
	if RiskLow.Label() != "An toàn" || RiskMedium.Label() != "Hơi lo" || RiskHigh.Label() != "Nguy hiểm" {
		t.Fatalf("unexpected labels")
	}
}
