package services

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/safestudent/safe-student-backend/internal/domain"
)

// Defaults applied by Normalize.
const (
	DefaultConfidence    = 50.0
	PlaceholderExtracted = "Không trích xuất được văn bản từ ảnh."
	PlaceholderSummary   = "Không có tóm tắt."
	maxConfidence        = 100.0
	minConfidence        = 0.0
	// Width of ai_analysis.risk_type.
	maxRiskTypeRunes = 64
)

// Normalize maps a decoded model object to the canonical result. It is
// total: every input, including nil, yields a valid domain.Result.
//
//   - risk level: trimmed, lower-cased; anything but high/medium/low is low
//   - risk type: "safe" whenever the level is low; "other" if empty otherwise;
//     cut to 64 runes
//   - confidence: finite number in [0,100]; missing or unparsable is 50
//   - extracted text and summary: trimmed; empty gets a placeholder
//
// Both camelCase and snake_case keys are accepted.
func Normalize(raw map[string]any) domain.Result {
	level := normalizeLevel(lookup(raw, "riskLevel", "risk_level"))

	riskType := strings.TrimSpace(asString(lookup(raw, "riskType", "risk_type")))
	switch {
	case level == domain.RiskLow:
		riskType = domain.SafeRiskType
	case riskType == "":
		riskType = domain.OtherRiskType
	default:
		riskType = truncateRunes(riskType, maxRiskTypeRunes)
	}

	extracted := strings.TrimSpace(asString(lookup(raw, "extractedText", "extracted_text")))
	if extracted == "" {
		extracted = PlaceholderExtracted
	}
	summary := strings.TrimSpace(asString(lookup(raw, "summary")))
	if summary == "" {
		summary = PlaceholderSummary
	}

	return domain.Result{
		RiskLevel:       level,
		RiskType:        riskType,
		ConfidenceScore: normalizeConfidence(lookup(raw, "confidenceScore", "confidence_score", "confidence")),
		ExtractedText:   extracted,
		Summary:         summary,
	}
}

func lookup(raw map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := raw[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return strings.TrimSpace(string([]rune(s)[:n]))
}

func normalizeLevel(v any) domain.RiskLevel {
	s := strings.ToLower(strings.TrimSpace(asString(v)))
	if l, ok := domain.ParseRiskLevel(s); ok {
		return l
	}
	return domain.RiskLow
}

func normalizeConfidence(v any) float64 {
	f, ok := asFloat(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return DefaultConfidence
	}
	return math.Max(minConfidence, math.Min(maxConfidence, f))
}

func asString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

func asFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(t), "%")), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
