package domain

// RiskLevel is the coarse severity assigned to an analyzed screenshot.
type RiskLevel string

const (
	RiskHigh   RiskLevel = "high"
	RiskMedium RiskLevel = "medium"
	RiskLow    RiskLevel = "low"
)

// SafeRiskType is the canonical risk type of every low-risk analysis.
const SafeRiskType = "safe"

// OtherRiskType labels a non-low analysis whose model output carried no type.
const OtherRiskType = "other"

// ParseRiskLevel matches an already trimmed, lowercased value.
func ParseRiskLevel(s string) (RiskLevel, bool) {
	switch RiskLevel(s) {
	case RiskHigh, RiskMedium, RiskLow:
		return RiskLevel(s), true
	}
	return "", false
}

// Alerting reports whether parents and teachers should hear about this level.
func (l RiskLevel) Alerting() bool {
	return l == RiskHigh || l == RiskMedium
}

// Label is the Vietnamese badge text shown to students.
func (l RiskLevel) Label() string {
	switch l {
	case RiskHigh:
		return "Nguy hiểm"
	case RiskMedium:
		return "Hơi lo"
	default:
		return "An toàn"
	}
}

// Result is the canonical, normalized output of one model analysis.
type Result struct {
	RiskLevel       RiskLevel `json:"risk_level"`
	RiskType        string    `json:"risk_type"`
	ConfidenceScore float64   `json:"confidence_score"`
	ExtractedText   string    `json:"extracted_text"`
	Summary         string    `json:"summary"`
}
