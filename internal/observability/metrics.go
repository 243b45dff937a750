package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Outcome label values shared by the pipeline collectors.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
	OutcomeSkipped = "skipped"
)

var (
	// AnalysesTotal counts finished analysis attempts by kind
	// (analyze/reanalyze) and outcome (success/error).
	AnalysesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analyses_total",
			Help: "Total number of screenshot analysis attempts.",
		},
		[]string{"kind", "outcome"},
	)

	// AnalysisRiskTotal counts persisted analyses by normalized risk level.
	AnalysisRiskTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analysis_risk_level_total",
			Help: "Persisted analyses by normalized risk level.",
		},
		[]string{"risk_level"},
	)

	// ModelRequestDuration records the latency of external model calls.
	ModelRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "model_request_duration_seconds",
			Help:    "Duration of external model requests in seconds.",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"provider", "outcome"},
	)

	// AlertsTotal counts alert webhook decisions: success, error, or skipped
	// (risk below threshold or webhook not configured).
	AlertsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alerts_total",
			Help: "Alert webhook deliveries by outcome.",
		},
		[]string{"outcome"},
	)

	// StaleAnalysesFailed counts uploads moved from analyzing to error by
	// the reconciler.
	StaleAnalysesFailed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "stale_analyses_failed_total",
			Help: "Uploads stuck in analyzing that were marked as error.",
		},
	)
)

func init() {
	prometheus.MustRegister(AnalysesTotal, AnalysisRiskTotal, ModelRequestDuration, AlertsTotal, StaleAnalysesFailed)
}
