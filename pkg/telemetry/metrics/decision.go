package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DecisionMetrics tracks enforcement decision outcomes.
//
// Metrics:
//   - arbiter_decisions_total: Total decisions by kind and rule id
//   - arbiter_evaluation_duration_seconds: Rule evaluation duration
type DecisionMetrics struct {
	decisionsTotal     *prometheus.CounterVec
	evaluationDuration prometheus.Histogram
}

// NewDecisionMetrics creates and registers decision metrics.
func NewDecisionMetrics(registry *prometheus.Registry) *DecisionMetrics {
	dm := &DecisionMetrics{
		decisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "decisions_total",
				Help:      "Total number of enforcement decisions",
			},
			[]string{"decision", "rule_id"},
		),

		evaluationDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "evaluation_duration_seconds",
				Help:      "Duration of rule evaluation in seconds",
				// Evaluation is in-memory and should stay well under 1ms
				Buckets: prometheus.ExponentialBuckets(0.000001, 2, 15), // 1µs to 16ms
			},
		),
	}

	registry.MustRegister(dm.decisionsTotal, dm.evaluationDuration)
	return dm
}

// RecordDecision records one decision outcome and its evaluation time.
func (dm *DecisionMetrics) RecordDecision(kind, ruleID string, duration time.Duration) {
	dm.decisionsTotal.WithLabelValues(kind, ruleID).Inc()
	dm.evaluationDuration.Observe(duration.Seconds())
}
