package metrics

import "github.com/prometheus/client_golang/prometheus"

// LineageMetrics tracks trace verification verdicts.
//
// Metrics:
//   - arbiter_trace_verifications_total: Verifications by verdict
type LineageMetrics struct {
	verificationsTotal *prometheus.CounterVec
}

// NewLineageMetrics creates and registers lineage metrics.
func NewLineageMetrics(registry *prometheus.Registry) *LineageMetrics {
	lm := &LineageMetrics{
		verificationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "trace_verifications_total",
				Help:      "Total number of trace chain verifications",
			},
			[]string{"verdict"},
		),
	}

	registry.MustRegister(lm.verificationsTotal)
	return lm
}

// RecordVerification records one verification verdict ("valid" or
// "broken").
func (lm *LineageMetrics) RecordVerification(valid bool) {
	verdict := "valid"
	if !valid {
		verdict = "broken"
	}
	lm.verificationsTotal.WithLabelValues(verdict).Inc()
}
