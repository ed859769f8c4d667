package metrics

import "github.com/prometheus/client_golang/prometheus"

// NonceMetrics tracks replay-protection activity.
//
// Metrics:
//   - arbiter_nonces_issued_total: Tokens issued
//   - arbiter_nonce_validations_total: Validation attempts by result
type NonceMetrics struct {
	issuedTotal      prometheus.Counter
	validationsTotal *prometheus.CounterVec
}

// NewNonceMetrics creates and registers nonce metrics.
func NewNonceMetrics(registry *prometheus.Registry) *NonceMetrics {
	nm := &NonceMetrics{
		issuedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "nonces_issued_total",
				Help:      "Total number of nonces issued",
			},
		),

		validationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "nonce_validations_total",
				Help:      "Total number of nonce validation attempts",
			},
			[]string{"result"},
		),
	}

	registry.MustRegister(nm.issuedTotal, nm.validationsTotal)
	return nm
}

// RecordIssued records one issued token.
func (nm *NonceMetrics) RecordIssued() {
	nm.issuedTotal.Inc()
}

// RecordValidation records one validation attempt. Result is "ok" or a
// rejection code (UNKNOWN, EXPIRED, ALREADY_CONSUMED).
func (nm *NonceMetrics) RecordValidation(result string) {
	nm.validationsTotal.WithLabelValues(result).Inc()
}
