package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// LedgerMetrics tracks hash-chain ledger activity.
//
// Metrics:
//   - arbiter_ledger_appends_total: Appended events by type and result
//   - arbiter_ledger_append_duration_seconds: Append duration (sign + persist)
type LedgerMetrics struct {
	appendsTotal   *prometheus.CounterVec
	appendDuration prometheus.Histogram
}

// NewLedgerMetrics creates and registers ledger metrics.
func NewLedgerMetrics(registry *prometheus.Registry) *LedgerMetrics {
	lm := &LedgerMetrics{
		appendsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "ledger_appends_total",
				Help:      "Total number of ledger append attempts",
			},
			[]string{"event_type", "result"},
		),

		appendDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "ledger_append_duration_seconds",
				Help:      "Duration of ledger appends in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 12), // 100µs to ~400ms
			},
		),
	}

	registry.MustRegister(lm.appendsTotal, lm.appendDuration)
	return lm
}

// RecordAppend records one append attempt.
func (lm *LedgerMetrics) RecordAppend(eventType string, err error, duration time.Duration) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	lm.appendsTotal.WithLabelValues(eventType, result).Inc()
	lm.appendDuration.Observe(duration.Seconds())
}
