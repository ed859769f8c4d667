package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace is the metric namespace shared by all collectors.
const Namespace = "arbiter"

// Metrics bundles all pipeline collectors over one registry.
type Metrics struct {
	registry *prometheus.Registry

	Decisions *DecisionMetrics
	Ledger    *LedgerMetrics
	Nonce     *NonceMetrics
	Lineage   *LineageMetrics
}

// New creates a registry with all pipeline collectors plus the standard
// Go runtime and process collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Metrics{
		registry:  registry,
		Decisions: NewDecisionMetrics(registry),
		Ledger:    NewLedgerMetrics(registry),
		Nonce:     NewNonceMetrics(registry),
		Lineage:   NewLineageMetrics(registry),
	}
}

// Handler returns the HTTP handler serving the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for additional collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
