// Package metrics exposes Prometheus instrumentation for the enforcement
// pipeline: decision outcomes, ledger append latency, nonce validation
// results, and trace verification verdicts. All metrics register against
// a caller-owned registry so tests can run isolated instances.
package metrics
