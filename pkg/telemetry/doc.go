// Package telemetry provides observability for the Arbiter enforcement gateway.
//
// # Components
//
//   - logging: structured slog logging with level and format selection
//   - metrics: Prometheus metrics for decisions, nonces, ledger appends,
//     and lineage verifications
//
// # Usage
//
//	logger := logging.New(&cfg.Telemetry.Logging)
//	m := metrics.New()
//	m.Decisions.RecordDecision("BLOCK", "SAFETY-001", elapsed)
package telemetry
