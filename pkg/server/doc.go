// Package server provides the HTTP API for the enforcement gateway.
//
// Endpoints:
//
//	POST /v1/decisions    submit a gated action for evaluation
//	POST /v1/nonces       obtain a single-use token
//	GET  /v1/traces/{id}  read and verify a trace's event chain
//	GET  /healthz         liveness probe
//	GET  /metrics         Prometheus metrics (when enabled)
//
// The server owns graceful shutdown: on SIGINT, SIGTERM, or context
// cancellation it stops accepting connections and waits up to the
// configured shutdown timeout for in-flight requests to drain.
package server
