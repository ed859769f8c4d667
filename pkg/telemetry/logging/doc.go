// Package logging constructs the process-wide slog logger and carries
// trace ids through context so every log line of a request can be tied
// back to its ledger trace.
package logging
