// Package gateway orchestrates the enforcement pipeline: replay check,
// rule evaluation, signing, and ledger append, in that order and never
// skipping a stage.
//
// Every outcome terminates as a structured result with a reason code.
// Replay rejections are surfaced distinctly and never converted into
// policy blocks; internal faults degrade to a fail-safe BLOCK decision
// rather than escaping as errors. The sign-and-append stage runs under a
// cancellation-detached context, so a caller that abandons the request
// mid-pipeline can never observe a decision that was not recorded.
package gateway
