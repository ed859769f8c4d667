// Package ledger implements the append path of the hash-chain ledger.
//
// Append is the single atomic step that reads the current chain tail for
// a trace, computes the predecessor hash, signs the new event, and
// persists it. A striped per-trace lock serializes concurrent appends to
// the same trace while appends to different traces proceed in parallel,
// and the critical section contains no network calls.
package ledger
