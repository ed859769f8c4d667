// Package lineage is the read path of the provenance chain: it
// reconstructs the full event chain for a trace and re-verifies every
// hash, every signature, and every predecessor link. Verification is
// strictly read-only; a broken chain is reported, never repaired or
// skipped.
package lineage
