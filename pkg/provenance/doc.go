// Package provenance defines the signed, hash-chained event model shared
// by the signer, the ledger, and the lineage verifier.
//
// Every auditable fact — an enforcement decision, a routing choice, a
// learning update — is wrapped in a SignedEvent whose hash covers the
// canonical serialization of its payload, its predecessor's hash, and its
// timestamp. Events within a trace form a chain anchored at a well-known
// genesis sentinel, so any retroactive edit is detectable by
// recomputation.
package provenance
