package provenance

import (
	"context"
	"encoding/json"
	"time"
)

// GenesisHash is the previous-event hash of the first event in a trace:
// an all-zero SHA-256 digest in hex.
const GenesisHash = "0000000000000000000000000000000000000000000000000000000000000000"

// EventType classifies the auditable fact a signed event carries.
type EventType string

const (
	// EventDecision is an enforcement decision produced by the engine.
	EventDecision EventType = "decision"

	// EventRoutingDecision records a cross-jurisdiction routing choice.
	EventRoutingDecision EventType = "routing_decision"

	// EventLearningUpdate records an applied confidence/learning update.
	EventLearningUpdate EventType = "learning_update"

	// EventAgentExecution records a downstream execution carried out under
	// an earlier decision.
	EventAgentExecution EventType = "agent_execution"

	// EventRefusalEscalation records a refusal or escalation surfaced to
	// the caller.
	EventRefusalEscalation EventType = "refusal_escalation"
)

// SignedEvent is one link in a trace's hash chain. EventHash covers the
// canonical serialization of {payload, previous_event_hash, timestamp};
// Signature is a keyed MAC over the same bytes, so the hash inputs cannot
// be altered without invalidating the signature.
type SignedEvent struct {
	// TraceID identifies the chain this event belongs to.
	TraceID string `json:"trace_id"`

	// Sequence is the 0-based position within the trace. Contiguous by
	// construction.
	Sequence int `json:"sequence_index"`

	// Timestamp is when the event was appended (UTC).
	Timestamp time.Time `json:"timestamp"`

	// Type classifies the payload.
	Type EventType `json:"event_type"`

	// Payload is the serialized auditable fact (a Decision or other
	// record). Stored verbatim; verification re-canonicalizes it.
	Payload json.RawMessage `json:"payload"`

	// EventHash is the hex SHA-256 over the canonical signing input.
	EventHash string `json:"event_hash"`

	// PrevEventHash is the EventHash of the predecessor, or GenesisHash
	// for the first event in a trace.
	PrevEventHash string `json:"previous_event_hash"`

	// Signature is the base64 MAC over the canonical signing input.
	Signature string `json:"signature"`

	// KeyID identifies the signing key, so verification keeps working
	// across key rotation.
	KeyID string `json:"signing_key_id"`

	// Algorithm identifies the signature scheme (e.g. "HMAC-SHA256").
	Algorithm string `json:"algorithm"`
}

// Proof is the verification bundle returned to callers alongside a
// decision. It is sufficient to re-verify the decision independently,
// without querying the ledger.
type Proof struct {
	EventHash string    `json:"event_hash"`
	Signature string    `json:"signature"`
	Algorithm string    `json:"algorithm"`
	KeyID     string    `json:"signing_key_id"`
	Timestamp time.Time `json:"timestamp"`
}

// Store is the persistence interface for signed events. Implementations
// must be safe for concurrent use; serialization of appends within a
// trace is the ledger's responsibility, so Append may assume at most one
// in-flight append per trace id.
type Store interface {
	// Append persists a signed event. It rejects a duplicate
	// (trace_id, sequence_index) pair rather than overwriting.
	Append(ctx context.Context, event *SignedEvent) error

	// Tail returns the last event of a trace, or nil when the trace has
	// no events yet.
	Tail(ctx context.Context, traceID string) (*SignedEvent, error)

	// Read returns all events of a trace ordered by sequence. An unknown
	// trace yields an empty slice, not an error.
	Read(ctx context.Context, traceID string) ([]*SignedEvent, error)

	// Close releases resources held by the backend.
	Close() error
}
