package signer

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gowebpki/jcs"
)

// signingInput is the structure whose canonical serialization is hashed
// and signed. Field names are part of the wire contract; changing them
// breaks verification of existing ledgers.
type signingInput struct {
	Payload       json.RawMessage `json:"payload"`
	PrevEventHash string          `json:"previous_event_hash"`
	Timestamp     string          `json:"timestamp"`
}

// CanonicalBytes builds the canonical (RFC 8785) serialization of
// {payload, previous_event_hash, timestamp}. Timestamps are rendered as
// RFC 3339 with nanoseconds in UTC so the textual form is deterministic
// for a given instant.
func CanonicalBytes(payload json.RawMessage, prevEventHash string, ts time.Time) ([]byte, error) {
	if len(payload) == 0 {
		return nil, fmt.Errorf("payload is empty")
	}

	raw, err := json.Marshal(signingInput{
		Payload:       payload,
		PrevEventHash: prevEventHash,
		Timestamp:     ts.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to serialize signing input: %w", err)
	}

	canonical, err := jcs.Transform(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to canonicalize signing input: %w", err)
	}
	return canonical, nil
}
