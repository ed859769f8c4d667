package signer

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// AlgorithmHMACSHA256 identifies the keyed-MAC scheme used for event
// signatures.
const AlgorithmHMACSHA256 = "HMAC-SHA256"

// Verification failure modes, distinguished so the lineage service can
// report exactly which check broke.
var (
	// ErrHashMismatch means the stored event hash does not match the hash
	// recomputed from the stored payload.
	ErrHashMismatch = errors.New("event hash mismatch")

	// ErrSignatureInvalid means the signature does not verify over the
	// canonical signing input.
	ErrSignatureInvalid = errors.New("signature invalid")

	// ErrUnknownKey means the event names a signing key id the verifier
	// does not hold.
	ErrUnknownKey = errors.New("unknown signing key id")
)

// Key is a named HMAC secret.
type Key struct {
	// ID identifies the key in signatures (e.g. "enforcement-2026-01").
	ID string

	// Secret is the raw HMAC key material.
	Secret []byte
}

// Signer signs with a single active key and verifies against a ring of
// known keys, so rotation does not break verification of old events.
// A Signer is immutable after construction and safe for concurrent use.
type Signer struct {
	active Key
	ring   map[string][]byte
}

// New creates a signer with the given active key plus any retired keys
// that remaining ledger events may still reference.
func New(active Key, retired ...Key) (*Signer, error) {
	if active.ID == "" {
		return nil, fmt.Errorf("active key id is empty")
	}
	if len(active.Secret) == 0 {
		return nil, fmt.Errorf("active key %q has no secret", active.ID)
	}

	ring := make(map[string][]byte, len(retired)+1)
	ring[active.ID] = active.Secret
	for _, k := range retired {
		if k.ID == "" || len(k.Secret) == 0 {
			return nil, fmt.Errorf("retired key is incomplete")
		}
		if _, dup := ring[k.ID]; dup {
			return nil, fmt.Errorf("duplicate key id %q", k.ID)
		}
		ring[k.ID] = k.Secret
	}

	return &Signer{active: active, ring: ring}, nil
}

// KeyID returns the active signing key id.
func (s *Signer) KeyID() string {
	return s.active.ID
}

// Algorithm returns the signature scheme identifier.
func (s *Signer) Algorithm() string {
	return AlgorithmHMACSHA256
}

// Sign computes the content hash and signature for an event. The hash is
// hex SHA-256 over the canonical serialization of {payload,
// previous_event_hash, timestamp}; the signature is a base64 HMAC-SHA256
// over the same bytes using the active key.
func (s *Signer) Sign(payload json.RawMessage, prevEventHash string, ts time.Time) (eventHash, signature string, err error) {
	canonical, err := CanonicalBytes(payload, prevEventHash, ts)
	if err != nil {
		return "", "", err
	}

	digest := sha256.Sum256(canonical)
	eventHash = hex.EncodeToString(digest[:])

	mac := hmac.New(sha256.New, s.active.Secret)
	mac.Write(canonical)
	signature = base64.StdEncoding.EncodeToString(mac.Sum(nil))

	return eventHash, signature, nil
}

// Verify recomputes the hash and signature for an event and compares them
// against the stored values. It returns nil when both match, or one of
// ErrHashMismatch, ErrSignatureInvalid, ErrUnknownKey.
func (s *Signer) Verify(payload json.RawMessage, prevEventHash string, ts time.Time, eventHash, signature, keyID string) error {
	canonical, err := CanonicalBytes(payload, prevEventHash, ts)
	if err != nil {
		return err
	}

	digest := sha256.Sum256(canonical)
	if hex.EncodeToString(digest[:]) != eventHash {
		return ErrHashMismatch
	}

	secret, ok := s.ring[keyID]
	if !ok {
		return ErrUnknownKey
	}

	mac := hmac.New(sha256.New, secret)
	mac.Write(canonical)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrSignatureInvalid
	}

	return nil
}
