package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"arbiter-hq/arbiter/internal/keylock"
	"arbiter-hq/arbiter/pkg/provenance"
	"arbiter-hq/arbiter/pkg/provenance/signer"
)

// Ledger is the single writer of signed events. It owns chain linkage:
// callers hand it a payload and it assigns sequence, timestamp,
// predecessor hash, and signature. Safe for concurrent use.
type Ledger struct {
	store  provenance.Store
	signer *signer.Signer
	locks  *keylock.KeyLock
	logger *slog.Logger
}

// New creates a ledger over the given store and signer.
func New(store provenance.Store, sgn *signer.Signer, logger *slog.Logger) (*Ledger, error) {
	if store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if sgn == nil {
		return nil, fmt.Errorf("signer cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Ledger{
		store:  store,
		signer: sgn,
		locks:  keylock.New(keylock.DefaultStripes),
		logger: logger.With("component", "provenance.ledger"),
	}, nil
}

// Append signs the payload and appends it as the next event of the trace.
// The tail read, hash computation, signing, and persist happen under the
// trace's lock stripe, so two concurrent appends to one trace serialize
// and can never interleave or fork the chain.
func (l *Ledger) Append(ctx context.Context, traceID string, eventType provenance.EventType, payload any) (*provenance.SignedEvent, error) {
	if traceID == "" {
		return nil, fmt.Errorf("trace id cannot be empty")
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize event payload: %w", err)
	}

	l.locks.Lock(traceID)
	defer l.locks.Unlock(traceID)

	tail, err := l.store.Tail(ctx, traceID)
	if err != nil {
		return nil, fmt.Errorf("failed to read chain tail: %w", err)
	}

	sequence := 0
	prevHash := provenance.GenesisHash
	if tail != nil {
		sequence = tail.Sequence + 1
		prevHash = tail.EventHash
	}

	ts := time.Now().UTC()
	eventHash, signature, err := l.signer.Sign(raw, prevHash, ts)
	if err != nil {
		return nil, fmt.Errorf("failed to sign event: %w", err)
	}

	event := &provenance.SignedEvent{
		TraceID:       traceID,
		Sequence:      sequence,
		Timestamp:     ts,
		Type:          eventType,
		Payload:       raw,
		EventHash:     eventHash,
		PrevEventHash: prevHash,
		Signature:     signature,
		KeyID:         l.signer.KeyID(),
		Algorithm:     l.signer.Algorithm(),
	}

	if err := l.store.Append(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to persist event: %w", err)
	}

	l.logger.Debug("event appended",
		"trace_id", traceID,
		"sequence_index", sequence,
		"event_type", eventType,
		"event_hash", eventHash,
	)

	return event, nil
}

// Read returns the full ordered event chain for a trace.
func (l *Ledger) Read(ctx context.Context, traceID string) ([]*provenance.SignedEvent, error) {
	return l.store.Read(ctx, traceID)
}

// Close releases the underlying store.
func (l *Ledger) Close() error {
	return l.store.Close()
}
