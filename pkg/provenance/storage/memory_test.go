package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"arbiter-hq/arbiter/pkg/provenance"
)

func testEvent(traceID string, seq int, prevHash string) *provenance.SignedEvent {
	return &provenance.SignedEvent{
		TraceID:       traceID,
		Sequence:      seq,
		Timestamp:     time.Now().UTC(),
		Type:          provenance.EventDecision,
		Payload:       json.RawMessage(fmt.Sprintf(`{"seq":%d}`, seq)),
		EventHash:     fmt.Sprintf("hash-%s-%d", traceID, seq),
		PrevEventHash: prevHash,
		Signature:     "sig",
		KeyID:         "test-key",
		Algorithm:     "HMAC-SHA256",
	}
}

func TestMemoryStore_AppendAndRead(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	prev := provenance.GenesisHash
	for i := 0; i < 3; i++ {
		ev := testEvent("t1", i, prev)
		if err := store.Append(ctx, ev); err != nil {
			t.Fatalf("Append(%d) error = %v", i, err)
		}
		prev = ev.EventHash
	}

	events, err := store.Read(ctx, "t1")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("len(events) = %d, want 3", len(events))
	}
	for i, ev := range events {
		if ev.Sequence != i {
			t.Errorf("events[%d].Sequence = %d", i, ev.Sequence)
		}
	}
}

func TestMemoryStore_Tail(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	tail, err := store.Tail(ctx, "empty")
	if err != nil {
		t.Fatalf("Tail() error = %v", err)
	}
	if tail != nil {
		t.Error("Tail() on an empty trace should be nil")
	}

	if err := store.Append(ctx, testEvent("t1", 0, provenance.GenesisHash)); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := store.Append(ctx, testEvent("t1", 1, "hash-t1-0")); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	tail, err = store.Tail(ctx, "t1")
	if err != nil {
		t.Fatalf("Tail() error = %v", err)
	}
	if tail.Sequence != 1 {
		t.Errorf("Tail().Sequence = %d, want 1", tail.Sequence)
	}
}

func TestMemoryStore_RejectsSequenceConflict(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.Append(ctx, testEvent("t1", 0, provenance.GenesisHash)); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	err := store.Append(ctx, testEvent("t1", 0, provenance.GenesisHash))
	var dup *provenance.DuplicateEventError
	if !errors.As(err, &dup) {
		t.Fatalf("error = %v, want DuplicateEventError", err)
	}

	// Gaps are rejected the same way.
	if err := store.Append(ctx, testEvent("t1", 5, "x")); err == nil {
		t.Error("appending past the end should fail")
	}
}

func TestMemoryStore_TracesAreIndependent(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.Append(ctx, testEvent("a", 0, provenance.GenesisHash)); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := store.Append(ctx, testEvent("b", 0, provenance.GenesisHash)); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	events, _ := store.Read(ctx, "a")
	if len(events) != 1 {
		t.Errorf("trace a has %d events, want 1", len(events))
	}
}

func TestMemoryStore_ReadReturnsCopies(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.Append(ctx, testEvent("t1", 0, provenance.GenesisHash)); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	events, _ := store.Read(ctx, "t1")
	events[0].EventHash = "mutated"

	again, _ := store.Read(ctx, "t1")
	if again[0].EventHash == "mutated" {
		t.Error("mutating a read result leaked into the store")
	}
}
