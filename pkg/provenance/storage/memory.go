package storage

import (
	"context"
	"sync"

	"arbiter-hq/arbiter/pkg/provenance"
)

// MemoryStore implements provenance.Store with an in-memory map keyed by
// trace id. Events live in an arena-style slice per trace, indexed by
// sequence number; the only link between events is the content hash.
type MemoryStore struct {
	traces map[string][]*provenance.SignedEvent
	mu     sync.RWMutex
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		traces: make(map[string][]*provenance.SignedEvent),
	}
}

// Append persists a signed event, rejecting duplicate sequence slots.
func (s *MemoryStore) Append(ctx context.Context, event *provenance.SignedEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	chain := s.traces[event.TraceID]
	if event.Sequence != len(chain) {
		return &provenance.DuplicateEventError{TraceID: event.TraceID, Sequence: event.Sequence}
	}

	// Copy so later caller mutations cannot reach stored state.
	stored := *event
	s.traces[event.TraceID] = append(chain, &stored)
	return nil
}

// Tail returns the last event of a trace, or nil for an empty trace.
func (s *MemoryStore) Tail(ctx context.Context, traceID string) (*provenance.SignedEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chain := s.traces[traceID]
	if len(chain) == 0 {
		return nil, nil
	}
	tail := *chain[len(chain)-1]
	return &tail, nil
}

// Read returns all events of a trace in sequence order.
func (s *MemoryStore) Read(ctx context.Context, traceID string) ([]*provenance.SignedEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chain := s.traces[traceID]
	out := make([]*provenance.SignedEvent, len(chain))
	for i, ev := range chain {
		copied := *ev
		out[i] = &copied
	}
	return out, nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}
