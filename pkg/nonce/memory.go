package nonce

import (
	"context"
	"hash/fnv"
	"sync"
	"time"
)

// memoryShards is the shard count for the in-memory store. Tokens hash
// across shards so consumption of different tokens rarely contends.
const memoryShards = 64

// MemoryStore implements Store with a sharded in-memory map. Consumption
// is atomic per token: the owning shard's mutex covers the read-check-
// mark sequence.
type MemoryStore struct {
	shards [memoryShards]memoryShard
}

type memoryShard struct {
	mu      sync.Mutex
	entries map[string]*Nonce
}

// NewMemoryStore creates an empty in-memory nonce store.
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{}
	for i := range s.shards {
		s.shards[i].entries = make(map[string]*Nonce)
	}
	return s
}

func (s *MemoryStore) shard(token string) *memoryShard {
	h := fnv.New32a()
	h.Write([]byte(token))
	return &s.shards[h.Sum32()%memoryShards]
}

// Insert records a freshly issued nonce.
func (s *MemoryStore) Insert(ctx context.Context, n *Nonce) error {
	shard := s.shard(n.Token)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	stored := *n
	shard.entries[n.Token] = &stored
	return nil
}

// Consume atomically marks the token consumed, or reports why it cannot
// be.
func (s *MemoryStore) Consume(ctx context.Context, token string, now time.Time) error {
	shard := s.shard(token)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	entry, ok := shard.entries[token]
	if !ok {
		return NewValidationError(CodeUnknown)
	}
	if entry.Consumed {
		return NewValidationError(CodeAlreadyConsumed)
	}
	if now.After(entry.ExpiresAt) {
		return NewValidationError(CodeExpired)
	}

	entry.Consumed = true
	entry.ConsumedAt = now
	return nil
}

// Sweep removes expired unconsumed tokens and consumed tokens past the
// retention window.
func (s *MemoryStore) Sweep(ctx context.Context, now time.Time, retainConsumed time.Duration) (int64, error) {
	var removed int64
	for i := range s.shards {
		shard := &s.shards[i]
		shard.mu.Lock()
		for token, entry := range shard.entries {
			stale := false
			switch {
			case entry.Consumed:
				stale = now.Sub(entry.ConsumedAt) > retainConsumed
			default:
				stale = now.After(entry.ExpiresAt)
			}
			if stale {
				delete(shard.entries, token)
				removed++
			}
		}
		shard.mu.Unlock()
	}
	return removed, nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}
