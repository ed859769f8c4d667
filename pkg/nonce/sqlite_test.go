package nonce

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "nonces.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore_InsertAndConsume(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	n := &Nonce{Token: "tok-1", IssuedAt: now, ExpiresAt: now.Add(time.Minute)}
	if err := store.Insert(ctx, n); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	if err := store.Consume(ctx, "tok-1", now); err != nil {
		t.Fatalf("Consume() error = %v", err)
	}

	err := store.Consume(ctx, "tok-1", now)
	if code, ok := CodeOf(err); !ok || code != CodeAlreadyConsumed {
		t.Errorf("replay = %v, want ALREADY_CONSUMED", err)
	}
}

func TestSQLiteStore_Consume_Classification(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	t.Run("unknown token", func(t *testing.T) {
		err := store.Consume(ctx, "never-inserted", now)
		if code, ok := CodeOf(err); !ok || code != CodeUnknown {
			t.Errorf("error = %v, want UNKNOWN", err)
		}
	})

	t.Run("expired token", func(t *testing.T) {
		n := &Nonce{Token: "tok-old", IssuedAt: now.Add(-time.Hour), ExpiresAt: now.Add(-time.Minute)}
		if err := store.Insert(ctx, n); err != nil {
			t.Fatalf("Insert() error = %v", err)
		}
		err := store.Consume(ctx, "tok-old", now)
		if code, ok := CodeOf(err); !ok || code != CodeExpired {
			t.Errorf("error = %v, want EXPIRED", err)
		}
	})
}

func TestSQLiteStore_Sweep(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	// One live, one expired, one consumed past retention.
	live := &Nonce{Token: "live", IssuedAt: now, ExpiresAt: now.Add(time.Hour)}
	expired := &Nonce{Token: "expired", IssuedAt: now.Add(-time.Hour), ExpiresAt: now.Add(-time.Minute)}
	spent := &Nonce{Token: "spent", IssuedAt: now.Add(-time.Hour), ExpiresAt: now.Add(time.Hour)}

	for _, n := range []*Nonce{live, expired, spent} {
		if err := store.Insert(ctx, n); err != nil {
			t.Fatalf("Insert(%s) error = %v", n.Token, err)
		}
	}
	if err := store.Consume(ctx, "spent", now.Add(-30*time.Minute)); err != nil {
		t.Fatalf("Consume() error = %v", err)
	}

	removed, err := store.Sweep(ctx, now, 10*time.Minute)
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	if removed != 2 {
		t.Errorf("removed = %d, want 2", removed)
	}

	// The live token survived the sweep.
	if err := store.Consume(ctx, "live", now); err != nil {
		t.Errorf("live token should still consume, got %v", err)
	}
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nonces.db")
	ctx := context.Background()
	now := time.Now().UTC()

	store, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	n := &Nonce{Token: "tok-1", IssuedAt: now, ExpiresAt: now.Add(time.Hour)}
	if err := store.Insert(ctx, n); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if err := store.Consume(ctx, "tok-1", now); err != nil {
		t.Fatalf("Consume() error = %v", err)
	}
	store.Close()

	// A replay after restart still reports ALREADY_CONSUMED.
	reopened, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer reopened.Close()

	err = reopened.Consume(ctx, "tok-1", now)
	if code, ok := CodeOf(err); !ok || code != CodeAlreadyConsumed {
		t.Errorf("after reopen = %v, want ALREADY_CONSUMED", err)
	}
}
