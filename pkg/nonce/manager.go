package nonce

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Nonce is a single-use token. Created on issuance, mutated exactly once
// (marked consumed) on first valid use, then permanently invalid.
type Nonce struct {
	Token      string    `json:"token"`
	IssuedAt   time.Time `json:"issued_at"`
	ExpiresAt  time.Time `json:"expires_at"`
	Consumed   bool      `json:"consumed"`
	ConsumedAt time.Time `json:"consumed_at,omitempty"`
}

// Store is the persistence interface for nonces. Consume must be atomic
// per token: when two consumptions of the same token race, exactly one
// returns nil and the other returns ALREADY_CONSUMED.
type Store interface {
	// Insert records a freshly issued nonce.
	Insert(ctx context.Context, n *Nonce) error

	// Consume marks the token consumed. It returns a *ValidationError
	// with code UNKNOWN, EXPIRED, or ALREADY_CONSUMED on failure.
	Consume(ctx context.Context, token string, now time.Time) error

	// Sweep removes expired unconsumed tokens and consumed tokens older
	// than the retention window, returning the number removed.
	Sweep(ctx context.Context, now time.Time, retainConsumed time.Duration) (int64, error)

	// Close releases resources held by the backend.
	Close() error
}

// Config contains configuration for the nonce manager.
type Config struct {
	// TTL is how long an issued token stays consumable.
	// Default: 10 minutes
	TTL time.Duration

	// RetainConsumed is how long consumed tokens are kept before sweeping,
	// so late replays of a consumed token still report ALREADY_CONSUMED
	// rather than UNKNOWN.
	// Default: 2 * TTL
	RetainConsumed time.Duration

	// SweepSchedule is the cron expression for background sweeping.
	// Empty disables the sweeper.
	// Default: "*/5 * * * *"
	SweepSchedule string
}

// DefaultConfig returns the default nonce configuration.
func DefaultConfig() *Config {
	return &Config{
		TTL:            10 * time.Minute,
		RetainConsumed: 20 * time.Minute,
		SweepSchedule:  "*/5 * * * *",
	}
}

// Manager issues and consumes single-use tokens over a Store.
type Manager struct {
	store  Store
	config *Config
	logger *slog.Logger
}

// NewManager creates a nonce manager.
func NewManager(store Store, config *Config, logger *slog.Logger) *Manager {
	if config == nil {
		config = DefaultConfig()
	}
	if config.TTL <= 0 {
		config.TTL = 10 * time.Minute
	}
	if config.RetainConsumed <= 0 {
		config.RetainConsumed = 2 * config.TTL
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Manager{
		store:  store,
		config: config,
		logger: logger.With("component", "nonce.manager"),
	}
}

// Issue creates and stores a fresh token. Auto-issued and caller-requested
// tokens both pass through here, so every token is tracked identically
// regardless of origin.
func (m *Manager) Issue(ctx context.Context) (*Nonce, error) {
	now := time.Now().UTC()
	n := &Nonce{
		Token:     uuid.NewString(),
		IssuedAt:  now,
		ExpiresAt: now.Add(m.config.TTL),
	}

	if err := m.store.Insert(ctx, n); err != nil {
		return nil, err
	}

	m.logger.Debug("nonce issued", "expires_at", n.ExpiresAt)
	return n, nil
}

// ValidateAndConsume consumes the token if it is known, unexpired, and
// unconsumed. Failures carry a *ValidationError code; any other error is
// a store fault.
func (m *Manager) ValidateAndConsume(ctx context.Context, token string) error {
	err := m.store.Consume(ctx, token, time.Now().UTC())
	if err != nil {
		if code, ok := CodeOf(err); ok {
			m.logger.Debug("nonce rejected", "code", code)
		}
		return err
	}
	return nil
}

// Sweep removes stale tokens once. The background sweeper calls this on
// its schedule; it is also callable directly (e.g. from tests or a CLI).
func (m *Manager) Sweep(ctx context.Context) (int64, error) {
	removed, err := m.store.Sweep(ctx, time.Now().UTC(), m.config.RetainConsumed)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		m.logger.Info("swept stale nonces", "removed", removed)
	}
	return removed, nil
}

// Close releases the underlying store.
func (m *Manager) Close() error {
	return m.store.Close()
}
