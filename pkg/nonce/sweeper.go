package nonce

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"
)

// Sweeper runs Manager.Sweep on a cron schedule so stale tokens do not
// accumulate.
type Sweeper struct {
	manager *Manager
	cron    *cron.Cron
	mu      sync.Mutex
	logger  *slog.Logger
	running bool
}

// NewSweeper creates a sweeper for the given manager.
func NewSweeper(manager *Manager) *Sweeper {
	return &Sweeper{
		manager: manager,
		cron:    cron.New(),
		logger:  slog.Default().With("component", "nonce.sweeper"),
	}
}

// Start begins scheduled sweeping. An empty schedule disables the
// sweeper; Start then does nothing and returns nil.
func (s *Sweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	schedule := s.manager.config.SweepSchedule
	if schedule == "" {
		s.logger.Info("sweep schedule not configured, skipping sweeper")
		return nil
	}
	if s.running {
		return fmt.Errorf("sweeper already running")
	}

	if _, err := cron.ParseStandard(schedule); err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}

	_, err := s.cron.AddFunc(schedule, func() {
		if _, err := s.manager.Sweep(ctx); err != nil {
			s.logger.Error("nonce sweep failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule sweep: %w", err)
	}

	s.cron.Start()
	s.running = true
	s.logger.Info("nonce sweeper started", "schedule", schedule)
	return nil
}

// Stop halts scheduled sweeping and waits for an in-flight sweep to
// finish.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	<-s.cron.Stop().Done()
	s.running = false
	s.logger.Info("nonce sweeper stopped")
}
