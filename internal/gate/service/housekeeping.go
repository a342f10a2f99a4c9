package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/gatehouselabs/gatehouse/internal/gate/store"
)

// HousekeepingService periodically cleans up expired database records
// and stale counter keys to prevent unbounded growth.
type HousekeepingService struct {
	Store    store.Store
	Counters store.KeyedCounterStore
	Logger   *slog.Logger
	Interval time.Duration

	// CounterWindow is the widest sliding window any consumer of the
	// counter store uses; keys idle longer than this are dropped.
	CounterWindow time.Duration

	// Internal channels for lifecycle management
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a new housekeeping service with the given
// interval. If interval is 0 or negative, defaults to 1 hour.
func NewHousekeepingService(st store.Store, counters store.KeyedCounterStore, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = 1 * time.Hour
	}

	return &HousekeepingService{
		Store:         st,
		Counters:      counters,
		Logger:        logger,
		Interval:      interval,
		CounterWindow: DefaultRateLimitWindow,
		stopCh:        make(chan struct{}),
		doneCh:        make(chan struct{}),
	}
}

// Start begins the background worker that periodically runs cleanup.
// This is non-blocking and should be called after the database is ready.
// Call Stop() to gracefully shutdown the worker.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop gracefully shuts down the background worker.
// Blocks until the worker has finished any in-progress cleanup.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

// run is the main background worker loop.
func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// Run cleanup immediately on startup
	s.cleanup()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopCh:
			return
		}
	}
}

// cleanup performs the actual deletion of expired records.
// Each deletion is independent - failures in one won't stop the others.
func (s *HousekeepingService) cleanup() {
	ctx := context.Background()
	s.Logger.Debug("starting housekeeping cleanup")

	now := time.Now().UTC()

	if err := s.Store.Sessions().DeleteExpiredSessions(ctx, now); err != nil {
		s.Logger.Error("failed to delete expired sessions", "error", err)
	} else {
		s.Logger.Debug("deleted expired sessions")
	}

	if err := s.Counters.Prune(ctx, s.CounterWindow, now); err != nil {
		s.Logger.Error("failed to prune stale counters", "error", err)
	} else {
		s.Logger.Debug("pruned stale counters")
	}

	s.Logger.Debug("housekeeping cleanup completed")
}
