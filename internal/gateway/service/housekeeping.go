package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/toolgate/internal/gateway/store"
)

// Sweeper evicts idle in-memory sessions. Implemented by the protocol
// session registry.
type Sweeper interface {
	Sweep(now time.Time) int
}

// HousekeepingService periodically cleans up expired database records and
// drives the in-memory session sweep, so neither the tables nor the session
// map grow without bound.
type HousekeepingService struct {
	Store    store.Store
	Sessions Sweeper
	Logger   *slog.Logger
	Interval time.Duration

	// Internal channels for lifecycle management
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a new housekeeping service with the given
// interval. If interval is 0 or negative, defaults to 5 minutes.
func NewHousekeepingService(store store.Store, sessions Sweeper, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	return &HousekeepingService{
		Store:    store,
		Sessions: sessions,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
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
// Each step is independent, failures in one won't stop the others.
func (s *HousekeepingService) cleanup() {
	ctx := context.Background()

	if err := s.Store.AuthorizationCodes().DeleteExpiredAuthorizationCodes(ctx); err != nil {
		s.Logger.Error("failed to delete expired authorization codes", "error", err)
	}

	if err := s.Store.AccessTokens().DeleteExpiredAccessTokens(ctx); err != nil {
		s.Logger.Error("failed to delete expired access tokens", "error", err)
	}

	if s.Sessions != nil {
		if evicted := s.Sessions.Sweep(time.Now()); evicted > 0 {
			s.Logger.Info("evicted idle sessions", "count", evicted)
		}
	}

	s.Logger.Debug("housekeeping cleanup completed")
}
