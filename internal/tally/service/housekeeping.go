package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/tallyhq/tally/internal/tally/store"
)

// HousekeepingService periodically removes refresh tokens that can no longer
// be used, so logouts and expiries do not grow the table forever.
type HousekeepingService struct {
	Store    store.Store
	Logger   *slog.Logger
	Interval time.Duration

	// Now defaults to time.Now.
	Now func() time.Time

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a housekeeping service. If interval is 0 or
// negative, it defaults to 1 hour.
func NewHousekeepingService(st store.Store, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = time.Hour
	}

	return &HousekeepingService{
		Store:    st,
		Logger:   logger,
		Interval: interval,
		Now:      time.Now,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start runs a cleanup immediately and then once per interval until Stop.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop blocks until any in-progress cleanup has finished.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	s.Cleanup(context.Background())

	for {
		select {
		case <-ticker.C:
			s.Cleanup(context.Background())
		case <-s.stopCh:
			return
		}
	}
}

// Cleanup deletes revoked and expired refresh tokens once.
func (s *HousekeepingService) Cleanup(ctx context.Context) int64 {
	n, err := s.Store.RefreshTokens().DeleteDeadRefreshTokens(ctx, s.Now().UTC())
	if err != nil {
		s.Logger.Error("failed to delete dead refresh tokens", "error", err)
		return 0
	}

	s.Logger.Info("housekeeping cleanup completed", "refresh_tokens_deleted", n)
	return n
}
