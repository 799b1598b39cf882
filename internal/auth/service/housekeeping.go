package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aussiebroadwan/sessionauth/internal/auth/metrics"
)

// DefaultHousekeepingInterval applies when no positive interval is given.
const DefaultHousekeepingInterval = time.Hour

// HousekeepingService periodically purges expired session tokens to bound
// table growth. Token resolution reclaims expired tokens on its own, so a
// missed run only delays cleanup.
type HousekeepingService struct {
	Tokens   *TokenStore
	Logger   *slog.Logger
	Interval time.Duration
	Metrics  *metrics.Metrics

	mu      sync.Mutex
	started bool
	stopped bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewHousekeepingService creates a housekeeping service. A non-positive
// interval falls back to DefaultHousekeepingInterval.
func NewHousekeepingService(
	tokens *TokenStore,
	logger *slog.Logger,
	interval time.Duration,
	m *metrics.Metrics,
) *HousekeepingService {
	if interval <= 0 {
		interval = DefaultHousekeepingInterval
	}

	return &HousekeepingService{
		Tokens:   tokens,
		Logger:   logger,
		Interval: interval,
		Metrics:  m,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start launches the background worker. The first purge runs immediately.
// Calls after the first, or after Stop, do nothing.
func (s *HousekeepingService) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started || s.stopped {
		return
	}
	s.started = true

	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop shuts the worker down and waits for an in-flight purge to return.
// It is safe to call more than once, and before Start.
func (s *HousekeepingService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.stopped = true
	close(s.stopCh)

	if !s.started {
		return
	}
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

// RunOnce performs a single purge and reports how many tokens it removed.
func (s *HousekeepingService) RunOnce(ctx context.Context) (int64, error) {
	n, err := s.Tokens.DeleteExpired(ctx)
	if err != nil {
		return 0, err
	}
	s.Metrics.HousekeepingDeleted(n)
	return n, nil
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		s.tick()

		select {
		case <-ticker.C:
		case <-s.stopCh:
			return
		}
	}
}

// tick is bounded by the interval so a wedged store cannot stall Stop for
// longer than one period.
func (s *HousekeepingService) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), s.Interval)
	defer cancel()

	n, err := s.RunOnce(ctx)
	if err != nil {
		s.Logger.Error("failed to delete expired session tokens", "error", err)
		return
	}
	s.Logger.Info("housekeeping cleanup completed", "deleted_session_tokens", n)
}
