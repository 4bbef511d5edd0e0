package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/vitos/crypto_price_tracker/internal/domain"
	"go.uber.org/zap"
)

// Scheduler re-runs a refresh at a fixed interval. The interval timer is
// suspended while offline and resumed, with an immediate refresh, on reconnect.
type Scheduler struct {
	interval time.Duration
	tick     func(ctx context.Context)
	logger   *zap.Logger

	mu      sync.Mutex
	online  bool
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
	wake    chan struct{}
}

func NewScheduler(interval time.Duration, tick func(ctx context.Context), logger *zap.Logger) *Scheduler {
	return &Scheduler{
		interval: interval,
		tick:     tick,
		logger:   logger,
		online:   true,
		wake:     make(chan struct{}, 1),
	}
}

// Start runs one refresh immediately and then every interval until Stop.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.running = true

	go s.loop(ctx, s.done)
	s.logger.Info("Scheduler started", zap.Duration("interval", s.interval))
}

// Stop halts the loop and waits for a running refresh to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	cancel, done := s.cancel, s.done
	s.running = false
	s.mu.Unlock()

	cancel()
	<-done
	s.logger.Info("Scheduler stopped")
}

// SetOnline is the connectivity observer hook.
func (s *Scheduler) SetOnline(online bool) {
	s.mu.Lock()
	changed := s.online != online
	s.online = online
	s.mu.Unlock()

	if !changed {
		return
	}
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Scheduler) Online() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.online
}

func (s *Scheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	suspended := false
	if s.Online() {
		s.tick(ctx)
	} else {
		ticker.Stop()
		suspended = true
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.Online() {
				s.tick(ctx)
			}
		case <-s.wake:
			switch online := s.Online(); {
			case online && suspended:
				ticker.Reset(s.interval)
				suspended = false
				s.logger.Info("Scheduler resumed")
				s.tick(ctx)
			case !online && !suspended:
				ticker.Stop()
				suspended = true
				s.logger.Info("Scheduler suspended")
			}
		}
	}
}

// RefreshTick is the polling job: refresh the tracked asset, then the
// comparison set when comparison mode is active.
func RefreshTick(tracker *TrackerService, compare *CompareService, logger *zap.Logger) func(ctx context.Context) {
	return func(ctx context.Context) {
		if _, _, err := tracker.Refresh(ctx); err != nil && !errors.Is(err, domain.ErrResolutionInFlight) {
			logger.Error("Scheduled refresh failed", zap.Error(err))
		}
		if ids := tracker.Session().Compare(); len(ids) >= 2 && compare != nil {
			if _, err := compare.Compare(ctx, ids); err != nil {
				logger.Error("Scheduled comparison failed", zap.Error(err))
			}
		}
	}
}
