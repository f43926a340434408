package service

import (
	"context"
	"time"

	"github.com/JSayWhat/go-auth-api/internal/logger"
	"github.com/JSayWhat/go-auth-api/internal/model"
)

// Sweeper periodically ends sessions idle past the threshold. It is pure
// session accounting: it stamps EndedAt and never revokes tokens. The sweep
// only ever transitions EndedAt from null to a timestamp, so racing a
// concurrent logout on the same session is harmless.
type Sweeper struct {
	sessions  model.SessionStore
	interval  time.Duration
	threshold time.Duration
	logger    *logger.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

func NewSweeper(sessions model.SessionStore, interval, threshold time.Duration, logger *logger.Logger) *Sweeper {
	return &Sweeper{
		sessions:  sessions,
		interval:  interval,
		threshold: threshold,
		logger:    logger,
	}
}

// Start launches the background sweep loop. An immediate sweep runs first
// so sessions abandoned across a restart are closed without waiting a tick.
func (s *Sweeper) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)

		s.sweep(ctx)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.sweep(ctx)
			}
		}
	}()

	s.logger.Info("session sweeper started",
		"interval", s.interval.String(),
		"idle_threshold", s.threshold.String())
}

// Stop terminates the loop and waits for the in-flight sweep, bounded by
// the context deadline.
func (s *Sweeper) Stop(ctx context.Context) error {
	if s.cancel == nil {
		return nil
	}
	s.cancel()

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	closed, err := s.sessions.SweepExpired(ctx, s.threshold)
	if err != nil {
		s.logger.Error("session sweep failed", "error", err.Error())
		return
	}
	if closed > 0 {
		s.logger.Info("closed idle sessions", "count", closed)
	}
}
