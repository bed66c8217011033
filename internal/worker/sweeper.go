package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// EventCompleter moves ended events to their terminal lifecycle status.
type EventCompleter interface {
	CompleteEnded(ctx context.Context, now time.Time) (int64, error)
}

// Sweeper periodically completes active events whose end time has passed.
type Sweeper struct {
	events   EventCompleter
	interval time.Duration
	logger   *zap.Logger
}

// NewSweeper creates a sweeper. Interval must be positive.
func NewSweeper(events EventCompleter, interval time.Duration, logger *zap.Logger) *Sweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{events: events, interval: interval, logger: logger}
}

// Run sweeps until ctx is cancelled. One sweep runs immediately on start.
func (s *Sweeper) Run(ctx context.Context) {
	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("sweeper stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	n, err := s.events.CompleteEnded(ctx, time.Now())
	if err != nil {
		s.logger.Error("event completion sweep failed", zap.Error(err))
		return
	}
	if n > 0 {
		s.logger.Info("events completed", zap.Int64("count", n))
	}
}
