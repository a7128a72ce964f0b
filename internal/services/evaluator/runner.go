package evaluator

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

type Sweeper interface {
	Sweep(ctx context.Context) (Result, error)
}

// Runner fires a sweep immediately and then once per interval. Failures are
// logged and the next tick retries.
type Runner struct {
	log      *zap.Logger
	uc       Sweeper
	interval time.Duration
}

func NewRunner(log *zap.Logger, uc Sweeper, interval time.Duration) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Runner{log: log.With(zap.String("component", "evaluator.runner")), uc: uc, interval: interval}
}

func (r *Runner) tick(ctx context.Context) {
	_, err := r.uc.Sweep(ctx)
	switch {
	case err == nil:
	case errors.Is(err, ErrSweepRunning):
		r.log.Info("sweep skipped, another one is running")
	case ctx.Err() != nil:
	default:
		r.log.Warn("sweep failed", zap.Error(err))
	}
}

func (r *Runner) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.log.Info("evaluator started", zap.Duration("interval", r.interval))
	r.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}
