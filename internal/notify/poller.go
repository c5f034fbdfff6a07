package notify

import (
	"context"
	"log/slog"
	"time"
)

// Evaluator is the application-side step the poller drives on each cycle.
type Evaluator interface {
	EvaluateNotifications(ctx context.Context) error
}

// Poller invokes the notification evaluation on a fixed period, plus once
// immediately at startup. Evaluation is synchronous, so the loop itself is
// the only suspension point.
type Poller struct {
	evaluator Evaluator
	interval  time.Duration
	logger    *slog.Logger
}

// NewPoller creates a Poller. A non-positive interval defaults to one minute.
func NewPoller(evaluator Evaluator, interval time.Duration, logger *slog.Logger) *Poller {
	if interval <= 0 {
		interval = time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{evaluator: evaluator, interval: interval, logger: logger}
}

// Run evaluates immediately, then on every tick until ctx is cancelled. The
// loop is torn down without waiting for in-flight work; the next process
// start simply re-evaluates from current state.
func (p *Poller) Run(ctx context.Context) error {
	p.runOnce(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.runOnce(ctx)
		}
	}
}

func (p *Poller) runOnce(ctx context.Context) {
	if err := p.evaluator.EvaluateNotifications(ctx); err != nil {
		p.logger.ErrorContext(ctx, "notification evaluation failed", "error", err)
	}
}
