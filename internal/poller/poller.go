// Package poller runs the recurring cache refresh loops. Each poller is an
// owned, cancellable task tied to the session's context; when the context
// ends the timer is released, never left firing in the background.
package poller

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Poller invokes tick on a fixed interval until its context is cancelled.
type Poller struct {
	name     string
	interval time.Duration
	tick     func(ctx context.Context) error
	logger   *zap.Logger
	kick     chan struct{}
}

// New creates a poller. Tick errors are logged and the loop keeps going;
// degraded data is the cache's problem to signal, not a reason to stop
// polling.
func New(name string, interval time.Duration, tick func(ctx context.Context) error, logger *zap.Logger) *Poller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Poller{
		name:     name,
		interval: interval,
		tick:     tick,
		logger:   logger.With(zap.String("poller", name)),
		kick:     make(chan struct{}, 1),
	}
}

// Run executes an immediate first tick and then loops until ctx is done.
// Kicked ticks run between scheduled ones without resetting the ticker's
// phase.
func (p *Poller) Run(ctx context.Context) error {
	p.logger.Info("poller started", zap.Duration("interval", p.interval))

	p.runTick(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("poller stopped")
			return ctx.Err()
		case <-ticker.C:
			p.runTick(ctx)
		case <-p.kick:
			p.runTick(ctx)
		}
	}
}

// Kick requests one out-of-band tick. Requests arriving while one is already
// queued coalesce.
func (p *Poller) Kick() {
	select {
	case p.kick <- struct{}{}:
	default:
	}
}

func (p *Poller) runTick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if err := p.tick(ctx); err != nil {
		p.logger.Warn("tick failed, keeping previous data", zap.Error(err))
	}
}
