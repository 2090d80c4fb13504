package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/tankwatch/internal/domain"
	"github.com/couchcryptid/tankwatch/internal/observability"
)

// Source produces full snapshots of the fleet.
type Source interface {
	Fetch(ctx context.Context) (domain.Snapshot, error)
}

// Poller drives an Engine from a Source at a fixed interval.
type Poller struct {
	source   Source
	engine   *Engine
	clock    clockwork.Clock
	interval time.Duration
	timeout  time.Duration
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewPoller creates a Poller. timeout bounds each fetch; zero means the
// interval itself.
func NewPoller(source Source, engine *Engine, clock clockwork.Clock, interval, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Poller {
	if timeout <= 0 {
		timeout = interval
	}
	return &Poller{
		source:   source,
		engine:   engine,
		clock:    clock,
		interval: interval,
		timeout:  timeout,
		logger:   logger.With("poller", engine.Name()),
		metrics:  metrics,
	}
}

// Run polls once immediately and then on every tick until ctx is cancelled.
// Cycles never overlap; ticks that fire during a slow cycle are dropped.
func (p *Poller) Run(ctx context.Context) error {
	p.logger.Info("poller started", "interval", p.interval)
	p.metrics.PollersRunning.Inc()
	defer p.metrics.PollersRunning.Dec()

	ticker := p.clock.NewTicker(p.interval)
	defer ticker.Stop()

	p.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("poller stopping", "reason", ctx.Err())
			return nil
		case <-ticker.Chan():
			p.poll(ctx)
		}
	}
}

// PollOnce runs a single fetch-reconcile cycle. A failed cycle leaves the
// engine untouched and returns the error.
func (p *Poller) PollOnce(ctx context.Context) error {
	cycleCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	snap, err := p.source.Fetch(cycleCtx)
	if err != nil {
		return err
	}
	p.engine.Apply(cycleCtx, snap)
	return nil
}

func (p *Poller) poll(ctx context.Context) {
	cycleID := uuid.NewString()
	start := p.clock.Now()

	err := p.PollOnce(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		outcome := "fetch_error"
		if errors.Is(err, domain.ErrParse) {
			outcome = "parse_error"
		}
		p.metrics.PollCycles.WithLabelValues(p.engine.Name(), outcome).Inc()
		p.logger.Error("poll cycle failed", "cycle_id", cycleID, "outcome", outcome, "error", err)
		return
	}

	p.metrics.PollCycles.WithLabelValues(p.engine.Name(), "success").Inc()
	p.metrics.PollDuration.WithLabelValues(p.engine.Name()).Observe(p.clock.Since(start).Seconds())
	p.logger.Debug("poll cycle complete",
		"cycle_id", cycleID,
		"devices", len(p.engine.State().Devices),
	)
}
