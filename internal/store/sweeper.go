package store

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"quantum-social/internal/logging"
)

// DefaultSweepInterval is well below the shortest default TTL (15s).
const DefaultSweepInterval = time.Second

type expirer interface {
	SweepExpired(now time.Time) int
}

// SweeperOptions configures a Sweeper.
type SweeperOptions struct {
	Interval time.Duration
	Now      func() time.Time
	Metrics  *Metrics
	Tracer   trace.Tracer
	Logger   *zap.Logger
}

// Sweeper periodically removes expired signals. Stopping it leaves the
// store's contents and subscriptions untouched.
type Sweeper struct {
	target   expirer
	interval time.Duration
	now      func() time.Time
	metrics  *Metrics
	tracer   trace.Tracer
	log      *zap.Logger

	quit      chan struct{}
	closeOnce sync.Once
}

func NewSweeper(target expirer, opts SweeperOptions) *Sweeper {
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = otel.Tracer("quantum-social/store")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sweeper{
		target:   target,
		interval: interval,
		now:      now,
		metrics:  opts.Metrics,
		tracer:   tracer,
		log:      logger,
		quit:     make(chan struct{}),
	}
}

// Interval reports the tick period.
func (sw *Sweeper) Interval() time.Duration { return sw.interval }

// Run sweeps on every tick until ctx is done or Close is called.
func (sw *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(sw.interval)
	defer ticker.Stop()
	sw.log.Info("sweeper started", zap.Duration("interval", sw.interval))
	for {
		select {
		case <-ctx.Done():
			sw.log.Info("sweeper stopped", zap.Error(ctx.Err()))
			return
		case <-sw.quit:
			sw.log.Info("sweeper stopped")
			return
		case <-ticker.C:
			sw.SweepOnce(ctx)
		}
	}
}

// SweepOnce runs a single pass immediately and returns the number of removed signals.
func (sw *Sweeper) SweepOnce(ctx context.Context) int {
	ctx, span := sw.tracer.Start(ctx, "store.sweep")
	defer span.End()

	start := time.Now()
	removed := sw.target.SweepExpired(sw.now())
	if sw.metrics != nil {
		sw.metrics.ObserveSweep(time.Since(start))
	}
	span.SetAttributes(attribute.Int("signals.removed", removed))
	if removed > 0 {
		logging.WithTrace(ctx, sw.log).Debug("sweep removed expired signals", zap.Int("removed", removed))
	}
	return removed
}

// Close stops Run. It is safe to call more than once.
func (sw *Sweeper) Close() {
	sw.closeOnce.Do(func() {
		close(sw.quit)
	})
}
