// Package engine implements component C6: the scheduler that drives the
// periodic collect phase and the decoupled flush phase described in
// spec.md §4.6's state machine.
//
//	IDLE ──tick──► COLLECTING ──done──► BUFFERED
//	BUFFERED ── now-last_flush ≥ flush_interval ──► FLUSHING
//	BUFFERED ── otherwise ──► IDLE
//	FLUSHING ── all sinks ok ──► CLEARED (last_flush←now) ──► IDLE
//	FLUSHING ── any sink failed ──► RETAINED ──► IDLE
package engine

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"rtcollector/internal/buffer"
	"rtcollector/internal/registry"
	"rtcollector/internal/router"
	"rtcollector/internal/selfmetrics"
	"rtcollector/internal/taginjector"
	"rtcollector/pkg/telemetry"
)

// Config carries the operator-configurable scheduling parameters from
// spec.md §4.6.
type Config struct {
	Interval             time.Duration
	FlushInterval        time.Duration
	MaxBufferMetrics     int
	MaxBufferLogs        int
	WarnOnBufferOverflow bool
	GlobalTags           map[string]string
}

// normalize applies the flush-interval floor described in spec.md §4.6: if
// FlushInterval is unset it defaults to Interval; if it's shorter than
// Interval, a startup warning fires once and it is clamped up to Interval.
func (c Config) normalize(logger *logrus.Logger) Config {
	if c.FlushInterval == 0 {
		c.FlushInterval = c.Interval
	}
	if c.FlushInterval < c.Interval {
		logger.WithFields(logrus.Fields{
			"flush_interval": c.FlushInterval,
			"interval":       c.Interval,
		}).Warn("flush_interval is shorter than interval; treating it as equal to interval")
		c.FlushInterval = c.Interval
	}
	return c
}

// Engine is the cycle driver. It owns the buffer pair and the flush epoch;
// the registry and router are injected collaborators.
type Engine struct {
	cfg      Config
	logger   *logrus.Logger
	registry *registry.Registry
	router   *router.Router
	injector *taginjector.Injector
	buffers  *buffer.Pair
	metrics  *selfmetrics.Registry

	lastFlush time.Time
	now       func() time.Time
}

// SetMetrics attaches the self-observability registry. Nil is a valid
// no-op.
func (e *Engine) SetMetrics(m *selfmetrics.Registry) {
	e.metrics = m
}

// New constructs an Engine. now is the engine-start time, against which
// last_flush is initialized (spec.md §4.6).
func New(cfg Config, logger *logrus.Logger, reg *registry.Registry, r *router.Router, now time.Time) *Engine {
	cfg = cfg.normalize(logger)
	return &Engine{
		cfg:       cfg,
		logger:    logger,
		registry:  reg,
		router:    r,
		injector:  taginjector.New(cfg.GlobalTags),
		buffers:   buffer.NewPair(cfg.MaxBufferMetrics, cfg.MaxBufferLogs),
		lastFlush: now,
		now:       time.Now,
	}
}

// Run drives the scheduler until ctx is cancelled, sleeping Interval
// between cycles. It returns nil on clean cancellation.
func (e *Engine) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.cfg.Interval)
	defer ticker.Stop()

	for {
		e.runCycle(ctx, false, nil)

		e.logger.WithField("interval", e.cfg.Interval).Info("sleeping until next cycle")
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// CycleOutcome summarizes one RunCycle invocation, used by one-shot mode to
// decide the process exit code (spec.md §4.6).
type CycleOutcome struct {
	CollectedMetrics int
	CollectedLogs    int
	FlushAttempted   bool
	// FlushSucceeded is true only when every sink that had data to write
	// reported success; it gates whether the buffer was cleared.
	FlushSucceeded bool
	// FlushAnySucceeded is true when at least one sink's write succeeded
	// (or nothing needed writing); spec.md §4.6/§9 resolves the one-shot
	// exit code against this signal, not FlushSucceeded, since partial
	// delivery still counts as a successful run.
	FlushAnySucceeded bool
}

// RunOnce performs exactly one collect phase and an unconditional flush,
// skipping the interval gate, matching one-shot mode (spec.md §4.6,
// §6 CLI --once). onCollected, if non-nil, is handed this cycle's tagged
// batch right after collection but before the flush is attempted —
// main.py's --debug branch prints every collected metric before outputs
// run, and this is the hook --once --debug uses to do the same.
func (e *Engine) RunOnce(ctx context.Context, onCollected func(telemetry.Batch)) CycleOutcome {
	return e.runCycle(ctx, true, onCollected)
}

// RunCycle executes a single collect phase, always, and a flush phase when
// either force is true or the flush deadline has elapsed.
func (e *Engine) RunCycle(ctx context.Context, force bool) CycleOutcome {
	return e.runCycle(ctx, force, nil)
}

func (e *Engine) runCycle(ctx context.Context, force bool, onCollected func(telemetry.Batch)) CycleOutcome {
	e.logger.Info("cycle starting")
	cycleStart := time.Now()
	if e.metrics != nil {
		defer func() {
			e.metrics.CycleDuration.Observe(time.Since(cycleStart).Seconds())
		}()
	}

	batch, results := e.registry.CollectAll(ctx)
	for _, res := range results {
		e.logger.WithFields(logrus.Fields{
			"collector": res.Name,
			"duration":  res.Duration,
			"error":     res.Err != nil,
		}).Debug("collector result")
	}

	tagged := e.injector.Batch(batch)
	e.buffers.AppendMetrics(tagged.Metrics...)
	e.buffers.AppendLogs(tagged.Logs...)

	if onCollected != nil {
		onCollected(tagged)
	}

	if e.metrics != nil {
		e.metrics.MetricBufferFill.Set(float64(e.buffers.MetricLen()))
		e.metrics.LogBufferFill.Set(float64(e.buffers.LogLen()))
	}

	e.logger.WithFields(logrus.Fields{
		"metric_buffer_fill": e.buffers.MetricLen(),
		"metric_buffer_cap":  e.buffers.MetricCapacity(),
		"log_buffer_fill":    e.buffers.LogLen(),
		"log_buffer_cap":     e.buffers.LogCapacity(),
	}).Info("buffered cycle output")

	outcome := CycleOutcome{CollectedMetrics: len(tagged.Metrics), CollectedLogs: len(tagged.Logs)}

	now := e.now()
	dueForFlush := force || now.Sub(e.lastFlush) >= e.cfg.FlushInterval
	if !dueForFlush {
		return outcome
	}
	outcome.FlushAttempted = true

	trimResult := e.buffers.Trim()
	if trimResult.DroppedMetrics > 0 || trimResult.DroppedLogs > 0 {
		if e.metrics != nil {
			e.metrics.DroppedEntriesTotal.WithLabelValues("metrics").Add(float64(trimResult.DroppedMetrics))
			e.metrics.DroppedEntriesTotal.WithLabelValues("logs").Add(float64(trimResult.DroppedLogs))
		}
		if e.cfg.WarnOnBufferOverflow {
			e.logger.WithFields(logrus.Fields{
				"dropped_metrics": trimResult.DroppedMetrics,
				"dropped_logs":    trimResult.DroppedLogs,
				"metric_capacity": e.buffers.MetricCapacity(),
				"log_capacity":    e.buffers.LogCapacity(),
			}).Warn("buffer exceeded capacity; dropped oldest entries")
		}
	}

	snapshot := e.buffers.Snapshot()
	result := e.router.Flush(ctx, snapshot)
	outcome.FlushSucceeded = result.AllSucceeded
	outcome.FlushAnySucceeded = result.AnySucceeded

	if e.metrics != nil {
		if result.AllSucceeded {
			e.metrics.FlushSuccessTotal.Inc()
		} else {
			e.metrics.FlushFailureTotal.Inc()
		}
	}

	if result.AllSucceeded {
		e.buffers.Clear()
		e.lastFlush = now
	} else {
		e.logger.Warn("flush failed on at least one sink; retaining buffered data")
	}
	if e.metrics != nil {
		e.metrics.MetricBufferFill.Set(float64(e.buffers.MetricLen()))
		e.metrics.LogBufferFill.Set(float64(e.buffers.LogLen()))
	}
	return outcome
}

// LastFlush exposes the current flush epoch, for tests asserting the
// monotonicity invariant.
func (e *Engine) LastFlush() time.Time { return e.lastFlush }
