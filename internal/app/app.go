// Package app wires the collection-and-flush engine together from a loaded
// configuration: building the collector registry and sink router from the
// static catalogs, constructing the scheduler, and composing its run loop
// with the self-metrics HTTP server and OS signal handling as oklog/run
// actors, following the run.Group pattern used for service composition in
// the GoogleCloudPlatform/prometheus-engine example.
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/oklog/run"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"rtcollector/internal/collectors"
	"rtcollector/internal/config"
	"rtcollector/internal/engine"
	"rtcollector/internal/registry"
	"rtcollector/internal/router"
	"rtcollector/internal/selfmetrics"
	"rtcollector/internal/sinks"
	"rtcollector/pkg/telemetry"
)

// App owns a fully-wired engine plus its ambient run.Group actors.
type App struct {
	cfg     *config.Config
	logger  *logrus.Logger
	reg     *registry.Registry
	eng     *engine.Engine
	metrics *selfmetrics.Registry
	promReg *prometheus.Registry
}

// New loads path, builds every enabled collector and sink through their
// static catalogs, and assembles the engine. Unknown collector/output names
// log a warning and are skipped rather than failing startup (spec.md §7).
func New(path string) (*App, error) {
	logger := logrus.New()
	if err := configureLogger(logger, "info", "json"); err != nil {
		return nil, err
	}

	cfg, err := config.Load(path, logger)
	if err != nil {
		return nil, fmt.Errorf("app: loading config: %w", err)
	}
	if err := configureLogger(logger, cfg.App.LogLevel, cfg.App.LogFormat); err != nil {
		return nil, fmt.Errorf("app: configuring logger: %w", err)
	}

	reg := registry.New(logger)
	knownCollectors := collectors.Names()
	for _, entry := range cfg.Inputs {
		name := registry.ResolvePlatformAlias(runtime.GOOS, entry.Name, knownCollectors)
		desc, err := collectors.Build(name, entry.Options, logger)
		if err != nil {
			logger.WithError(err).WithField("input", name).Warn("skipping unknown or unbuildable input")
			continue
		}
		if err := reg.Register(desc); err != nil {
			logger.WithError(err).WithField("input", name).Warn("skipping input that failed to register")
		}
	}

	outputs := buildSinks(cfg.Outputs, logger)
	metricsOnly := buildSinks(cfg.MetricsOnlyOutputs, logger)
	logsOnly := buildSinks(cfg.LogsOnlyOutputs, logger)
	rt := router.New(logger, outputs, metricsOnly, logsOnly)

	eng := engine.New(engine.Config{
		Interval:             time.Duration(cfg.Interval) * time.Second,
		FlushInterval:        time.Duration(cfg.FlushInterval) * time.Second,
		MaxBufferMetrics:     cfg.MaxBufferSize,
		MaxBufferLogs:        cfg.MaxBufferSize,
		WarnOnBufferOverflow: cfg.WarnOnBuffer,
		GlobalTags:           cfg.Tags,
	}, logger, reg, rt, time.Now())

	promReg := prometheus.NewRegistry()
	metricsReg := selfmetrics.NewRegistry(promReg)
	reg.SetMetrics(metricsReg)
	rt.SetMetrics(metricsReg)
	eng.SetMetrics(metricsReg)

	return &App{cfg: cfg, logger: logger, reg: reg, eng: eng, metrics: metricsReg, promReg: promReg}, nil
}

func buildSinks(entries []config.PluginEntry, logger *logrus.Logger) []telemetry.Sink {
	known := sinks.Names()
	var out []telemetry.Sink
	for _, entry := range entries {
		if !known[entry.Name] {
			logger.WithField("output", entry.Name).Warn("skipping unknown output")
			continue
		}
		sink, err := sinks.Build(entry.Name, entry.Options, logger)
		if err != nil {
			logger.WithError(err).WithField("output", entry.Name).Warn("skipping output that failed to build")
			continue
		}
		out = append(out, sink)
	}
	return out
}

func configureLogger(logger *logrus.Logger, level, format string) error {
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("app: parsing log_level %q: %w", level, err)
	}
	logger.SetLevel(parsed)
	if format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return nil
}

// RunOnce performs exactly one collect-and-flush cycle (CLI --once) and
// reports the exit code spec.md §4.6/§9 assigns: 0 if at least one sink
// accepted the flushed data (or there was nothing to flush), 1 only if a
// flush was attempted and every sink failed. A config mixing one healthy
// sink with one failing sink still exits 0 — partial delivery is not
// total failure.
func (a *App) RunOnce(ctx context.Context, debug bool) int {
	if err := a.reg.Start(ctx); err != nil {
		a.logger.WithError(err).Error("failed to start persistent collectors")
		return 1
	}
	defer a.stopPersistent()

	var onCollected func(telemetry.Batch)
	if debug {
		onCollected = a.dumpBatch
	}

	outcome := a.eng.RunOnce(ctx, onCollected)
	if debug {
		a.logger.WithFields(logrus.Fields{
			"collected_metrics":   outcome.CollectedMetrics,
			"collected_logs":      outcome.CollectedLogs,
			"flush_attempted":     outcome.FlushAttempted,
			"flush_succeeded":     outcome.FlushSucceeded,
			"flush_any_succeeded": outcome.FlushAnySucceeded,
		}).Info("one-shot cycle complete")
	}
	if outcome.FlushAttempted && !outcome.FlushAnySucceeded {
		return 1
	}
	return 0
}

// dumpBatch prints every collected metric and log record before the flush
// is attempted, matching main.py's "--debug" branch
// (`if args.debug: for m in all_metrics: print(m)`).
func (a *App) dumpBatch(batch telemetry.Batch) {
	for _, m := range batch.Metrics {
		fmt.Printf("%s %v %d %v\n", m.Name, m.Value, m.Timestamp, m.Labels)
	}
	for _, l := range batch.Logs {
		fmt.Printf("[%s] %s %v\n", l.Level, l.Message, l.Tags)
	}
}

// Run starts the engine's periodic scheduler alongside the self-metrics
// HTTP server and OS signal handling, all as oklog/run actors: any one
// actor exiting (server crash, fatal signal) tears down the others.
func (a *App) Run(ctx context.Context) error {
	if err := a.reg.Start(ctx); err != nil {
		return fmt.Errorf("app: starting persistent collectors: %w", err)
	}
	defer a.stopPersistent()

	var g run.Group

	runCtx, cancel := context.WithCancel(ctx)
	g.Add(func() error {
		return a.eng.Run(runCtx)
	}, func(error) {
		cancel()
	})

	if a.cfg.SelfMetrics.Enabled {
		server := selfmetrics.NewServer(a.cfg.SelfMetrics.Addr, a.promReg)
		g.Add(func() error {
			return server.Run(runCtx)
		}, func(error) {
			_ = server.Close()
		})
	}

	{
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		stop := make(chan struct{})
		g.Add(func() error {
			select {
			case sig := <-sigCh:
				a.logger.WithField("signal", sig.String()).Info("received shutdown signal")
			case <-stop:
			}
			return nil
		}, func(error) {
			close(stop)
		})
	}

	return g.Run()
}

func (a *App) stopPersistent() {
	for _, err := range a.reg.Stop() {
		a.logger.WithError(err).Warn("error stopping persistent collector")
	}
}
