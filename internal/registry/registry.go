// Package registry implements component C3: the collector registry and
// adapter. It holds every registered collector, invokes each uniformly once
// per cycle regardless of whether it is a plain function or a persistent
// background collector, and normalizes whatever shape it returns into the
// canonical telemetry.Batch.
package registry

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"rtcollector/internal/selfmetrics"
	"rtcollector/pkg/telemetry"
)

// slowThreshold is the per-collector duration above which the adapter logs
// at warn instead of info (spec.md §4.3).
const slowThreshold = 1 * time.Second

type entry struct {
	descriptor telemetry.CollectorDescriptor
	started    bool
}

// Registry owns the ordered set of registered collectors.
type Registry struct {
	logger  *logrus.Logger
	entries []*entry
	byName  map[string]*entry
	metrics *selfmetrics.Registry
}

// New returns an empty Registry.
func New(logger *logrus.Logger) *Registry {
	return &Registry{logger: logger, byName: make(map[string]*entry)}
}

// SetMetrics attaches the self-observability registry. Nil is a valid
// no-op, letting callers skip self-metrics entirely (spec.md §6's
// self_metrics.enabled toggle).
func (r *Registry) SetMetrics(m *selfmetrics.Registry) {
	r.metrics = m
}

// Register adds a collector. Names must be unique; collectors are invoked in
// registration order every cycle (spec.md §5, "sequentially in registration
// order").
func (r *Registry) Register(desc telemetry.CollectorDescriptor) error {
	if desc.Name == "" {
		return fmt.Errorf("registry: collector name must not be empty")
	}
	if _, exists := r.byName[desc.Name]; exists {
		return fmt.Errorf("registry: collector %q already registered", desc.Name)
	}
	if desc.Invoke == nil && desc.Persistent == nil {
		return fmt.Errorf("registry: collector %q has neither Invoke nor Persistent set", desc.Name)
	}
	e := &entry{descriptor: desc}
	r.entries = append(r.entries, e)
	r.byName[desc.Name] = e
	return nil
}

// Start starts every persistent collector's background resource. Called
// once at engine startup.
func (r *Registry) Start(ctx context.Context) error {
	for _, e := range r.entries {
		if !e.descriptor.IsPersistent() {
			continue
		}
		if err := e.descriptor.Persistent.Start(ctx); err != nil {
			return fmt.Errorf("registry: starting persistent collector %q: %w", e.descriptor.Name, err)
		}
		e.started = true
	}
	return nil
}

// Stop releases every persistent collector's background resource. Called
// once at shutdown; best-effort, collecting but not aborting on error.
func (r *Registry) Stop() []error {
	var errs []error
	for _, e := range r.entries {
		if !e.started {
			continue
		}
		if err := e.descriptor.Persistent.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("registry: stopping persistent collector %q: %w", e.descriptor.Name, err))
		}
	}
	return errs
}

// Result records one collector's outcome for a single cycle.
type Result struct {
	Name     string
	Duration time.Duration
	Err      error
	Batch    telemetry.Batch
}

// CollectAll invokes every registered collector once, in registration
// order, and returns the union of their outputs plus per-collector
// diagnostics. A collector that errors or panics does not stop the
// remaining collectors from running (spec.md §4.9, testable property 8).
func (r *Registry) CollectAll(ctx context.Context) (telemetry.Batch, []Result) {
	var combined telemetry.Batch
	results := make([]Result, 0, len(r.entries))

	for _, e := range r.entries {
		result := r.invokeOne(ctx, e)
		results = append(results, result)
		combined = combined.Append(result.Batch)
	}
	return combined, results
}

func (r *Registry) invokeOne(ctx context.Context, e *entry) (result Result) {
	name := e.descriptor.Name
	result.Name = name

	defer func() {
		if p := recover(); p != nil {
			result.Err = fmt.Errorf("collector %q panicked: %v", name, p)
			result.Batch = errorBatch(name, result.Err)
			if r.metrics != nil {
				r.metrics.CollectorErrorsTotal.WithLabelValues(name).Inc()
			}
		}
	}()

	start := time.Now()
	var (
		batch telemetry.Batch
		err   error
	)
	if e.descriptor.IsPersistent() {
		batch, err = e.descriptor.Persistent.Collect(ctx)
	} else {
		batch, err = e.descriptor.Invoke(ctx)
	}
	duration := time.Since(start)
	if r.metrics != nil {
		r.metrics.CollectorDuration.WithLabelValues(name).Observe(duration.Seconds())
	}

	result.Duration = duration
	if err != nil {
		result.Err = err
		result.Batch = errorBatch(name, err)
		if r.metrics != nil {
			r.metrics.CollectorErrorsTotal.WithLabelValues(name).Inc()
		}
		r.logger.WithFields(logrus.Fields{"collector": name, "duration": duration}).WithError(err).Error("collector invocation failed")
		return result
	}

	result.Batch = batch
	fields := logrus.Fields{"collector": name, "metrics": len(batch.Metrics), "logs": len(batch.Logs), "duration": duration}
	if duration > slowThreshold {
		r.logger.WithFields(fields).Warn("collector took longer than 1s")
	} else {
		r.logger.WithFields(fields).Info("collector finished")
	}
	return result
}

func errorBatch(collectorName string, err error) telemetry.Batch {
	record, recErr := telemetry.NewLogRecord(
		fmt.Sprintf("collector %q failed: %v", collectorName, err),
		telemetry.LevelError,
		0,
		map[string]string{"collector": collectorName},
		nil,
	)
	if recErr != nil {
		return telemetry.Batch{}
	}
	return telemetry.Batch{Logs: []telemetry.LogRecord{record}}
}

// Normalize exposes the shape adapter for collectors constructed from the
// legacy map/tuple/flat-sequence return conventions (§4.3). New collectors
// should prefer returning telemetry.Batch directly; Normalize lets an
// adapter function bridge plugin code written the older way.
func Normalize(logger *logrus.Logger, collectorName string, raw interface{}) telemetry.Batch {
	return normalize(logger, collectorName, raw)
}

// ResolvePlatformAlias implements the config-time platform aliasing rule
// from spec.md §6: on Darwin, a "linux_*" collector name is rewritten to
// "macos_*" if a collector registered under that name exists. known should
// contain every name that is actually available to select from (not
// necessarily yet registered). If the alias target is not available, the
// original name is returned unchanged.
func ResolvePlatformAlias(goos, name string, known map[string]bool) string {
	if goos != "darwin" || !strings.HasPrefix(name, "linux_") {
		return name
	}
	alias := "macos_" + strings.TrimPrefix(name, "linux_")
	if known[alias] {
		return alias
	}
	return name
}
