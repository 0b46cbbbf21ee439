// Package router implements capability-based sink fan-out with per-sink
// failure isolation (component C5 of the specification).
//
// §9 of the specification calls out the source's duck-typed sink capability
// checks (`supports_logs`, `supports_metrics`, `output_type`) as a pattern
// to replace with an explicit capability set advertised through a uniform
// interface (telemetry.Sink.Accepts). Three separate source-level output
// lists remain — outputs, metrics_only_outputs, logs_only_outputs — and
// dispatch for all three runs through Flush: sinks in outputs are filtered
// by their advertised capability, while the two single-kind lists receive
// the batch kind their name implies regardless of capability.
package router

import (
	"context"

	"github.com/sirupsen/logrus"

	"rtcollector/internal/selfmetrics"
	"rtcollector/pkg/telemetry"
)

// Router owns the three sink lists and fans a batch out to each.
type Router struct {
	logger *logrus.Logger

	outputs            []telemetry.Sink
	metricsOnlyOutputs []telemetry.Sink
	logsOnlyOutputs    []telemetry.Sink
	metrics            *selfmetrics.Registry
}

// New returns a Router over the three configured sink lists. Sinks in
// metricsOnlyOutputs/logsOnlyOutputs are expected to advertise the matching
// capability, but the router does not require it: it writes the capped
// batch to them unconditionally the way their list name implies.
func New(logger *logrus.Logger, outputs, metricsOnlyOutputs, logsOnlyOutputs []telemetry.Sink) *Router {
	return &Router{
		logger:             logger,
		outputs:            outputs,
		metricsOnlyOutputs: metricsOnlyOutputs,
		logsOnlyOutputs:    logsOnlyOutputs,
	}
}

// SetMetrics attaches the self-observability registry. Nil is a valid
// no-op.
func (r *Router) SetMetrics(m *selfmetrics.Registry) {
	r.metrics = m
}

// sinkOutcome records one sink's write attempt for the per-sink log line.
type sinkOutcome struct {
	sinkName string
	kind     string
	count    int
	err      error
}

// FlushResult separates two distinct flush signals that spec.md §4.6/§9
// resolves differently: AllSucceeded (every attempted sink wrote
// successfully) gates whether the engine may clear its buffer and advance
// last_flush, while AnySucceeded (at least one attempted sink wrote
// successfully, or nothing was attempted at all) gates the one-shot exit
// code — a config with one healthy sink and one failing sink should still
// exit 0.
type FlushResult struct {
	AllSucceeded bool
	AnySucceeded bool
}

// Flush attempts delivery of batch to every configured sink. AllSucceeded
// is true only when every sink that had a non-empty batch to write
// reported success — a single failure anywhere does not stop the
// remaining sinks from being attempted (failure isolation, spec.md
// §4.5/§4.9). AnySucceeded is true if at least one attempted write
// succeeded, or if no sink had anything to write.
func (r *Router) Flush(ctx context.Context, batch telemetry.Batch) FlushResult {
	allSuccessful := true
	anySucceeded := false
	attempted := false
	var outcomes []sinkOutcome

	for _, sink := range r.outputs {
		caps := sink.Accepts()
		switch {
		case caps.Has(telemetry.CapabilityMetrics) && caps.Has(telemetry.CapabilityLogs):
			// Metrics first, then logs, as two independent attempts so one
			// kind's failure does not suppress delivery of the other.
			if len(batch.Metrics) > 0 {
				outcomes = append(outcomes, r.attempt(ctx, sink, "metrics", telemetry.Batch{Metrics: batch.Metrics}, &allSuccessful))
			}
			if len(batch.Logs) > 0 {
				outcomes = append(outcomes, r.attempt(ctx, sink, "logs", telemetry.Batch{Logs: batch.Logs}, &allSuccessful))
			}
		case caps.Has(telemetry.CapabilityMetrics):
			if len(batch.Metrics) > 0 {
				outcomes = append(outcomes, r.attempt(ctx, sink, "metrics", telemetry.Batch{Metrics: batch.Metrics}, &allSuccessful))
			}
		case caps.Has(telemetry.CapabilityLogs):
			if len(batch.Logs) > 0 {
				outcomes = append(outcomes, r.attempt(ctx, sink, "logs", telemetry.Batch{Logs: batch.Logs}, &allSuccessful))
			}
		}
	}

	if len(batch.Metrics) > 0 {
		for _, sink := range r.metricsOnlyOutputs {
			outcomes = append(outcomes, r.attempt(ctx, sink, "metrics", telemetry.Batch{Metrics: batch.Metrics}, &allSuccessful))
		}
	}
	if len(batch.Logs) > 0 {
		for _, sink := range r.logsOnlyOutputs {
			outcomes = append(outcomes, r.attempt(ctx, sink, "logs", telemetry.Batch{Logs: batch.Logs}, &allSuccessful))
		}
	}

	for _, o := range outcomes {
		attempted = true
		outcomeLabel := "success"
		if o.err == nil {
			anySucceeded = true
		} else {
			outcomeLabel = "failure"
		}
		if r.metrics != nil {
			r.metrics.SinkWritesTotal.WithLabelValues(o.sinkName, outcomeLabel).Inc()
		}
		fields := logrus.Fields{"sink": o.sinkName, "kind": o.kind, "count": o.count}
		if o.err != nil {
			r.logger.WithFields(fields).WithError(o.err).Error("sink write failed")
		} else {
			r.logger.WithFields(fields).Info("sink write succeeded")
		}
	}

	return FlushResult{AllSucceeded: allSuccessful, AnySucceeded: anySucceeded || !attempted}
}

func (r *Router) attempt(ctx context.Context, sink telemetry.Sink, kind string, b telemetry.Batch, allSuccessful *bool) sinkOutcome {
	err := sink.Write(ctx, b)
	if err != nil {
		*allSuccessful = false
	}
	count := len(b.Metrics) + len(b.Logs)
	return sinkOutcome{sinkName: sink.Name(), kind: kind, count: count, err: err}
}
