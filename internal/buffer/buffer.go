// Package buffer implements the two-phase decoupled buffering described in
// component C4 of the specification: two independent bounded FIFO stores —
// one for metrics, one for logs — with a drop-oldest overflow policy applied
// at the flush boundary rather than at append time.
package buffer

import "rtcollector/pkg/telemetry"

// Pair owns the metric and log queues the scheduler appends into every
// cycle. It is not safe for concurrent use; the scheduler is its sole owner
// (spec.md §5, "Buffers are owned exclusively by the scheduler").
type Pair struct {
	metricCapacity int
	logCapacity    int

	metrics []telemetry.Metric
	logs    []telemetry.LogRecord
}

// NewPair returns a Pair with the given per-buffer capacities. A
// non-positive capacity means "unbounded" (never drops).
func NewPair(metricCapacity, logCapacity int) *Pair {
	return &Pair{metricCapacity: metricCapacity, logCapacity: logCapacity}
}

// AppendMetrics adds metrics to the buffer. Append is always accepted —
// capacity is enforced only at the flush boundary via Trim.
func (p *Pair) AppendMetrics(metrics ...telemetry.Metric) {
	p.metrics = append(p.metrics, metrics...)
}

// AppendLogs adds log records to the buffer. Append is always accepted.
func (p *Pair) AppendLogs(logs ...telemetry.LogRecord) {
	p.logs = append(p.logs, logs...)
}

// MetricLen and LogLen report current buffer fill, used for the per-cycle
// progress gauges the scheduler logs (spec.md §4.6).
func (p *Pair) MetricLen() int { return len(p.metrics) }
func (p *Pair) LogLen() int    { return len(p.logs) }

// MetricCapacity and LogCapacity report the configured ceilings.
func (p *Pair) MetricCapacity() int { return p.metricCapacity }
func (p *Pair) LogCapacity() int    { return p.logCapacity }

// TrimResult reports how many entries of each kind were dropped by Trim.
type TrimResult struct {
	DroppedMetrics int
	DroppedLogs    int
}

// Trim enforces capacity by evicting the oldest entries, to be called only
// at the flush boundary (spec.md invariant: "Metric buffer size ≤
// max_buffer_metrics ... enforced at flush boundary, not at append").
func (p *Pair) Trim() TrimResult {
	var result TrimResult

	if p.metricCapacity > 0 && len(p.metrics) > p.metricCapacity {
		result.DroppedMetrics = len(p.metrics) - p.metricCapacity
		p.metrics = p.metrics[result.DroppedMetrics:]
	}
	if p.logCapacity > 0 && len(p.logs) > p.logCapacity {
		result.DroppedLogs = len(p.logs) - p.logCapacity
		p.logs = p.logs[result.DroppedLogs:]
	}
	return result
}

// Snapshot returns the buffered contents without clearing them, for a sink
// router to attempt delivery. The returned slices must not be mutated by
// the caller.
func (p *Pair) Snapshot() telemetry.Batch {
	return telemetry.Batch{Metrics: p.metrics, Logs: p.logs}
}

// Clear empties both buffers. Called only after a fully successful flush —
// the flush-epoch monotonicity invariant depends on the caller never
// calling Clear on a partial failure.
func (p *Pair) Clear() {
	p.metrics = nil
	p.logs = nil
}
