// Package taginjector merges operator-supplied global labels into every
// metric and log record emitted during a cycle (component C7).
//
// The merge direction is fixed by the specification: global tags win on key
// collision (spec.md §4.7, §9 "Tag merge direction"). The source's call
// sites disagreed on this — some did `item.labels.update(self.tags)`
// (global wins), others did the reverse — and the specification resolves
// the ambiguity in favor of global-wins, since cross-cutting dimensions
// like env/region/host should not be shadowable by a collector.
package taginjector

import "rtcollector/pkg/telemetry"

// Injector holds the configured global tag set.
type Injector struct {
	globalTags map[string]string
}

// New returns an Injector for the given global tag set. The map is copied.
func New(globalTags map[string]string) *Injector {
	copied := make(map[string]string, len(globalTags))
	for k, v := range globalTags {
		copied[k] = v
	}
	return &Injector{globalTags: copied}
}

// Metric returns m with the global tags merged into its labels, global tags
// overwriting any collector-supplied value on key collision.
func (i *Injector) Metric(m telemetry.Metric) telemetry.Metric {
	return m.WithLabels(i.globalTags)
}

// Log returns r with the global tags merged into its tag set under the same
// global-wins rule.
func (i *Injector) Log(r telemetry.LogRecord) telemetry.LogRecord {
	return r.WithTags(i.globalTags)
}

// Batch applies Metric and Log across every entry in b and returns a new
// Batch; b itself is left unmodified.
func (i *Injector) Batch(b telemetry.Batch) telemetry.Batch {
	out := telemetry.Batch{
		Metrics: make([]telemetry.Metric, len(b.Metrics)),
		Logs:    make([]telemetry.LogRecord, len(b.Logs)),
	}
	for idx, m := range b.Metrics {
		out.Metrics[idx] = i.Metric(m)
	}
	for idx, r := range b.Logs {
		out.Logs[idx] = i.Log(r)
	}
	return out
}
