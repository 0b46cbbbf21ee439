// Package rate converts monotonically non-decreasing counter samples into
// per-second rates across successive observations.
//
// This is the Go-native replacement for the source's module-level mutable
// rate-tracking dict (§9 of the specification): state lives in a Helper
// value the caller owns, guarded by a single mutex so it is safe to share
// across parallel collectors.
package rate

import (
	"sort"
	"strings"
	"sync"
)

type observation struct {
	value     float64
	timestamp int64 // milliseconds
}

// Helper tracks the last observation per key and derives per-second rates.
// The zero value is ready to use.
type Helper struct {
	mu    sync.Mutex
	state map[string]observation
}

// NewHelper returns a ready-to-use Helper.
func NewHelper() *Helper {
	return &Helper{state: make(map[string]observation)}
}

// Rate computes the per-second delta for key given a new (value, timestamp)
// observation. timestamp is in milliseconds since epoch. resetCeiling, when
// non-nil, is the counter's wrap point: a decreasing value is treated as a
// wrap rather than a reset, and the rate is computed across the wrap.
//
// It returns (rate, true) when a rate could be derived, or (0, false) when:
//   - this is the first observation for key,
//   - the clock regressed (timestamp <= previous timestamp), or
//   - the counter decreased with no resetCeiling supplied (a reset — the
//     new observation becomes the new baseline with no rate emitted).
func (h *Helper) Rate(key string, value float64, timestamp int64, resetCeiling *float64) (float64, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state == nil {
		h.state = make(map[string]observation)
	}

	prev, ok := h.state[key]
	if !ok {
		h.state[key] = observation{value: value, timestamp: timestamp}
		return 0, false
	}

	deltaT := float64(timestamp-prev.timestamp) / 1000.0
	if deltaT <= 0 {
		// Clock regressed: skip without updating stored state.
		return 0, false
	}

	deltaV := value - prev.value
	if deltaV < 0 {
		if resetCeiling != nil {
			deltaV = (*resetCeiling - prev.value) + value
		} else {
			h.state[key] = observation{value: value, timestamp: timestamp}
			return 0, false
		}
	}

	h.state[key] = observation{value: value, timestamp: timestamp}
	return deltaV / deltaT, true
}

// Forget removes any stored observation for key, e.g. when a collector is
// deregistered and its rate-key scope should no longer linger.
func (h *Helper) Forget(key string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.state, key)
}

// ComposeKey builds a stable rate key from a metric name and its label set.
// Labels are canonicalized by sorting on name so that insertion order never
// affects the resulting key.
func ComposeKey(metricName string, labels map[string]string) string {
	if len(labels) == 0 {
		return metricName
	}
	names := make([]string, 0, len(labels))
	for k := range labels {
		names = append(names, k)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(metricName)
	b.WriteByte('|')
	for i, name := range names {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(labels[name])
	}
	return b.String()
}
