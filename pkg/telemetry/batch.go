package telemetry

// Batch is the canonical tagged-variant return shape for a collector
// invocation: a homogeneous pair of metric and log slices.
//
// §9 of the specification calls out the source's three divergent collector
// return shapes (a two-key map, a two-tuple, and a flat mixed sequence) as a
// pattern that should be replaced with a single tagged variant plus adapter
// helpers for the legacy shapes. Batch is that variant; internal/registry
// provides the adapters.
type Batch struct {
	Metrics []Metric
	Logs    []LogRecord
}

// Append merges another batch's contents into b and returns the result.
func (b Batch) Append(other Batch) Batch {
	b.Metrics = append(b.Metrics, other.Metrics...)
	b.Logs = append(b.Logs, other.Logs...)
	return b
}

// Capability is a set of batch kinds a Sink advertises support for.
type Capability uint8

const (
	CapabilityMetrics Capability = 1 << iota
	CapabilityLogs
)

// Has reports whether c includes the given capability bit.
func (c Capability) Has(want Capability) bool {
	return c&want != 0
}

func (c Capability) String() string {
	switch c {
	case CapabilityMetrics:
		return "metrics"
	case CapabilityLogs:
		return "logs"
	case CapabilityMetrics | CapabilityLogs:
		return "metrics+logs"
	default:
		return "none"
	}
}
