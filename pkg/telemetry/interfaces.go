package telemetry

import "context"

// CollectorFunc is the uniform shape a collector invocation normalizes to
// once internal/registry has accepted any of the legacy return shapes.
// It is called once per cycle for non-persistent collectors.
type CollectorFunc func(ctx context.Context) (Batch, error)

// PersistentCollector is implemented by collectors that own a background
// resource (a listener socket, a tailed file, a goroutine) spanning many
// cycles rather than being re-constructed each cycle. Start is called once
// before the first cycle (Registry.Start); Collect is called once per cycle to drain whatever the
// background resource accumulated since the previous cycle; Stop releases
// the resource on shutdown.
type PersistentCollector interface {
	Start(ctx context.Context) error
	Collect(ctx context.Context) (Batch, error)
	Stop() error
}

// CollectorDescriptor names and configures a single registered collector.
type CollectorDescriptor struct {
	// Name is the unique, stable identifier used in logs, rate-key scoping,
	// and collector-specific config lookup.
	Name string
	// Invoke is called each cycle for non-persistent collectors. Nil when
	// Persistent is set.
	Invoke CollectorFunc
	// Persistent is set instead of Invoke for collectors with a long-lived
	// background resource.
	Persistent PersistentCollector
	// Config is the collector's own option bag, opaque to the engine.
	Config map[string]interface{}
}

// IsPersistent reports whether this descriptor wraps a PersistentCollector.
func (d CollectorDescriptor) IsPersistent() bool {
	return d.Persistent != nil
}

// Sink is the uniform interface every output destination implements.
type Sink interface {
	// Name identifies the sink in logs and statistics.
	Name() string
	// Accepts advertises which batch kinds this sink can receive.
	Accepts() Capability
	// Write performs a side-effecting delivery of a homogeneous batch of
	// metrics, logs, or both (per Accepts). Implementations must be safe to
	// call repeatedly with growing batch sizes; the engine calls Write
	// serially, never concurrently, for a given sink.
	Write(ctx context.Context, batch Batch) error
}
