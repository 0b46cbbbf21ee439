package engine

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rtcollector/internal/registry"
	"rtcollector/internal/router"
	"rtcollector/internal/selfmetrics"
	"rtcollector/pkg/telemetry"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type recordingSink struct {
	name   string
	caps   telemetry.Capability
	writes []telemetry.Batch
	fail   bool
}

func (s *recordingSink) Name() string                 { return s.name }
func (s *recordingSink) Accepts() telemetry.Capability { return s.caps }
func (s *recordingSink) Write(_ context.Context, b telemetry.Batch) error {
	if s.fail {
		return assert.AnError
	}
	s.writes = append(s.writes, b)
	return nil
}

func newFixedClock(start time.Time) func() time.Time {
	current := start
	return func() time.Time { return current }
}

// S1 (happy path): one collector emits a metric, global tags merge in, one
// sink accepts metrics. After one cycle the sink receives it labeled with
// the global tag and the buffer empties.
func TestEngine_S1HappyPath(t *testing.T) {
	reg := registry.New(testLogger())
	require.NoError(t, reg.Register(telemetry.CollectorDescriptor{
		Name: "cpu",
		Invoke: func(ctx context.Context) (telemetry.Batch, error) {
			m, err := telemetry.NewMetric("cpu", 42.0, 1000, map[string]string{"core": "0"})
			require.NoError(t, err)
			return telemetry.Batch{Metrics: []telemetry.Metric{m}}, nil
		},
	}))

	sink := &recordingSink{name: "s", caps: telemetry.CapabilityMetrics}
	r := router.New(testLogger(), []telemetry.Sink{sink}, nil, nil)

	start := time.Unix(0, 0)
	eng := New(Config{
		Interval:      time.Second,
		MaxBufferMetrics: 100,
		MaxBufferLogs:    100,
		GlobalTags:       map[string]string{"host": "h1"},
	}, testLogger(), reg, r, start)

	outcome := eng.RunCycle(context.Background(), true)
	require.True(t, outcome.FlushAttempted)
	require.True(t, outcome.FlushSucceeded)

	require.Len(t, sink.writes, 1)
	require.Len(t, sink.writes[0].Metrics, 1)
	got := sink.writes[0].Metrics[0]
	assert.Equal(t, "h1", got.Labels["host"])
	assert.Equal(t, "0", got.Labels["core"])
	assert.Zero(t, eng.buffers.MetricLen(), "buffer must be empty after a successful flush")
}

// S2 (flush decoupled): interval=1, flush_interval=3. Collectors produce 5
// metrics each cycle. After cycles at t=1,2,3 the sink receives one batch
// of 15; after t=4,5,6 another batch of 15.
func TestEngine_S2FlushDecoupled(t *testing.T) {
	reg := registry.New(testLogger())
	require.NoError(t, reg.Register(telemetry.CollectorDescriptor{
		Name: "burst",
		Invoke: func(ctx context.Context) (telemetry.Batch, error) {
			var ms []telemetry.Metric
			for i := 0; i < 5; i++ {
				m, err := telemetry.NewMetric("burst", float64(i), 1000, nil)
				require.NoError(t, err)
				ms = append(ms, m)
			}
			return telemetry.Batch{Metrics: ms}, nil
		},
	}))

	sink := &recordingSink{name: "s", caps: telemetry.CapabilityMetrics}
	r := router.New(testLogger(), []telemetry.Sink{sink}, nil, nil)

	start := time.Unix(0, 0)
	eng := New(Config{
		Interval:      time.Second,
		FlushInterval: 3 * time.Second,
		MaxBufferMetrics: 1000,
		MaxBufferLogs:    1000,
	}, testLogger(), reg, r, start)
	eng.now = newFixedClock(start)

	advance := func(d time.Duration) { start = start.Add(d); eng.now = func() time.Time { return start } }

	advance(time.Second) // t=1
	eng.RunCycle(context.Background(), false)
	advance(time.Second) // t=2
	eng.RunCycle(context.Background(), false)
	advance(time.Second) // t=3: now-lastFlush(0)=3 >= 3 -> flush
	eng.RunCycle(context.Background(), false)

	require.Len(t, sink.writes, 1)
	assert.Len(t, sink.writes[0].Metrics, 15, "three cycles (t=1..3) each contributed 5 metrics before the first flush fires")

	advance(time.Second) // t=4
	eng.RunCycle(context.Background(), false)
	advance(time.Second) // t=5
	eng.RunCycle(context.Background(), false)
	advance(time.Second) // t=6: now-lastFlush(3)=3 -> flush
	eng.RunCycle(context.Background(), false)

	require.Len(t, sink.writes, 2)
	assert.Len(t, sink.writes[1].Metrics, 15)
}

// S3 (sink failure retention): sink fails on first flush carrying 10
// metrics; 10 more are produced next cycle; second flush succeeds and
// delivers 20 metrics in order.
func TestEngine_S3RetentionOnSinkFailure(t *testing.T) {
	reg := registry.New(testLogger())
	batchOf := func(n int, offset int) telemetry.Batch {
		var ms []telemetry.Metric
		for i := 0; i < n; i++ {
			m, _ := telemetry.NewMetric("m", float64(offset+i), 1000, nil)
			ms = append(ms, m)
		}
		return telemetry.Batch{Metrics: ms}
	}
	require.NoError(t, reg.Register(telemetry.CollectorDescriptor{
		Name: "ten",
		Invoke: func(ctx context.Context) (telemetry.Batch, error) {
			return batchOf(10, 0), nil
		},
	}))

	sink := &recordingSink{name: "s", caps: telemetry.CapabilityMetrics, fail: true}
	r := router.New(testLogger(), []telemetry.Sink{sink}, nil, nil)

	start := time.Unix(0, 0)
	eng := New(Config{Interval: time.Second, MaxBufferMetrics: 1000, MaxBufferLogs: 1000}, testLogger(), reg, r, start)

	outcome1 := eng.RunCycle(context.Background(), true)
	assert.True(t, outcome1.FlushAttempted)
	assert.False(t, outcome1.FlushSucceeded)
	assert.False(t, outcome1.FlushAnySucceeded, "the only configured sink failed, so nothing was delivered")
	assert.Equal(t, 10, eng.buffers.MetricLen(), "failed flush must retain the buffered batch")

	sink.fail = false
	outcome2 := eng.RunCycle(context.Background(), true)
	assert.True(t, outcome2.FlushSucceeded)
	assert.True(t, outcome2.FlushAnySucceeded)
	require.Len(t, sink.writes, 1, "only the successful flush should have recorded a write")
	assert.Len(t, sink.writes[0].Metrics, 20)
}

// Covers spec.md §4.6/§9's resolution that partial delivery (one sink ok,
// one sink failing) is not the same as total failure: FlushSucceeded
// (buffer-clear gate) is false, but FlushAnySucceeded (one-shot exit-code
// gate) is true.
func TestEngine_PartialSinkFailureStillReportsAnySucceeded(t *testing.T) {
	reg := registry.New(testLogger())
	require.NoError(t, reg.Register(telemetry.CollectorDescriptor{
		Name: "one",
		Invoke: func(ctx context.Context) (telemetry.Batch, error) {
			m, err := telemetry.NewMetric("m", 1, 1000, nil)
			require.NoError(t, err)
			return telemetry.Batch{Metrics: []telemetry.Metric{m}}, nil
		},
	}))

	healthy := &recordingSink{name: "healthy", caps: telemetry.CapabilityMetrics}
	failing := &recordingSink{name: "failing", caps: telemetry.CapabilityMetrics, fail: true}
	r := router.New(testLogger(), []telemetry.Sink{healthy, failing}, nil, nil)

	start := time.Unix(0, 0)
	eng := New(Config{Interval: time.Second, MaxBufferMetrics: 100, MaxBufferLogs: 100}, testLogger(), reg, r, start)

	outcome := eng.RunCycle(context.Background(), true)
	assert.True(t, outcome.FlushAttempted)
	assert.False(t, outcome.FlushSucceeded, "not every sink succeeded, so the buffer must not be cleared")
	assert.True(t, outcome.FlushAnySucceeded, "the healthy sink delivered, so this is not a total failure")
}

// S4 (buffer overflow): max_buffer_metrics=100, sink failing, collectors
// producing 40/cycle. After cycle 3 buffer is 120 before flush; flush drops
// 20 oldest; if sink still fails, buffer ends the cycle at 100.
func TestEngine_S4BufferOverflowDropsOldest(t *testing.T) {
	reg := registry.New(testLogger())
	require.NoError(t, reg.Register(telemetry.CollectorDescriptor{
		Name: "forty",
		Invoke: func(ctx context.Context) (telemetry.Batch, error) {
			var ms []telemetry.Metric
			for i := 0; i < 40; i++ {
				m, _ := telemetry.NewMetric("m", float64(i), 1000, nil)
				ms = append(ms, m)
			}
			return telemetry.Batch{Metrics: ms}, nil
		},
	}))

	sink := &recordingSink{name: "s", caps: telemetry.CapabilityMetrics, fail: true}
	r := router.New(testLogger(), []telemetry.Sink{sink}, nil, nil)

	start := time.Unix(0, 0)
	eng := New(Config{
		Interval:             time.Second,
		MaxBufferMetrics:     100,
		MaxBufferLogs:        100,
		WarnOnBufferOverflow: true,
	}, testLogger(), reg, r, start)

	eng.RunCycle(context.Background(), true) // 40
	eng.RunCycle(context.Background(), true) // 80
	eng.RunCycle(context.Background(), true) // 120 -> trimmed to 100, flush fails, retained at 100

	assert.Equal(t, 100, eng.buffers.MetricLen())
}

// Confirms a cycle with self-metrics attached actually updates the
// counters/gauges the /metrics endpoint serves, rather than leaving them
// frozen at their zero defaults.
func TestEngine_UpdatesSelfMetricsOnCycle(t *testing.T) {
	reg := registry.New(testLogger())
	require.NoError(t, reg.Register(telemetry.CollectorDescriptor{
		Name: "one",
		Invoke: func(ctx context.Context) (telemetry.Batch, error) {
			m, err := telemetry.NewMetric("m", 1, 1000, nil)
			require.NoError(t, err)
			return telemetry.Batch{Metrics: []telemetry.Metric{m}}, nil
		},
	}))

	sink := &recordingSink{name: "s", caps: telemetry.CapabilityMetrics}
	r := router.New(testLogger(), []telemetry.Sink{sink}, nil, nil)

	m := selfmetrics.NewRegistry(prometheus.NewRegistry())
	reg.SetMetrics(m)
	r.SetMetrics(m)

	eng := New(Config{Interval: time.Second, MaxBufferMetrics: 100, MaxBufferLogs: 100}, testLogger(), reg, r, time.Unix(0, 0))
	eng.SetMetrics(m)

	outcome := eng.RunCycle(context.Background(), true)
	require.True(t, outcome.FlushSucceeded)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.FlushSuccessTotal))
	assert.Zero(t, testutil.ToFloat64(m.FlushFailureTotal))
	assert.Zero(t, testutil.ToFloat64(m.MetricBufferFill), "buffer is cleared after a successful flush")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SinkWritesTotal.WithLabelValues("s", "success")))
}

func TestEngine_FlushIntervalFloorsToInterval(t *testing.T) {
	reg := registry.New(testLogger())
	r := router.New(testLogger(), nil, nil, nil)
	eng := New(Config{Interval: 10 * time.Second, FlushInterval: 2 * time.Second}, testLogger(), reg, r, time.Unix(0, 0))
	assert.Equal(t, 10*time.Second, eng.cfg.FlushInterval)
}
