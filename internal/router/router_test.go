package router

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rtcollector/pkg/telemetry"
)

type fakeSink struct {
	name      string
	caps      telemetry.Capability
	writes    []telemetry.Batch
	failNext  bool
	failAlways bool
}

func (f *fakeSink) Name() string                   { return f.name }
func (f *fakeSink) Accepts() telemetry.Capability   { return f.caps }
func (f *fakeSink) Write(_ context.Context, b telemetry.Batch) error {
	f.writes = append(f.writes, b)
	if f.failAlways || f.failNext {
		f.failNext = false
		return errors.New("boom")
	}
	return nil
}

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func mustMetric(t *testing.T, name string) telemetry.Metric {
	t.Helper()
	m, err := telemetry.NewMetric(name, 1, 1000, nil)
	require.NoError(t, err)
	return m
}

func TestRouter_MixedSinkGetsMetricsThenLogs(t *testing.T) {
	sink := &fakeSink{name: "mixed", caps: telemetry.CapabilityMetrics | telemetry.CapabilityLogs}
	r := New(testLogger(), []telemetry.Sink{sink}, nil, nil)

	lr, err := telemetry.NewLogRecord("hi", telemetry.LevelInfo, 1000, nil, nil)
	require.NoError(t, err)

	result := r.Flush(context.Background(), telemetry.Batch{
		Metrics: []telemetry.Metric{mustMetric(t, "m")},
		Logs:    []telemetry.LogRecord{lr},
	})

	require.True(t, result.AllSucceeded)
	require.True(t, result.AnySucceeded)
	require.Len(t, sink.writes, 2)
	assert.Len(t, sink.writes[0].Metrics, 1)
	assert.Empty(t, sink.writes[0].Logs)
	assert.Len(t, sink.writes[1].Logs, 1)
}

func TestRouter_CapabilityFiltering(t *testing.T) {
	metricsSink := &fakeSink{name: "m-only", caps: telemetry.CapabilityMetrics}
	logsSink := &fakeSink{name: "l-only", caps: telemetry.CapabilityLogs}
	r := New(testLogger(), []telemetry.Sink{metricsSink, logsSink}, nil, nil)

	lr, _ := telemetry.NewLogRecord("hi", telemetry.LevelInfo, 1000, nil, nil)
	r.Flush(context.Background(), telemetry.Batch{
		Metrics: []telemetry.Metric{mustMetric(t, "m")},
		Logs:    []telemetry.LogRecord{lr},
	})

	assert.Len(t, metricsSink.writes, 1)
	assert.Len(t, metricsSink.writes[0].Metrics, 1)
	assert.Len(t, logsSink.writes, 1)
	assert.Len(t, logsSink.writes[0].Logs, 1)
}

func TestRouter_OneSinkFailureDoesNotBlockOthers(t *testing.T) {
	failing := &fakeSink{name: "failing", caps: telemetry.CapabilityMetrics, failAlways: true}
	healthy := &fakeSink{name: "healthy", caps: telemetry.CapabilityMetrics}
	r := New(testLogger(), []telemetry.Sink{failing, healthy}, nil, nil)

	result := r.Flush(context.Background(), telemetry.Batch{Metrics: []telemetry.Metric{mustMetric(t, "m")}})

	assert.False(t, result.AllSucceeded, "overall flush must be marked unsuccessful")
	assert.True(t, result.AnySucceeded, "the healthy sink's success must still count as partial delivery")
	assert.Len(t, healthy.writes, 1, "a failing sink must not prevent other sinks from being attempted")
}

func TestRouter_AllSinksFailingReportsNoneSucceeded(t *testing.T) {
	failing := &fakeSink{name: "failing", caps: telemetry.CapabilityMetrics, failAlways: true}
	r := New(testLogger(), []telemetry.Sink{failing}, nil, nil)

	result := r.Flush(context.Background(), telemetry.Batch{Metrics: []telemetry.Metric{mustMetric(t, "m")}})

	assert.False(t, result.AllSucceeded)
	assert.False(t, result.AnySucceeded)
}

func TestRouter_EmptyBatchSkipsSink(t *testing.T) {
	sink := &fakeSink{name: "s", caps: telemetry.CapabilityMetrics | telemetry.CapabilityLogs}
	r := New(testLogger(), []telemetry.Sink{sink}, nil, nil)

	result := r.Flush(context.Background(), telemetry.Batch{})
	assert.True(t, result.AllSucceeded)
	assert.True(t, result.AnySucceeded, "nothing to attempt still counts as no failed delivery")
	assert.Empty(t, sink.writes)
}

func TestRouter_MetricsOnlyAndLogsOnlyLists(t *testing.T) {
	metricsOnly := &fakeSink{name: "mo", caps: telemetry.CapabilityMetrics}
	logsOnly := &fakeSink{name: "lo", caps: telemetry.CapabilityLogs}
	r := New(testLogger(), nil, []telemetry.Sink{metricsOnly}, []telemetry.Sink{logsOnly})

	lr, _ := telemetry.NewLogRecord("hi", telemetry.LevelInfo, 1000, nil, nil)
	r.Flush(context.Background(), telemetry.Batch{
		Metrics: []telemetry.Metric{mustMetric(t, "m")},
		Logs:    []telemetry.LogRecord{lr},
	})

	assert.Len(t, metricsOnly.writes, 1)
	assert.Len(t, logsOnly.writes, 1)
}
