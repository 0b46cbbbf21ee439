package selfmetrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistryRegistersAllMetricsWithoutCollision(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewRegistry(reg)

	require.NotNil(t, m.CycleDuration)
	require.NotNil(t, m.CollectorDuration)
	require.NotNil(t, m.CollectorErrorsTotal)
	require.NotNil(t, m.MetricBufferFill)
	require.NotNil(t, m.LogBufferFill)
	require.NotNil(t, m.SinkWritesTotal)
	require.NotNil(t, m.FlushSuccessTotal)
	require.NotNil(t, m.FlushFailureTotal)
	require.NotNil(t, m.DroppedEntriesTotal)

	// Labelled vectors are only gathered once they hold a series.
	m.CollectorDuration.WithLabelValues("c").Observe(0)
	m.CollectorErrorsTotal.WithLabelValues("c")
	m.SinkWritesTotal.WithLabelValues("s", "success")
	m.DroppedEntriesTotal.WithLabelValues("metrics")

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, families, 9, "every declared metric must register exactly once")
}

func TestRegistryMetricsStartAtZero(t *testing.T) {
	m := NewRegistry(prometheus.NewRegistry())
	assert.Zero(t, testutil.ToFloat64(m.MetricBufferFill))
	assert.Zero(t, testutil.ToFloat64(m.LogBufferFill))
	assert.Zero(t, testutil.ToFloat64(m.FlushSuccessTotal))
	assert.Zero(t, testutil.ToFloat64(m.FlushFailureTotal))
}

func TestRegistryMetricsUpdateAfterUse(t *testing.T) {
	m := NewRegistry(prometheus.NewRegistry())

	m.MetricBufferFill.Set(12)
	assert.Equal(t, 12.0, testutil.ToFloat64(m.MetricBufferFill))

	m.FlushSuccessTotal.Inc()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FlushSuccessTotal))

	m.SinkWritesTotal.WithLabelValues("kafka", "failure").Inc()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SinkWritesTotal.WithLabelValues("kafka", "failure")))
}
