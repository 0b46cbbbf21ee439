package buffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rtcollector/pkg/telemetry"
)

func mustMetric(t *testing.T, name string, v float64, ts int64) telemetry.Metric {
	t.Helper()
	m, err := telemetry.NewMetric(name, v, ts, nil)
	require.NoError(t, err)
	return m
}

func TestPair_AppendIsAlwaysAccepted(t *testing.T) {
	p := NewPair(2, 2)
	for i := 0; i < 10; i++ {
		p.AppendMetrics(mustMetric(t, "m", float64(i), int64(i+1)))
	}
	assert.Equal(t, 10, p.MetricLen(), "append must never drop before a flush boundary")
}

func TestPair_TrimDropsOldestAtCapacity(t *testing.T) {
	p := NewPair(2, 0)
	p.AppendMetrics(
		mustMetric(t, "m", 1, 1),
		mustMetric(t, "m", 2, 2),
		mustMetric(t, "m", 3, 3),
	)
	result := p.Trim()
	assert.Equal(t, 1, result.DroppedMetrics)
	require.Equal(t, 2, p.MetricLen())

	snap := p.Snapshot()
	assert.Equal(t, float64(2), snap.Metrics[0].Value, "the oldest entry must be the one dropped")
	assert.Equal(t, float64(3), snap.Metrics[1].Value)
}

func TestPair_ZeroCapacityMeansUnbounded(t *testing.T) {
	p := NewPair(0, 0)
	for i := 0; i < 1000; i++ {
		p.AppendMetrics(mustMetric(t, "m", float64(i), int64(i+1)))
	}
	result := p.Trim()
	assert.Zero(t, result.DroppedMetrics)
	assert.Equal(t, 1000, p.MetricLen())
}

func TestPair_ClearEmptiesBoth(t *testing.T) {
	p := NewPair(10, 10)
	p.AppendMetrics(mustMetric(t, "m", 1, 1))
	lr, err := telemetry.NewLogRecord("hi", telemetry.LevelInfo, 1, nil, nil)
	require.NoError(t, err)
	p.AppendLogs(lr)

	p.Clear()
	assert.Zero(t, p.MetricLen())
	assert.Zero(t, p.LogLen())
}
