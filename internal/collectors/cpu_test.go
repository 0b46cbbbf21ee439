package collectors

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCPUCollectorProducesPerCoreMetrics(t *testing.T) {
	desc, err := newCPUCollector(map[string]interface{}{"per_core": true}, testLogger())
	require.NoError(t, err)

	batch, err := desc.Invoke(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, batch.Metrics)
	for _, m := range batch.Metrics {
		assert.Equal(t, "cpu_usage_active", m.Name)
		assert.Equal(t, "linux_cpu", m.Labels["source"])
		assert.NotEmpty(t, m.Labels["core"])
	}
}

func TestCoreLabel(t *testing.T) {
	assert.Equal(t, "cpu-total", coreLabel(0))
	assert.Equal(t, "cpu0", coreLabel(1))
	assert.Equal(t, "cpu3", coreLabel(4))
}
