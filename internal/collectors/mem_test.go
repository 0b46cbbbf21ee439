package collectors

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemCollectorProducesExpectedMetricNames(t *testing.T) {
	desc, err := newMemCollector(nil, testLogger())
	require.NoError(t, err)

	batch, err := desc.Invoke(context.Background())
	require.NoError(t, err)

	names := map[string]bool{}
	for _, m := range batch.Metrics {
		names[m.Name] = true
		assert.Equal(t, "linux_mem", m.Labels["source"])
	}
	assert.True(t, names["mem_total_bytes"])
	assert.True(t, names["mem_used_percent"])
}
