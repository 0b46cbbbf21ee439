package collectors

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskCollectorDefaultsToRootMountpoint(t *testing.T) {
	desc, err := newDiskCollector(nil, testLogger())
	require.NoError(t, err)

	batch, err := desc.Invoke(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, batch.Metrics)
	for _, m := range batch.Metrics {
		assert.Equal(t, "/", m.Labels["mountpoint"])
	}
}

func TestDiskCollectorSkipsUnreadableMountpoint(t *testing.T) {
	desc, err := newDiskCollector(map[string]interface{}{
		"mountpoints": []interface{}{"/definitely/does/not/exist"},
	}, testLogger())
	require.NoError(t, err)

	batch, err := desc.Invoke(context.Background())
	require.NoError(t, err)
	assert.Empty(t, batch.Metrics)
}
