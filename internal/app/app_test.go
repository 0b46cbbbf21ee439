package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestNewBuildsAppFromValidConfig(t *testing.T) {
	path := writeConfig(t, `
interval: 1
flush_interval: 1
inputs:
  - linux_cpu
outputs:
  - stdout
`)

	a, err := New(path)
	require.NoError(t, err)
	assert.NotNil(t, a.eng)
}

func TestNewSkipsUnknownInputsAndOutputs(t *testing.T) {
	path := writeConfig(t, `
interval: 1
flush_interval: 1
inputs:
  - linux_cpu
  - does_not_exist
outputs:
  - stdout
  - also_does_not_exist
`)

	a, err := New(path)
	require.NoError(t, err)
	require.NotNil(t, a)
}

func TestNewFailsOnMissingFile(t *testing.T) {
	_, err := New("/nonexistent/config.yaml")
	assert.Error(t, err)
}

func TestRunOnceReturnsZeroOnSuccessfulFlush(t *testing.T) {
	path := writeConfig(t, `
interval: 3600
flush_interval: 3600
inputs:
  - linux_cpu
outputs:
  - stdout
`)

	a, err := New(path)
	require.NoError(t, err)

	code := a.RunOnce(context.Background(), true)
	assert.Equal(t, 0, code)
}
