package collectors

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestNamesListsEveryCatalogEntry(t *testing.T) {
	names := Names()
	for _, want := range []string{
		"linux_cpu", "macos_cpu", "linux_mem", "macos_mem", "linux_disk", "macos_disk",
		"linux_net", "macos_net", "exec", "http_response", "docker", "postgres",
		"mariadb", "syslog", "file_tail", "internal_stats",
	} {
		assert.True(t, names[want], "expected %q in catalog", want)
	}
}

func TestBuildRejectsUnknownName(t *testing.T) {
	_, err := Build("does_not_exist", nil, testLogger())
	require.Error(t, err)
}

func TestBuildSetsDescriptorName(t *testing.T) {
	desc, err := Build("linux_cpu", map[string]interface{}{"per_core": false}, testLogger())
	require.NoError(t, err)
	assert.Equal(t, "linux_cpu", desc.Name)
	assert.NotNil(t, desc.Invoke)
}

func TestStringOptionFallback(t *testing.T) {
	assert.Equal(t, "fallback", stringOption(nil, "missing", "fallback"))
	assert.Equal(t, "set", stringOption(map[string]interface{}{"k": "set"}, "k", "fallback"))
}

func TestIntOptionHandlesYAMLAndJSONNumericTypes(t *testing.T) {
	assert.Equal(t, 5, intOption(map[string]interface{}{"k": 5}, "k", 0))
	assert.Equal(t, 5, intOption(map[string]interface{}{"k": float64(5)}, "k", 0))
	assert.Equal(t, 9, intOption(map[string]interface{}{}, "k", 9))
}

func TestStringSliceOption(t *testing.T) {
	opts := map[string]interface{}{"items": []interface{}{"a", "b"}}
	assert.Equal(t, []string{"a", "b"}, stringSliceOption(opts, "items"))
	assert.Nil(t, stringSliceOption(map[string]interface{}{}, "items"))
}
