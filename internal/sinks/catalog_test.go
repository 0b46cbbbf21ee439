package sinks

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
		"redis_timeseries", "elasticsearch", "kafka", "nats", "s3_archive", "local_file", "stdout",
	} {
		assert.True(t, names[want], "expected %q in catalog", want)
	}
}

func TestBuildRejectsUnknownName(t *testing.T) {
	_, err := Build("does_not_exist", nil, testLogger())
	require.Error(t, err)
}

func TestBuildSetsLocalFileSinkName(t *testing.T) {
	sink, err := Build("local_file", map[string]interface{}{"directory": t.TempDir()}, testLogger())
	require.NoError(t, err)
	assert.Equal(t, "local_file", sink.Name())
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

func TestBoolOptionFallback(t *testing.T) {
	assert.Equal(t, true, boolOption(map[string]interface{}{}, "k", true))
	assert.Equal(t, false, boolOption(map[string]interface{}{"k": false}, "k", true))
}

func TestStringSliceOption(t *testing.T) {
	opts := map[string]interface{}{"items": []interface{}{"a", "b"}}
	assert.Equal(t, []string{"a", "b"}, stringSliceOption(opts, "items"))
	assert.Nil(t, stringSliceOption(map[string]interface{}{}, "items"))
}
