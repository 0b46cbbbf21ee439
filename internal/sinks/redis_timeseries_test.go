package sinks

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRetentionSuffixes(t *testing.T) {
	assert.EqualValues(t, 0, parseRetention("0"))
	assert.EqualValues(t, 86400000, parseRetention("1d"))
	assert.EqualValues(t, 3600000, parseRetention("1h"))
	assert.EqualValues(t, 365*86400000, parseRetention("1y"))
	assert.EqualValues(t, 7*86400000, parseRetention("7d"))
}
