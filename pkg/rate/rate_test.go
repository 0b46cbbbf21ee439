package rate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHelper_FirstObservationReturnsNoValue(t *testing.T) {
	h := NewHelper()
	_, ok := h.Rate("k", 100, 1000, nil)
	assert.False(t, ok)
}

func TestHelper_SteadyIncreaseYieldsRate(t *testing.T) {
	h := NewHelper()
	h.Rate("k", 100, 1000, nil)
	got, ok := h.Rate("k", 110, 2000, nil)
	assert.True(t, ok)
	assert.InDelta(t, 10.0, got, 1e-9)
}

// Property 6 from the spec: sequence (100,t0) (110,t0+1000) (5,t0+2000)
// yields none, 10.0, none, and the stored state after the third call is
// (5, t0+2000).
func TestHelper_ResetSequence(t *testing.T) {
	h := NewHelper()
	const t0 = int64(1_700_000_000_000)

	_, ok1 := h.Rate("k", 100, t0, nil)
	assert.False(t, ok1)

	v2, ok2 := h.Rate("k", 110, t0+1000, nil)
	assert.True(t, ok2)
	assert.InDelta(t, 10.0, v2, 1e-9)

	_, ok3 := h.Rate("k", 5, t0+2000, nil)
	assert.False(t, ok3, "a decreasing counter with no ceiling must reset silently")

	// Next observation should compute relative to the reset baseline (5, t0+2000).
	v4, ok4 := h.Rate("k", 15, t0+3000, nil)
	assert.True(t, ok4)
	assert.InDelta(t, 10.0, v4, 1e-9)
}

func TestHelper_WrapWithCeiling(t *testing.T) {
	h := NewHelper()
	ceiling := 100.0
	h.Rate("k", 95, 1000, &ceiling)
	got, ok := h.Rate("k", 5, 2000, &ceiling)
	assert.True(t, ok)
	assert.InDelta(t, 10.0, got, 1e-9)
}

func TestHelper_ClockRegressionSkipsWithoutUpdating(t *testing.T) {
	h := NewHelper()
	h.Rate("k", 100, 2000, nil)
	_, ok := h.Rate("k", 150, 1000, nil)
	assert.False(t, ok)

	// State must be unchanged: the next forward-moving sample computes
	// against the original (100, 2000) baseline, not (150, 1000).
	got, ok := h.Rate("k", 120, 4000, nil)
	assert.True(t, ok)
	assert.InDelta(t, 10.0, got, 1e-9)
}

func TestHelper_ZeroDeltaTSkips(t *testing.T) {
	h := NewHelper()
	h.Rate("k", 100, 1000, nil)
	_, ok := h.Rate("k", 110, 1000, nil)
	assert.False(t, ok)
}

func TestComposeKey_SortsLabelsForStableKey(t *testing.T) {
	a := ComposeKey("cpu", map[string]string{"b": "2", "a": "1"})
	b := ComposeKey("cpu", map[string]string{"a": "1", "b": "2"})
	assert.Equal(t, a, b)
	assert.Equal(t, "cpu|a=1,b=2", a)
}

func TestComposeKey_NoLabels(t *testing.T) {
	assert.Equal(t, "cpu", ComposeKey("cpu", nil))
}
