package leniency

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMultiplier(t *testing.T) {
	cases := []struct {
		iteration int
		want      float64
	}{
		{1, 1.0},
		{2, 0.8},
		{3, 0.6},
		{4, 0.6},
		{10, 0.6},
	}
	for _, tc := range cases {
		got, err := Multiplier(tc.iteration)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "iteration %d", tc.iteration)
	}
}

func TestMultiplier_InvalidIteration(t *testing.T) {
	for _, n := range []int{0, -1, -100} {
		_, err := Multiplier(n)
		assert.Error(t, err, "iteration %d", n)
	}
}

func TestAdjusted(t *testing.T) {
	got, err := Adjusted(2, 1.0)
	require.NoError(t, err)
	assert.InDelta(t, 0.8, got, 1e-9)

	got, err = Adjusted(3, 0.5)
	require.NoError(t, err)
	assert.InDelta(t, 0.3, got, 1e-9)
}

func TestAdjusted_InvalidBase(t *testing.T) {
	_, err := Adjusted(1, 0)
	assert.Error(t, err)
	_, err = Adjusted(1, -1.5)
	assert.Error(t, err)
}

func TestThreshold(t *testing.T) {
	assert.Equal(t, 9.0, Threshold(1.0))
	assert.Equal(t, 9.0, Threshold(1.5))
	assert.Equal(t, 7.5, Threshold(0.8))
	assert.Equal(t, 7.5, Threshold(0.9))
	assert.Equal(t, 6.0, Threshold(0.5))
	assert.Equal(t, 6.0, Threshold(0.6))
	assert.Equal(t, 6.0, Threshold(0.79))
}

// Strictness never increases as iterations advance, for any base.
func TestSchedule_NonIncreasing(t *testing.T) {
	for _, base := range []float64{0.5, 0.8, 1.0, 1.3} {
		prev := base * 10 // above any possible adjusted value
		for n := 1; n <= 6; n++ {
			adjusted, _, err := Schedule(n, base)
			require.NoError(t, err)
			assert.LessOrEqual(t, adjusted, prev, "base %g iteration %d", base, n)
			prev = adjusted
		}
	}
}

func TestSchedule_DefaultBase(t *testing.T) {
	adjusted, threshold, err := Schedule(1, 1.0)
	require.NoError(t, err)
	assert.Equal(t, 1.0, adjusted)
	assert.Equal(t, 9.0, threshold)

	adjusted, threshold, err = Schedule(2, 1.0)
	require.NoError(t, err)
	assert.InDelta(t, 0.8, adjusted, 1e-9)
	assert.Equal(t, 7.5, threshold)

	adjusted, threshold, err = Schedule(3, 1.0)
	require.NoError(t, err)
	assert.InDelta(t, 0.6, adjusted, 1e-9)
	assert.Equal(t, 6.0, threshold)
}
