package tracking_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mocsim/mocsim/tracking"
)

func TestRingBuffer_LenGrowsUntilCapacityThenHoldsSteady(t *testing.T) {
	r := tracking.NewRingBuffer(3)
	require.Equal(t, 0, r.Len())

	r.Push(1)
	require.Equal(t, 1, r.Len())
	r.Push(2)
	r.Push(3)
	require.Equal(t, 3, r.Len())

	r.Push(4) // overwrites the oldest (1)
	require.Equal(t, 3, r.Len())
	require.ElementsMatch(t, []float64{2, 3, 4}, r.Samples())
}

func TestRingBuffer_ClearResetsToEmpty(t *testing.T) {
	r := tracking.NewRingBuffer(2)
	r.Push(1)
	r.Push(2)
	r.Clear()
	require.Equal(t, 0, r.Len())
	require.Empty(t, r.Samples())
}

func TestRingBuffer_MeanAndStdDev(t *testing.T) {
	r := tracking.NewRingBuffer(4)
	require.Equal(t, 0.0, r.Mean())
	require.Equal(t, 0.0, r.StdDev())

	r.Push(2)
	require.Equal(t, 2.0, r.Mean())
	require.Equal(t, 0.0, r.StdDev(), "stddev is 0 with fewer than 2 samples")

	r.Push(4)
	require.Equal(t, 3.0, r.Mean())
	require.InDelta(t, 1.4142135623730951, r.StdDev(), 1e-9)
}

func TestNewRingBuffer_NonPositiveCapacityClampsToOne(t *testing.T) {
	r := tracking.NewRingBuffer(0)
	r.Push(1)
	r.Push(2)
	require.Equal(t, 1, r.Len())
	require.Equal(t, []float64{2}, r.Samples())
}
