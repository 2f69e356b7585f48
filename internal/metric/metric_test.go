package metric

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMean(t *testing.T) {
	require.Equal(t, 0.0, Mean(nil))
	require.InDelta(t, 2.0, Mean([]float64{1, 2, 3}), 1e-9)
}

func TestStdDev(t *testing.T) {
	require.Equal(t, 0.0, StdDev([]float64{5}))
	require.InDelta(t, 2.0, StdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9}), 1e-9)
}

func TestSharpeLike(t *testing.T) {
	require.Equal(t, 0.0, SharpeLike([]float64{0.1}))
	require.Equal(t, 0.0, SharpeLike([]float64{0.1, 0.1, 0.1}))
	require.Greater(t, SharpeLike([]float64{0.1, 0.2, 0.15}), 0.0)
}

func TestPartition(t *testing.T) {
	wins, losses := Partition([]float64{0.5, -0.25, 0, -0.75})
	require.Equal(t, []float64{0.5, 0}, wins)
	require.Equal(t, []float64{0.25, 0.75}, losses)
}
