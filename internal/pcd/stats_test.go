package pcd

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	t.Parallel()

	nan := float32(math.NaN())
	pc, err := FromPoints(
		[]any{[]float32{1, 2, 3, nan}, []uint8{5, 5, 5, 5}, []float64{math.NaN(), math.NaN(), 9, math.NaN()}, []float32{nan, nan, nan, nan}},
		[]string{"x", "i", "one", "none"},
		[]ScalarType{Float32, Uint8, Float64, Float32}, nil)
	require.NoError(t, err)

	stats := Summarize(pc.Data)
	require.Len(t, stats, 4)

	x := stats[0]
	assert.Equal(t, "x", x.Name)
	assert.Equal(t, 3, x.Valid)
	assert.Equal(t, 1, x.NaN)
	assert.Equal(t, 1.0, x.Min)
	assert.Equal(t, 3.0, x.Max)
	assert.InDelta(t, 2.0, x.Mean, 1e-12)
	assert.InDelta(t, 1.0, x.StdDev, 1e-12)

	i := stats[1]
	assert.Equal(t, Uint8, i.Type)
	assert.Equal(t, 5.0, i.Mean)
	assert.Equal(t, 0.0, i.StdDev)

	one := stats[2]
	assert.Equal(t, 1, one.Valid)
	assert.Equal(t, 9.0, one.Min)
	assert.Equal(t, 0.0, one.StdDev)

	none := stats[3]
	assert.Equal(t, 0, none.Valid)
	assert.True(t, math.IsNaN(none.Mean))
}
