package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/stat"
)

func TestMedian(t *testing.T) {
	assert.InDelta(t, 0, Median(nil), 0)
	assert.InDelta(t, 3, Median([]float64{5, 3, 1}), 1e-12)
	assert.InDelta(t, 2.5, Median([]float64{4, 1, 3, 2}), 1e-12)

	x := []float64{3, 1, 2}
	Median(x)
	assert.Equal(t, []float64{3, 1, 2}, x, "input is not reordered")
}

func TestMean(t *testing.T) {
	assert.InDelta(t, 0, Mean(nil), 0)
	assert.InDelta(t, 2, Mean([]float64{1, 2, 3}), 1e-12)
}

func TestScaler_Standardizes(t *testing.T) {
	X := [][]float64{
		{1, 20, 400, 7},
		{0, 35, 900, 7},
		{1, 50, 1500, 7},
		{0, 61, 320, 7},
	}
	s := FitScaler(X)
	Z := s.Transform(X)

	for j := 0; j < 3; j++ {
		col := make([]float64, len(Z))
		for i := range Z {
			col[i] = Z[i][j]
		}
		mean, std := stat.PopMeanStdDev(col, nil)
		assert.InDelta(t, 0, mean, 1e-12, "column %d", j)
		assert.InDelta(t, 1, std, 1e-12, "column %d", j)
	}

	assert.InDelta(t, 1, s.Scale[3], 0, "constant column keeps scale 1")
	for i := range Z {
		assert.InDelta(t, 0, Z[i][3], 0)
	}
}

func TestScaler_Empty(t *testing.T) {
	s := FitScaler(nil)
	assert.Empty(t, s.Mean)
	assert.Empty(t, s.Transform(nil))
}
