package learn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"
)

func TestFitScaler_StandardizesTrainingColumns(t *testing.T) {
	x := [][]float64{
		{1, 10, 7},
		{2, 30, 7},
		{3, 20, 7},
		{6, 40, 7},
	}
	s, err := FitScaler(x)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, s.Std[2], 0, "constant column keeps std 1")

	scaled := s.Transform(x)
	for j := range 3 {
		col := make([]float64, len(scaled))
		for i := range scaled {
			col[i] = scaled[i][j]
		}
		assert.InDelta(t, 0.0, stat.Mean(col, nil), 1e-12, "column %d mean", j)
		if j < 2 {
			assert.InDelta(t, 1.0, stat.StdDev(col, nil), 1e-12, "column %d std", j)
		} else {
			for _, v := range col {
				assert.InDelta(t, 0.0, v, 0)
			}
		}
	}
	assert.InDelta(t, 1.0, x[0][0], 0, "input is not modified")
}

func TestStandardizeTrainTest_UsesTrainingStatistics(t *testing.T) {
	train := [][]float64{{0}, {2}}
	test := [][]float64{{100}}

	trainScaled, testScaled, s, err := StandardizeTrainTest(train, test)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, s.Mean[0], 0)
	assert.InDelta(t, -1/s.Std[0], trainScaled[0][0], 1e-12)
	assert.InDelta(t, 99/s.Std[0], testScaled[0][0], 1e-12)
}

func TestFitScaler_SingleRow(t *testing.T) {
	s, err := FitScaler([][]float64{{4, 5}})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 1}, s.Std)
	assert.Equal(t, []float64{0, 0}, s.TransformRow([]float64{4, 5}))
}

func TestFitScaler_Errors(t *testing.T) {
	_, err := FitScaler(nil)
	require.ErrorIs(t, err, ErrInvalidDataset)

	_, err = FitScaler([][]float64{{1, 2}, {3}})
	require.ErrorIs(t, err, ErrInvalidDataset)
}
