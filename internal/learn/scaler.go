package learn

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Scaler standardizes feature columns with statistics fitted on training rows.
type Scaler struct {
	Mean []float64 `json:"mean"`
	Std  []float64 `json:"std"`
}

// FitScaler computes the per-column mean and Bessel-corrected standard
// deviation of x. Constant columns get a standard deviation of 1.
func FitScaler(x [][]float64) (Scaler, error) {
	if len(x) == 0 || len(x[0]) == 0 {
		return Scaler{}, fmt.Errorf("%w: cannot fit scaler on empty matrix", ErrInvalidDataset)
	}
	width := len(x[0])
	s := Scaler{Mean: make([]float64, width), Std: make([]float64, width)}
	col := make([]float64, len(x))
	for j := range width {
		for i, row := range x {
			if len(row) != width {
				return Scaler{}, fmt.Errorf("%w: row %d has %d features, want %d", ErrInvalidDataset, i, len(row), width)
			}
			col[i] = row[j]
		}
		if floats.Min(col) == floats.Max(col) {
			s.Mean[j], s.Std[j] = col[0], 1
			continue
		}
		s.Mean[j], s.Std[j] = stat.MeanStdDev(col, nil)
	}
	return s, nil
}

// TransformRow returns (x - mean) / std for one row.
func (s Scaler) TransformRow(x []float64) []float64 {
	out := make([]float64, len(x))
	for j, v := range x {
		out[j] = (v - s.Mean[j]) / s.Std[j]
	}
	return out
}

// Transform scales every row of x without modifying it.
func (s Scaler) Transform(x [][]float64) [][]float64 {
	out := make([][]float64, len(x))
	for i, row := range x {
		out[i] = s.TransformRow(row)
	}
	return out
}

// StandardizeTrainTest fits a scaler on train and applies it to both sets.
func StandardizeTrainTest(train, test [][]float64) (trainScaled, testScaled [][]float64, s Scaler, err error) {
	s, err = FitScaler(train)
	if err != nil {
		return nil, nil, Scaler{}, err
	}
	return s.Transform(train), s.Transform(test), s, nil
}
