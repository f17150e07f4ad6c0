package learn

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// FeatureStats describes one feature column.
type FeatureStats struct {
	Name string  `json:"name"`
	Mean float64 `json:"mean"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
}

// Summary is a quick look at a dataset before training.
type Summary struct {
	Samples   int            `json:"sample_count"`
	Positives int            `json:"positive_count"`
	Negatives int            `json:"negative_count"`
	Years     []int          `json:"years"`
	Features  []FeatureStats `json:"features"`
}

// Summarize reports label counts and per-feature statistics.
func Summarize(d Dataset) Summary {
	s := Summary{Samples: d.Len(), Years: d.Meta.Years}
	for _, label := range d.Y {
		if label == 1 {
			s.Positives++
		} else {
			s.Negatives++
		}
	}
	if d.Len() == 0 {
		return s
	}

	col := make([]float64, d.Len())
	for j := range d.X[0] {
		for i, row := range d.X {
			col[i] = row[j]
		}
		name := ""
		if j < len(d.Meta.FeatureNames) {
			name = d.Meta.FeatureNames[j]
		}
		s.Features = append(s.Features, FeatureStats{
			Name: name,
			Mean: stat.Mean(col, nil),
			Min:  floats.Min(col),
			Max:  floats.Max(col),
		})
	}
	return s
}
