package estimate

import (
	"math"

	"github.com/couchcryptid/climate-odds/internal/calendar"
	"github.com/couchcryptid/climate-odds/internal/climate"
	"gonum.org/v1/gonum/stat"
)

// Default tolerances and at-least thresholds for continuous variables.
const (
	DefaultTemperatureTolerance = 2.0
	DefaultWindTolerance        = 1.0
	DefaultHotThreshold         = 30.0
	DefaultWindyThreshold       = 8.0
)

// DefaultTolerance returns the within-tolerance band used for v.
func DefaultTolerance(v climate.Variable) float64 {
	switch v {
	case climate.Temperature, climate.TemperatureMax, climate.TemperatureMin:
		return DefaultTemperatureTolerance
	default:
		return DefaultWindTolerance
	}
}

// Prediction summarizes the readings of a continuous variable on one calendar
// day. Pointer fields are nil when no reading was available.
type Prediction struct {
	Mean                *float64  `json:"predicted_mean"`
	StdDev              *float64  `json:"standard_deviation"`
	WithinToleranceProb *float64  `json:"within_tolerance_probability"`
	Tolerance           float64   `json:"tolerance"`
	SampleCount         int       `json:"sample_count"`
	Samples             []float64 `json:"samples"`
}

// Predict computes the sample mean and Bessel-corrected standard deviation of
// the anchor-day readings, and the fraction of readings within tolerance of
// the mean. A single sample has standard deviation 0.
func Predict(s climate.Series, q calendar.Query, tolerance float64) (Prediction, error) {
	samples, err := anchorSamples(s, q)
	if err != nil {
		return Prediction{}, err
	}
	p := Prediction{Tolerance: tolerance, SampleCount: len(samples)}
	if len(samples) == 0 {
		return p, nil
	}

	vals := make([]float64, len(samples))
	for i, smp := range samples {
		vals[i] = smp.value
	}
	mean := stat.Mean(vals, nil)
	std := 0.0
	if len(vals) > 1 {
		std = stat.StdDev(vals, nil)
	}
	within := 0
	for _, v := range vals {
		if math.Abs(v-mean) <= tolerance {
			within++
		}
	}
	prob := ratio(within, len(vals))
	p.Mean, p.StdDev, p.WithinToleranceProb = &mean, &std, &prob
	p.Samples = vals
	return p, nil
}

// Frequency is an at-least count over the anchor day.
type Frequency struct {
	Probability float64 `json:"probability"`
	Threshold   float64 `json:"threshold"`
	ValidYears  int     `json:"valid_year_count"`
	HitYears    int     `json:"hit_year_count"`
}

// AtLeast returns the fraction of valid years whose anchor-day reading is
// greater than or equal to threshold.
func AtLeast(s climate.Series, q calendar.Query, threshold float64) (Frequency, error) {
	samples, err := anchorSamples(s, q)
	if err != nil {
		return Frequency{}, err
	}
	f := Frequency{Threshold: threshold, ValidYears: len(samples)}
	for _, smp := range samples {
		if smp.value >= threshold {
			f.HitYears++
		}
	}
	f.Probability = ratio(f.HitYears, f.ValidYears)
	return f, nil
}
