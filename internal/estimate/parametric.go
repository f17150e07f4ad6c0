package estimate

import (
	"math"

	"github.com/couchcryptid/climate-odds/internal/calendar"
	"github.com/couchcryptid/climate-odds/internal/climate"
	"gonum.org/v1/gonum/stat"
)

const (
	// DefaultMinPositiveSamples is the pooled sample size needed to fit the amount distribution.
	DefaultMinPositiveSamples = 5

	minFitSamples = 2
	sigmaFloor    = 1e-6
)

// ParametricOptions configures the two-part estimator.
type ParametricOptions struct {
	Threshold float64
	// MinPositiveSamples defaults to DefaultMinPositiveSamples when zero.
	// Fits always need at least two samples.
	MinPositiveSamples int
}

// ParametricResult is the outcome of the occurrence and log-normal amount model.
type ParametricResult struct {
	Probability           float64  `json:"probability"`
	OccurrenceProbability float64  `json:"occurrence_probability"`
	ConditionalExceedance float64  `json:"conditional_exceedance_probability"`
	LogNormalMean         *float64 `json:"log_normal_mean"`
	LogNormalStd          *float64 `json:"log_normal_std"`
	Threshold             float64  `json:"threshold"`
	ValidYears            int      `json:"valid_year_count"`
	PositiveYears         int      `json:"positive_year_count"`
	PositiveSamples       int      `json:"positive_sample_count"`
}

// Fitted reports whether the log-normal amount distribution was fitted.
func (r ParametricResult) Fitted() bool {
	return r.LogNormalMean != nil
}

// Parametric estimates P(amount > threshold) as P(occurrence) times
// P(amount > threshold | occurrence). Occurrence is any reading > 0 within the
// window; amounts are pooled across all years and modelled as log-normal when
// enough positive samples exist, otherwise the pooled empirical fraction is used.
func Parametric(s climate.Series, q calendar.Query, opts ParametricOptions) (ParametricResult, error) {
	cols, err := columns(s, q, true)
	if err != nil {
		return ParametricResult{}, err
	}

	res := ParametricResult{Threshold: opts.Threshold}
	var positives []float64
	for _, c := range cols {
		valid, occurred := false, false
		for _, row := range c.rows {
			v, ok := s.Values.At(row, c.index).Get()
			if !ok {
				continue
			}
			valid = true
			if v > 0 {
				occurred = true
				positives = append(positives, v)
			}
		}
		if valid {
			res.ValidYears++
		}
		if occurred {
			res.PositiveYears++
		}
	}
	res.PositiveSamples = len(positives)
	res.OccurrenceProbability = ratio(res.PositiveYears, res.ValidYears)

	minSamples := opts.MinPositiveSamples
	if minSamples == 0 {
		minSamples = DefaultMinPositiveSamples
	}
	if len(positives) >= max(minSamples, minFitSamples) {
		logs := make([]float64, len(positives))
		for i, v := range positives {
			logs[i] = math.Log(v)
		}
		mu, sigma := stat.MeanStdDev(logs, nil)
		if sigma < sigmaFloor || math.IsNaN(sigma) {
			sigma = sigmaFloor
		}
		res.LogNormalMean, res.LogNormalStd = &mu, &sigma
	}

	switch {
	case opts.Threshold <= 0:
		res.ConditionalExceedance = 1
	case res.Fitted():
		z := (math.Log(opts.Threshold) - *res.LogNormalMean) / *res.LogNormalStd
		res.ConditionalExceedance = 1 - NormalCDF(z)
	default:
		above := 0
		for _, v := range positives {
			if v > opts.Threshold {
				above++
			}
		}
		res.ConditionalExceedance = ratio(above, len(positives))
	}

	res.Probability = res.OccurrenceProbability * res.ConditionalExceedance
	return res, nil
}
