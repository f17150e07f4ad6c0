package estimate

import (
	"math"

	"github.com/couchcryptid/climate-odds/internal/calendar"
	"github.com/couchcryptid/climate-odds/internal/climate"
	"gonum.org/v1/gonum/stat"
)

const minTrendSamples = 3

// Trend is an ordinary least squares fit of anchor-day readings against year.
type Trend struct {
	SampleCount    int     `json:"sample_count"`
	SlopePerYear   float64 `json:"slope_per_year"`
	SlopePerDecade float64 `json:"slope_per_decade"`
	Intercept      float64 `json:"intercept"`
	ResidualVar    float64 `json:"residual_variance"`
	SlopeStdErr    float64 `json:"slope_std_error"`
	TStatistic     float64 `json:"t_statistic"`
	RSquared       float64 `json:"r_squared"`
	PValue         float64 `json:"p_value"`
}

// FitTrend regresses the anchor-day readings on year. It returns nil when
// fewer than three samples exist or every sample shares one year. The p-value
// applies the normal CDF to |t| and is only an approximation of the t test.
func FitTrend(s climate.Series, q calendar.Query) (*Trend, error) {
	samples, err := anchorSamples(s, q)
	if err != nil {
		return nil, err
	}
	n := len(samples)
	if n < minTrendSamples {
		return nil, nil
	}

	xs := make([]float64, n)
	ys := make([]float64, n)
	for i, smp := range samples {
		xs[i] = float64(smp.year)
		ys[i] = smp.value
	}

	xMean := stat.Mean(xs, nil)
	yMean := stat.Mean(ys, nil)
	var sxx, sst float64
	for i := range xs {
		sxx += (xs[i] - xMean) * (xs[i] - xMean)
		sst += (ys[i] - yMean) * (ys[i] - yMean)
	}
	if sxx == 0 {
		return nil, nil
	}

	intercept, slope := stat.LinearRegression(xs, ys, nil, false)

	var sse float64
	for i := range xs {
		e := ys[i] - (intercept + slope*xs[i])
		sse += e * e
	}
	sigma2 := sse / float64(max(1, n-2))
	se := math.Sqrt(sigma2 / sxx)
	denom := se
	if denom == 0 {
		denom = 1e-12
	}
	t := slope / denom

	r2 := 0.0
	if sst != 0 {
		r2 = 1 - sse/sst
	}

	return &Trend{
		SampleCount:    n,
		SlopePerYear:   slope,
		SlopePerDecade: slope * 10,
		Intercept:      intercept,
		ResidualVar:    sigma2,
		SlopeStdErr:    se,
		TStatistic:     t,
		RSquared:       r2,
		PValue:         2 * (1 - NormalCDF(math.Abs(t))),
	}, nil
}
