package estimate

import (
	"math"
	"testing"

	"github.com/couchcryptid/climate-odds/internal/climate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPredict(t *testing.T) {
	s := series(climate.Temperature, 2001, 5)
	for col, v := range []float64{20, 22, 24, 26, 28} {
		setDay(s, col, 7, 1, climate.Value(v))
	}

	p, err := Predict(s, mustQuery(7, 1, 3), DefaultTemperatureTolerance)
	require.NoError(t, err)
	require.NotNil(t, p.Mean)
	assert.InDelta(t, 24.0, *p.Mean, 1e-12)
	assert.InDelta(t, math.Sqrt(10), *p.StdDev, 1e-12)
	assert.InDelta(t, 0.6, *p.WithinToleranceProb, 1e-12)
	assert.Equal(t, 5, p.SampleCount)
	assert.Equal(t, []float64{20, 22, 24, 26, 28}, p.Samples)
}

func TestPredict_SingleSample(t *testing.T) {
	s := series(climate.WindSpeed, 2001, 3)
	setDay(s, 1, 1, 1, climate.Value(4.5))

	p, err := Predict(s, mustQuery(1, 1, 0), DefaultWindTolerance)
	require.NoError(t, err)
	assert.Equal(t, 1, p.SampleCount)
	assert.InDelta(t, 0.0, *p.StdDev, 0)
	assert.InDelta(t, 1.0, *p.WithinToleranceProb, 0)
}

func TestPredict_NoSamples(t *testing.T) {
	s := series(climate.WindSpeed, 2001, 3)

	p, err := Predict(s, mustQuery(1, 1, 0), DefaultWindTolerance)
	require.NoError(t, err)
	assert.Zero(t, p.SampleCount)
	assert.Nil(t, p.Mean)
	assert.Nil(t, p.StdDev)
	assert.Nil(t, p.WithinToleranceProb)
	assert.Empty(t, p.Samples)
}

func TestAtLeast(t *testing.T) {
	s := series(climate.Temperature, 2001, 4)
	for col, v := range []float64{29, 30, 31} {
		setDay(s, col, 8, 1, climate.Value(v))
	}

	f, err := AtLeast(s, mustQuery(8, 1, 0), DefaultHotThreshold)
	require.NoError(t, err)
	assert.Equal(t, 3, f.ValidYears)
	assert.Equal(t, 2, f.HitYears, "threshold is inclusive")
	assert.InDelta(t, 2.0/3.0, f.Probability, 1e-12)
}

func TestDefaultTolerance(t *testing.T) {
	assert.InDelta(t, 2.0, DefaultTolerance(climate.TemperatureMax), 0)
	assert.InDelta(t, 1.0, DefaultTolerance(climate.WindSpeed), 0)
}
