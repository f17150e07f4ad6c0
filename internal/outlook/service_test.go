package outlook

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/couchcryptid/climate-odds/internal/climate"
	"github.com/couchcryptid/climate-odds/internal/domain"
	"github.com/couchcryptid/climate-odds/internal/estimate"
	"github.com/couchcryptid/climate-odds/internal/observability"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	ds    *climate.Dataset
	err   error
	calls int
}

func (s *stubSource) Fetch(_ context.Context, lon, lat float64) (*climate.Dataset, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if s.ds != nil {
		return s.ds, nil
	}
	return climate.Synthetic(lon, lat, 1985, 2024, 11), nil
}

type stubGeocoder struct {
	result domain.GeocodingResult
}

func (g stubGeocoder) ForwardGeocode(context.Context, string, string) (domain.GeocodingResult, error) {
	return g.result, nil
}

func (g stubGeocoder) ReverseGeocode(context.Context, float64, float64) (domain.GeocodingResult, error) {
	return g.result, nil
}

func ptr(v float64) *float64 { return &v }

func newService(src domain.ClimateSource, geo domain.Geocoder, opts Options) *Service {
	return NewService(src, geo, opts, observability.NewMetricsForTesting(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func coordinateQuery() domain.Query {
	return domain.Query{ID: "q-1", Latitude: ptr(45.5), Longitude: ptr(-73.6), Date: "07/01", WindowDays: 3}
}

func TestCompute_AllSections(t *testing.T) {
	src := &stubSource{}
	svc := newService(src, nil, DefaultOptions())

	q := coordinateQuery()
	q.TemperatureThreshold = ptr(25)
	q.WindThreshold = ptr(5)
	report, err := svc.Compute(context.Background(), q)
	require.NoError(t, err)

	assert.NotEmpty(t, report.ID)
	assert.Equal(t, "q-1", report.QueryID)
	assert.Equal(t, 7, report.Month)
	assert.Equal(t, 1, report.Day)
	assert.Equal(t, 3, report.WindowDays)
	assert.Equal(t, domain.YearRange{First: 1985, Last: 2024, Count: 40}, report.Years)
	assert.Equal(t, "coordinates", report.Place.Source)

	p := report.Precipitation
	require.NotNil(t, p)
	assert.Equal(t, estimate.MethodEmpirical, p.Selected.Method)
	require.NotNil(t, p.Empirical)
	require.NotNil(t, p.Parametric)
	assert.Same(t, p.Selected.Empirical, p.Empirical)
	assert.InDelta(t, p.Empirical.Probability, p.Selected.Probability, 0)
	assert.Equal(t, 40, p.Empirical.ValidYears+countMissingWindowYears(t, src, q))
	require.NotNil(t, p.Trend)
	require.NotNil(t, p.Model)
	assert.True(t, p.Model.Available)
	require.NotNil(t, p.Model.PredictedProbability)

	require.NotNil(t, report.Temperature)
	require.NotNil(t, report.Temperature.Prediction.Mean)
	assert.InDelta(t, 22, *report.Temperature.Prediction.Mean, 3, "synthetic July is warm")
	require.NotNil(t, report.Temperature.AtLeast)
	assert.InDelta(t, 25.0, report.Temperature.AtLeast.Threshold, 0)

	require.NotNil(t, report.Wind)
	require.NotNil(t, report.Wind.AtLeast)
	assert.InDelta(t, estimate.DefaultWindTolerance, report.Wind.Prediction.Tolerance, 0)
}

// countMissingWindowYears returns the years without any valid reading in the
// window, which the empirical estimator excludes.
func countMissingWindowYears(t *testing.T, src *stubSource, q domain.Query) int {
	t.Helper()
	ds, err := src.Fetch(context.Background(), *q.Longitude, *q.Latitude)
	require.NoError(t, err)
	s, _ := ds.Series(climate.Precipitation)
	cq, err := q.Calendar()
	require.NoError(t, err)

	missing := 0
	for col, year := range s.Years {
		found := false
		for _, idx := range cq.Indices(year) {
			if s.Values.At(idx, col).Valid() {
				found = true
			}
		}
		if !found {
			missing++
		}
	}
	return missing
}

func TestCompute_ParametricSelected(t *testing.T) {
	svc := newService(&stubSource{}, nil, DefaultOptions())

	q := coordinateQuery()
	q.Method = "parametric"
	q.Threshold = ptr(5)
	report, err := svc.Compute(context.Background(), q)
	require.NoError(t, err)

	p := report.Precipitation
	assert.Equal(t, estimate.MethodParametric, p.Selected.Method)
	assert.Same(t, p.Selected.Parametric, p.Parametric)
	require.NotNil(t, p.Empirical, "the other method is reported for comparison")
	assert.InDelta(t, 5.0, p.Empirical.Threshold, 0)
	assert.InDelta(t, 5.0, p.Parametric.Threshold, 0)
	assert.Nil(t, report.Temperature.AtLeast)
}

func TestCompute_DeterministicForSeed(t *testing.T) {
	svc := newService(&stubSource{}, nil, DefaultOptions())
	q := coordinateQuery()
	q.Seed = 42

	a, err := svc.Compute(context.Background(), q)
	require.NoError(t, err)
	b, err := svc.Compute(context.Background(), q)
	require.NoError(t, err)

	ignore := cmpopts.IgnoreFields(domain.Report{}, "ID", "GeneratedAt")
	if diff := cmp.Diff(a, b, ignore); diff != "" {
		t.Errorf("reports differ for the same seed (-first +second):\n%s", diff)
	}
}

func TestCompute_MLDisabled(t *testing.T) {
	opts := DefaultOptions()
	opts.MLEnabled = false
	svc := newService(&stubSource{}, nil, opts)

	report, err := svc.Compute(context.Background(), coordinateQuery())
	require.NoError(t, err)
	assert.Nil(t, report.Precipitation.Model)
}

func TestCompute_MissingVariablesLeaveSectionsNil(t *testing.T) {
	ds := climate.Synthetic(0, 0, 2000, 2020, 3)
	delete(ds.Values, climate.WindSpeed)
	delete(ds.Values, climate.Temperature)
	svc := newService(&stubSource{ds: ds}, nil, DefaultOptions())

	report, err := svc.Compute(context.Background(), coordinateQuery())
	require.NoError(t, err)
	assert.Nil(t, report.Wind)
	assert.Nil(t, report.Temperature)
	require.NotNil(t, report.Precipitation)
	require.NotNil(t, report.Precipitation.Model, "classifier falls back to precipitation as covariate")
	assert.True(t, report.Precipitation.Model.Available)
}

func TestCompute_ForwardGeocoded(t *testing.T) {
	geo := stubGeocoder{result: domain.GeocodingResult{Lat: -33.87, Lon: 151.21, DisplayName: "Sydney, Australia"}}
	src := &stubSource{}
	svc := newService(src, geo, DefaultOptions())

	report, err := svc.Compute(context.Background(), domain.Query{Location: "Sydney, Australia", Date: "01/15"})
	require.NoError(t, err)
	assert.Equal(t, "forward", report.Place.Source)
	assert.InDelta(t, -33.87, report.Place.Latitude, 0)
	assert.Equal(t, 1, src.calls)
}

func TestCompute_Errors(t *testing.T) {
	tests := []struct {
		name    string
		query   domain.Query
		geo     domain.Geocoder
		fetch   error
		wantErr error
	}{
		{
			name:    "bad date",
			query:   domain.Query{Latitude: ptr(1), Longitude: ptr(1), Date: "02/30"},
			wantErr: domain.ErrInvalidQuery,
		},
		{
			name:    "no place",
			query:   domain.Query{Date: "07/01"},
			wantErr: domain.ErrInvalidQuery,
		},
		{
			name:    "unknown method",
			query:   domain.Query{Latitude: ptr(1), Longitude: ptr(1), Date: "07/01", Method: "bayesian"},
			wantErr: domain.ErrInvalidQuery,
		},
		{
			name:    "not found",
			query:   domain.Query{Location: "Nowhere, Atlantis", Date: "07/01"},
			geo:     stubGeocoder{},
			wantErr: domain.ErrLocationNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &stubSource{}
			svc := newService(src, tt.geo, DefaultOptions())
			_, err := svc.Compute(context.Background(), tt.query)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, 0, src.calls)
		})
	}
}

func TestCompute_FetchError(t *testing.T) {
	upstream := errors.New("power API error: status 503")
	svc := newService(&stubSource{err: upstream}, nil, DefaultOptions())

	_, err := svc.Compute(context.Background(), coordinateQuery())
	require.ErrorIs(t, err, upstream)
	assert.NotErrorIs(t, err, domain.ErrInvalidQuery)
}
