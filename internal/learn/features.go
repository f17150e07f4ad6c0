package learn

import (
	"errors"
	"fmt"
	"math"

	"github.com/couchcryptid/climate-odds/internal/calendar"
	"github.com/couchcryptid/climate-odds/internal/climate"
)

// ErrInvalidDataset is returned for empty, ragged or mislabelled training input.
var ErrInvalidDataset = errors.New("invalid dataset")

// BuildOptions configures BuildDataset.
type BuildOptions struct {
	// Lags is the number of preceding days of the labelled variable used as features.
	Lags int
	// Threshold labels a row positive when the target-day reading is >= Threshold.
	Threshold float64
	// Covariate supplies the target-day reading feature. When nil the labelled
	// variable's own reading is used.
	Covariate *climate.Series
}

// DefaultBuildOptions returns three lags and a 0.1 threshold.
func DefaultBuildOptions() BuildOptions {
	return BuildOptions{Lags: 3, Threshold: 0.1}
}

// Meta records how a Dataset was built.
type Meta struct {
	Years        []int            `json:"years"`
	Longitude    float64          `json:"longitude"`
	Latitude     float64          `json:"latitude"`
	Month        int              `json:"month"`
	Day          int              `json:"day"`
	Lags         int              `json:"lags"`
	Threshold    float64          `json:"threshold"`
	Variable     climate.Variable `json:"variable"`
	Covariate    climate.Variable `json:"covariate"`
	FeatureNames []string         `json:"feature_names"`
}

// Dataset is a set of feature rows with parallel 0/1 labels.
type Dataset struct {
	X    [][]float64
	Y    []int
	Meta Meta
}

// Len returns the number of rows.
func (d Dataset) Len() int { return len(d.X) }

// BuildDataset derives one row per year from s for the target day in q. Each
// row holds the day-of-year as (sin, cos) of 2*pi*(doy+1)/365, the Lags
// preceding readings of s in the same year, the covariate's target-day
// reading, and the longitude and latitude. Years missing the target reading,
// the covariate, or any lag are left out; nothing is imputed. The query window
// is ignored.
func BuildDataset(s climate.Series, lon, lat float64, q calendar.Query, opts BuildOptions) (Dataset, error) {
	if err := s.Validate(); err != nil {
		return Dataset{}, err
	}
	if !s.Aligned() {
		return Dataset{}, fmt.Errorf("build dataset for %s: %w", s.Variable, climate.ErrMisalignedYears)
	}
	if err := q.Validate(); err != nil {
		return Dataset{}, err
	}
	if opts.Lags < 0 {
		return Dataset{}, fmt.Errorf("%w: lags %d must not be negative", ErrInvalidDataset, opts.Lags)
	}

	cov := s
	if opts.Covariate != nil {
		cov = *opts.Covariate
		if cov.Values.Columns() != s.Values.Columns() {
			return Dataset{}, fmt.Errorf("build dataset covariate %s: %w", cov.Variable, climate.ErrMisalignedYears)
		}
	}

	d := Dataset{Meta: Meta{
		Longitude:    lon,
		Latitude:     lat,
		Month:        q.Month,
		Day:          q.Day,
		Lags:         opts.Lags,
		Threshold:    opts.Threshold,
		Variable:     s.Variable,
		Covariate:    cov.Variable,
		FeatureNames: featureNames(opts.Lags, cov.Variable),
	}}

	for col, year := range s.Years {
		doy, ok := q.AnchorIndex(year)
		if !ok {
			continue
		}
		target, ok := s.Values.At(doy, col).Get()
		if !ok {
			continue
		}
		covariate, ok := cov.Values.At(doy, col).Get()
		if !ok {
			continue
		}
		lags, ok := lagValues(s.Values, doy, col, opts.Lags)
		if !ok {
			continue
		}

		angle := 2 * math.Pi * float64(doy+1) / 365
		row := make([]float64, 0, len(d.Meta.FeatureNames))
		row = append(row, math.Sin(angle), math.Cos(angle))
		row = append(row, lags...)
		row = append(row, covariate, lon, lat)

		label := 0
		if target >= opts.Threshold {
			label = 1
		}
		d.X = append(d.X, row)
		d.Y = append(d.Y, label)
		d.Meta.Years = append(d.Meta.Years, year)
	}
	return d, nil
}

// lagValues returns the readings 1..lags days before doy in the same column.
func lagValues(m *climate.Matrix, doy, col, lags int) ([]float64, bool) {
	out := make([]float64, 0, lags)
	for l := 1; l <= lags; l++ {
		if doy-l < 0 {
			return nil, false
		}
		v, ok := m.At(doy-l, col).Get()
		if !ok {
			return nil, false
		}
		out = append(out, v)
	}
	return out, true
}

func featureNames(lags int, covariate climate.Variable) []string {
	names := []string{"day_sin", "day_cos"}
	for l := 1; l <= lags; l++ {
		names = append(names, fmt.Sprintf("lag_%d", l))
	}
	return append(names, string(covariate), "longitude", "latitude")
}

// validate checks the shape invariants shared by every consumer.
func validate(x [][]float64, y []int) error {
	if len(x) == 0 {
		return fmt.Errorf("%w: no rows", ErrInvalidDataset)
	}
	if len(x) != len(y) {
		return fmt.Errorf("%w: %d rows but %d labels", ErrInvalidDataset, len(x), len(y))
	}
	width := len(x[0])
	if width == 0 {
		return fmt.Errorf("%w: rows have no features", ErrInvalidDataset)
	}
	for i, row := range x {
		if len(row) != width {
			return fmt.Errorf("%w: row %d has %d features, want %d", ErrInvalidDataset, i, len(row), width)
		}
		if y[i] != 0 && y[i] != 1 {
			return fmt.Errorf("%w: label %d at row %d is not 0 or 1", ErrInvalidDataset, y[i], i)
		}
	}
	return nil
}
