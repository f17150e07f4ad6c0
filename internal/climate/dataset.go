package climate

import (
	"errors"
	"fmt"
	"slices"
)

// ErrMisalignedYears is returned when a year vector does not match its matrix.
var ErrMisalignedYears = errors.New("years do not match matrix columns")

// Series is one variable's reading matrix with its parallel year vector.
// Column i of Values holds the readings for Years[i].
type Series struct {
	Variable Variable
	Values   *Matrix
	Years    []int
}

// Aligned reports whether every column can be mapped to a year. Estimators
// fall back to reference-year indexing when it is false.
func (s Series) Aligned() bool {
	return s.Values != nil && len(s.Years) == s.Values.Columns()
}

// Validate rejects series that cannot be estimated on at all.
func (s Series) Validate() error {
	if s.Values == nil {
		return fmt.Errorf("%w: %s has no matrix", ErrInvalidMatrix, s.Variable)
	}
	if s.Values.Columns() == 0 {
		return fmt.Errorf("%w: %s has no year columns", ErrInvalidMatrix, s.Variable)
	}
	return nil
}

// YearOf returns the year for column col. When the series is not aligned the
// column index itself is returned.
func (s Series) YearOf(col int) int {
	if s.Aligned() {
		return s.Years[col]
	}
	return col
}

// Dataset holds every fetched variable for one location.
type Dataset struct {
	Longitude float64              `json:"longitude"`
	Latitude  float64              `json:"latitude"`
	Years     []int                `json:"years"`
	Values    map[Variable]*Matrix `json:"parameters"`
}

// NewDataset returns an empty dataset for the contiguous year range [first, last].
func NewDataset(lon, lat float64, first, last int) *Dataset {
	var years []int
	for y := first; y <= last; y++ {
		years = append(years, y)
	}
	return &Dataset{
		Longitude: lon,
		Latitude:  lat,
		Years:     years,
		Values:    make(map[Variable]*Matrix),
	}
}

// Series returns the named variable. ok is false when it was not fetched.
func (d *Dataset) Series(v Variable) (Series, bool) {
	if d == nil {
		return Series{}, false
	}
	m, ok := d.Values[v]
	if !ok || m == nil {
		return Series{}, false
	}
	return Series{Variable: v, Values: m, Years: d.Years}, true
}

// Variables lists the variables present, in catalogue order first.
func (d *Dataset) Variables() []Variable {
	var out []Variable
	for _, v := range DefaultVariables() {
		if _, ok := d.Values[v]; ok {
			out = append(out, v)
		}
	}
	var extra []Variable
	for v := range d.Values {
		if !slices.Contains(out, v) {
			extra = append(extra, v)
		}
	}
	slices.Sort(extra)
	return append(out, extra...)
}

// Validate checks every matrix against the year vector.
func (d *Dataset) Validate() error {
	if len(d.Years) == 0 {
		return fmt.Errorf("%w: dataset has no years", ErrInvalidMatrix)
	}
	for v, m := range d.Values {
		if m == nil {
			return fmt.Errorf("%w: %s has no matrix", ErrInvalidMatrix, v)
		}
		if m.Columns() != len(d.Years) {
			return fmt.Errorf("%w: %s has %d columns for %d years", ErrMisalignedYears, v, m.Columns(), len(d.Years))
		}
	}
	return nil
}
