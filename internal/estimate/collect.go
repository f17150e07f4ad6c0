package estimate

import (
	"github.com/couchcryptid/climate-odds/internal/calendar"
	"github.com/couchcryptid/climate-odds/internal/climate"
)

// column is one matrix column's year and the rows to read for a query.
type column struct {
	index int
	year  int
	rows  []int
}

// columns resolves the rows each column contributes to q. Aligned series use
// per-year date arithmetic; others share rows computed on the reference year
// and report the column index as the year.
func columns(s climate.Series, q calendar.Query, window bool) ([]column, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if !window {
		q.WindowDays = 0
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}

	n := s.Values.Columns()
	out := make([]column, 0, n)
	if s.Aligned() {
		for i, y := range s.Years {
			rows := q.Indices(y)
			if rows == nil {
				continue
			}
			out = append(out, column{index: i, year: y, rows: rows})
		}
		return out, nil
	}

	rows, err := q.ReferenceIndices()
	if err != nil {
		return nil, err
	}
	for i := range n {
		out = append(out, column{index: i, year: i, rows: rows})
	}
	return out, nil
}

// sample is one valid reading on the anchor day.
type sample struct {
	year  int
	value float64
}

// anchorSamples collects the valid readings on the query's anchor day, one per
// column at most.
func anchorSamples(s climate.Series, q calendar.Query) ([]sample, error) {
	cols, err := columns(s, q, false)
	if err != nil {
		return nil, err
	}
	out := make([]sample, 0, len(cols))
	for _, c := range cols {
		if v, ok := s.Values.At(c.rows[0], c.index).Get(); ok {
			out = append(out, sample{year: c.year, value: v})
		}
	}
	return out, nil
}
