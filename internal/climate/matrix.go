package climate

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/couchcryptid/climate-odds/internal/calendar"
)

// ErrInvalidMatrix is returned for matrices that do not have the expected shape.
var ErrInvalidMatrix = errors.New("invalid reading matrix")

// Matrix is a day-of-year by year table of readings. It always has
// calendar.DaysInCalendar rows; column i holds the readings of one year.
type Matrix struct {
	cols  int
	cells []Reading
}

// NewMatrix returns an all-missing matrix with the given number of year columns.
func NewMatrix(cols int) *Matrix {
	if cols < 0 {
		cols = 0
	}
	return &Matrix{cols: cols, cells: make([]Reading, calendar.DaysInCalendar*cols)}
}

// Rows is always calendar.DaysInCalendar.
func (m *Matrix) Rows() int { return calendar.DaysInCalendar }

// Columns returns the number of year columns.
func (m *Matrix) Columns() int {
	if m == nil {
		return 0
	}
	return m.cols
}

// At returns the reading at (day, col). Out-of-range positions read as Missing.
func (m *Matrix) At(day, col int) Reading {
	if m == nil || day < 0 || day >= calendar.DaysInCalendar || col < 0 || col >= m.cols {
		return Missing
	}
	return m.cells[day*m.cols+col]
}

// Set stores r at (day, col). Out-of-range positions are ignored.
func (m *Matrix) Set(day, col int, r Reading) {
	if m == nil || day < 0 || day >= calendar.DaysInCalendar || col < 0 || col >= m.cols {
		return
	}
	m.cells[day*m.cols+col] = r
}

// ValidCount returns the number of present readings.
func (m *Matrix) ValidCount() int {
	if m == nil {
		return 0
	}
	n := 0
	for _, c := range m.cells {
		if c.valid {
			n++
		}
	}
	return n
}

// MarshalJSON encodes the matrix as a [day][year] array with nulls for
// missing readings.
func (m *Matrix) MarshalJSON() ([]byte, error) {
	rows := make([][]Reading, calendar.DaysInCalendar)
	for d := range rows {
		rows[d] = m.cells[d*m.cols : (d+1)*m.cols]
	}
	return json.Marshal(rows)
}

// UnmarshalJSON decodes a [day][year] array. Every row must have the same width.
func (m *Matrix) UnmarshalJSON(data []byte) error {
	var rows [][]Reading
	if err := json.Unmarshal(data, &rows); err != nil {
		return fmt.Errorf("decode matrix: %w", err)
	}
	if len(rows) != calendar.DaysInCalendar {
		return fmt.Errorf("%w: got %d day rows, want %d", ErrInvalidMatrix, len(rows), calendar.DaysInCalendar)
	}
	cols := len(rows[0])
	out := NewMatrix(cols)
	for d, row := range rows {
		if len(row) != cols {
			return fmt.Errorf("%w: row %d has %d columns, want %d", ErrInvalidMatrix, d, len(row), cols)
		}
		copy(out.cells[d*cols:(d+1)*cols], row)
	}
	*m = *out
	return nil
}
