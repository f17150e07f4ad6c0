// Package calendar maps calendar dates onto the fixed 366-row day-of-year
// layout used by every reading matrix.
//
// Row indices are offsets from Jan 1 of the reading's own year, so Mar 1 is
// row 59 in a common year and row 60 in a leap year. Feb 29 only exists in
// leap years; asking for it in any other year yields no index and callers
// skip that year.
package calendar

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DaysInCalendar is the number of day rows in every reading matrix.
const DaysInCalendar = 366

// ReferenceYear is the common year used when readings cannot be aligned to
// their own years.
const ReferenceYear = 2001

// MaxWindowDays is the widest +/- window a Query may carry. A window this wide
// already covers every row of the calendar.
const MaxWindowDays = DaysInCalendar / 2

// ErrInvalidDate is returned for malformed or out-of-range month/day input.
var ErrInvalidDate = errors.New("invalid date")

// maxDays is the longest a month can be in any year.
var maxDays = [12]int{31, 29, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

// IsLeap reports whether year is a Gregorian leap year.
func IsLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// DaysIn returns the number of days in month for the given year.
func DaysIn(year, month int) int {
	if month < 1 || month > 12 {
		return 0
	}
	if month == 2 && !IsLeap(year) {
		return 28
	}
	return maxDays[month-1]
}

// DayOfYearIndex returns the zero-based day offset of (year, month, day) from
// Jan 1 of the same year. ok is false when the date does not exist in that year.
func DayOfYearIndex(year, month, day int) (int, bool) {
	if day < 1 || day > DaysIn(year, month) {
		return 0, false
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC).YearDay() - 1, true
}

// DateOf converts a day index back into a month and day for the given year.
func DateOf(year, index int) (month, day int, ok bool) {
	if index < 0 || index >= DaysInCalendar {
		return 0, 0, false
	}
	t := time.Date(year, time.January, 1+index, 0, 0, 0, 0, time.UTC)
	if t.Year() != year {
		return 0, 0, false
	}
	return int(t.Month()), t.Day(), true
}

// Query is a target calendar day with an optional +/- window in days.
type Query struct {
	Month      int
	Day        int
	WindowDays int
}

// NewQuery validates month/day against the leap calendar and returns a Query.
// Feb 29 is accepted; years without it are skipped when indexing.
func NewQuery(month, day, windowDays int) (Query, error) {
	if month < 1 || month > 12 {
		return Query{}, fmt.Errorf("%w: month %d out of range 1-12", ErrInvalidDate, month)
	}
	if day < 1 || day > maxDays[month-1] {
		return Query{}, fmt.Errorf("%w: day %d out of range for month %d", ErrInvalidDate, day, month)
	}
	if windowDays < 0 {
		return Query{}, fmt.Errorf("%w: window %d must not be negative", ErrInvalidDate, windowDays)
	}
	if windowDays > MaxWindowDays {
		return Query{}, fmt.Errorf("%w: window %d exceeds %d days", ErrInvalidDate, windowDays, MaxWindowDays)
	}
	return Query{Month: month, Day: day, WindowDays: windowDays}, nil
}

// Validate re-checks a Query built without NewQuery.
func (q Query) Validate() error {
	_, err := NewQuery(q.Month, q.Day, q.WindowDays)
	return err
}

// ParseMonthDay parses "MM/DD" into a month and day.
func ParseMonthDay(s string) (month, day int, err error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: %q is not MM/DD", ErrInvalidDate, s)
	}
	month, err = strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: month %q is not a number", ErrInvalidDate, parts[0])
	}
	day, err = strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: day %q is not a number", ErrInvalidDate, parts[1])
	}
	if _, err := NewQuery(month, day, 0); err != nil {
		return 0, 0, err
	}
	return month, day, nil
}

// AnchorIndex returns the target day's row for year, if the date exists there.
func (q Query) AnchorIndex(year int) (int, bool) {
	return DayOfYearIndex(year, q.Month, q.Day)
}

// Indices returns the rows covered by the window in the given year. Each date
// in the window is derived by date arithmetic, reduced to month/day, and
// reindexed within year, so windows that cross Jan 1 or Dec 31 wrap within the
// same year's column. Duplicate rows are dropped. Returns nil when the anchor
// date does not exist in year.
func (q Query) Indices(year int) []int {
	if _, ok := q.AnchorIndex(year); !ok {
		return nil
	}
	anchor := time.Date(year, time.Month(q.Month), q.Day, 0, 0, 0, 0, time.UTC)
	seen := make(map[int]struct{}, 2*q.WindowDays+1)
	out := make([]int, 0, 2*q.WindowDays+1)
	for delta := -q.WindowDays; delta <= q.WindowDays; delta++ {
		d := anchor.AddDate(0, 0, delta)
		idx, ok := DayOfYearIndex(year, int(d.Month()), d.Day())
		if !ok {
			continue
		}
		if _, dup := seen[idx]; dup {
			continue
		}
		seen[idx] = struct{}{}
		out = append(out, idx)
	}
	return out
}

// ReferenceIndices returns window rows computed once against ReferenceYear
// with plain index arithmetic. Used when a matrix's columns cannot be mapped
// to years; rows outside the calendar are dropped. An invalid anchor in the
// reference year is an error.
func (q Query) ReferenceIndices() ([]int, error) {
	anchor, ok := q.AnchorIndex(ReferenceYear)
	if !ok {
		return nil, fmt.Errorf("%w: %02d/%02d does not exist in reference year %d", ErrInvalidDate, q.Month, q.Day, ReferenceYear)
	}
	out := make([]int, 0, 2*q.WindowDays+1)
	for delta := -q.WindowDays; delta <= q.WindowDays; delta++ {
		idx := anchor + delta
		if idx < 0 || idx >= DaysInCalendar {
			continue
		}
		out = append(out, idx)
	}
	return out, nil
}
