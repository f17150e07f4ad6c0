package estimate

import (
	"github.com/couchcryptid/climate-odds/internal/calendar"
	"github.com/couchcryptid/climate-odds/internal/climate"
)

// series builds an aligned series for the contiguous years [first, first+n).
func series(v climate.Variable, first, n int) climate.Series {
	years := make([]int, n)
	for i := range years {
		years[i] = first + i
	}
	return climate.Series{Variable: v, Values: climate.NewMatrix(n), Years: years}
}

// setDay writes value at month/day for column col when that date exists.
func setDay(s climate.Series, col, month, day int, value climate.Reading) {
	idx, ok := calendar.DayOfYearIndex(s.YearOf(col), month, day)
	if !ok {
		return
	}
	s.Values.Set(idx, col, value)
}

func mustQuery(month, day, window int) calendar.Query {
	q, err := calendar.NewQuery(month, day, window)
	if err != nil {
		panic(err)
	}
	return q
}
