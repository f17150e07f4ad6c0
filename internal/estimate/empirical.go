package estimate

import (
	"github.com/couchcryptid/climate-odds/internal/calendar"
	"github.com/couchcryptid/climate-odds/internal/climate"
)

// DefaultThreshold is the precipitation threshold in mm/day used when none is given.
const DefaultThreshold = 1.0

// ThresholdOptions configures the empirical estimator.
type ThresholdOptions struct {
	Threshold float64
	// MinValidYears below which the probability is reported as 0. Values < 1 mean 1.
	MinValidYears int
}

// EmpiricalResult is the outcome of an empirical exceedance count.
type EmpiricalResult struct {
	Probability    float64 `json:"probability"`
	Threshold      float64 `json:"threshold"`
	ValidYears     int     `json:"valid_year_count"`
	ExceedingYears int     `json:"exceeding_year_count"`
	ValidYearList  []int   `json:"valid_years"`
	ExceedYearList []int   `json:"exceeding_years"`
}

// Empirical returns the fraction of valid years in which at least one reading
// within the query window is strictly greater than the threshold. A year is
// valid when any reading in its window is present; missing readings are never
// counted as zero.
func Empirical(s climate.Series, q calendar.Query, opts ThresholdOptions) (EmpiricalResult, error) {
	cols, err := columns(s, q, true)
	if err != nil {
		return EmpiricalResult{}, err
	}

	res := EmpiricalResult{Threshold: opts.Threshold}
	for _, c := range cols {
		valid, exceeded := false, false
		for _, row := range c.rows {
			v, ok := s.Values.At(row, c.index).Get()
			if !ok {
				continue
			}
			valid = true
			if v > opts.Threshold {
				exceeded = true
			}
		}
		if !valid {
			continue
		}
		res.ValidYearList = append(res.ValidYearList, c.year)
		if exceeded {
			res.ExceedYearList = append(res.ExceedYearList, c.year)
		}
	}

	res.ValidYears = len(res.ValidYearList)
	res.ExceedingYears = len(res.ExceedYearList)
	if res.ValidYears >= max(opts.MinValidYears, 1) {
		res.Probability = ratio(res.ExceedingYears, res.ValidYears)
	}
	return res, nil
}
