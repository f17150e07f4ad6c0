package domain

import (
	"time"

	"github.com/couchcryptid/climate-odds/internal/estimate"
	"github.com/couchcryptid/climate-odds/internal/learn"
	"github.com/google/uuid"
)

// Place is a resolved location.
type Place struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Name      string  `json:"name,omitempty"`
	Source    string  `json:"source"` // "coordinates", "forward", "reverse"
}

// YearRange is the span of the climate record used.
type YearRange struct {
	First int `json:"first"`
	Last  int `json:"last"`
	Count int `json:"count"`
}

// PrecipitationOutlook holds both exceedance estimates; Selected repeats the
// one the caller asked for.
type PrecipitationOutlook struct {
	Selected   estimate.Estimate          `json:"selected"`
	Empirical  *estimate.EmpiricalResult  `json:"empirical"`
	Parametric *estimate.ParametricResult `json:"parametric"`
	Trend      *estimate.Trend            `json:"trend"`
	Model      *learn.RunResult           `json:"model,omitempty"`
}

// ContinuousOutlook describes a temperature-like variable on the target day.
type ContinuousOutlook struct {
	Prediction estimate.Prediction `json:"prediction"`
	AtLeast    *estimate.Frequency `json:"at_least,omitempty"`
	Trend      *estimate.Trend     `json:"trend"`
}

// Report is the response to a Query.
type Report struct {
	ID            string                `json:"id"`
	QueryID       string                `json:"query_id,omitempty"`
	Place         Place                 `json:"place"`
	Month         int                   `json:"month"`
	Day           int                   `json:"day"`
	WindowDays    int                   `json:"window_days"`
	Years         YearRange             `json:"years"`
	Precipitation *PrecipitationOutlook `json:"precipitation"`
	Temperature   *ContinuousOutlook    `json:"temperature"`
	Wind          *ContinuousOutlook    `json:"wind"`
	GeneratedAt   time.Time             `json:"generated_at"`
}

// NewReport starts a report for q at place with a fresh ID and timestamp.
func NewReport(q Query, place Place, month, day int) Report {
	return Report{
		ID:          uuid.NewString(),
		QueryID:     q.ID,
		Place:       place,
		Month:       month,
		Day:         day,
		WindowDays:  q.WindowDays,
		GeneratedAt: clock.Now().UTC(),
	}
}

// NewYearRange summarizes a year vector.
func NewYearRange(years []int) YearRange {
	if len(years) == 0 {
		return YearRange{}
	}
	return YearRange{First: years[0], Last: years[len(years)-1], Count: len(years)}
}
