package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/couchcryptid/climate-odds/internal/calendar"
	"github.com/couchcryptid/climate-odds/internal/estimate"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// MaxWindowDays bounds the +/- window a caller may request.
const MaxWindowDays = 30

// Query is an outlook request. Location or both coordinates must be set.
type Query struct {
	ID         string   `json:"id,omitempty" validate:"omitempty,max=128"`
	Location   string   `json:"location,omitempty" validate:"omitempty,max=200"`
	Latitude   *float64 `json:"latitude,omitempty" validate:"omitempty,latitude"`
	Longitude  *float64 `json:"longitude,omitempty" validate:"omitempty,longitude"`
	Date       string   `json:"date" validate:"required"`
	WindowDays int      `json:"window_days" validate:"gte=0,lte=30"`
	Method     string   `json:"method,omitempty" validate:"omitempty,oneof=threshold empirical parametric"`

	// Threshold is the precipitation threshold in mm/day.
	Threshold *float64 `json:"threshold,omitempty" validate:"omitempty,gte=0"`
	// TemperatureThreshold and WindThreshold enable at-least frequencies.
	TemperatureThreshold *float64 `json:"temperature_threshold,omitempty"`
	WindThreshold        *float64 `json:"wind_threshold,omitempty" validate:"omitempty,gte=0"`

	// Seed drives the classifier's train/test split and initialization.
	Seed uint64 `json:"seed,omitempty"`
}

// Validate checks field formats and that a place is given.
func (q Query) Validate() error {
	if err := validate.Struct(q); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalidQuery, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %w", ErrInvalidQuery, err)
	}
	if (q.Latitude == nil) != (q.Longitude == nil) {
		return fmt.Errorf("%w: latitude and longitude must be given together", ErrInvalidQuery)
	}
	if q.Latitude == nil && strings.TrimSpace(q.Location) == "" {
		return fmt.Errorf("%w: location or coordinates are required", ErrInvalidQuery)
	}
	if _, err := q.Calendar(); err != nil {
		return err
	}
	return nil
}

// HasCoordinates reports whether explicit coordinates were supplied.
func (q Query) HasCoordinates() bool {
	return q.Latitude != nil && q.Longitude != nil
}

// Calendar parses Date and WindowDays into a calendar query.
func (q Query) Calendar() (calendar.Query, error) {
	month, day, err := calendar.ParseMonthDay(q.Date)
	if err != nil {
		return calendar.Query{}, fmt.Errorf("%w: %w", ErrInvalidQuery, err)
	}
	cq, err := calendar.NewQuery(month, day, q.WindowDays)
	if err != nil {
		return calendar.Query{}, fmt.Errorf("%w: %w", ErrInvalidQuery, err)
	}
	return cq, nil
}

// EstimationMethod parses Method, defaulting to the empirical estimator.
func (q Query) EstimationMethod() (estimate.Method, error) {
	m, err := estimate.ParseMethod(q.Method)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidQuery, err)
	}
	return m, nil
}

// PrecipitationThreshold returns Threshold or estimate.DefaultThreshold.
func (q Query) PrecipitationThreshold() float64 {
	if q.Threshold != nil {
		return *q.Threshold
	}
	return estimate.DefaultThreshold
}
