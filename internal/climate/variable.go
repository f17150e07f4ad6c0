package climate

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownVariable is returned when a variable name is not in the catalogue.
var ErrUnknownVariable = errors.New("unknown variable")

// Variable names a daily reanalysis parameter. Values match the NASA POWER
// parameter codes.
type Variable string

const (
	Temperature    Variable = "T2M"
	Precipitation  Variable = "PRECTOTCORR"
	WindSpeed      Variable = "WS2M"
	TemperatureMax Variable = "T2M_MAX"
	TemperatureMin Variable = "T2M_MIN"
	Humidity       Variable = "RH2M"
	Irradiance     Variable = "ALLSKY_SFC_SW_DWN"
	AerosolDepth   Variable = "AOD550"
)

type variableInfo struct {
	unit        string
	description string
}

var catalogue = map[Variable]variableInfo{
	Temperature:    {"C", "temperature at 2 meters"},
	Precipitation:  {"mm/day", "bias-corrected precipitation"},
	WindSpeed:      {"m/s", "wind speed at 2 meters"},
	TemperatureMax: {"C", "maximum temperature at 2 meters"},
	TemperatureMin: {"C", "minimum temperature at 2 meters"},
	Humidity:       {"%", "relative humidity at 2 meters"},
	Irradiance:     {"kWh/m^2/day", "all-sky surface shortwave irradiance"},
	AerosolDepth:   {"1", "aerosol optical depth at 550 nm"},
}

// DefaultVariables is the set fetched when none is configured.
func DefaultVariables() []Variable {
	return []Variable{
		Temperature, Precipitation, WindSpeed, TemperatureMax,
		TemperatureMin, Humidity, Irradiance, AerosolDepth,
	}
}

// ParseVariable resolves a parameter code, ignoring case.
func ParseVariable(s string) (Variable, error) {
	v := Variable(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := catalogue[v]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownVariable, s)
	}
	return v, nil
}

// Unit returns the measurement unit, or "" for unknown variables.
func (v Variable) Unit() string { return catalogue[v].unit }

// Description returns a short human-readable label.
func (v Variable) Description() string { return catalogue[v].description }
