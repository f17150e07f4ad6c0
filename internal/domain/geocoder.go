package domain

import (
	"context"

	"github.com/couchcryptid/climate-odds/internal/climate"
)

// GeocodingResult contains location data returned by a geocoding provider.
type GeocodingResult struct {
	Lat         float64
	Lon         float64
	DisplayName string
	City        string
	Country     string
	Confidence  float64 // provider importance score, 0.0-1.0
}

// Found reports whether the provider matched anything.
func (r GeocodingResult) Found() bool {
	return r.DisplayName != "" || r.Lat != 0 || r.Lon != 0
}

// Geocoder resolves place names and coordinates.
type Geocoder interface {
	// ForwardGeocode converts a city and country to coordinates.
	ForwardGeocode(ctx context.Context, city, country string) (GeocodingResult, error)

	// ReverseGeocode converts coordinates to place details.
	ReverseGeocode(ctx context.Context, lat, lon float64) (GeocodingResult, error)
}

// ClimateSource returns the daily record for a point, one matrix per variable,
// with missing readings marked explicitly.
type ClimateSource interface {
	Fetch(ctx context.Context, lon, lat float64) (*climate.Dataset, error)
}
