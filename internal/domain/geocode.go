package domain

import (
	"context"
	"fmt"
	"log/slog"
)

// ResolvePlace turns a query's location into coordinates.
// Explicit coordinates are used as given and only decorated with a reverse
// geocoded name when a geocoder is available; a failed reverse lookup is
// logged and otherwise ignored. Text locations must be forward geocoded.
func ResolvePlace(ctx context.Context, q Query, geocoder Geocoder, logger *slog.Logger) (Place, error) {
	if q.HasCoordinates() {
		place := Place{Latitude: *q.Latitude, Longitude: *q.Longitude, Source: "coordinates"}
		if geocoder == nil {
			return place, nil
		}
		result, err := geocoder.ReverseGeocode(ctx, place.Latitude, place.Longitude)
		if err != nil {
			logger.Warn("reverse geocoding failed",
				"query_id", q.ID,
				"lat", place.Latitude,
				"lon", place.Longitude,
				"error", err,
			)
			return place, nil
		}
		if result.DisplayName != "" {
			place.Name = result.DisplayName
			place.Source = "reverse"
		}
		return place, nil
	}

	city, country, err := ParseLocation(q.Location)
	if err != nil {
		return Place{}, err
	}
	if geocoder == nil {
		return Place{}, fmt.Errorf("%w: geocoding is disabled, supply latitude and longitude", ErrInvalidQuery)
	}
	result, err := geocoder.ForwardGeocode(ctx, city, country)
	if err != nil {
		return Place{}, fmt.Errorf("geocode %q: %w", q.Location, err)
	}
	if !result.Found() {
		return Place{}, fmt.Errorf("%w: %s, %s", ErrLocationNotFound, city, country)
	}
	name := result.DisplayName
	if name == "" {
		name = city + ", " + country
	}
	return Place{Latitude: result.Lat, Longitude: result.Lon, Name: name, Source: "forward"}, nil
}
