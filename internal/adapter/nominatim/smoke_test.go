//go:build nominatim

package nominatim

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/climate-odds/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests hit the public Nominatim instance.
// Run with: go test -tags=nominatim ./internal/adapter/nominatim/ -v -count=1

func smokeClient() *Client {
	return NewClient(DefaultBaseURL, "climate-odds-smoke/1.0", 10*time.Second, 1,
		observability.NewMetricsForTesting(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestSmoke_ForwardGeocode(t *testing.T) {
	result, err := smokeClient().ForwardGeocode(context.Background(), "Austin", "United States")
	require.NoError(t, err)

	assert.InDelta(t, 30.27, result.Lat, 0.2, "lat should be near Austin")
	assert.InDelta(t, -97.74, result.Lon, 0.2, "lon should be near Austin")
	assert.Contains(t, result.DisplayName, "Austin")
}

func TestSmoke_ReverseGeocode(t *testing.T) {
	result, err := smokeClient().ReverseGeocode(context.Background(), 48.8566, 2.3522)
	require.NoError(t, err)

	assert.Equal(t, "Paris", result.City)
	assert.Equal(t, "France", result.Country)
}

func TestSmoke_ForwardGeocode_Nonsense(t *testing.T) {
	result, err := smokeClient().ForwardGeocode(context.Background(), "XYZNONEXISTENT99", "ZZ")
	require.NoError(t, err)
	assert.False(t, result.Found())
}
