package nominatim

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/couchcryptid/climate-odds/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

const (
	testUserAgent     = "climate-odds-test/1.0"
	contentTypeJSON   = "application/json"
	headerContentType = "Content-Type"
)

func testClient(baseURL string) *Client {
	return &Client{
		userAgent:  testUserAgent,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseURL:    baseURL,
		limiter:    rate.NewLimiter(rate.Inf, 1),
		metrics:    observability.NewMetricsForTesting(),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func serveJSON(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(body))
	}
}

func TestClient_ForwardGeocode_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "Austin, United States", r.URL.Query().Get("q"))
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, testUserAgent, r.Header.Get("User-Agent"))

		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(`[{
			"lat": "30.2711286",
			"lon": "-97.7436995",
			"display_name": "Austin, Travis County, Texas, United States",
			"importance": 0.79,
			"address": {"city": "Austin", "county": "Travis County", "country": "United States"}
		}]`))
	}))
	defer srv.Close()

	result, err := testClient(srv.URL).ForwardGeocode(context.Background(), "Austin", "United States")
	require.NoError(t, err)

	assert.InDelta(t, 30.2711286, result.Lat, 1e-9)
	assert.InDelta(t, -97.7436995, result.Lon, 1e-9)
	assert.Equal(t, "Austin, Travis County, Texas, United States", result.DisplayName)
	assert.Equal(t, "Austin", result.City)
	assert.Equal(t, "United States", result.Country)
	assert.InDelta(t, 0.79, result.Confidence, 1e-9)
	assert.True(t, result.Found())
}

func TestClient_ForwardGeocode_NoResults(t *testing.T) {
	srv := httptest.NewServer(serveJSON(`[]`))
	defer srv.Close()

	result, err := testClient(srv.URL).ForwardGeocode(context.Background(), "Nowhere", "Atlantis")
	require.NoError(t, err)
	assert.False(t, result.Found())
}

func TestClient_ReverseGeocode_LocalityFallback(t *testing.T) {
	tests := []struct {
		name    string
		address string
		want    string
	}{
		{"city", `{"city": "Lyon", "county": "Rhone", "country": "France"}`, "Lyon"},
		{"town", `{"town": "Annecy", "country": "France"}`, "Annecy"},
		{"village", `{"village": "Chamonix", "hamlet": "Les Praz", "country": "France"}`, "Chamonix"},
		{"county only", `{"county": "Haute-Savoie", "country": "France"}`, "Haute-Savoie"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/reverse", r.URL.Path)
				assert.Equal(t, "45.764043", r.URL.Query().Get("lat"))
				assert.Equal(t, "4.835659", r.URL.Query().Get("lon"))
				assert.Equal(t, "10", r.URL.Query().Get("zoom"))
				w.Header().Set(headerContentType, contentTypeJSON)
				_, _ = w.Write([]byte(`{"lat": "45.76", "lon": "4.83", "display_name": "Somewhere, France", "address": ` + tt.address + `}`))
			}))
			defer srv.Close()

			result, err := testClient(srv.URL).ReverseGeocode(context.Background(), 45.764043, 4.835659)
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.City)
			assert.Equal(t, "France", result.Country)
			assert.Equal(t, "Somewhere, France", result.DisplayName)
		})
	}
}

func TestClient_ReverseGeocode_Unnamed(t *testing.T) {
	srv := httptest.NewServer(serveJSON(`{"error": "Unable to geocode"}`))
	defer srv.Close()

	result, err := testClient(srv.URL).ReverseGeocode(context.Background(), 0, -30)
	require.NoError(t, err)
	assert.False(t, result.Found())
}

func TestClient_Suggest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "3", r.URL.Query().Get("limit"))
		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(`[
			{"lat": "51.5", "lon": "-0.12", "display_name": "London, England", "address": {"city": "London", "country": "United Kingdom"}},
			{"lat": "42.98", "lon": "-81.24", "display_name": "London, Ontario", "address": {"city": "London", "country": "Canada"}}
		]`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	results, err := c.Suggest(context.Background(), "Lond", 3)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Canada", results[1].Country)

	results, err = c.Suggest(context.Background(), "L", 3)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestClient_MalformedCoordinates(t *testing.T) {
	tests := []struct {
		name string
		lat  string
		lon  string
	}{
		{"unparsable latitude", "north", "2.35"},
		{"empty longitude", "48.85", ""},
		{"latitude out of range", "123.4", "2.35"},
		{"longitude not a number", "48.85", "NaN"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := `{"lat": "` + tt.lat + `", "lon": "` + tt.lon + `", "display_name": "Paris, France", "address": {"city": "Paris", "country": "France"}}`
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set(headerContentType, contentTypeJSON)
				if r.URL.Path == "/search" {
					_, _ = w.Write([]byte("[" + body + "]"))
					return
				}
				_, _ = w.Write([]byte(body))
			}))
			defer srv.Close()
			c := testClient(srv.URL)

			result, err := c.ForwardGeocode(context.Background(), "Paris", "France")
			require.Error(t, err)
			assert.False(t, result.Found(), "a malformed hit must not resolve to (0,0)")

			result, err = c.ReverseGeocode(context.Background(), 48.85, 2.35)
			require.Error(t, err)
			assert.False(t, result.Found())

			results, err := c.Suggest(context.Background(), "Paris", 5)
			require.NoError(t, err)
			assert.Empty(t, results)
		})
	}
}

func TestClient_ForwardGeocode_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`<html>Access blocked</html>`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).ForwardGeocode(context.Background(), "Austin", "United States")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestClient_ForwardGeocode_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	c.httpClient.Timeout = 50 * time.Millisecond
	_, err := c.ForwardGeocode(context.Background(), "Austin", "United States")
	require.Error(t, err)
}

func TestClient_RateLimitHonoursContext(t *testing.T) {
	srv := httptest.NewServer(serveJSON(`[]`))
	defer srv.Close()

	c := testClient(srv.URL)
	c.limiter = rate.NewLimiter(rate.Every(time.Hour), 1)

	_, err := c.ForwardGeocode(context.Background(), "Austin", "United States")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.ForwardGeocode(ctx, "Austin", "United States")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit")
}
