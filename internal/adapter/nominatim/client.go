// Package nominatim geocodes place names against the OpenStreetMap Nominatim API.
package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/climate-odds/internal/domain"
	"github.com/couchcryptid/climate-odds/internal/observability"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the public Nominatim instance.
const DefaultBaseURL = "https://nominatim.openstreetmap.org"

const errorBodyLimit = 200

// Client implements domain.Geocoder using the Nominatim search and reverse APIs.
// The public instance allows one request per second; the limiter enforces it.
type Client struct {
	userAgent  string
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a Nominatim client allowing ratePerSecond requests.
func NewClient(baseURL, userAgent string, timeout time.Duration, ratePerSecond float64, metrics *observability.Metrics, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		userAgent: userAgent,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		limiter: rate.NewLimiter(rate.Limit(ratePerSecond), 1),
		metrics: metrics,
		logger:  logger,
	}
}

// ForwardGeocode converts a city and country to coordinates. An unknown
// place returns an empty result and no error.
func (c *Client) ForwardGeocode(ctx context.Context, city, country string) (domain.GeocodingResult, error) {
	query := city
	if country != "" {
		query = fmt.Sprintf("%s, %s", city, country)
	}
	params := url.Values{
		"q":              {query},
		"format":         {"json"},
		"limit":          {"1"},
		"addressdetails": {"1"},
	}

	var places []place
	if err := c.doRequest(ctx, "/search", params, "forward", &places); err != nil {
		return domain.GeocodingResult{}, err
	}
	if len(places) == 0 {
		c.metrics.GeocodeRequests.WithLabelValues("forward", "empty").Inc()
		return domain.GeocodingResult{}, nil
	}
	result, err := places[0].result()
	if err != nil {
		c.metrics.GeocodeRequests.WithLabelValues("forward", "error").Inc()
		return domain.GeocodingResult{}, fmt.Errorf("forward geocode: %w", err)
	}
	c.metrics.GeocodeRequests.WithLabelValues("forward", "success").Inc()
	return result, nil
}

// ReverseGeocode converts coordinates to place details.
func (c *Client) ReverseGeocode(ctx context.Context, lat, lon float64) (domain.GeocodingResult, error) {
	params := url.Values{
		"format":         {"json"},
		"lat":            {strconv.FormatFloat(lat, 'f', 6, 64)},
		"lon":            {strconv.FormatFloat(lon, 'f', 6, 64)},
		"zoom":           {"10"},
		"addressdetails": {"1"},
	}

	var p place
	if err := c.doRequest(ctx, "/reverse", params, "reverse", &p); err != nil {
		return domain.GeocodingResult{}, err
	}
	// Open ocean and other unnamed points come back as {"error": "..."} with 200.
	if p.Error != "" || p.DisplayName == "" {
		c.metrics.GeocodeRequests.WithLabelValues("reverse", "empty").Inc()
		return domain.GeocodingResult{}, nil
	}
	result, err := p.result()
	if err != nil {
		c.metrics.GeocodeRequests.WithLabelValues("reverse", "error").Inc()
		return domain.GeocodingResult{}, fmt.Errorf("reverse geocode: %w", err)
	}
	c.metrics.GeocodeRequests.WithLabelValues("reverse", "success").Inc()
	return result, nil
}

// Suggest returns up to limit candidate places for a free-text prefix.
// Queries shorter than two characters return nothing.
func (c *Client) Suggest(ctx context.Context, query string, limit int) ([]domain.GeocodingResult, error) {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < 2 {
		return nil, nil
	}
	if limit <= 0 {
		limit = 6
	}
	params := url.Values{
		"q":              {query},
		"format":         {"json"},
		"limit":          {strconv.Itoa(limit)},
		"addressdetails": {"1"},
	}

	var places []place
	if err := c.doRequest(ctx, "/search", params, "suggest", &places); err != nil {
		return nil, err
	}
	c.metrics.GeocodeRequests.WithLabelValues("suggest", "success").Inc()
	out := make([]domain.GeocodingResult, 0, len(places))
	for _, p := range places {
		result, err := p.result()
		if err != nil {
			c.logger.Warn("skipping malformed place suggestion", "display_name", p.DisplayName, "error", err)
			continue
		}
		out = append(out, result)
	}
	return out, nil
}

func (c *Client) doRequest(ctx context.Context, path string, params url.Values, method string, into any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%s geocode rate limit: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.GeocodeAPIDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.GeocodeRequests.WithLabelValues(method, "error").Inc()
		return fmt.Errorf("%s geocode request: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		c.metrics.GeocodeRequests.WithLabelValues(method, "error").Inc()
		return fmt.Errorf("nominatim API error: status %d: %s", resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(into); err != nil {
		c.metrics.GeocodeRequests.WithLabelValues(method, "error").Inc()
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Nominatim API response types.

type place struct {
	Lat         string  `json:"lat"`
	Lon         string  `json:"lon"`
	DisplayName string  `json:"display_name"`
	Importance  float64 `json:"importance"`
	Address     address `json:"address"`
	Error       string  `json:"error"`
}

type address struct {
	City    string `json:"city"`
	Town    string `json:"town"`
	Village string `json:"village"`
	Hamlet  string `json:"hamlet"`
	County  string `json:"county"`
	Country string `json:"country"`
}

// locality picks the most specific populated-place name available.
func (a address) locality() string {
	for _, s := range []string{a.City, a.Town, a.Village, a.Hamlet, a.County} {
		if s != "" {
			return s
		}
	}
	return ""
}

// result converts a place, rejecting coordinates that do not parse or are
// out of range rather than defaulting them to zero.
func (p place) result() (domain.GeocodingResult, error) {
	lat, err := strconv.ParseFloat(p.Lat, 64)
	if err != nil || lat < -90 || lat > 90 || math.IsNaN(lat) {
		return domain.GeocodingResult{}, fmt.Errorf("invalid latitude %q for %q", p.Lat, p.DisplayName)
	}
	lon, err := strconv.ParseFloat(p.Lon, 64)
	if err != nil || lon < -180 || lon > 180 || math.IsNaN(lon) {
		return domain.GeocodingResult{}, fmt.Errorf("invalid longitude %q for %q", p.Lon, p.DisplayName)
	}
	return domain.GeocodingResult{
		Lat:         lat,
		Lon:         lon,
		DisplayName: p.DisplayName,
		City:        p.Address.locality(),
		Country:     p.Address.Country,
		Confidence:  p.Importance,
	}, nil
}
