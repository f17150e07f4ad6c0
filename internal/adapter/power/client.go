// Package power fetches daily point climatologies from the NASA POWER API and
// reshapes them into day-of-year by year matrices.
package power

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/climate-odds/internal/calendar"
	"github.com/couchcryptid/climate-odds/internal/climate"
	"github.com/couchcryptid/climate-odds/internal/observability"
	"github.com/jonboulle/clockwork"
	"github.com/sony/gobreaker/v2"
)

const (
	// DefaultBaseURL is the public POWER endpoint.
	DefaultBaseURL = "https://power.larc.nasa.gov"
	// DefaultStartDate is the first day of the POWER daily record.
	DefaultStartDate = "19810101"
	// DefaultCommunity selects the agroclimatology unit set.
	DefaultCommunity = "AG"

	dailyPointPath   = "/api/temporal/daily/point"
	maxAttempts      = 5
	defaultFillValue = -999.0
	errorBodyLimit   = 800
)

// ErrNoParameters is returned when POWER rejected every requested parameter.
var ErrNoParameters = errors.New("no valid POWER parameters left to request")

var rejectedParamsRe = regexp.MustCompile(`(?i)incorrect: ([A-Z0-9_,]+)`)

// Options configures a Client.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	StartDate  string // YYYYMMDD
	Community  string
	Parameters []climate.Variable
}

// Client implements domain.ClimateSource using the POWER daily point API.
type Client struct {
	baseURL    string
	start      string
	community  string
	params     []climate.Variable
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[*apiResponse]
	clock      clockwork.Clock
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a POWER client. Zero-valued options fall back to the
// public endpoint, the full record and the default variable set.
func NewClient(opts Options, clock clockwork.Clock, metrics *observability.Metrics, logger *slog.Logger) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.StartDate == "" {
		opts.StartDate = DefaultStartDate
	}
	if opts.Community == "" {
		opts.Community = DefaultCommunity
	}
	if len(opts.Parameters) == 0 {
		opts.Parameters = climate.DefaultVariables()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		start:      opts.StartDate,
		community:  opts.Community,
		params:     slices.Clone(opts.Parameters),
		httpClient: &http.Client{Timeout: opts.Timeout},
		breaker:    newBreaker("power"),
		clock:      clock,
		metrics:    metrics,
		logger:     logger,
	}
}

func newBreaker(name string) *gobreaker.CircuitBreaker[*apiResponse] {
	return gobreaker.NewCircuitBreaker[*apiResponse](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
}

// StartDate returns the first requested day, YYYYMMDD.
func (c *Client) StartDate() string { return c.start }

// Parameters returns the variables requested on every fetch.
func (c *Client) Parameters() []climate.Variable { return slices.Clone(c.params) }

// Fetch downloads the full daily record for a point. Parameters POWER reports
// as unknown are dropped and the request retried.
func (c *Client) Fetch(ctx context.Context, lon, lat float64) (*climate.Dataset, error) {
	end := c.clock.Now().UTC().Format("20060102")
	params := slices.Clone(c.params)

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		resp, err := c.get(ctx, lon, lat, params, end)
		if err != nil {
			c.metrics.FetchRequests.WithLabelValues("error").Inc()
			return nil, err
		}

		if resp.status == http.StatusUnprocessableEntity {
			bad := rejectedParams(resp.body)
			if len(bad) == 0 {
				c.metrics.FetchRequests.WithLabelValues("error").Inc()
				return nil, statusError(resp)
			}
			params = slices.DeleteFunc(params, func(v climate.Variable) bool {
				return slices.Contains(bad, string(v))
			})
			c.logger.Warn("power rejected parameters, retrying",
				"rejected", bad, "remaining", len(params), "attempt", attempt)
			c.metrics.FetchRequests.WithLabelValues("retry").Inc()
			if len(params) == 0 {
				return nil, ErrNoParameters
			}
			continue
		}
		if resp.status != http.StatusOK {
			c.metrics.FetchRequests.WithLabelValues("error").Inc()
			return nil, statusError(resp)
		}

		ds, err := decodeDataset(resp.body, lon, lat)
		if err != nil {
			c.metrics.FetchRequests.WithLabelValues("error").Inc()
			return nil, err
		}
		c.metrics.FetchRequests.WithLabelValues("success").Inc()
		c.logger.Debug("power dataset fetched",
			"longitude", lon, "latitude", lat, "years", len(ds.Years), "parameters", len(ds.Values))
		return ds, nil
	}
	c.metrics.FetchRequests.WithLabelValues("error").Inc()
	return nil, fmt.Errorf("power fetch failed after %d attempts", maxAttempts)
}

type apiResponse struct {
	status int
	body   []byte
}

func (c *Client) get(ctx context.Context, lon, lat float64, params []climate.Variable, end string) (*apiResponse, error) {
	names := make([]string, len(params))
	for i, p := range params {
		names[i] = string(p)
	}
	q := url.Values{
		"parameters":    {strings.Join(names, ",")},
		"community":     {c.community},
		"longitude":     {strconv.FormatFloat(lon, 'f', -1, 64)},
		"latitude":      {strconv.FormatFloat(lat, 'f', -1, 64)},
		"start":         {c.start},
		"end":           {end},
		"time-standard": {"UTC"},
		"format":        {"JSON"},
	}
	fullURL := c.baseURL + dailyPointPath + "?" + q.Encode()

	start := c.clock.Now()
	resp, err := c.breaker.Execute(func() (*apiResponse, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		r, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("power request: %w", err)
		}
		defer r.Body.Close()

		body, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}
		out := &apiResponse{status: r.StatusCode, body: body}
		// Server-side failures count against the breaker; 4xx are caller errors.
		if r.StatusCode >= 500 || r.StatusCode == http.StatusTooManyRequests {
			return out, statusError(out)
		}
		return out, nil
	})
	c.metrics.FetchDuration.Observe(c.clock.Since(start).Seconds())
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("power circuit breaker: %w", err)
		}
		return nil, err
	}
	return resp, nil
}

func statusError(r *apiResponse) error {
	body := r.body
	if len(body) > errorBodyLimit {
		body = body[:errorBodyLimit]
	}
	return fmt.Errorf("power API error: status %d: %s", r.status, body)
}

// rejectedParams extracts the parameter names from POWER's 422 message.
func rejectedParams(body []byte) []string {
	text := string(body)
	if !strings.Contains(text, "One of your parameters is incorrect") {
		return nil
	}
	m := rejectedParamsRe.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	var out []string
	for _, name := range strings.Split(m[1], ",") {
		if name = strings.ToUpper(strings.TrimSpace(name)); name != "" {
			out = append(out, name)
		}
	}
	return out
}

// POWER API response types.

type pointResponse struct {
	Header     responseHeader     `json:"header"`
	Properties responseProperties `json:"properties"`
}

type responseHeader struct {
	FillValue *float64 `json:"fill_value"`
}

type responseProperties struct {
	Parameter map[string]map[string]*float64 `json:"parameter"`
}

func decodeDataset(body []byte, lon, lat float64) (*climate.Dataset, error) {
	var resp pointResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	fill := defaultFillValue
	if resp.Header.FillValue != nil {
		fill = *resp.Header.FillValue
	}

	type stamp struct{ year, day int }
	stamps := make(map[string]stamp)
	minYear, maxYear := 0, 0
	for _, series := range resp.Properties.Parameter {
		for key := range series {
			if _, seen := stamps[key]; seen {
				continue
			}
			y, m, d, ok := parseDateKey(key)
			if !ok {
				continue
			}
			idx, ok := calendar.DayOfYearIndex(y, m, d)
			if !ok {
				continue
			}
			stamps[key] = stamp{year: y, day: idx}
			if len(stamps) == 1 || y < minYear {
				minYear = y
			}
			if len(stamps) == 1 || y > maxYear {
				maxYear = y
			}
		}
	}
	if len(stamps) == 0 {
		return nil, fmt.Errorf("%w: power response has no daily values", climate.ErrInvalidMatrix)
	}

	ds := climate.NewDataset(lon, lat, minYear, maxYear)
	for name, series := range resp.Properties.Parameter {
		m := climate.NewMatrix(len(ds.Years))
		for key, v := range series {
			s, ok := stamps[key]
			if !ok || v == nil || *v == fill {
				continue
			}
			m.Set(s.day, s.year-minYear, climate.Value(*v))
		}
		ds.Values[climate.Variable(strings.ToUpper(name))] = m
	}
	return ds, nil
}

// parseDateKey accepts YYYYMMDD and YYYY-MM-DD.
func parseDateKey(key string) (year, month, day int, ok bool) {
	key = strings.ReplaceAll(key, "-", "")
	if len(key) != 8 {
		return 0, 0, 0, false
	}
	t, err := time.Parse("20060102", key)
	if err != nil {
		return 0, 0, 0, false
	}
	return t.Year(), int(t.Month()), t.Day(), true
}
