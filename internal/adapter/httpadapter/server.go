package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/couchcryptid/climate-odds/internal/domain"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	maxBodyBytes = 64 << 10
	// An uncached outlook waits on the full POWER download.
	writeTimeout = 90 * time.Second
)

// Outlooker computes a report for a query. outlook.Service implements it.
type Outlooker interface {
	Compute(ctx context.Context, q domain.Query) (domain.Report, error)
}

// Suggester lists candidate places for a partial name.
type Suggester interface {
	Suggest(ctx context.Context, query string, limit int) ([]domain.GeocodingResult, error)
}

// Server exposes health, readiness, metrics, and the outlook API.
type Server struct {
	httpServer *http.Server
	outlook    Outlooker
	suggester  Suggester
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics and
// POST /v1/outlook. GET /v1/places is added when suggester is non-nil.
func NewServer(addr string, ready sharedobs.ReadinessChecker, outlook Outlooker, suggester Suggester, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: writeTimeout,
			IdleTimeout:  60 * time.Second,
		},
		outlook:   outlook,
		suggester: suggester,
		logger:    logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("POST /v1/outlook", s.handleOutlook)
	if suggester != nil {
		mux.HandleFunc("GET /v1/places", s.handlePlaces)
	}

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleOutlook(w http.ResponseWriter, r *http.Request) {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	var q domain.Query
	if err := dec.Decode(&q); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode query: %w", err))
		return
	}

	report, err := s.outlook.Compute(r.Context(), q)
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			s.logger.Error("outlook failed", "error", err, "query_id", q.ID)
		}
		writeError(w, status, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, report)
}

func (s *Server) handlePlaces(w http.ResponseWriter, r *http.Request) {
	limit := 6
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 20 {
			writeError(w, http.StatusBadRequest, errors.New("limit must be 1-20"))
			return
		}
		limit = n
	}

	places, err := s.suggester.Suggest(r.Context(), r.URL.Query().Get("q"), limit)
	if err != nil {
		s.logger.Warn("place suggestions failed", "error", err)
		writeError(w, http.StatusBadGateway, err)
		return
	}
	out := make([]place, 0, len(places))
	for _, p := range places {
		out = append(out, place{
			Name:      p.DisplayName,
			City:      p.City,
			Country:   p.Country,
			Latitude:  p.Lat,
			Longitude: p.Lon,
		})
	}
	sharedobs.WriteJSON(w, http.StatusOK, out)
}

type place struct {
	Name      string  `json:"name"`
	City      string  `json:"city,omitempty"`
	Country   string  `json:"country,omitempty"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// statusFor maps outlook errors to HTTP statuses; anything unclassified is
// treated as an upstream failure.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidQuery):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrLocationNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.Canceled):
		return 499
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	sharedobs.WriteJSON(w, status, map[string]string{"error": err.Error()})
}
