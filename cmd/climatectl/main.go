// Command climatectl computes climatological outlooks from the command line,
// either against NASA POWER or against a dataset file written by genmock.
//
// Usage:
//
//	climatectl outlook --location "Paris, France" --date 07/14 --window 3
//	climatectl train --data testdata.json --lat 40.7 --lon -74 --date 01/15 --seed 7
//	climatectl features --data testdata.json --lat 40.7 --lon -74 --date 01/15
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/couchcryptid/climate-odds/internal/adapter/nominatim"
	"github.com/couchcryptid/climate-odds/internal/adapter/power"
	"github.com/couchcryptid/climate-odds/internal/climate"
	"github.com/couchcryptid/climate-odds/internal/config"
	"github.com/couchcryptid/climate-odds/internal/domain"
	"github.com/couchcryptid/climate-odds/internal/observability"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

func main() {
	// A missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// app holds the flags shared by every subcommand.
type app struct {
	data     string
	location string
	lat      float64
	lon      float64
	date     string
	window   int
	seed     uint64
	noGeo    bool
	logLevel string
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "climatectl",
		Short: "Climatological odds for a place and day of the year",
		Long: `climatectl estimates how likely rain, heat and wind are on a calendar day
from the daily climate record of a location.

Places are given either as --lat/--lon or as --location "City, Country".
With --data the record is read from a dataset JSON file instead of NASA POWER.`,
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.data, "data", "", "dataset JSON file to read instead of calling NASA POWER")
	pf.StringVar(&a.location, "location", "", `place as "City, Country"`)
	pf.Float64Var(&a.lat, "lat", 0, "latitude in decimal degrees")
	pf.Float64Var(&a.lon, "lon", 0, "longitude in decimal degrees")
	pf.StringVar(&a.date, "date", "", "target day as MM/DD")
	pf.IntVar(&a.window, "window", 0, "+/- days around the target day")
	pf.Uint64Var(&a.seed, "seed", 0, "seed for the classifier's split and initialization")
	pf.BoolVar(&a.noGeo, "no-geocode", false, "disable Nominatim lookups")
	pf.StringVar(&a.logLevel, "log-level", "warn", "log level (debug|info|warn|error)")

	root.AddCommand(newOutlookCmd(a), newTrainCmd(a), newFeaturesCmd(a))
	return root
}

// query builds the request from the shared flags. Coordinates are only set
// when given so validation can catch a lone --lat or --lon.
func (a *app) query(cmd *cobra.Command) domain.Query {
	q := domain.Query{
		ID:         "cli",
		Location:   a.location,
		Date:       a.date,
		WindowDays: a.window,
		Seed:       a.seed,
	}
	if cmd.Flags().Changed("lat") {
		lat := a.lat
		q.Latitude = &lat
	}
	if cmd.Flags().Changed("lon") {
		lon := a.lon
		q.Longitude = &lon
	}
	return q
}

// deps wires the climate source and geocoder for one command run.
type deps struct {
	source   domain.ClimateSource
	geocoder domain.Geocoder
	metrics  *observability.Metrics
	logger   *slog.Logger
}

func (a *app) deps(cmd *cobra.Command) (deps, error) {
	d := deps{
		logger:  observability.NewLoggerTo(cmd.ErrOrStderr(), a.logLevel, "text"),
		metrics: observability.NewMetricsWith(prometheus.NewRegistry()),
	}

	if a.data != "" {
		src, err := loadFileSource(a.data)
		if err != nil {
			return deps{}, err
		}
		d.source = src
		return d, nil
	}

	cfg, err := config.Load()
	if err != nil {
		return deps{}, fmt.Errorf("load config: %w", err)
	}
	clock := clockwork.NewRealClock()
	d.source = power.NewClient(power.Options{
		BaseURL:    cfg.PowerBaseURL,
		Timeout:    cfg.PowerTimeout,
		StartDate:  cfg.PowerStartDate,
		Community:  cfg.PowerCommunity,
		Parameters: cfg.PowerParameters,
	}, clock, d.metrics, d.logger)

	if cfg.GeocoderEnabled && !a.noGeo {
		d.geocoder = nominatim.NewClient(cfg.NominatimURL, cfg.GeocoderUserAgent, cfg.GeocoderTimeout,
			cfg.GeocoderRateLimit, d.metrics, d.logger)
	}
	return d, nil
}

// fetch resolves the query's place and loads its record.
func (d deps) fetch(ctx context.Context, q domain.Query) (domain.Place, *climate.Dataset, error) {
	place, err := domain.ResolvePlace(ctx, q, d.geocoder, d.logger)
	if err != nil {
		return domain.Place{}, nil, err
	}
	ds, err := d.source.Fetch(ctx, place.Longitude, place.Latitude)
	if err != nil {
		return domain.Place{}, nil, fmt.Errorf("fetch climate data: %w", err)
	}
	if err := ds.Validate(); err != nil {
		return domain.Place{}, nil, err
	}
	return place, ds, nil
}

// fileSource serves one dataset regardless of the requested point.
type fileSource struct {
	ds *climate.Dataset
}

func loadFileSource(path string) (*fileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	var ds climate.Dataset
	if err := json.NewDecoder(f).Decode(&ds); err != nil {
		return nil, fmt.Errorf("decode dataset %s: %w", path, err)
	}
	if err := ds.Validate(); err != nil {
		return nil, fmt.Errorf("dataset %s: %w", path, err)
	}
	return &fileSource{ds: &ds}, nil
}

func (s *fileSource) Fetch(_ context.Context, _, _ float64) (*climate.Dataset, error) {
	return s.ds, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
