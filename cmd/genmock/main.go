// Command genmock writes a deterministic synthetic climate dataset in the
// same JSON shape the POWER cache stores, for offline runs of climatectl and
// for test fixtures.
//
// Usage:
//
//	go run ./cmd/genmock -lat 40.71 -lon -74.01 -from 1981 -to 2024 -seed 7 -out data/mock/nyc.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/couchcryptid/climate-odds/internal/climate"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	lat := flag.Float64("lat", 40.71, "latitude of the synthetic point")
	lon := flag.Float64("lon", -74.01, "longitude of the synthetic point")
	from := flag.Int("from", 1981, "first year")
	to := flag.Int("to", 2024, "last year")
	seed := flag.Uint64("seed", 1, "generator seed")
	out := flag.String("out", "", "output path for the dataset JSON fixture")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}
	if *from > *to {
		return fmt.Errorf("-from %d is after -to %d", *from, *to)
	}
	if *lat < -90 || *lat > 90 || *lon < -180 || *lon > 180 {
		return fmt.Errorf("coordinates %v,%v out of range", *lat, *lon)
	}

	ds := climate.Synthetic(*lon, *lat, *from, *to, *seed)
	if err := writeJSON(*out, ds); err != nil {
		return fmt.Errorf("writing fixture: %w", err)
	}
	log.Printf("wrote %s: %d years, %d variables", *out, len(ds.Years), len(ds.Values))
	printStats(ds)
	return nil
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644) //nolint:gosec // fixture file, not secret
}

func printStats(ds *climate.Dataset) {
	for _, v := range ds.Variables() {
		m := ds.Values[v]
		log.Printf("  %-12s %6d valid readings", v, m.ValidCount())
	}
}
