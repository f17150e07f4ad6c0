package power

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/couchcryptid/climate-odds/internal/cache"
	"github.com/couchcryptid/climate-odds/internal/climate"
	"github.com/couchcryptid/climate-odds/internal/domain"
	"github.com/couchcryptid/climate-odds/internal/observability"
)

// CachedSource wraps a ClimateSource with a TTL store. Cache failures are
// logged and fall through to the inner source.
type CachedSource struct {
	inner   domain.ClimateSource
	store   cache.Store
	ttl     time.Duration
	prefix  string
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewCachedSource keys entries by the request start date and parameter list,
// so a config change never serves stale shapes.
func NewCachedSource(inner domain.ClimateSource, store cache.Store, ttl time.Duration, start string, params []climate.Variable, metrics *observability.Metrics, logger *slog.Logger) *CachedSource {
	names := make([]string, len(params))
	for i, p := range params {
		names[i] = string(p)
	}
	return &CachedSource{
		inner:   inner,
		store:   store,
		ttl:     ttl,
		prefix:  start + ":" + strings.Join(names, "|"),
		metrics: metrics,
		logger:  logger,
	}
}

// Key returns the cache key for a point.
func (c *CachedSource) Key(lon, lat float64) string {
	return fmt.Sprintf("power:%.6f:%.6f:%s", lon, lat, c.prefix)
}

func (c *CachedSource) Fetch(ctx context.Context, lon, lat float64) (*climate.Dataset, error) {
	key := c.Key(lon, lat)
	if ds, ok := c.lookup(ctx, key); ok {
		return ds, nil
	}

	ds, err := c.inner.Fetch(ctx, lon, lat)
	if err != nil {
		return nil, err
	}
	c.save(ctx, key, ds)
	return ds, nil
}

func (c *CachedSource) lookup(ctx context.Context, key string) (*climate.Dataset, bool) {
	raw, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Warn("dataset cache read failed", "error", err, "key", key)
		c.metrics.CacheLookups.WithLabelValues("dataset", "error").Inc()
		return nil, false
	}
	if !ok {
		c.metrics.CacheLookups.WithLabelValues("dataset", "miss").Inc()
		return nil, false
	}

	data, err := cache.Decompress(raw)
	if err != nil {
		c.logger.Warn("dataset cache entry corrupt", "error", err, "key", key)
		c.metrics.CacheLookups.WithLabelValues("dataset", "error").Inc()
		return nil, false
	}
	var ds climate.Dataset
	if err := json.Unmarshal(data, &ds); err != nil {
		c.logger.Warn("dataset cache entry undecodable", "error", err, "key", key)
		c.metrics.CacheLookups.WithLabelValues("dataset", "error").Inc()
		return nil, false
	}
	c.metrics.CacheLookups.WithLabelValues("dataset", "hit").Inc()
	return &ds, true
}

func (c *CachedSource) save(ctx context.Context, key string, ds *climate.Dataset) {
	data, err := json.Marshal(ds)
	if err != nil {
		c.logger.Warn("dataset cache encode failed", "error", err, "key", key)
		return
	}
	if err := c.store.Put(ctx, key, cache.Compress(data), c.ttl); err != nil {
		c.logger.Warn("dataset cache write failed", "error", err, "key", key)
	}
}
