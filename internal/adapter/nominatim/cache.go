package nominatim

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/couchcryptid/climate-odds/internal/cache"
	"github.com/couchcryptid/climate-odds/internal/domain"
	"github.com/couchcryptid/climate-odds/internal/observability"
	"github.com/jonboulle/clockwork"
)

// CachedGeocoder wraps a Geocoder with an in-memory LRU cache.
type CachedGeocoder struct {
	inner   domain.Geocoder
	cache   *cache.LRU[domain.GeocodingResult]
	ttl     time.Duration
	metrics *observability.Metrics
}

// NewCachedGeocoder creates a cache decorator around a geocoder. A ttl <= 0
// keeps entries until they are evicted.
func NewCachedGeocoder(inner domain.Geocoder, maxEntries int, ttl time.Duration, clock clockwork.Clock, metrics *observability.Metrics) *CachedGeocoder {
	return &CachedGeocoder{
		inner:   inner,
		cache:   cache.NewLRU[domain.GeocodingResult](maxEntries, clock),
		ttl:     ttl,
		metrics: metrics,
	}
}

func (c *CachedGeocoder) ForwardGeocode(ctx context.Context, city, country string) (domain.GeocodingResult, error) {
	key := fmt.Sprintf("fwd:%s|%s", strings.ToLower(city), strings.ToLower(country))
	return c.lookup(key, func() (domain.GeocodingResult, error) {
		return c.inner.ForwardGeocode(ctx, city, country)
	})
}

func (c *CachedGeocoder) ReverseGeocode(ctx context.Context, lat, lon float64) (domain.GeocodingResult, error) {
	key := fmt.Sprintf("rev:%.6f,%.6f", lat, lon)
	return c.lookup(key, func() (domain.GeocodingResult, error) {
		return c.inner.ReverseGeocode(ctx, lat, lon)
	})
}

func (c *CachedGeocoder) lookup(key string, fetch func() (domain.GeocodingResult, error)) (domain.GeocodingResult, error) {
	if result, ok := c.cache.Get(key); ok {
		c.metrics.CacheLookups.WithLabelValues("geocode", "hit").Inc()
		return result, nil
	}
	c.metrics.CacheLookups.WithLabelValues("geocode", "miss").Inc()

	result, err := fetch()
	if err != nil {
		return result, err
	}
	// Only cache non-empty results so transient "not found" responses can be retried.
	if result.Found() {
		c.cache.Put(key, result, c.ttl)
	}
	return result, nil
}
