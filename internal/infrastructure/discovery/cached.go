package discovery

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/macrolens/menulens/internal/domain"
	"go.uber.org/zap"
)

const (
	defaultPositiveTTL = 7 * 24 * time.Hour
	defaultNegativeTTL = 24 * time.Hour
)

// CachedDiscovery memoizes another WebsiteDiscovery. Empty answers are
// cached too, with their own TTL. Cache failures fall through to the inner
// discovery.
type CachedDiscovery struct {
	inner       domain.WebsiteDiscovery
	cache       domain.CacheRepository
	positiveTTL time.Duration
	negativeTTL time.Duration
	logger      *zap.Logger
}

// NewCachedDiscovery wraps inner. Zero TTLs use a week for hits and a day for
// misses.
func NewCachedDiscovery(inner domain.WebsiteDiscovery, cache domain.CacheRepository, positiveTTL, negativeTTL time.Duration, logger *zap.Logger) *CachedDiscovery {
	if positiveTTL <= 0 {
		positiveTTL = defaultPositiveTTL
	}
	if negativeTTL <= 0 {
		negativeTTL = defaultNegativeTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedDiscovery{
		inner:       inner,
		cache:       cache,
		positiveTTL: positiveTTL,
		negativeTTL: negativeTTL,
		logger:      logger.Named("discovery_cache"),
	}
}

// FindWebsite answers from the cache when possible
func (d *CachedDiscovery) FindWebsite(ctx context.Context, name, location string) (string, error) {
	key := CacheKey(name, location)

	cached, err := d.cache.Get(ctx, key)
	switch {
	case err == nil:
		if site, ok := cached.(string); ok {
			return site, nil
		}
		d.logger.Warn("unexpected cached value", zap.String("key", key))
	case !errors.Is(err, domain.ErrCacheMiss):
		d.logger.Warn("cache lookup failed", zap.String("key", key), zap.Error(err))
	}

	site, err := d.inner.FindWebsite(ctx, name, location)
	if err != nil {
		// failures are not cached
		return "", err
	}

	ttl := d.positiveTTL
	if site == "" {
		ttl = d.negativeTTL
	}
	if err := d.cache.Set(ctx, key, site, ttl); err != nil {
		d.logger.Warn("cache store failed", zap.String("key", key), zap.Error(err))
	}
	return site, nil
}

// CacheKey normalizes name and location into a cache key
func CacheKey(name, location string) string {
	norm := func(s string) string {
		return strings.Join(strings.Fields(strings.ToLower(s)), " ")
	}
	return "website:" + norm(name) + "|" + norm(location)
}
