package providers

import "gatebot/internal/structures"

type instrumentedCache struct {
	CacheProviderInterface
	metrics MetricsProviderInterface
}

// Get counts every lookup as a hit or a miss.
func (c *instrumentedCache) Get(key string) ([]byte, bool) {
	val, ok := c.CacheProviderInterface.Get(key)
	if ok {
		c.metrics.IncCacheHits()
		return val, true
	}
	c.metrics.IncCacheMisses()
	return nil, false
}

// NewInstrumentedCacheProvider is the response cache the API uses. The
// disabled cache is returned bare, since every lookup on it would count as
// a miss.
func NewInstrumentedCacheProvider(conf *structures.Config, logger Logger, metrics MetricsProviderInterface) CacheProviderInterface {
	cache := NewCacheProvider(conf, logger)
	if _, disabled := cache.(*noopCache); disabled {
		return cache
	}
	return &instrumentedCache{CacheProviderInterface: cache, metrics: metrics}
}
