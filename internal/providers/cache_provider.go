package providers

import (
	"errors"
	"gatebot/internal/structures"

	"github.com/coocood/freecache"
)

const bytesPerMB = 1024 * 1024

// CacheProviderInterface holds encoded API responses keyed by route and
// query. Entries live until their TTL runs out or the next committed state
// change clears them.
type CacheProviderInterface interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte)
	Clear()
}

type ResponseCache struct {
	cache  *freecache.Cache
	ttl    int
	logger Logger
}

func NewCacheProvider(conf *structures.Config, logger Logger) CacheProviderInterface {
	if !conf.Cache.Enabled || conf.Cache.Size <= 0 {
		logger.Infof(TypeApp, "Response cache disabled")
		return &noopCache{}
	}

	// freecache counts expiry in whole seconds.
	ttl := max(int(conf.Cache.TTL.Seconds()), 1)
	logger.Infof(TypeApp, "Response cache: %dMB, entries kept %ds or until the next state change", conf.Cache.Size, ttl)

	return &ResponseCache{
		cache:  freecache.NewCache(conf.Cache.Size * bytesPerMB),
		ttl:    ttl,
		logger: logger,
	}
}

func (c *ResponseCache) Get(key string) ([]byte, bool) {
	val, err := c.cache.Get([]byte(key))
	if err != nil {
		return nil, false
	}
	return val, true
}

// Set skips responses bigger than a freecache segment allows; such a
// response is simply computed on every request.
func (c *ResponseCache) Set(key string, value []byte) {
	err := c.cache.Set([]byte(key), value, c.ttl)
	if errors.Is(err, freecache.ErrLargeEntry) {
		c.logger.Debugf(TypeGet, "Response for %s too large to cache (%d bytes)", key, len(value))
	}
}

func (c *ResponseCache) Clear() {
	if n := c.cache.EntryCount(); n > 0 {
		c.logger.Debugf(TypeApp, "Dropping %d cached responses", n)
	}
	c.cache.Clear()
}

type noopCache struct{}

func (n *noopCache) Get(_ string) ([]byte, bool) { return nil, false }
func (n *noopCache) Set(_ string, _ []byte)      {}
func (n *noopCache) Clear()                      {}
