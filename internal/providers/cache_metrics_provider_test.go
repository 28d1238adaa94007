package providers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type cacheMetricsTestMetrics struct {
	noopMetrics
	hits   int
	misses int
}

func (m *cacheMetricsTestMetrics) IncCacheHits()   { m.hits++ }
func (m *cacheMetricsTestMetrics) IncCacheMisses() { m.misses++ }

type cacheMetricsTestInner struct {
	data map[string][]byte
}

func (c *cacheMetricsTestInner) Get(key string) ([]byte, bool) {
	v, ok := c.data[key]
	return v, ok
}
func (c *cacheMetricsTestInner) Set(key string, value []byte) {
	c.data[key] = value
}
func (c *cacheMetricsTestInner) Clear() {
	c.data = map[string][]byte{}
}

func TestInstrumentedCache_Hit(t *testing.T) {
	inner := &cacheMetricsTestInner{data: map[string][]byte{"key1": []byte("val1")}}
	metrics := &cacheMetricsTestMetrics{}
	cache := &instrumentedCache{CacheProviderInterface: inner, metrics: metrics}

	val, ok := cache.Get("key1")
	assert.True(t, ok)
	assert.Equal(t, []byte("val1"), val)
	assert.Equal(t, 1, metrics.hits)
	assert.Equal(t, 0, metrics.misses)
}

func TestInstrumentedCache_Miss(t *testing.T) {
	inner := &cacheMetricsTestInner{data: map[string][]byte{}}
	metrics := &cacheMetricsTestMetrics{}
	cache := &instrumentedCache{CacheProviderInterface: inner, metrics: metrics}

	val, ok := cache.Get("missing")
	assert.False(t, ok)
	assert.Nil(t, val)
	assert.Equal(t, 0, metrics.hits)
	assert.Equal(t, 1, metrics.misses)
}

func TestInstrumentedCache_SetDelegates(t *testing.T) {
	inner := &cacheMetricsTestInner{data: map[string][]byte{}}
	metrics := &cacheMetricsTestMetrics{}
	cache := &instrumentedCache{CacheProviderInterface: inner, metrics: metrics}

	cache.Set("key2", []byte("val2"))

	val, ok := inner.Get("key2")
	assert.True(t, ok)
	assert.Equal(t, []byte("val2"), val)
}

func TestInstrumentedCache_MultipleOperations(t *testing.T) {
	inner := &cacheMetricsTestInner{data: map[string][]byte{"a": []byte("1")}}
	metrics := &cacheMetricsTestMetrics{}
	cache := &instrumentedCache{CacheProviderInterface: inner, metrics: metrics}

	cache.Get("a") // hit
	cache.Get("b") // miss
	cache.Get("a") // hit
	cache.Get("c") // miss

	assert.Equal(t, 2, metrics.hits)
	assert.Equal(t, 2, metrics.misses)
}

func TestInstrumentedCache_ClearDelegates(t *testing.T) {
	inner := &cacheMetricsTestInner{data: map[string][]byte{"a": []byte("1")}}
	cache := &instrumentedCache{CacheProviderInterface: inner, metrics: &cacheMetricsTestMetrics{}}

	cache.Clear()

	_, ok := inner.Get("a")
	assert.False(t, ok)
}

func TestNewInstrumentedCacheProvider_DisabledIsBare(t *testing.T) {
	c := NewInstrumentedCacheProvider(cacheConfig(false, 1, time.Second), &cacheTestLogger{}, &cacheMetricsTestMetrics{})
	assert.IsType(t, &noopCache{}, c)

	c = NewInstrumentedCacheProvider(cacheConfig(true, 1, time.Second), &cacheTestLogger{}, &cacheMetricsTestMetrics{})
	assert.IsType(t, &instrumentedCache{}, c)
}
