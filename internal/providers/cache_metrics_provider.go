package providers

import (
	"icd/internal/structures"
	"time"
)

// MetricsCacheProvider reports result cache lookups and its size.
type MetricsCacheProvider struct {
	inner   CacheProviderInterface
	metrics MetricsProviderInterface
}

func (c *MetricsCacheProvider) GetResult(ts time.Time) ([]byte, bool) {
	body, ok := c.inner.GetResult(ts)
	if ok {
		c.metrics.IncCacheHits()
	} else {
		c.metrics.IncCacheMisses()
	}
	return body, ok
}

func (c *MetricsCacheProvider) SetResult(ts time.Time, body []byte) {
	c.inner.SetResult(ts, body)
	c.metrics.SetCacheEntries(c.inner.EntryCount())
}

func (c *MetricsCacheProvider) EntryCount() int64 {
	return c.inner.EntryCount()
}

// NewInstrumentedCacheProvider leaves a disabled cache unwrapped so it reports nothing.
func NewInstrumentedCacheProvider(conf *structures.Config, logger Logger, metrics MetricsProviderInterface) CacheProviderInterface {
	inner := NewCacheProvider(conf, logger)
	if _, disabled := inner.(*noopCache); disabled {
		return inner
	}
	return &MetricsCacheProvider{
		inner:   inner,
		metrics: metrics,
	}
}
