package providers

import (
	"github.com/coocood/freecache"
	"icd/internal/structures"
	"time"
)

// CacheProviderInterface keeps rendered result bodies per snapshot. A snapshot's
// timestamp is its identity, so an entry never goes stale; the TTL only bounds
// memory held for snapshots that are no longer current.
type CacheProviderInterface interface {
	GetResult(ts time.Time) ([]byte, bool)
	SetResult(ts time.Time, body []byte)
	EntryCount() int64
}

type CacheProvider struct {
	cache *freecache.Cache
	ttl   int
}

func NewCacheProvider(conf *structures.Config, logger Logger) CacheProviderInterface {
	if !conf.Cache.Enabled || conf.Cache.Size <= 0 {
		logger.Infof(TypeApp, "Result cache disabled")
		return &noopCache{}
	}

	ttl := max(int(conf.Cache.TTL.Seconds()), 1)
	logger.Infof(TypeApp, "Result cache initialized: %dMB, TTL=%ds", conf.Cache.Size, ttl)

	return &CacheProvider{
		cache: freecache.NewCache(conf.Cache.Size * 1024 * 1024),
		ttl:   ttl,
	}
}

// resultKey is the snapshot timestamp at the microsecond precision snapshots carry.
func resultKey(ts time.Time) int64 {
	return ts.UnixMicro()
}

func (c *CacheProvider) GetResult(ts time.Time) ([]byte, bool) {
	val, err := c.cache.GetInt(resultKey(ts))
	if err != nil {
		return nil, false
	}
	return val, true
}

func (c *CacheProvider) SetResult(ts time.Time, body []byte) {
	_ = c.cache.SetInt(resultKey(ts), body, c.ttl)
}

func (c *CacheProvider) EntryCount() int64 {
	return c.cache.EntryCount()
}

type noopCache struct{}

func (n *noopCache) GetResult(_ time.Time) ([]byte, bool) { return nil, false }
func (n *noopCache) SetResult(_ time.Time, _ []byte)      {}
func (n *noopCache) EntryCount() int64                    { return 0 }
