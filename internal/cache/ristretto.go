package cache

import (
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto"
)

// GeneralCache is an in-process cache with a default TTL. Writes are
// buffered, so a Get right after a Set may miss.
type GeneralCache struct {
	cache *ristretto.Cache
	ttl   time.Duration
}

// NewGeneralCache: maxCost counts entries (every Set costs 1).
func NewGeneralCache(maxCost int64, ttl time.Duration) (*GeneralCache, error) {
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxCost * 10,
		MaxCost:     maxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create ristretto cache: %w", err)
	}
	return &GeneralCache{cache: c, ttl: ttl}, nil
}

func (c *GeneralCache) Set(key string, value interface{}) bool {
	return c.SetWithTTL(key, value, c.ttl)
}

func (c *GeneralCache) SetWithTTL(key string, value interface{}, ttl time.Duration) bool {
	return c.cache.SetWithTTL(key, value, 1, ttl)
}

func (c *GeneralCache) Get(key string) (interface{}, bool) {
	return c.cache.Get(key)
}

// Wait blocks until buffered writes are applied.
func (c *GeneralCache) Wait() {
	c.cache.Wait()
}

func (c *GeneralCache) Delete(key string) {
	c.cache.Del(key)
}

func (c *GeneralCache) Close() {
	c.cache.Close()
}
