package utils

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CacheItem wraps cached data with its expiry.
type CacheItem struct {
	Data      interface{}
	ExpiresAt time.Time
}

// Cache is a small TTL'd LRU used for review summaries and hot discussion
// lists. One instance is built in main and injected into the handlers that
// cache.
type Cache struct {
	lruCache *lru.Cache[string, CacheItem]
}

// NewCache builds a cache holding at most capacity entries.
func NewCache(capacity int) (*Cache, error) {
	l, err := lru.New[string, CacheItem](capacity)
	if err != nil {
		return nil, err
	}
	return &Cache{lruCache: l}, nil
}

// Set stores data under key for ttl.
func (c *Cache) Set(key string, data interface{}, ttl time.Duration) {
	c.lruCache.Add(key, CacheItem{
		Data:      data,
		ExpiresAt: time.Now().Add(ttl),
	})
}

// Get returns the cached value, or nil when absent or expired.
func (c *Cache) Get(key string) interface{} {
	val, ok := c.lruCache.Get(key)
	if !ok {
		return nil
	}
	if time.Now().After(val.ExpiresAt) {
		c.lruCache.Remove(key)
		return nil
	}
	return val.Data
}

// Delete drops the key.
func (c *Cache) Delete(key string) {
	c.lruCache.Remove(key)
}
