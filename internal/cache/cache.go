package cache

import (
	"context"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/grzegorczykanna/UBSWebAPI/internal/domain"
)

// Cache memoizes upstream partition payloads.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

// Key builds the cache key of one partition. Names are matched
// case-insensitively, as the upstream does.
func Key(kind domain.PartitionKind, name string) string {
	return string(kind) + ":" + strings.ToLower(name)
}

// LRUCache is a size-bounded in-memory cache whose entries expire after a
// fixed time to live.
type LRUCache struct {
	lru *expirable.LRU[string, []byte]
}

// NewLRUCache creates a cache holding at most size entries for ttl each.
func NewLRUCache(size int, ttl time.Duration) *LRUCache {
	return &LRUCache{
		lru: expirable.NewLRU[string, []byte](size, nil, ttl),
	}
}

// Get retrieves a value from the cache.
func (c *LRUCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := c.lru.Get(key)
	return v, ok, nil
}

// Set adds a value to the cache, overwriting an existing one if present.
func (c *LRUCache) Set(_ context.Context, key string, value []byte) error {
	c.lru.Add(key, value)
	return nil
}

// Delete removes key if present.
func (c *LRUCache) Delete(_ context.Context, key string) error {
	c.lru.Remove(key)
	return nil
}

// Clear removes every entry.
func (c *LRUCache) Clear(_ context.Context) error {
	c.lru.Purge()
	return nil
}

// Len reports the number of live entries.
func (c *LRUCache) Len() int {
	return c.lru.Len()
}

// Noop never stores anything.
type Noop struct{}

// Noop methods all succeed without storing anything.
func (Noop) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (Noop) Set(context.Context, string, []byte) error          { return nil }
func (Noop) Delete(context.Context, string) error               { return nil }
func (Noop) Clear(context.Context) error                        { return nil }
