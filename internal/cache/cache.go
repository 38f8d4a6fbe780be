package cache

import (
	"strings"
	"time"

	goCache "github.com/patrickmn/go-cache"
)

const (
	DefaultExpiration      = 5 * time.Minute
	DefaultCleanupInterval = 10 * time.Minute
)

// Cache is a typed in-memory TTL cache.
type Cache[K ~string, V any] interface {
	Get(key K) (V, bool)
	Set(key K, value V, ttl time.Duration)
	Delete(key K)
	DeleteByPrefix(prefix string)
}

type ttlCache[K ~string, V any] struct {
	store *goCache.Cache
}

func NewTTLCache[K ~string, V any]() Cache[K, V] {
	return &ttlCache[K, V]{
		store: goCache.New(DefaultExpiration, DefaultCleanupInterval),
	}
}

func (c *ttlCache[K, V]) Get(key K) (V, bool) {
	var zero V
	raw, ok := c.store.Get(string(key))
	if !ok {
		return zero, false
	}
	value, ok := raw.(V)
	if !ok {
		return zero, false
	}
	return value, true
}

func (c *ttlCache[K, V]) Set(key K, value V, ttl time.Duration) {
	if ttl <= 0 {
		ttl = goCache.DefaultExpiration
	}
	c.store.Set(string(key), value, ttl)
}

func (c *ttlCache[K, V]) Delete(key K) {
	c.store.Delete(string(key))
}

func (c *ttlCache[K, V]) DeleteByPrefix(prefix string) {
	for key := range c.store.Items() {
		if strings.HasPrefix(key, prefix) {
			c.store.Delete(key)
		}
	}
}
