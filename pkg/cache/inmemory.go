package cache

import (
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

type Cache interface {
	Set(key string, value any, ttl time.Duration)
	Get(key string) (any, bool)
	Delete(key string)
	Flush()
	// Load returns the value under key, calling load at most once per key
	// across concurrent callers on a miss.
	Load(key string, ttl time.Duration, load func() (any, error)) (any, error)
}

type memoryCache struct {
	items *gocache.Cache
	group singleflight.Group
}

func NewCache(defaultExpiration, cleanupInterval time.Duration) Cache {
	return &memoryCache{items: gocache.New(defaultExpiration, cleanupInterval)}
}

func (c *memoryCache) Set(key string, value any, ttl time.Duration) { c.items.Set(key, value, ttl) }

func (c *memoryCache) Get(key string) (any, bool) { return c.items.Get(key) }

func (c *memoryCache) Delete(key string) { c.items.Delete(key) }

func (c *memoryCache) Flush() { c.items.Flush() }

func (c *memoryCache) Load(key string, ttl time.Duration, load func() (any, error)) (any, error) {
	if v, ok := c.items.Get(key); ok {
		return v, nil
	}
	v, err, _ := c.group.Do(key, func() (any, error) {
		if v, ok := c.items.Get(key); ok {
			return v, nil
		}
		v, err := load()
		if err != nil {
			return nil, err
		}
		c.items.Set(key, v, ttl)
		return v, nil
	})
	return v, err
}

// GetFromCache returns the value stored under key when it has type T.
func GetFromCache[T any](c Cache, key string) (T, bool) {
	var zero T
	val, found := c.Get(key)
	if !found {
		return zero, false
	}
	typed, ok := val.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}

// Remember is the typed form of Cache.Load. Errors are not cached.
func Remember[T any](c Cache, key string, ttl time.Duration, load func() (T, error)) (T, error) {
	var zero T
	v, err := c.Load(key, ttl, func() (any, error) { return load() })
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("cache: key %q holds %T", key, v)
	}
	return typed, nil
}
