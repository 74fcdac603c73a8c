// Package cache provides the process-local TTL caches that front profile,
// pantry and history reads. A cache failure is never a request failure:
// backend errors and panics degrade to a miss.
package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Backend stores values with a per-entry expiry.
type Backend interface {
	Get(key string) (interface{}, bool, error)
	Set(key string, value interface{}, ttl time.Duration) error
	Delete(key string) error
	// Has reports whether key holds an unexpired value.
	Has(key string) bool
	// Len counts stored entries, including expired ones not yet evicted.
	Len() int
}

// GoCacheBackend adapts patrickmn/go-cache. Expired entries are never
// returned; the janitor removes them every cleanupInterval.
type GoCacheBackend struct {
	c *gocache.Cache
}

// NewGoCacheBackend creates a backend with the given default TTL.
func NewGoCacheBackend(defaultTTL, cleanupInterval time.Duration) *GoCacheBackend {
	return &GoCacheBackend{c: gocache.New(defaultTTL, cleanupInterval)}
}

func (b *GoCacheBackend) Get(key string) (interface{}, bool, error) {
	v, ok := b.c.Get(key)
	return v, ok, nil
}

func (b *GoCacheBackend) Set(key string, value interface{}, ttl time.Duration) error {
	b.c.Set(key, value, ttl)
	return nil
}

func (b *GoCacheBackend) Delete(key string) error {
	b.c.Delete(key)
	return nil
}

func (b *GoCacheBackend) Has(key string) bool {
	_, ok := b.c.Get(key)
	return ok
}

func (b *GoCacheBackend) Len() int {
	return b.c.ItemCount()
}
