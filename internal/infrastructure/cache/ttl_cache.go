package cache

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/bocado-ai/gate/internal/domain/models"
	"github.com/bocado-ai/gate/internal/domain/service"
	"github.com/bocado-ai/gate/pkg/logger"
)

// Loader fetches a value from the source of truth on a miss.
type Loader func(ctx context.Context) (interface{}, error)

// Options configures a TTLCache.
type Options struct {
	Name          string
	TTL           time.Duration
	MaxKeys       int
	LoaderTimeout time.Duration
}

// TTLCache is a bounded read-through cache over a Backend.
type TTLCache struct {
	name          string
	backend       Backend
	ttl           time.Duration
	maxKeys       int
	loaderTimeout time.Duration

	hits   atomic.Uint64
	misses atomic.Uint64
	group  singleflight.Group

	// flights tracks keys with a load in progress. Invalidate bumps the
	// generation so a load that started earlier does not store its result.
	mu      sync.Mutex
	flights map[string]*flight

	logger  logger.Logger
	metrics service.Metrics
}

// NewTTLCache creates a cache. metrics may be nil.
func NewTTLCache(backend Backend, opts Options, log logger.Logger, metrics service.Metrics) *TTLCache {
	if metrics == nil {
		metrics = service.NoopMetrics{}
	}
	return &TTLCache{
		name:          opts.Name,
		backend:       backend,
		ttl:           opts.TTL,
		maxKeys:       opts.MaxKeys,
		loaderTimeout: opts.LoaderTimeout,
		flights:       make(map[string]*flight),
		logger:        log.WithComponent("cache").WithFields(logger.String("cache", opts.Name)),
		metrics:       metrics,
	}
}

type flight struct {
	refs int
	gen  uint64
}

// Name returns the cache name.
func (c *TTLCache) Name() string { return c.name }

// Get returns the cached value for key. Backend failures count as a miss.
func (c *TTLCache) Get(ctx context.Context, key string) (value interface{}, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Warn(ctx, "Cache get panicked", logger.String("key", key), logger.Any("panic", fmt.Sprint(r)))
			value, ok = nil, false
			c.recordMiss()
		}
	}()

	v, found, err := c.backend.Get(key)
	if err != nil {
		c.logger.Warn(ctx, "Cache get failed", logger.String("key", key), logger.Err(err))
		c.recordMiss()
		return nil, false
	}
	if !found {
		c.recordMiss()
		return nil, false
	}
	c.hits.Add(1)
	c.metrics.RecordCacheAccess(c.name, true)
	return v, true
}

// Set stores value under key with the cache's TTL.
func (c *TTLCache) Set(ctx context.Context, key string, value interface{}) {
	c.SetWithTTL(ctx, key, value, c.ttl)
}

// SetWithTTL stores value under key. When the cache is full and key is new the
// write is skipped; nothing is evicted.
func (c *TTLCache) SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Warn(ctx, "Cache set panicked", logger.String("key", key), logger.Any("panic", fmt.Sprint(r)))
		}
	}()

	if c.maxKeys > 0 && c.backend.Len() >= c.maxKeys && !c.backend.Has(key) {
		c.logger.Warn(ctx, "Cache full, skipping set", logger.String("key", key), logger.Int("max_keys", c.maxKeys))
		return
	}
	if err := c.backend.Set(key, value, ttl); err != nil {
		c.logger.Warn(ctx, "Cache set failed", logger.String("key", key), logger.Err(err))
	}
}

// Invalidate removes key. Loads of key still in progress will not be cached.
func (c *TTLCache) Invalidate(ctx context.Context, key string) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Warn(ctx, "Cache delete panicked", logger.String("key", key), logger.Any("panic", fmt.Sprint(r)))
		}
	}()

	c.mu.Lock()
	defer c.mu.Unlock()
	if f, ok := c.flights[key]; ok {
		f.gen++
	}
	c.group.Forget(key)
	if err := c.backend.Delete(key); err != nil {
		c.logger.Warn(ctx, "Cache delete failed", logger.String("key", key), logger.Err(err))
	}
}

// GetOrLoad returns the cached value or calls load, collapsing concurrent
// loads of the same key. Loader errors are returned and nothing is cached.
func (c *TTLCache) GetOrLoad(ctx context.Context, key string, load Loader) (interface{}, error) {
	if v, ok := c.Get(ctx, key); ok {
		return v, nil
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		lctx := ctx
		if c.loaderTimeout > 0 {
			var cancel context.CancelFunc
			lctx, cancel = context.WithTimeout(ctx, c.loaderTimeout)
			defer cancel()
		}
		f, gen := c.beginLoad(key)
		var (
			v      interface{}
			loaded bool
		)
		defer func() { c.endLoad(ctx, key, f, gen, v, loaded) }()

		v, err := load(lctx)
		if err != nil {
			return nil, err
		}
		loaded = true
		return v, nil
	})
	return v, err
}

func (c *TTLCache) beginLoad(key string) (*flight, uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	f, ok := c.flights[key]
	if !ok {
		f = &flight{}
		c.flights[key] = f
	}
	f.refs++
	return f, f.gen
}

// endLoad stores v unless key was invalidated since beginLoad.
func (c *TTLCache) endLoad(ctx context.Context, key string, f *flight, gen uint64, v interface{}, store bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if store && f.gen == gen {
		c.Set(ctx, key, v)
	} else if store {
		c.logger.Debug(ctx, "Discarding load invalidated in flight", logger.String("key", key))
	}
	f.refs--
	if f.refs == 0 {
		delete(c.flights, key)
	}
}

// Stats returns the counters of this cache.
func (c *TTLCache) Stats() models.CacheStats {
	hits, misses := c.hits.Load(), c.misses.Load()
	var rate float64
	if total := hits + misses; total > 0 {
		rate = float64(hits) / float64(total)
	}
	return models.CacheStats{
		Keys:    c.backend.Len(),
		Hits:    hits,
		Misses:  misses,
		HitRate: rate,
	}
}

func (c *TTLCache) recordMiss() {
	c.misses.Add(1)
	c.metrics.RecordCacheAccess(c.name, false)
}

// Load is a typed wrapper around GetOrLoad. A cached value of the wrong type
// is treated as a miss and reloaded.
func Load[T any](ctx context.Context, c *TTLCache, key string, load func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	v, err := c.GetOrLoad(ctx, key, func(ctx context.Context) (interface{}, error) {
		return load(ctx)
	})
	if err != nil {
		return zero, err
	}
	if typed, ok := v.(T); ok {
		return typed, nil
	}

	c.Invalidate(ctx, key)
	v, err = c.GetOrLoad(ctx, key, func(ctx context.Context) (interface{}, error) {
		return load(ctx)
	})
	if err != nil {
		return zero, err
	}
	if typed, ok := v.(T); ok {
		return typed, nil
	}
	return load(ctx)
}
