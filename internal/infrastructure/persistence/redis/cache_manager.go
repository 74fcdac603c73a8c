package redis

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bocado-ai/gate/pkg/constants"
	"github.com/bocado-ai/gate/pkg/errors"
	"github.com/bocado-ai/gate/pkg/logger"
	"github.com/bocado-ai/gate/pkg/utils"
)

// MapsCacheEntry is the stored form of a cached provider response.
type MapsCacheEntry struct {
	Response  json.RawMessage `json:"response"`
	CreatedAt time.Time       `json:"createdAt"`
	ExpiresAt time.Time       `json:"expiresAt"`
}

// MapsCacheKey builds "<prefix>_<base64(sorted k=v pairs)>", truncating the
// encoded part to MapsCacheKeyMaxLength.
func MapsCacheKey(prefix string, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params[k])
	}
	encoded := utils.Base64EncodeString(strings.Join(pairs, "&"))
	if len(encoded) > constants.MapsCacheKeyMaxLength {
		encoded = encoded[:constants.MapsCacheKeyMaxLength]
	}
	return prefix + "_" + encoded
}

// MapsCache stores provider responses in Redis. Entries carry their own
// expiry and are indexed by it so the cleanup sweep can remove them in batches.
type MapsCache struct {
	client   redis.UniversalClient
	logger   logger.Logger
	indexKey string
	now      func() time.Time
}

// NewMapsCache creates a MapsCache on client.
func NewMapsCache(client redis.UniversalClient, log logger.Logger) *MapsCache {
	return &MapsCache{
		client:   client,
		logger:   log.WithComponent("maps_cache"),
		indexKey: constants.MapsCacheKeyPrefix + "index",
		now:      time.Now,
	}
}

func (c *MapsCache) storeKey(key string) string {
	return constants.MapsCacheKeyPrefix + key
}

// Get returns the cached response for key. An expired entry is deleted and
// reported as a miss.
func (c *MapsCache) Get(ctx context.Context, key string) (json.RawMessage, bool, error) {
	raw, err := c.client.Get(ctx, c.storeKey(key)).Bytes()
	if err != nil {
		if stderrors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("%w: %v", errors.ErrStoreUnavailable, err)
	}

	var entry MapsCacheEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		c.logger.Warn(ctx, "Dropping undecodable maps cache entry", logger.String("key", key), logger.Err(err))
		c.remove(ctx, key)
		return nil, false, nil
	}
	if !c.now().Before(entry.ExpiresAt) {
		c.remove(ctx, key)
		return nil, false, nil
	}
	return entry.Response, true, nil
}

// Set stores value under key for ttl.
func (c *MapsCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	resp, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode maps response: %w", err)
	}
	now := c.now()
	entry := MapsCacheEntry{Response: resp, CreatedAt: now, ExpiresAt: now.Add(ttl)}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode maps cache entry: %w", err)
	}

	pipe := c.client.TxPipeline()
	pipe.Set(ctx, c.storeKey(key), data, 0)
	pipe.ZAdd(ctx, c.indexKey, redis.Z{Score: float64(entry.ExpiresAt.UnixMilli()), Member: key})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrStoreUnavailable, err)
	}
	return nil
}

// DeleteExpired removes up to limit entries that expired before now.
func (c *MapsCache) DeleteExpired(ctx context.Context, now time.Time, limit int) (int, error) {
	keys, err := c.client.ZRangeByScore(ctx, c.indexKey, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   fmt.Sprintf("(%d", now.UnixMilli()),
		Count: int64(limit),
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", errors.ErrStoreUnavailable, err)
	}
	if len(keys) == 0 {
		return 0, nil
	}

	storeKeys := make([]string, len(keys))
	members := make([]interface{}, len(keys))
	for i, k := range keys {
		storeKeys[i] = c.storeKey(k)
		members[i] = k
	}
	pipe := c.client.TxPipeline()
	pipe.Del(ctx, storeKeys...)
	pipe.ZRem(ctx, c.indexKey, members...)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("%w: %v", errors.ErrStoreUnavailable, err)
	}
	return len(keys), nil
}

func (c *MapsCache) remove(ctx context.Context, key string) {
	pipe := c.client.TxPipeline()
	pipe.Del(ctx, c.storeKey(key))
	pipe.ZRem(ctx, c.indexKey, key)
	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.Warn(ctx, "Failed to delete expired maps cache entry", logger.String("key", key), logger.Err(err))
	}
}
