package redis

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bocado-ai/gate/internal/config"
	"github.com/bocado-ai/gate/pkg/logger"
)

func newTestMapsCache(t *testing.T) (*MapsCache, *time.Time) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	c := NewMapsCache(client, logger.NewNoopLogger())
	c.now = func() time.Time { return now }
	return c, &now
}

func TestMapsCacheKey(t *testing.T) {
	a := MapsCacheKey("ac", map[string]string{"query": "Madrid", "countryCode": "ES"})
	b := MapsCacheKey("ac", map[string]string{"countryCode": "ES", "query": "Madrid"})
	assert.Equal(t, a, b)
	assert.True(t, strings.HasPrefix(a, "ac_"))

	// base64("countryCode=ES&query=Madrid")
	assert.Equal(t, "ac_Y291bnRyeUNvZGU9RVMmcXVlcnk9TWFkcmlk", a)

	long := MapsCacheKey("geo", map[string]string{"address": strings.Repeat("calle mayor ", 20)})
	assert.Len(t, long, len("geo_")+50)
}

func TestMapsCache_SetGetExpire(t *testing.T) {
	c, now := newTestMapsCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "ac_x", map[string]string{"city": "Lima"}, time.Hour))

	raw, ok, err := c.Get(ctx, "ac_x")
	require.NoError(t, err)
	require.True(t, ok)
	var got map[string]string
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, "Lima", got["city"])

	*now = now.Add(2 * time.Hour)
	_, ok, err = c.Get(ctx, "ac_x")
	require.NoError(t, err)
	assert.False(t, ok)

	// the expired read removed the entry and its index member
	n, err := c.DeleteExpired(ctx, now.Add(time.Hour), 100)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestMapsCache_DeleteExpired(t *testing.T) {
	c, now := newTestMapsCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", 1, time.Minute))
	require.NoError(t, c.Set(ctx, "b", 2, time.Minute))
	require.NoError(t, c.Set(ctx, "c", 3, 24*time.Hour))

	n, err := c.DeleteExpired(ctx, now.Add(time.Hour), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = c.DeleteExpired(ctx, now.Add(time.Hour), 100)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, ok, err := c.Get(ctx, "c")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisConnection_HealthCheck(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	conn := NewRedisConnectionFromClient(client, logger.NewNoopLogger())

	health, err := conn.HealthCheck(context.Background())
	require.NoError(t, err)
	assert.Equal(t, true, health["connected"])
	require.NoError(t, conn.Close())
	assert.Error(t, conn.Ping(context.Background()))
}

func TestRedisConnection_Connect(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := config.RedisConfig{Address: mr.Addr(), PoolSize: 5, DialTimeout: time.Second}
	conn := NewRedisConnection(&cfg, logger.NewNoopLogger())
	require.NoError(t, conn.Connect(context.Background()))
	assert.NoError(t, conn.Ping(context.Background()))
	require.NoError(t, conn.Close())
}
