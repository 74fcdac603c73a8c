// Package redis provides the shared Redis connection and the maps response
// cache stored in it.
package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bocado-ai/gate/internal/config"
	"github.com/bocado-ai/gate/pkg/logger"
)

// RedisConnection manages the Redis client lifecycle and health checks.
// A comma-separated address list selects cluster mode.
type RedisConnection struct {
	config *config.RedisConfig
	client redis.UniversalClient
	logger logger.Logger
}

// NewRedisConnection creates a connection manager. Call Connect before use.
func NewRedisConnection(cfg *config.RedisConfig, log logger.Logger) *RedisConnection {
	return &RedisConnection{config: cfg, logger: log.WithComponent("redis")}
}

// NewRedisConnectionFromClient wraps an existing client, mainly for tests.
func NewRedisConnectionFromClient(client redis.UniversalClient, log logger.Logger) *RedisConnection {
	return &RedisConnection{config: &config.RedisConfig{}, client: client, logger: log.WithComponent("redis")}
}

// Connect builds the client and verifies connectivity with a ping.
func (rc *RedisConnection) Connect(ctx context.Context) error {
	if rc.client != nil {
		rc.logger.Warn(ctx, "Redis connection already initialized")
		return nil
	}

	addrs := splitAddrs(rc.config.Address)
	if len(addrs) == 0 {
		return fmt.Errorf("redis address not configured")
	}

	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:        addrs,
		Password:     rc.config.Password,
		DB:           rc.config.DB,
		PoolSize:     rc.config.PoolSize,
		MinIdleConns: rc.config.MinIdleConns,
		DialTimeout:  rc.config.DialTimeout,
		ReadTimeout:  rc.config.ReadTimeout,
		WriteTimeout: rc.config.WriteTimeout,
	})

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pctx).Err(); err != nil {
		rc.logger.Error(ctx, "Redis ping failed", err, logger.Any("addrs", addrs))
		_ = client.Close()
		return fmt.Errorf("redis ping failed: %w", err)
	}

	rc.client = client
	rc.logger.Info(ctx, "Redis connection established",
		logger.Any("addrs", addrs),
		logger.Int("db", rc.config.DB),
		logger.Int("pool_size", rc.config.PoolSize),
	)
	return nil
}

// GetClient returns the client, or nil before Connect.
func (rc *RedisConnection) GetClient() redis.UniversalClient {
	return rc.client
}

// Ping checks Redis connectivity.
func (rc *RedisConnection) Ping(ctx context.Context) error {
	if rc.client == nil {
		return fmt.Errorf("redis connection not initialized")
	}
	return rc.client.Ping(ctx).Err()
}

// HealthCheck reports connectivity, latency and pool usage.
func (rc *RedisConnection) HealthCheck(ctx context.Context) (map[string]interface{}, error) {
	if rc.client == nil {
		return nil, fmt.Errorf("redis connection not initialized")
	}

	start := time.Now()
	err := rc.client.Ping(ctx).Err()
	health := map[string]interface{}{
		"connected":  err == nil,
		"latency_ms": time.Since(start).Milliseconds(),
	}
	if stats := rc.client.PoolStats(); stats != nil {
		health["total_conns"] = stats.TotalConns
		health["idle_conns"] = stats.IdleConns
		health["timeouts"] = stats.Timeouts
	}
	return health, err
}

// Close releases the client.
func (rc *RedisConnection) Close() error {
	if rc.client == nil {
		return nil
	}
	err := rc.client.Close()
	rc.client = nil
	if err != nil {
		return fmt.Errorf("redis close failed: %w", err)
	}
	rc.logger.Info(context.Background(), "Redis connection closed")
	return nil
}

func splitAddrs(s string) []string {
	var out []string
	for _, a := range strings.Split(s, ",") {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}
