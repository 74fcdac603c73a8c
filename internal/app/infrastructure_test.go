package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bocado-ai/gate/internal/config"
	"github.com/bocado-ai/gate/internal/domain/service"
	"github.com/bocado-ai/gate/pkg/logger"
)

func testConfig(t *testing.T, redisAddr, backend string) *config.Config {
	t.Helper()
	return &config.Config{
		Database: config.DatabaseConfig{
			Driver:      "sqlite",
			Database:    filepath.Join(t.TempDir(), "gate.db"),
			AutoMigrate: true,
		},
		Redis:     config.RedisConfig{Address: redisAddr, DialTimeout: 200 * time.Millisecond},
		RateLimit: config.RateLimitConfig{Backend: backend, Policies: config.DefaultPolicies()},
		Cleanup:   config.CleanupConfig{BatchSize: 10, MaxBatches: 2, RateLimitMaxAge: time.Hour},
	}
}

func TestNewInfrastructure_RedisBackend(t *testing.T) {
	mr := miniredis.RunT(t)
	infra, err := NewInfrastructure(context.Background(), testConfig(t, mr.Addr(), "redis"), logger.NewNoopLogger(), service.NoopMetrics{})
	require.NoError(t, err)
	defer infra.Close()

	require.NotNil(t, infra.Redis)
	require.NotNil(t, infra.MapsCache)

	ctx := context.Background()
	d, err := infra.Limiter.Admit(ctx, "recommendations", "u1")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.NotEmpty(t, mr.Keys())

	assert.Contains(t, infra.Sweeper.Jobs(), "rate_limits")
	assert.Contains(t, infra.Sweeper.Jobs(), "maps_cache")
}

func TestNewInfrastructure_MemoryBackendWithoutRedis(t *testing.T) {
	infra, err := NewInfrastructure(context.Background(), testConfig(t, "127.0.0.1:1", "memory"), logger.NewNoopLogger(), service.NoopMetrics{})
	require.NoError(t, err)
	defer infra.Close()

	assert.Nil(t, infra.Redis)
	assert.Nil(t, infra.MapsCache)
	assert.NotContains(t, infra.Sweeper.Jobs(), "maps_cache")

	d, err := infra.Limiter.Admit(context.Background(), "recommendations", "u1")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestNewInfrastructure_RedisBackendRequiresRedis(t *testing.T) {
	_, err := NewInfrastructure(context.Background(), testConfig(t, "127.0.0.1:1", "redis"), logger.NewNoopLogger(), service.NoopMetrics{})
	assert.Error(t, err)
}
