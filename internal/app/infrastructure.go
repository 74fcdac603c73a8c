// Package app assembles the gate's components from configuration. It is
// shared by the server and the admin CLI.
package app

import (
	"context"
	"fmt"

	"github.com/bocado-ai/gate/internal/config"
	"github.com/bocado-ai/gate/internal/domain/repository"
	domainService "github.com/bocado-ai/gate/internal/domain/service"
	"github.com/bocado-ai/gate/internal/infrastructure/cleanup"
	"github.com/bocado-ai/gate/internal/infrastructure/persistence/postgres"
	rediscache "github.com/bocado-ai/gate/internal/infrastructure/persistence/redis"
	"github.com/bocado-ai/gate/internal/infrastructure/ratelimit"
	"github.com/bocado-ai/gate/pkg/logger"
)

// Infrastructure holds the stores and the components built directly on them.
type Infrastructure struct {
	DB        *postgres.DBConnection
	Redis     *rediscache.RedisConnection
	Limiter   *ratelimit.Limiter
	MapsCache *rediscache.MapsCache
	Profiles  repository.ProfileRepository
	Pantry    repository.PantryRepository
	History   repository.HistoryRepository
	Plans     repository.PlanRepository
	Sweeper   *cleanup.Sweeper
}

// NewInfrastructure connects to the database and Redis and builds the rate
// limiter, repositories and cleanup sweeper. Redis is mandatory only for the
// redis rate-limit backend; otherwise a failed connection disables the maps
// response cache.
func NewInfrastructure(ctx context.Context, cfg *config.Config, log logger.Logger, metrics domainService.Metrics) (*Infrastructure, error) {
	infra := &Infrastructure{}

	db, err := postgres.NewDBConnection(ctx, &cfg.Database, log)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	infra.DB = db
	infra.Profiles = postgres.NewProfileRepository(db.DB(), log)
	infra.Pantry = postgres.NewPantryRepository(db.DB(), log)
	infra.History = postgres.NewHistoryRepository(db.DB(), log)
	infra.Plans = postgres.NewPlanRepository(db.DB(), log)

	rc := rediscache.NewRedisConnection(&cfg.Redis, log)
	if err := rc.Connect(ctx); err != nil {
		if cfg.RateLimit.Backend == "redis" {
			_ = infra.Close()
			return nil, fmt.Errorf("redis: %w", err)
		}
		log.Warn(ctx, "Redis unavailable, maps response cache disabled", logger.Err(err))
	} else {
		infra.Redis = rc
		infra.MapsCache = rediscache.NewMapsCache(rc.GetClient(), log)
	}

	var store ratelimit.Store
	if cfg.RateLimit.Backend == "redis" {
		store = ratelimit.NewRedisStore(infra.Redis.GetClient())
	} else {
		store = ratelimit.NewMemoryStore()
	}
	infra.Limiter = ratelimit.NewLimiter(store, ratelimit.PoliciesFromConfig(cfg.RateLimit.Policies), log, metrics)

	src := cleanup.Sources{
		RateLimits: infra.Limiter,
		History:    infra.History,
		Plans:      infra.Plans,
	}
	if infra.MapsCache != nil {
		src.MapsCache = infra.MapsCache
	}
	infra.Sweeper = cleanup.NewSweeper(cfg.Cleanup, log, metrics, cleanup.DefaultJobs(cfg.Cleanup, src)...)
	return infra, nil
}

// Close releases the database and Redis connections.
func (i *Infrastructure) Close() error {
	var first error
	if i.Redis != nil {
		if err := i.Redis.Close(); err != nil {
			first = err
		}
	}
	if i.DB != nil {
		if err := i.DB.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
