package cache

import (
	"context"
	"time"

	"github.com/bocado-ai/gate/internal/config"
	"github.com/bocado-ai/gate/internal/domain/models"
	"github.com/bocado-ai/gate/internal/domain/service"
	"github.com/bocado-ai/gate/pkg/constants"
	"github.com/bocado-ai/gate/pkg/errors"
	"github.com/bocado-ai/gate/pkg/logger"
)

// Registry groups the per-domain caches.
type Registry struct {
	Profile *TTLCache
	Pantry  *TTLCache
	History *TTLCache
}

// NewRegistry builds the three domain caches from configuration.
func NewRegistry(cfg config.CacheConfig, log logger.Logger, metrics service.Metrics) *Registry {
	mk := func(domain constants.CacheDomain, ttl time.Duration) *TTLCache {
		return NewTTLCache(
			NewGoCacheBackend(ttl, cfg.CleanupInterval),
			Options{
				Name:          string(domain),
				TTL:           ttl,
				MaxKeys:       cfg.MaxKeys,
				LoaderTimeout: cfg.LoaderTimeout,
			},
			log, metrics,
		)
	}
	return &Registry{
		Profile: mk(constants.CacheDomainProfile, cfg.ProfileTTL),
		Pantry:  mk(constants.CacheDomainPantry, cfg.PantryTTL),
		History: mk(constants.CacheDomainHistory, cfg.HistoryTTL),
	}
}

// Key builds the cache key for a user in a domain, e.g. "profile:uid".
func Key(domain constants.CacheDomain, uid string) string {
	return string(domain) + ":" + uid
}

// ParseDomain validates an invalidation type. Empty means all.
func ParseDomain(s string) (constants.CacheDomain, error) {
	switch d := constants.CacheDomain(s); d {
	case "":
		return constants.CacheDomainAll, nil
	case constants.CacheDomainProfile, constants.CacheDomainPantry, constants.CacheDomainHistory, constants.CacheDomainAll:
		return d, nil
	default:
		return "", errors.ErrValidation("invalid cache type", map[string]string{
			"type": "must be one of profile, pantry, history, all",
		})
	}
}

// InvalidateUser drops the user's entries in the given domain and returns the
// names of the caches touched.
func (r *Registry) InvalidateUser(ctx context.Context, uid string, domain constants.CacheDomain) []string {
	touched := make([]string, 0, 3)
	for _, d := range []constants.CacheDomain{constants.CacheDomainProfile, constants.CacheDomainPantry, constants.CacheDomainHistory} {
		if domain != constants.CacheDomainAll && domain != d {
			continue
		}
		r.byDomain(d).Invalidate(ctx, Key(d, uid))
		touched = append(touched, string(d))
	}
	return touched
}

// Stats returns per-cache counters keyed by domain.
func (r *Registry) Stats() map[string]models.CacheStats {
	return map[string]models.CacheStats{
		string(constants.CacheDomainProfile): r.Profile.Stats(),
		string(constants.CacheDomainPantry):  r.Pantry.Stats(),
		string(constants.CacheDomainHistory): r.History.Stats(),
	}
}

func (r *Registry) byDomain(d constants.CacheDomain) *TTLCache {
	switch d {
	case constants.CacheDomainPantry:
		return r.Pantry
	case constants.CacheDomainHistory:
		return r.History
	default:
		return r.Profile
	}
}
