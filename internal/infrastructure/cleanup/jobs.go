package cleanup

import (
	"context"
	"time"

	"github.com/bocado-ai/gate/internal/config"
	"github.com/bocado-ai/gate/internal/domain/repository"
	"github.com/bocado-ai/gate/pkg/constants"
)

// StaleRecordDeleter removes rate-limit records not updated since cutoff.
type StaleRecordDeleter interface {
	DeleteStale(ctx context.Context, cutoff time.Time, limit int) (int, error)
}

// ExpiredEntryDeleter removes cache entries that expired before now.
type ExpiredEntryDeleter interface {
	DeleteExpired(ctx context.Context, now time.Time, limit int) (int, error)
}

// Sources are the stores swept by DefaultJobs. Nil sources are skipped.
type Sources struct {
	RateLimits StaleRecordDeleter
	MapsCache  ExpiredEntryDeleter
	History    repository.HistoryRepository
	Plans      repository.PlanRepository
}

// DefaultJobs builds the retention jobs for the configured ages.
func DefaultJobs(cfg config.CleanupConfig, src Sources) []Job {
	age := func(d, def time.Duration) time.Duration {
		if d > 0 {
			return d
		}
		return def
	}

	var jobs []Job
	if src.RateLimits != nil {
		jobs = append(jobs, Job{
			Name:   JobRateLimits,
			Age:    age(cfg.RateLimitMaxAge, constants.RateLimitRetention),
			Delete: src.RateLimits.DeleteStale,
		})
	}
	if src.MapsCache != nil {
		jobs = append(jobs, Job{Name: JobMapsCache, Delete: src.MapsCache.DeleteExpired})
	}
	if src.History != nil {
		jobs = append(jobs, Job{
			Name:   JobHistory,
			Age:    age(cfg.HistoryRetention, constants.DefaultHistoryRetention),
			Delete: src.History.DeleteOlderThan,
		})
	}
	if src.Plans != nil {
		jobs = append(jobs, Job{
			Name:   JobPlans,
			Age:    age(cfg.PlanRetention, constants.DefaultPlanRetention),
			Delete: src.Plans.DeleteOlderThan,
		})
	}
	return jobs
}
