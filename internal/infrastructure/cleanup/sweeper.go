// Package cleanup runs the bounded retention jobs over the rate-limit store,
// the maps cache and the history tables.
package cleanup

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/bocado-ai/gate/internal/config"
	"github.com/bocado-ai/gate/internal/domain/models"
	"github.com/bocado-ai/gate/internal/domain/service"
	"github.com/bocado-ai/gate/pkg/constants"
	"github.com/bocado-ai/gate/pkg/errors"
	"github.com/bocado-ai/gate/pkg/logger"
)

// Job names, also the collections accepted by manual cleanup.
const (
	JobRateLimits = "rate_limits"
	JobMapsCache  = "maps_cache"
	JobHistory    = "history"
	JobPlans      = "plans"
)

// manualMaxBatches caps a manual run at 1000 records with the default batch size.
const manualMaxBatches = 2

// DeleteFunc removes up to limit records older than cutoff and returns how
// many were removed.
type DeleteFunc func(ctx context.Context, cutoff time.Time, limit int) (int, error)

// Job is one retention rule. Age is subtracted from now to form the cutoff;
// zero means records that expired before now.
type Job struct {
	Name   string
	Age    time.Duration
	Delete DeleteFunc
}

// Sweeper executes jobs in bounded batches.
type Sweeper struct {
	jobs       map[string]Job
	batchSize  int
	maxBatches int
	pause      time.Duration
	logger     logger.Logger
	metrics    service.Metrics
	now        func() time.Time

	mu      sync.Mutex
	running bool
}

// NewSweeper creates a sweeper with the batch settings of cfg.
func NewSweeper(cfg config.CleanupConfig, log logger.Logger, metrics service.Metrics, jobs ...Job) *Sweeper {
	if metrics == nil {
		metrics = service.NoopMetrics{}
	}
	s := &Sweeper{
		jobs:       make(map[string]Job, len(jobs)),
		batchSize:  cfg.BatchSize,
		maxBatches: cfg.MaxBatches,
		pause:      cfg.BatchPause,
		logger:     log.WithComponent("cleanup"),
		metrics:    metrics,
		now:        time.Now,
	}
	if s.batchSize <= 0 {
		s.batchSize = constants.CleanupBatchSize
	}
	if s.maxBatches <= 0 {
		s.maxBatches = constants.CleanupMaxBatches
	}
	for _, j := range jobs {
		s.jobs[j.Name] = j
	}
	return s
}

// Jobs returns the registered job names in order.
func (s *Sweeper) Jobs() []string {
	names := make([]string, 0, len(s.jobs))
	for n := range s.jobs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// RunAll runs every job once. A failing job does not stop the others; the
// first error is returned alongside all results.
func (s *Sweeper) RunAll(ctx context.Context) ([]models.CleanupResult, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.logger.Debug(ctx, "Cleanup already running, skipping")
		return nil, nil
	}
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	var firstErr error
	results := make([]models.CleanupResult, 0, len(s.jobs))
	for _, name := range s.Jobs() {
		job := s.jobs[name]
		res, err := s.run(ctx, job, s.now().Add(-job.Age), s.maxBatches)
		results = append(results, res)
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return results, firstErr
}

// RunJob runs one job by name with its configured age.
func (s *Sweeper) RunJob(ctx context.Context, name string) (models.CleanupResult, error) {
	job, ok := s.jobs[name]
	if !ok {
		return models.CleanupResult{}, errors.ErrValidation("unknown cleanup job", map[string]string{"job": name})
	}
	return s.run(ctx, job, s.now().Add(-job.Age), s.maxBatches)
}

// Manual deletes records of collection older than days.
func (s *Sweeper) Manual(ctx context.Context, collection string, days int) (models.CleanupResult, error) {
	job, ok := s.jobs[collection]
	if !ok {
		return models.CleanupResult{}, errors.ErrValidation("Invalid collection", map[string]string{"collection": collection})
	}
	if days < 1 || days > constants.ManualCleanupMaxDays {
		return models.CleanupResult{}, errors.ErrValidation("Invalid days range",
			map[string]string{"days": fmt.Sprintf("must be between 1 and %d", constants.ManualCleanupMaxDays)})
	}
	cutoff := s.now().Add(-time.Duration(days) * 24 * time.Hour)
	return s.run(ctx, job, cutoff, manualMaxBatches)
}

func (s *Sweeper) run(ctx context.Context, job Job, cutoff time.Time, maxBatches int) (models.CleanupResult, error) {
	res := models.CleanupResult{Job: job.Name}
	done := logger.StartOperation(ctx, s.logger, "cleanup."+job.Name, time.Minute)

	for res.Batches < maxBatches {
		n, err := job.Delete(ctx, cutoff, s.batchSize)
		if err != nil {
			s.logger.Error(ctx, "Cleanup batch failed", err,
				logger.String("job", job.Name),
				logger.Int("batch", res.Batches+1),
			)
			s.metrics.RecordCleanup(job.Name, res.Deleted)
			return res, errors.Wrap(err, errors.CodeInternal, "Cleanup failed")
		}
		if n == 0 {
			break
		}
		res.Deleted += n
		res.Batches++
		if n < s.batchSize {
			break
		}
		if res.Batches == maxBatches {
			res.Truncated = true
			break
		}
		if s.pause > 0 {
			select {
			case <-ctx.Done():
				s.metrics.RecordCleanup(job.Name, res.Deleted)
				return res, ctx.Err()
			case <-time.After(s.pause):
			}
		}
	}

	s.metrics.RecordCleanup(job.Name, res.Deleted)
	done(logger.Int("deleted", res.Deleted), logger.Int("batches", res.Batches))
	if res.Deleted > 0 {
		s.logger.Info(ctx, "Cleanup job finished",
			logger.String("job", job.Name),
			logger.Int("deleted", res.Deleted),
			logger.Int("batches", res.Batches),
			logger.Bool("truncated", res.Truncated),
		)
	}
	return res, nil
}

// Start runs RunAll every interval until ctx is cancelled.
func (s *Sweeper) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info(ctx, "Cleanup scheduler started", logger.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			s.logger.Info(context.Background(), "Cleanup scheduler stopped")
			return
		case <-ticker.C:
			if _, err := s.RunAll(ctx); err != nil {
				s.logger.Warn(ctx, "Scheduled cleanup finished with errors", logger.Err(err))
			}
		}
	}
}
