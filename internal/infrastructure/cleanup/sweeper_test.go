package cleanup

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bocado-ai/gate/internal/config"
	"github.com/bocado-ai/gate/pkg/errors"
	"github.com/bocado-ai/gate/pkg/logger"
)

// pile simulates a store holding n deletable records.
type pile struct {
	mu      sync.Mutex
	left    int
	calls   int
	cutoffs []time.Time
	err     error
}

func (p *pile) Delete(_ context.Context, cutoff time.Time, limit int) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	p.cutoffs = append(p.cutoffs, cutoff)
	if p.err != nil {
		return 0, p.err
	}
	n := limit
	if p.left < n {
		n = p.left
	}
	p.left -= n
	return n, nil
}

func newTestSweeper(jobs ...Job) (*Sweeper, time.Time) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := NewSweeper(config.CleanupConfig{BatchSize: 500, MaxBatches: 10}, logger.NewNoopLogger(), nil, jobs...)
	s.now = func() time.Time { return now }
	return s, now
}

func TestSweeper_BoundedBatches(t *testing.T) {
	p := &pile{left: 6000}
	s, now := newTestSweeper(Job{Name: JobHistory, Age: 90 * 24 * time.Hour, Delete: p.Delete})

	res, err := s.RunJob(context.Background(), JobHistory)
	require.NoError(t, err)
	assert.Equal(t, 5000, res.Deleted)
	assert.Equal(t, 10, res.Batches)
	assert.True(t, res.Truncated)
	assert.Equal(t, 1000, p.left)
	assert.Equal(t, now.Add(-90*24*time.Hour), p.cutoffs[0])

	res, err = s.RunJob(context.Background(), JobHistory)
	require.NoError(t, err)
	assert.Equal(t, 1000, res.Deleted)
	assert.Equal(t, 2, res.Batches)
	assert.False(t, res.Truncated)
}

func TestSweeper_PartialBatchStops(t *testing.T) {
	p := &pile{left: 720}
	s, _ := newTestSweeper(Job{Name: JobPlans, Delete: p.Delete})

	res, err := s.RunJob(context.Background(), JobPlans)
	require.NoError(t, err)
	assert.Equal(t, 720, res.Deleted)
	assert.Equal(t, 2, p.calls)
}

func TestSweeper_Idempotent(t *testing.T) {
	p := &pile{}
	s, _ := newTestSweeper(Job{Name: JobMapsCache, Delete: p.Delete})

	for i := 0; i < 2; i++ {
		res, err := s.RunJob(context.Background(), JobMapsCache)
		require.NoError(t, err)
		assert.Zero(t, res.Deleted)
		assert.Zero(t, res.Batches)
	}
}

func TestSweeper_RunAllContinuesAfterFailure(t *testing.T) {
	bad := &pile{err: stderrors.New("db down")}
	good := &pile{left: 3}
	s, _ := newTestSweeper(
		Job{Name: JobHistory, Delete: bad.Delete},
		Job{Name: JobRateLimits, Delete: good.Delete},
	)

	results, err := s.RunAll(context.Background())
	assert.Error(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, JobHistory, results[0].Job)
	assert.Equal(t, 3, results[1].Deleted)
}

func TestSweeper_Manual(t *testing.T) {
	p := &pile{left: 5000}
	s, now := newTestSweeper(Job{Name: JobHistory, Delete: p.Delete})
	ctx := context.Background()

	res, err := s.Manual(ctx, JobHistory, 30)
	require.NoError(t, err)
	assert.Equal(t, 1000, res.Deleted)
	assert.Equal(t, now.Add(-30*24*time.Hour), p.cutoffs[0])

	_, err = s.Manual(ctx, "users", 30)
	assert.True(t, errors.HasCode(err, errors.CodeValidation))
	_, err = s.Manual(ctx, JobHistory, 0)
	assert.True(t, errors.HasCode(err, errors.CodeValidation))
	_, err = s.Manual(ctx, JobHistory, 366)
	assert.True(t, errors.HasCode(err, errors.CodeValidation))
}

func TestSweeper_PauseHonorsCancel(t *testing.T) {
	p := &pile{left: 5000}
	s := NewSweeper(config.CleanupConfig{BatchSize: 500, MaxBatches: 10, BatchPause: time.Hour},
		logger.NewNoopLogger(), nil, Job{Name: JobHistory, Delete: p.Delete})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	res, err := s.RunJob(ctx, JobHistory)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 500, res.Deleted)
}

func TestDefaultJobs(t *testing.T) {
	jobs := DefaultJobs(config.CleanupConfig{}, Sources{})
	assert.Empty(t, jobs)

	s, _ := newTestSweeper(DefaultJobs(config.CleanupConfig{}, Sources{
		MapsCache: expiredFunc(func(context.Context, time.Time, int) (int, error) { return 0, nil }),
	})...)
	assert.Equal(t, []string{JobMapsCache}, s.Jobs())
}

type expiredFunc func(ctx context.Context, now time.Time, limit int) (int, error)

func (f expiredFunc) DeleteExpired(ctx context.Context, now time.Time, limit int) (int, error) {
	return f(ctx, now, limit)
}
