package service

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bocado-ai/gate/internal/application/dto"
	"github.com/bocado-ai/gate/internal/domain/models"
	"github.com/bocado-ai/gate/pkg/errors"
	"github.com/bocado-ai/gate/pkg/logger"
)

type fakeCleaner struct {
	runAll     int
	collection string
	days       int
	err        error
}

func (f *fakeCleaner) RunAll(context.Context) ([]models.CleanupResult, error) {
	f.runAll++
	return []models.CleanupResult{{Job: "rate_limits", Deleted: 3, Batches: 1}}, f.err
}

func (f *fakeCleaner) Manual(_ context.Context, collection string, days int) (models.CleanupResult, error) {
	f.collection, f.days = collection, days
	return models.CleanupResult{Job: collection, Deleted: 7, Batches: 1}, f.err
}

func TestAdminCleanup(t *testing.T) {
	c := &fakeCleaner{}
	svc := NewAdminAppService(c, newTestLimiter(), logger.NewNoopLogger())
	ctx := context.Background()

	res, err := svc.Cleanup(ctx, &dto.CleanupRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, c.runAll)
	assert.Equal(t, 3, res[0].Deleted)

	res, err = svc.Cleanup(ctx, &dto.CleanupRequest{Collection: "history", Days: 30})
	require.NoError(t, err)
	assert.Equal(t, "history", c.collection)
	assert.Equal(t, 30, c.days)
	assert.Equal(t, 7, res[0].Deleted)

	c.err = errors.ErrValidation("Invalid collection", nil)
	_, err = svc.Cleanup(ctx, &dto.CleanupRequest{Collection: "users", Days: 30})
	assert.True(t, errors.HasCode(err, errors.CodeValidation))

	c.err = stderrors.New("db down")
	_, err = svc.Cleanup(ctx, nil)
	assert.True(t, errors.HasCode(err, errors.CodeInternal))
}

func TestAdminRateLimitResetAndStatus(t *testing.T) {
	limiter := newTestLimiter()
	svc := NewAdminAppService(&fakeCleaner{}, limiter, logger.NewNoopLogger())
	ctx := context.Background()

	_, err := limiter.Admit(ctx, "recommendations", "user-1")
	require.NoError(t, err)

	st, err := svc.LimitStatus(ctx, "recommendations", "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, st.RequestsInWindow)
	assert.False(t, st.CanRequest)

	require.NoError(t, svc.ResetLimit(ctx, &dto.RateLimitResetRequest{Policy: "recommendations", Identity: "user-1"}))
	st, err = svc.LimitStatus(ctx, "recommendations", "user-1")
	require.NoError(t, err)
	assert.True(t, st.CanRequest)
	assert.Equal(t, 0, st.RequestsInWindow)

	err = svc.ResetLimit(ctx, &dto.RateLimitResetRequest{Policy: "nope", Identity: "x"})
	assert.True(t, errors.HasCode(err, errors.CodeValidation))
	err = svc.ResetLimit(ctx, &dto.RateLimitResetRequest{Policy: "recommendations"})
	assert.True(t, errors.HasCode(err, errors.CodeValidation))
	_, err = svc.LimitStatus(ctx, "recommendations", "")
	assert.True(t, errors.HasCode(err, errors.CodeValidation))
}
