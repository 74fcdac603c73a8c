package service

import (
	"context"

	"github.com/bocado-ai/gate/internal/application/dto"
	"github.com/bocado-ai/gate/internal/domain/models"
	"github.com/bocado-ai/gate/pkg/errors"
	"github.com/bocado-ai/gate/pkg/logger"
	"github.com/bocado-ai/gate/pkg/utils"
)

// Cleaner runs retention jobs. *cleanup.Sweeper implements it.
type Cleaner interface {
	RunAll(ctx context.Context) ([]models.CleanupResult, error)
	Manual(ctx context.Context, collection string, days int) (models.CleanupResult, error)
}

// LimitAdmin inspects and resets rate-limit records. *ratelimit.Limiter implements it.
type LimitAdmin interface {
	Policy(name string) (models.Policy, bool)
	Reset(ctx context.Context, policy, identity string) error
	Status(ctx context.Context, policy, identity string) (*models.RateLimitStatus, error)
}

// AdminAppService backs the operator endpoints and the admin CLI.
type AdminAppService interface {
	Cleanup(ctx context.Context, req *dto.CleanupRequest) ([]models.CleanupResult, error)
	ResetLimit(ctx context.Context, req *dto.RateLimitResetRequest) error
	LimitStatus(ctx context.Context, policy, identity string) (*models.RateLimitStatus, error)
}

type adminAppServiceImpl struct {
	cleaner Cleaner
	limits  LimitAdmin
	logger  logger.Logger
}

// NewAdminAppService creates an AdminAppService.
func NewAdminAppService(cleaner Cleaner, limits LimitAdmin, log logger.Logger) AdminAppService {
	return &adminAppServiceImpl{cleaner: cleaner, limits: limits, logger: log.WithComponent("admin")}
}

// Cleanup runs every scheduled job, or a single bounded manual job when a
// collection is named.
func (s *adminAppServiceImpl) Cleanup(ctx context.Context, req *dto.CleanupRequest) ([]models.CleanupResult, error) {
	if req == nil || req.Collection == "" {
		results, err := s.cleaner.RunAll(ctx)
		if err != nil {
			return results, errors.Wrap(err, errors.CodeInternal, "cleanup failed")
		}
		return results, nil
	}

	res, err := s.cleaner.Manual(ctx, req.Collection, req.Days)
	if err != nil {
		return nil, asGateError(err, "cleanup failed")
	}
	s.logger.Info(ctx, "Manual cleanup completed",
		logger.String("collection", req.Collection),
		logger.Int("days", req.Days),
		logger.Int("deleted", res.Deleted),
	)
	return []models.CleanupResult{res}, nil
}

func (s *adminAppServiceImpl) ResetLimit(ctx context.Context, req *dto.RateLimitResetRequest) error {
	if req == nil {
		return errors.ErrValidation("request body is required", nil)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return err
	}
	if _, ok := s.limits.Policy(req.Policy); !ok {
		return errors.ErrValidation("unknown policy", map[string]string{"policy": req.Policy})
	}
	if err := s.limits.Reset(ctx, req.Policy, req.Identity); err != nil {
		return asGateError(err, "rate limit reset failed")
	}
	s.logger.Info(ctx, "Rate limit reset",
		logger.String("policy", req.Policy),
		logger.String("identity", utils.MaskID(req.Identity)),
	)
	return nil
}

func (s *adminAppServiceImpl) LimitStatus(ctx context.Context, policy, identity string) (*models.RateLimitStatus, error) {
	if identity == "" {
		return nil, errors.ErrValidation("identity is required", map[string]string{"identity": "required"})
	}
	if _, ok := s.limits.Policy(policy); !ok {
		return nil, errors.ErrValidation("unknown policy", map[string]string{"policy": policy})
	}
	st, err := s.limits.Status(ctx, policy, identity)
	if err != nil {
		return nil, asGateError(err, "rate limit status failed")
	}
	return st, nil
}

// asGateError keeps typed errors and wraps anything else as internal.
func asGateError(err error, msg string) error {
	if _, ok := errors.As(err); ok {
		return err
	}
	return errors.Wrap(err, errors.CodeInternal, msg)
}
