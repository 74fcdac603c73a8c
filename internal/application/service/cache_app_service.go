package service

import (
	"context"
	"time"

	"github.com/bocado-ai/gate/internal/application/dto"
	"github.com/bocado-ai/gate/internal/domain/models"
	"github.com/bocado-ai/gate/internal/infrastructure/cache"
	"github.com/bocado-ai/gate/pkg/errors"
	"github.com/bocado-ai/gate/pkg/logger"
	"github.com/bocado-ai/gate/pkg/utils"
)

// CacheAppService exposes invalidation and statistics of the process caches.
type CacheAppService interface {
	Invalidate(ctx context.Context, caller Caller, req *dto.CacheInvalidateRequest) (*dto.CacheInvalidateResponse, error)
	Stats(ctx context.Context) map[string]models.CacheStats
}

type cacheAppServiceImpl struct {
	caches *cache.Registry
	logger logger.Logger
}

// NewCacheAppService creates a CacheAppService.
func NewCacheAppService(caches *cache.Registry, log logger.Logger) CacheAppService {
	return &cacheAppServiceImpl{caches: caches, logger: log.WithComponent("cache_api")}
}

// Invalidate drops a user's cached entries. The user defaults to the token
// subject and may not differ from it.
func (s *cacheAppServiceImpl) Invalidate(ctx context.Context, caller Caller, req *dto.CacheInvalidateRequest) (*dto.CacheInvalidateResponse, error) {
	if caller.UserID == "" {
		return nil, errors.ErrUnauthorized("missing identity token")
	}
	if req == nil {
		req = &dto.CacheInvalidateRequest{}
	}
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	uid := req.UserID
	if uid == "" {
		uid = caller.UserID
	}
	if uid != caller.UserID {
		return nil, errors.ErrUnauthorized("token subject does not match userId")
	}

	domain, err := cache.ParseDomain(req.Type)
	if err != nil {
		return nil, err
	}

	touched := s.caches.InvalidateUser(ctx, uid, domain)
	s.logger.Info(ctx, "User cache invalidated",
		logger.String("user_id", utils.MaskID(uid)),
		logger.String("type", string(domain)),
	)
	return &dto.CacheInvalidateResponse{
		Invalidated: touched,
		UserID:      utils.MaskID(uid),
		Timestamp:   time.Now().UTC(),
	}, nil
}

func (s *cacheAppServiceImpl) Stats(_ context.Context) map[string]models.CacheStats {
	return s.caches.Stats()
}
