package service

import (
	"context"
	"strings"

	"github.com/bocado-ai/gate/internal/application/dto"
	"github.com/bocado-ai/gate/internal/domain/models"
	"github.com/bocado-ai/gate/internal/domain/repository"
	"github.com/bocado-ai/gate/internal/infrastructure/cache"
	"github.com/bocado-ai/gate/pkg/constants"
	"github.com/bocado-ai/gate/pkg/errors"
	"github.com/bocado-ai/gate/pkg/logger"
	"github.com/bocado-ai/gate/pkg/utils"
)

// UserDataAppService writes the caller's profile and pantry and reads back
// stored plans. Successful writes drop the matching cache entry.
type UserDataAppService interface {
	SaveProfile(ctx context.Context, caller Caller, profile *models.UserProfile) (*models.UserProfile, error)
	ReplacePantry(ctx context.Context, caller Caller, req *dto.PantryReplaceRequest) ([]models.PantryItem, error)
	GetPlan(ctx context.Context, caller Caller, interactionID string) (*models.Plan, error)
}

type userDataAppServiceImpl struct {
	profiles repository.ProfileRepository
	pantry   repository.PantryRepository
	plans    repository.PlanRepository
	caches   *cache.Registry
	logger   logger.Logger
}

// NewUserDataAppService creates a UserDataAppService.
func NewUserDataAppService(
	profiles repository.ProfileRepository,
	pantry repository.PantryRepository,
	plans repository.PlanRepository,
	caches *cache.Registry,
	log logger.Logger,
) UserDataAppService {
	return &userDataAppServiceImpl{
		profiles: profiles,
		pantry:   pantry,
		plans:    plans,
		caches:   caches,
		logger:   log.WithComponent("user_data"),
	}
}

func (s *userDataAppServiceImpl) SaveProfile(ctx context.Context, caller Caller, profile *models.UserProfile) (*models.UserProfile, error) {
	if caller.UserID == "" {
		return nil, errors.ErrUnauthorized("missing identity token")
	}
	if profile == nil {
		return nil, errors.ErrValidation("profile body required", nil)
	}
	uid, err := subject(caller, profile.UID, "uid")
	if err != nil {
		return nil, err
	}
	profile.UID = uid
	if verr := utils.ValidateStruct(profile); verr != nil {
		return nil, verr
	}

	if err := s.profiles.Save(ctx, profile); err != nil {
		return nil, asGateError(err, "profile save failed")
	}
	s.caches.InvalidateUser(ctx, uid, constants.CacheDomainProfile)
	s.logger.Info(ctx, "Profile saved", logger.String("user_id", utils.MaskID(uid)))
	return profile, nil
}

func (s *userDataAppServiceImpl) ReplacePantry(ctx context.Context, caller Caller, req *dto.PantryReplaceRequest) ([]models.PantryItem, error) {
	if caller.UserID == "" {
		return nil, errors.ErrUnauthorized("missing identity token")
	}
	if req == nil {
		req = &dto.PantryReplaceRequest{}
	}
	uid, err := subject(caller, req.UserID, "userId")
	if err != nil {
		return nil, err
	}
	for i := range req.Items {
		req.Items[i].Name = strings.TrimSpace(req.Items[i].Name)
	}
	if verr := utils.ValidateStruct(req); verr != nil {
		return nil, verr
	}

	items := req.Items
	if items == nil {
		items = []models.PantryItem{}
	}
	if err := s.pantry.ReplaceForUser(ctx, uid, items); err != nil {
		return nil, asGateError(err, "pantry save failed")
	}
	s.caches.InvalidateUser(ctx, uid, constants.CacheDomainPantry)
	s.logger.Info(ctx, "Pantry replaced",
		logger.String("user_id", utils.MaskID(uid)),
		logger.Int("items", len(items)),
	)
	return items, nil
}

// GetPlan returns a stored plan. Plans owned by another user read as missing.
func (s *userDataAppServiceImpl) GetPlan(ctx context.Context, caller Caller, interactionID string) (*models.Plan, error) {
	if caller.UserID == "" {
		return nil, errors.ErrUnauthorized("missing identity token")
	}
	interactionID = strings.TrimSpace(interactionID)
	if verr := utils.ValidateVar("interactionId", interactionID, "required,max=64"); verr != nil {
		return nil, verr
	}

	plan, err := s.plans.FindByInteraction(ctx, interactionID)
	if err != nil {
		return nil, asGateError(err, "plan lookup failed")
	}
	if plan.UserID != caller.UserID {
		return nil, errors.ErrNotFound("plan")
	}
	return plan, nil
}

// subject resolves the user a write applies to. It defaults to the token
// subject and may not differ from it.
func subject(caller Caller, requested, field string) (string, error) {
	uid := strings.TrimSpace(requested)
	if uid == "" {
		return caller.UserID, nil
	}
	if uid != caller.UserID {
		return "", errors.ErrUnauthorized("token subject does not match " + field)
	}
	return uid, nil
}
