package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/bocado-ai/gate/internal/domain/models"
	"github.com/bocado-ai/gate/internal/domain/repository"
	domainService "github.com/bocado-ai/gate/internal/domain/service"
	"github.com/bocado-ai/gate/internal/infrastructure/cache"
	"github.com/bocado-ai/gate/pkg/constants"
	"github.com/bocado-ai/gate/pkg/errors"
	"github.com/bocado-ai/gate/pkg/logger"
	"github.com/bocado-ai/gate/pkg/utils"
)

var tracer = otel.Tracer("github.com/bocado-ai/gate/internal/application/service")

// RecommendationOutcome is the result of one generation attempt. Decision is
// populated whenever admission ran, including rejections.
type RecommendationOutcome struct {
	Result   *models.RecommendationResult
	Decision *models.Decision
}

// RecommendationAppService generates meal recommendations behind the gate.
type RecommendationAppService interface {
	Generate(ctx context.Context, caller Caller, req *models.RecommendationRequest) (*RecommendationOutcome, error)
}

// RecommendationDeps are the collaborators of the recommendation service.
type RecommendationDeps struct {
	Limiter   Admitter
	Caches    *cache.Registry
	Profiles  repository.ProfileRepository
	Pantry    repository.PantryRepository
	History   repository.HistoryRepository
	Plans     repository.PlanRepository
	Model     domainService.ModelClient
	Publisher domainService.EventPublisher
	Metrics   domainService.Metrics
	Logger    logger.Logger
}

type recommendationAppServiceImpl struct {
	RecommendationDeps
	now func() time.Time
}

// NewRecommendationAppService creates the service. Publisher and Metrics may be nil.
func NewRecommendationAppService(deps RecommendationDeps) RecommendationAppService {
	if deps.Metrics == nil {
		deps.Metrics = domainService.NoopMetrics{}
	}
	deps.Logger = deps.Logger.WithComponent("recommendations")
	return &recommendationAppServiceImpl{RecommendationDeps: deps, now: time.Now}
}

// recommendationContext is what the prompt is built from.
type recommendationContext struct {
	profile *models.UserProfile
	pantry  []models.PantryItem
	history []models.HistoryEntry
}

// Generate validates, authenticates, admits, gathers context, calls the model
// once and persists the outcome best-effort.
func (s *recommendationAppServiceImpl) Generate(ctx context.Context, caller Caller, req *models.RecommendationRequest) (*RecommendationOutcome, error) {
	// 1. Validate
	if err := ValidateRecommendationRequest(req); err != nil {
		return nil, err
	}

	// 2. Authenticate
	if caller.UserID == "" {
		return nil, errors.ErrUnauthorized("missing identity token")
	}
	if caller.UserID != req.UserID {
		s.Logger.Warn(ctx, "Token subject does not match userId", logger.String("user_id", utils.MaskID(req.UserID)))
		return nil, errors.ErrUnauthorized("token subject does not match userId")
	}

	// 3. Admit
	decision, err := admit(ctx, s.Limiter, string(constants.PolicyRecommendations), req.UserID)
	outcome := &RecommendationOutcome{Decision: &decision}
	if err != nil {
		return outcome, err
	}

	// 4. Gather context
	rc, err := s.gather(ctx, req.UserID)
	if err != nil {
		return outcome, err
	}
	summary := domainService.BuildProfileContext(rc.profile, req.DislikedFoods)
	pantry := rc.pantry
	if req.IsAtHome() {
		pantry = domainService.FilterIngredients(rc.pantry, rc.profile, req.DislikedFoods)
	}
	prompt := domainService.BuildPrompt(domainService.PromptInput{
		Request:        req,
		Profile:        rc.profile,
		ProfileContext: summary,
		Pantry:         pantry,
		History:        rc.history,
	})

	// 5. Invoke the model once
	rec, err := s.invokeModel(ctx, req.Type, prompt)
	if err != nil {
		return outcome, err
	}

	// 6. Persist best-effort
	interactionID := uuid.NewString()
	persisted := s.persist(ctx, req, interactionID, summary, rec)
	s.Caches.History.Invalidate(ctx, cache.Key(constants.CacheDomainHistory, req.UserID))
	s.publish(ctx, req, interactionID, rec, persisted)

	outcome.Result = &models.RecommendationResult{
		InteractionID:  interactionID,
		Type:           req.Type,
		Recommendation: rec,
		Persisted:      persisted,
	}
	return outcome, nil
}

// ValidateRecommendationRequest checks the body schema. It runs before any
// identity or quota check.
func ValidateRecommendationRequest(req *models.RecommendationRequest) error {
	if req == nil {
		return errors.ErrValidation("request body is required", nil)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return err
	}
	return nil
}

// gather reads profile, pantry and recent history concurrently through the caches.
func (s *recommendationAppServiceImpl) gather(ctx context.Context, uid string) (*recommendationContext, error) {
	rc := &recommendationContext{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		p, err := cache.Load(gctx, s.Caches.Profile, cache.Key(constants.CacheDomainProfile, uid),
			func(ctx context.Context) (*models.UserProfile, error) { return s.Profiles.FindByUID(ctx, uid) })
		rc.profile = p
		return err
	})
	g.Go(func() error {
		items, err := cache.Load(gctx, s.Caches.Pantry, cache.Key(constants.CacheDomainPantry, uid),
			func(ctx context.Context) ([]models.PantryItem, error) { return s.Pantry.ListByUser(ctx, uid) })
		rc.pantry = items
		return err
	})
	g.Go(func() error {
		entries, err := cache.Load(gctx, s.Caches.History, cache.Key(constants.CacheDomainHistory, uid),
			func(ctx context.Context) ([]models.HistoryEntry, error) {
				return s.History.Recent(ctx, uid, constants.HistoryPromptLimit)
			})
		rc.history = entries
		return err
	})

	if err := g.Wait(); err != nil {
		s.Logger.Error(ctx, "Failed to gather recommendation context", err, logger.String("user_id", utils.MaskID(uid)))
		return nil, errors.ErrInternal("failed to load user context").WithCause(err)
	}
	return rc, nil
}

func (s *recommendationAppServiceImpl) invokeModel(ctx context.Context, kind, prompt string) (*models.Recommendation, error) {
	ctx, span := tracer.Start(ctx, "model.generate")
	span.SetAttributes(attribute.String("recommendation.type", kind), attribute.Int("prompt.length", len(prompt)))
	defer span.End()

	start := s.now()
	rec, err := s.Model.Generate(ctx, prompt)
	s.Metrics.RecordModelCall(kind, err == nil, time.Since(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "model call failed")
		s.Logger.Error(ctx, "Recommendation model failed", err, logger.String("type", kind))
		return nil, errors.ErrUpstreamModel(err)
	}
	return rec, nil
}

// persist stores the plan and appends history. Failures are logged only.
func (s *recommendationAppServiceImpl) persist(ctx context.Context, req *models.RecommendationRequest, interactionID, summary string, rec *models.Recommendation) bool {
	now := s.now().UTC()
	ok := true

	payload, err := toJSONMap(rec)
	if err == nil {
		err = s.Plans.Save(ctx, &models.Plan{
			UserID:         req.UserID,
			InteractionID:  interactionID,
			Type:           req.Type,
			ProfileContext: summary,
			Payload:        payload,
			CreatedAt:      now,
		})
	}
	if err != nil {
		ok = false
		s.Metrics.RecordPersistFailure("plan")
		s.Logger.Error(ctx, "Failed to persist plan", err, logger.String("interaction_id", interactionID))
	}

	if err := s.History.Append(ctx, &models.HistoryEntry{
		UserID:        req.UserID,
		InteractionID: interactionID,
		Type:          req.Type,
		Titles:        rec.Titles(),
		CreatedAt:     now,
	}); err != nil {
		ok = false
		s.Metrics.RecordPersistFailure("history")
		s.Logger.Error(ctx, "Failed to append history", err, logger.String("interaction_id", interactionID))
	}
	return ok
}

func (s *recommendationAppServiceImpl) publish(ctx context.Context, req *models.RecommendationRequest, interactionID string, rec *models.Recommendation, persisted bool) {
	if s.Publisher == nil {
		return
	}
	err := s.Publisher.PublishRecommendation(ctx, domainService.RecommendationEvent{
		Type:          constants.EventRecommendationGenerated,
		InteractionID: interactionID,
		UserID:        req.UserID,
		Kind:          req.Type,
		Titles:        rec.Titles(),
		Persisted:     persisted,
		OccurredAt:    s.now().UTC(),
	})
	if err != nil {
		s.Logger.Warn(ctx, "Failed to publish recommendation event", logger.Err(err))
	}
}

func toJSONMap(v interface{}) (models.JSONMap, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	out := models.JSONMap{}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}
