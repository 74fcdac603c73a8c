package service

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/bocado-ai/gate/internal/domain/models"
	domainService "github.com/bocado-ai/gate/internal/domain/service"
	rediscache "github.com/bocado-ai/gate/internal/infrastructure/persistence/redis"
	"github.com/bocado-ai/gate/pkg/constants"
	"github.com/bocado-ai/gate/pkg/errors"
	"github.com/bocado-ai/gate/pkg/logger"
	"github.com/bocado-ai/gate/pkg/utils"
)

// PlacesProvider resolves places. *maps.GoogleProvider implements it.
type PlacesProvider interface {
	Autocomplete(ctx context.Context, query, countryCode, language string) ([]models.PlacePrediction, error)
	PlaceDetails(ctx context.Context, placeID, language string) (*models.PlaceDetails, error)
	Geocode(ctx context.Context, address, language string) (*models.GeocodeResult, error)
	ReverseGeocode(ctx context.Context, lat, lng float64, language string) (*models.GeocodeResult, error)
}

// IPLocator resolves a client IP. *maps.IPLocator implements it.
type IPLocator interface {
	Locate(ctx context.Context, ip string) *models.IPLocation
}

// ResponseCache stores provider responses. *redis.MapsCache implements it.
type ResponseCache interface {
	Get(ctx context.Context, key string) (json.RawMessage, bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// MapsOutcome is the body of a maps proxy response.
type MapsOutcome struct {
	Data     map[string]interface{}
	Decision *models.Decision
}

// MapsAppService is the server-side maps proxy.
type MapsAppService interface {
	Handle(ctx context.Context, caller Caller, req *models.MapsRequest) (*MapsOutcome, error)
}

type mapsAppServiceImpl struct {
	limiter  Admitter
	provider PlacesProvider
	locator  IPLocator
	cache    ResponseCache
	metrics  domainService.Metrics
	logger   logger.Logger
}

// NewMapsAppService creates the maps proxy service. cache may be nil.
func NewMapsAppService(limiter Admitter, provider PlacesProvider, locator IPLocator, cache ResponseCache, metrics domainService.Metrics, log logger.Logger) MapsAppService {
	if metrics == nil {
		metrics = domainService.NoopMetrics{}
	}
	return &mapsAppServiceImpl{
		limiter:  limiter,
		provider: provider,
		locator:  locator,
		cache:    cache,
		metrics:  metrics,
		logger:   log.WithComponent("maps_proxy"),
	}
}

// Handle authenticates, admits and dispatches one maps action. Only
// autocomplete may be called without a verified token.
func (s *mapsAppServiceImpl) Handle(ctx context.Context, caller Caller, req *models.MapsRequest) (*MapsOutcome, error) {
	if req == nil {
		return nil, errors.ErrValidation("Invalid action", nil)
	}
	action := constants.MapsAction(req.Action)
	if caller.UserID == "" && action != constants.MapsActionAutocomplete {
		return nil, errors.ErrUnauthorized("Auth token required")
	}

	policy, identity := string(constants.PolicyMapsPublic), caller.ClientIP
	if caller.UserID != "" {
		policy, identity = string(constants.PolicyMaps), caller.UserID
	}
	decision, err := admit(ctx, s.limiter, policy, identity)
	out := &MapsOutcome{Decision: &decision}
	if err != nil {
		return out, err
	}

	req.Normalize()
	if verr := utils.ValidateStruct(req); verr != nil {
		err = verr
	}

	lang := normalizeLanguage(req.Language)
	var cached bool
	switch {
	case err != nil:
	case action == constants.MapsActionAutocomplete:
		params := map[string]string{"query": req.Query, "countryCode": req.CountryCode, "language": lang}
		out.Data, cached, err = s.cached(ctx, "ac", params, constants.MapsAutocompleteTTL, func() (interface{}, error) {
			preds, err := s.provider.Autocomplete(ctx, req.Query, req.CountryCode, lang)
			if err != nil {
				return nil, err
			}
			return map[string]interface{}{"predictions": preds}, nil
		})
	case action == constants.MapsActionPlaceDetails:
		params := map[string]string{"placeId": req.PlaceID, "language": lang}
		out.Data, cached, err = s.cached(ctx, "pd", params, constants.MapsDetailsTTL, func() (interface{}, error) {
			return s.provider.PlaceDetails(ctx, req.PlaceID, lang)
		})
	case action == constants.MapsActionGeocode:
		params := map[string]string{"address": req.Address, "language": lang}
		out.Data, cached, err = s.cached(ctx, "geo", params, constants.MapsDetailsTTL, func() (interface{}, error) {
			return s.provider.Geocode(ctx, req.Address, lang)
		})
	case action == constants.MapsActionReverseGeocode:
		var res *models.GeocodeResult
		if res, err = s.provider.ReverseGeocode(ctx, *req.Lat, *req.Lng, lang); err == nil {
			out.Data, err = toMap(res)
		}
	case action == constants.MapsActionDetectLocation:
		loc := s.locator.Locate(ctx, caller.ClientIP)
		if loc == nil {
			err = errors.NewError(errors.CodeNotFound, http.StatusNotFound,
				"The client location could not be determined.", "No se pudo detectar la ubicación").
				WithMetadata(errors.MetaDetails, map[string]string{"fallback": "true"})
		} else {
			out.Data, err = toMap(loc)
		}
	default:
		err = errors.ErrValidation("Invalid action", map[string]string{"action": req.Action})
	}

	s.metrics.RecordMapsCall(req.Action, cached, err == nil)
	if err != nil {
		return out, err
	}
	if cached {
		out.Data["cached"] = true
	}
	return out, nil
}

// cached serves a response from the shared cache or calls fetch and stores
// its result. Cache failures degrade to a provider call.
func (s *mapsAppServiceImpl) cached(ctx context.Context, prefix string, params map[string]string, ttl time.Duration, fetch func() (interface{}, error)) (map[string]interface{}, bool, error) {
	key := rediscache.MapsCacheKey(prefix, params)
	if s.cache != nil {
		raw, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			s.logger.Warn(ctx, "Maps cache read failed", logger.String("key", key), logger.Err(err))
		}
		if ok {
			m := map[string]interface{}{}
			if err := json.Unmarshal(raw, &m); err == nil {
				return m, true, nil
			}
		}
	}

	v, err := fetch()
	if err != nil {
		return nil, false, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, v, ttl); err != nil {
			s.logger.Warn(ctx, "Maps cache write failed", logger.String("key", key), logger.Err(err))
		}
	}
	m, err := toMap(v)
	return m, false, err
}

func toMap(v interface{}) (map[string]interface{}, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, errors.ErrInternal("failed to encode maps response").WithCause(err)
	}
	m := map[string]interface{}{}
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, errors.ErrInternal("failed to encode maps response").WithCause(err)
	}
	return m, nil
}

// normalizeLanguage drops placeholder values sent by loosely typed clients.
func normalizeLanguage(l string) string {
	switch strings.ToLower(strings.TrimSpace(l)) {
	case "", "undefined", "null", "none", "nil":
		return ""
	}
	return strings.TrimSpace(l)
}
