// Package handlers contains the gin handlers of the HTTP API.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bocado-ai/gate/internal/application/dto"
	"github.com/bocado-ai/gate/internal/application/service"
	"github.com/bocado-ai/gate/internal/domain/models"
	"github.com/bocado-ai/gate/internal/interfaces/http/middleware"
	"github.com/bocado-ai/gate/pkg/errors"
	"github.com/bocado-ai/gate/pkg/logger"
)

// RecommendationHandler serves POST /api/v1/recommendations.
type RecommendationHandler struct {
	svc    service.RecommendationAppService
	auth   *middleware.Authenticator
	logger logger.Logger
}

// NewRecommendationHandler creates a RecommendationHandler.
func NewRecommendationHandler(svc service.RecommendationAppService, auth *middleware.Authenticator, log logger.Logger) *RecommendationHandler {
	return &RecommendationHandler{svc: svc, auth: auth, logger: log}
}

// Generate handles a recommendation request. The body is validated before
// the bearer token is checked.
func (h *RecommendationHandler) Generate(c *gin.Context) {
	var req models.RecommendationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.SendError(c, errors.ErrValidation("Invalid request body", map[string]string{"body": err.Error()}))
		return
	}
	if err := service.ValidateRecommendationRequest(&req); err != nil {
		dto.SendError(c, err)
		return
	}
	if _, err := h.auth.Authenticate(c); err != nil {
		dto.SendError(c, err)
		return
	}

	out, err := h.svc.Generate(c.Request.Context(), caller(c), &req)
	if out != nil && out.Decision != nil {
		middleware.SetRateLimitHeaders(c, *out.Decision)
	}
	if err != nil {
		dto.SendError(c, err)
		return
	}
	dto.SendSuccess(c, http.StatusOK, out.Result)
}

func caller(c *gin.Context) service.Caller {
	return service.Caller{UserID: middleware.UserID(c), ClientIP: middleware.ClientIP(c)}
}
