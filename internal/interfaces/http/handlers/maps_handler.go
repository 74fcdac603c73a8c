package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bocado-ai/gate/internal/application/dto"
	"github.com/bocado-ai/gate/internal/application/service"
	"github.com/bocado-ai/gate/internal/domain/models"
	"github.com/bocado-ai/gate/internal/interfaces/http/middleware"
	"github.com/bocado-ai/gate/pkg/errors"
)

// MapsHandler serves the maps proxy.
type MapsHandler struct {
	svc service.MapsAppService
}

func NewMapsHandler(svc service.MapsAppService) *MapsHandler {
	return &MapsHandler{svc: svc}
}

// Proxy dispatches one maps action.
func (h *MapsHandler) Proxy(c *gin.Context) {
	var req models.MapsRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Action == "" {
		dto.SendError(c, errors.ErrValidation("Invalid action", nil))
		return
	}

	out, err := h.svc.Handle(c.Request.Context(), caller(c), &req)
	if out != nil && out.Decision != nil {
		middleware.SetRateLimitHeaders(c, *out.Decision)
	}
	if err != nil {
		dto.SendError(c, err)
		return
	}
	dto.SendSuccess(c, http.StatusOK, out.Data)
}
