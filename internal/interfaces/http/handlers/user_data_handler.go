package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bocado-ai/gate/internal/application/dto"
	"github.com/bocado-ai/gate/internal/application/service"
	"github.com/bocado-ai/gate/internal/domain/models"
	"github.com/bocado-ai/gate/pkg/errors"
)

// UserDataHandler serves the caller's profile, pantry and stored plans.
type UserDataHandler struct {
	svc service.UserDataAppService
}

func NewUserDataHandler(svc service.UserDataAppService) *UserDataHandler {
	return &UserDataHandler{svc: svc}
}

// SaveProfile upserts the caller's profile.
func (h *UserDataHandler) SaveProfile(c *gin.Context) {
	var profile models.UserProfile
	if err := c.ShouldBindJSON(&profile); err != nil {
		dto.SendError(c, errors.ErrValidation("Invalid request body", map[string]string{"body": err.Error()}))
		return
	}
	saved, err := h.svc.SaveProfile(c.Request.Context(), caller(c), &profile)
	if err != nil {
		dto.SendError(c, err)
		return
	}
	dto.SendSuccess(c, http.StatusOK, saved)
}

// ReplacePantry swaps the caller's whole pantry.
func (h *UserDataHandler) ReplacePantry(c *gin.Context) {
	var req dto.PantryReplaceRequest
	if err := c.ShouldBindJSON(&req); err != nil && err != io.EOF {
		dto.SendError(c, errors.ErrValidation("Invalid request body", map[string]string{"body": err.Error()}))
		return
	}
	items, err := h.svc.ReplacePantry(c.Request.Context(), caller(c), &req)
	if err != nil {
		dto.SendError(c, err)
		return
	}
	dto.SendSuccess(c, http.StatusOK, gin.H{"items": items, "count": len(items)})
}

// GetPlan returns the plan stored for an interaction.
func (h *UserDataHandler) GetPlan(c *gin.Context) {
	plan, err := h.svc.GetPlan(c.Request.Context(), caller(c), c.Param("interactionId"))
	if err != nil {
		dto.SendError(c, err)
		return
	}
	dto.SendSuccess(c, http.StatusOK, plan)
}
