package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bocado-ai/gate/internal/application/dto"
	"github.com/bocado-ai/gate/internal/application/service"
	"github.com/bocado-ai/gate/pkg/errors"
)

// AdminHandler serves the operator endpoints.
type AdminHandler struct {
	svc service.AdminAppService
}

func NewAdminHandler(svc service.AdminAppService) *AdminHandler {
	return &AdminHandler{svc: svc}
}

// Cleanup runs the retention jobs, or one manual job.
func (h *AdminHandler) Cleanup(c *gin.Context) {
	var req dto.CleanupRequest
	if err := c.ShouldBindJSON(&req); err != nil && err != io.EOF {
		dto.SendError(c, errors.ErrValidation("Invalid request body", nil))
		return
	}
	results, err := h.svc.Cleanup(c.Request.Context(), &req)
	if err != nil {
		dto.SendError(c, err)
		return
	}
	total := 0
	for _, r := range results {
		total += r.Deleted
	}
	dto.SendSuccess(c, http.StatusOK, gin.H{"deleted": total, "jobs": results})
}

// ResetRateLimit clears one identity's record under a policy.
func (h *AdminHandler) ResetRateLimit(c *gin.Context) {
	var req dto.RateLimitResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.SendError(c, errors.ErrValidation("Invalid request body", nil))
		return
	}
	if err := h.svc.ResetLimit(c.Request.Context(), &req); err != nil {
		dto.SendError(c, err)
		return
	}
	dto.SendSuccess(c, http.StatusOK, gin.H{"reset": true, "policy": req.Policy})
}

// RateLimitStatus reports an identity's record without mutating it.
func (h *AdminHandler) RateLimitStatus(c *gin.Context) {
	st, err := h.svc.LimitStatus(c.Request.Context(), c.Query("policy"), c.Query("identity"))
	if err != nil {
		dto.SendError(c, err)
		return
	}
	dto.SendSuccess(c, http.StatusOK, st)
}
