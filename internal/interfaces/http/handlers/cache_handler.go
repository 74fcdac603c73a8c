package handlers

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bocado-ai/gate/internal/application/dto"
	"github.com/bocado-ai/gate/internal/application/service"
	"github.com/bocado-ai/gate/pkg/errors"
)

// CacheHandler serves cache invalidation and statistics.
type CacheHandler struct {
	svc service.CacheAppService
}

func NewCacheHandler(svc service.CacheAppService) *CacheHandler {
	return &CacheHandler{svc: svc}
}

// Invalidate drops the caller's cached profile, pantry or history.
func (h *CacheHandler) Invalidate(c *gin.Context) {
	var req dto.CacheInvalidateRequest
	if err := c.ShouldBindJSON(&req); err != nil && err != io.EOF {
		dto.SendError(c, errors.ErrValidation("Invalid request body", nil))
		return
	}
	resp, err := h.svc.Invalidate(c.Request.Context(), caller(c), &req)
	if err != nil {
		dto.SendError(c, err)
		return
	}
	dto.SendSuccess(c, http.StatusOK, resp)
}

// Stats reports hit and miss counters per cache.
func (h *CacheHandler) Stats(c *gin.Context) {
	dto.SendSuccess(c, http.StatusOK, gin.H{
		"caches":    h.svc.Stats(c.Request.Context()),
		"timestamp": time.Now().UTC(),
	})
}
