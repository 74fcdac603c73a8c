package dto

import (
	"time"

	"github.com/bocado-ai/gate/internal/domain/models"
)

// CacheInvalidateRequest is the body of POST /cache/invalidate.
type CacheInvalidateRequest struct {
	UserID string `json:"userId,omitempty" validate:"omitempty,max=128"`
	Type   string `json:"type,omitempty" validate:"omitempty,oneof=profile pantry history all"`
}

// CacheInvalidateResponse reports what was dropped.
type CacheInvalidateResponse struct {
	Invalidated []string  `json:"invalidated"`
	UserID      string    `json:"userId"`
	Timestamp   time.Time `json:"timestamp"`
}

// CleanupRequest is the body of POST /admin/cleanup. An empty collection
// runs every scheduled job.
type CleanupRequest struct {
	Collection string `json:"collection,omitempty"`
	Days       int    `json:"days,omitempty"`
}

// RateLimitResetRequest is the body of POST /admin/ratelimit/reset.
type RateLimitResetRequest struct {
	Policy   string `json:"policy" validate:"required"`
	Identity string `json:"identity" validate:"required,max=256"`
}

// PantryReplaceRequest is the body of PUT /pantry. The items replace the
// whole pantry of the user.
type PantryReplaceRequest struct {
	UserID string              `json:"userId,omitempty" validate:"omitempty,max=128"`
	Items  []models.PantryItem `json:"items" validate:"max=500,dive"`
}
