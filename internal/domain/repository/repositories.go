// Package repository defines the persistence contracts of the gate.
// Implementations live in internal/infrastructure/persistence.
package repository

import (
	"context"
	"time"

	"github.com/bocado-ai/gate/internal/domain/models"
)

// ProfileRepository reads and writes user profiles.
type ProfileRepository interface {
	// FindByUID returns the profile or (nil, nil) when the user has none yet.
	FindByUID(ctx context.Context, uid string) (*models.UserProfile, error)

	// Save upserts a profile.
	Save(ctx context.Context, profile *models.UserProfile) error
}

// PantryRepository reads and writes pantry items.
type PantryRepository interface {
	ListByUser(ctx context.Context, userID string) ([]models.PantryItem, error)

	// ReplaceForUser swaps the whole pantry of a user in one transaction.
	ReplaceForUser(ctx context.Context, userID string, items []models.PantryItem) error
}

// HistoryRepository stores delivered recommendations.
type HistoryRepository interface {
	// Recent returns up to limit entries, newest first.
	Recent(ctx context.Context, userID string, limit int) ([]models.HistoryEntry, error)

	Append(ctx context.Context, entry *models.HistoryEntry) error

	// DeleteOlderThan removes at most limit entries created before cutoff and
	// returns how many were removed.
	DeleteOlderThan(ctx context.Context, cutoff time.Time, limit int) (int, error)
}

// PlanRepository stores generated plans.
type PlanRepository interface {
	Save(ctx context.Context, plan *models.Plan) error
	FindByInteraction(ctx context.Context, interactionID string) (*models.Plan, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time, limit int) (int, error)
}
