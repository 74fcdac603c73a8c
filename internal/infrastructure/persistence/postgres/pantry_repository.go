package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bocado-ai/gate/internal/domain/models"
	"github.com/bocado-ai/gate/internal/domain/repository"
	"github.com/bocado-ai/gate/pkg/errors"
	"github.com/bocado-ai/gate/pkg/logger"
)

// PantryRepoImpl implements PantryRepository with gorm.
type PantryRepoImpl struct {
	db     *gorm.DB
	logger logger.Logger
}

// NewPantryRepository creates a gorm-backed pantry repository.
func NewPantryRepository(db *gorm.DB, log logger.Logger) repository.PantryRepository {
	return &PantryRepoImpl{db: db, logger: log.WithComponent("pantry_repo")}
}

func (r *PantryRepoImpl) ListByUser(ctx context.Context, userID string) ([]models.PantryItem, error) {
	var items []models.PantryItem
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("name").Find(&items).Error; err != nil {
		r.logger.Error(ctx, "Failed to list pantry", err)
		return nil, fmt.Errorf("%w: %v", errors.ErrDatabaseOperation, err)
	}
	return items, nil
}

func (r *PantryRepoImpl) ReplaceForUser(ctx context.Context, userID string, items []models.PantryItem) error {
	now := time.Now().UTC()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&models.PantryItem{}).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}
		for i := range items {
			items[i].UserID = userID
			items[i].UpdatedAt = now
			if items[i].ID == "" {
				items[i].ID = uuid.NewString()
			}
		}
		return tx.Create(&items).Error
	})
	if err != nil {
		r.logger.Error(ctx, "Failed to replace pantry", err, logger.Int("items", len(items)))
		return fmt.Errorf("%w: %v", errors.ErrDatabaseOperation, err)
	}
	return nil
}
