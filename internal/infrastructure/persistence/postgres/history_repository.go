package postgres

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bocado-ai/gate/internal/domain/models"
	"github.com/bocado-ai/gate/internal/domain/repository"
	"github.com/bocado-ai/gate/pkg/errors"
	"github.com/bocado-ai/gate/pkg/logger"
)

// HistoryRepoImpl implements HistoryRepository with gorm.
type HistoryRepoImpl struct {
	db     *gorm.DB
	logger logger.Logger
}

// NewHistoryRepository creates a gorm-backed history repository.
func NewHistoryRepository(db *gorm.DB, log logger.Logger) repository.HistoryRepository {
	return &HistoryRepoImpl{db: db, logger: log.WithComponent("history_repo")}
}

func (r *HistoryRepoImpl) Recent(ctx context.Context, userID string, limit int) ([]models.HistoryEntry, error) {
	var entries []models.HistoryEntry
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		r.logger.Error(ctx, "Failed to load history", err)
		return nil, fmt.Errorf("%w: %v", errors.ErrDatabaseOperation, err)
	}
	return entries, nil
}

func (r *HistoryRepoImpl) Append(ctx context.Context, entry *models.HistoryEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		r.logger.Error(ctx, "Failed to append history", err, logger.String("interaction_id", entry.InteractionID))
		return fmt.Errorf("%w: %v", errors.ErrDatabaseOperation, err)
	}
	return nil
}

func (r *HistoryRepoImpl) DeleteOlderThan(ctx context.Context, cutoff time.Time, limit int) (int, error) {
	return deleteOlderThan(ctx, r.db, &models.HistoryEntry{}, cutoff, limit)
}

// PlanRepoImpl implements PlanRepository with gorm.
type PlanRepoImpl struct {
	db     *gorm.DB
	logger logger.Logger
}

// NewPlanRepository creates a gorm-backed plan repository.
func NewPlanRepository(db *gorm.DB, log logger.Logger) repository.PlanRepository {
	return &PlanRepoImpl{db: db, logger: log.WithComponent("plan_repo")}
}

func (r *PlanRepoImpl) Save(ctx context.Context, plan *models.Plan) error {
	if plan.ID == "" {
		plan.ID = uuid.NewString()
	}
	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = time.Now().UTC()
	}
	if err := r.db.WithContext(ctx).Create(plan).Error; err != nil {
		r.logger.Error(ctx, "Failed to save plan", err, logger.String("interaction_id", plan.InteractionID))
		return fmt.Errorf("%w: %v", errors.ErrDatabaseOperation, err)
	}
	return nil
}

func (r *PlanRepoImpl) FindByInteraction(ctx context.Context, interactionID string) (*models.Plan, error) {
	var plan models.Plan
	err := r.db.WithContext(ctx).Where("interaction_id = ?", interactionID).First(&plan).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrNotFound("plan")
		}
		return nil, fmt.Errorf("%w: %v", errors.ErrDatabaseOperation, err)
	}
	return &plan, nil
}

func (r *PlanRepoImpl) DeleteOlderThan(ctx context.Context, cutoff time.Time, limit int) (int, error) {
	return deleteOlderThan(ctx, r.db, &models.Plan{}, cutoff, limit)
}

// deleteOlderThan removes at most limit rows of model created before cutoff,
// oldest first.
func deleteOlderThan(ctx context.Context, db *gorm.DB, model interface{}, cutoff time.Time, limit int) (int, error) {
	var ids []string
	err := db.WithContext(ctx).Model(model).
		Where("created_at < ?", cutoff).
		Order("created_at").
		Limit(limit).
		Pluck("id", &ids).Error
	if err != nil {
		return 0, fmt.Errorf("%w: %v", errors.ErrDatabaseOperation, err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	res := db.WithContext(ctx).Where("id IN ?", ids).Delete(model)
	if res.Error != nil {
		return 0, fmt.Errorf("%w: %v", errors.ErrDatabaseOperation, res.Error)
	}
	return int(res.RowsAffected), nil
}
