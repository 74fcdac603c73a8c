package postgres

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/bocado-ai/gate/internal/domain/models"
	"github.com/bocado-ai/gate/internal/domain/repository"
	"github.com/bocado-ai/gate/pkg/errors"
	"github.com/bocado-ai/gate/pkg/logger"
)

// ProfileRepoImpl implements ProfileRepository with gorm.
type ProfileRepoImpl struct {
	db     *gorm.DB
	logger logger.Logger
}

// NewProfileRepository creates a gorm-backed profile repository.
func NewProfileRepository(db *gorm.DB, log logger.Logger) repository.ProfileRepository {
	return &ProfileRepoImpl{db: db, logger: log.WithComponent("profile_repo")}
}

func (r *ProfileRepoImpl) FindByUID(ctx context.Context, uid string) (*models.UserProfile, error) {
	var profile models.UserProfile
	err := r.db.WithContext(ctx).Where("uid = ?", uid).First(&profile).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error(ctx, "Failed to load profile", err)
		return nil, fmt.Errorf("%w: %v", errors.ErrDatabaseOperation, err)
	}
	return &profile, nil
}

func (r *ProfileRepoImpl) Save(ctx context.Context, profile *models.UserProfile) error {
	now := time.Now().UTC()
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = now
	}
	profile.UpdatedAt = now

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "uid"}},
		DoUpdates: clause.AssignmentColumns(profileUpdateColumns),
	}).Create(profile).Error
	if err != nil {
		r.logger.Error(ctx, "Failed to save profile", err)
		return fmt.Errorf("%w: %v", errors.ErrDatabaseOperation, err)
	}
	return nil
}

var profileUpdateColumns = []string{
	"gender", "age", "weight", "height", "country", "city",
	"diseases", "allergies", "other_allergies", "eating_habit",
	"activity_level", "activity_frequency", "nutritional_goal",
	"cooking_affinity", "disliked_foods", "language",
	"location_lat", "location_lng", "location_accuracy", "updated_at",
}
