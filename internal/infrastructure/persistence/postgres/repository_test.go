package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/bocado-ai/gate/internal/config"
	"github.com/bocado-ai/gate/internal/domain/models"
	"github.com/bocado-ai/gate/pkg/errors"
	"github.com/bocado-ai/gate/pkg/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := NewDBConnection(context.Background(), &config.DatabaseConfig{
		Driver:       "sqlite",
		Database:     ":memory:",
		MaxOpenConns: 1,
		AutoMigrate:  true,
	}, logger.NewNoopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn.DB()
}

func TestProfileRepository_FindAndUpsert(t *testing.T) {
	db := setupTestDB(t)
	repo := NewProfileRepository(db, logger.NewNoopLogger())
	ctx := context.Background()

	p, err := repo.FindByUID(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, p)

	profile := &models.UserProfile{
		UID:           "u1",
		Age:           "35",
		EatingHabit:   "Vegano",
		Diseases:      models.StringList{"Diabetes"},
		DislikedFoods: models.StringList{"pescado"},
		Location:      &models.GeoPoint{Lat: 40.4, Lng: -3.7},
	}
	require.NoError(t, repo.Save(ctx, profile))

	profile.EatingHabit = "Vegetariano"
	require.NoError(t, repo.Save(ctx, profile))

	got, err := repo.FindByUID(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Vegetariano", got.EatingHabit)
	assert.Equal(t, models.StringList{"Diabetes"}, got.Diseases)
	assert.Equal(t, "35", got.Age.String())
	require.NotNil(t, got.Location)
	assert.InDelta(t, 40.4, got.Location.Lat, 1e-9)
}

func TestPantryRepository_Replace(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPantryRepository(db, logger.NewNoopLogger())
	ctx := context.Background()

	require.NoError(t, repo.ReplaceForUser(ctx, "u1", []models.PantryItem{
		{Name: "tomate"}, {Name: "arroz", Regional: models.Regional{EN: "rice"}},
	}))
	require.NoError(t, repo.ReplaceForUser(ctx, "u2", []models.PantryItem{{Name: "leche"}}))

	items, err := repo.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "arroz", items[0].Name)
	assert.Equal(t, "rice", items[0].Regional.EN)
	assert.NotEmpty(t, items[0].ID)

	require.NoError(t, repo.ReplaceForUser(ctx, "u1", nil))
	items, err = repo.ListByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, items)

	items, err = repo.ListByUser(ctx, "u2")
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestHistoryRepository_RecentAndRetention(t *testing.T) {
	db := setupTestDB(t)
	repo := NewHistoryRepository(db, logger.NewNoopLogger())
	ctx := context.Background()
	base := time.Now().UTC().Add(-200 * 24 * time.Hour)

	for i := 0; i < 4; i++ {
		require.NoError(t, repo.Append(ctx, &models.HistoryEntry{
			UserID:    "u1",
			Type:      "En casa",
			Titles:    models.StringList{"receta"},
			CreatedAt: base.Add(time.Duration(i) * 50 * 24 * time.Hour),
		}))
	}

	recent, err := repo.Recent(ctx, "u1", 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.True(t, recent[0].CreatedAt.After(recent[1].CreatedAt))

	// entries at -200d, -150d and -100d are older than 90 days
	cutoff := time.Now().UTC().Add(-90 * 24 * time.Hour)
	n, err := repo.DeleteOlderThan(ctx, cutoff, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	n, err = repo.DeleteOlderThan(ctx, cutoff, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = repo.DeleteOlderThan(ctx, cutoff, 2)
	require.NoError(t, err)
	assert.Zero(t, n)

	left, err := repo.Recent(ctx, "u1", 10)
	require.NoError(t, err)
	assert.Len(t, left, 1)
}

func TestPlanRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPlanRepository(db, logger.NewNoopLogger())
	ctx := context.Background()

	plan := &models.Plan{
		UserID:         "u1",
		InteractionID:  "int-1",
		Type:           "Fuera",
		ProfileContext: "Sin restricciones",
		Payload:        models.JSONMap{"saludo_personalizado": "Hola"},
	}
	require.NoError(t, repo.Save(ctx, plan))
	assert.NotEmpty(t, plan.ID)

	got, err := repo.FindByInteraction(ctx, "int-1")
	require.NoError(t, err)
	assert.Equal(t, "Hola", got.Payload["saludo_personalizado"])

	_, err = repo.FindByInteraction(ctx, "nope")
	assert.True(t, errors.HasCode(err, errors.CodeNotFound))

	n, err := repo.DeleteOlderThan(ctx, time.Now().UTC().Add(time.Hour), 500)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
