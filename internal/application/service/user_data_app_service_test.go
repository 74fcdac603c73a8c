package service

import (
	"context"
	stderrors "errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bocado-ai/gate/internal/application/dto"
	"github.com/bocado-ai/gate/internal/domain/models"
	"github.com/bocado-ai/gate/pkg/errors"
	"github.com/bocado-ai/gate/pkg/logger"
)

type userDataFixture struct {
	profiles *MockProfileRepository
	pantry   *MockPantryRepository
	plans    *MockPlanRepository
	svc      UserDataAppService
}

func newUserDataFixture(t *testing.T) (*userDataFixture, context.Context) {
	t.Helper()
	f := &userDataFixture{
		profiles: &MockProfileRepository{},
		pantry:   &MockPantryRepository{},
		plans:    &MockPlanRepository{},
	}
	return f, context.Background()
}

func (f *userDataFixture) build() {
	f.svc = NewUserDataAppService(f.profiles, f.pantry, f.plans, newTestRegistry(), logger.NewNoopLogger())
}

func TestSaveProfile_InvalidatesCachedProfile(t *testing.T) {
	f, ctx := newUserDataFixture(t)
	reg := newTestRegistry()
	f.svc = NewUserDataAppService(f.profiles, f.pantry, f.plans, reg, logger.NewNoopLogger())

	reg.Profile.Set(ctx, "profile:user-1", &models.UserProfile{UID: "user-1", Diseases: models.StringList{"gout"}})
	reg.Pantry.Set(ctx, "pantry:user-1", []models.PantryItem{{Name: "rice"}})

	f.profiles.On("Save", mock.Anything, mock.MatchedBy(func(p *models.UserProfile) bool {
		return p.UID == "user-1" && len(p.Diseases) == 0
	})).Return(nil).Once()

	saved, err := f.svc.SaveProfile(ctx, Caller{UserID: "user-1"}, &models.UserProfile{Diseases: models.StringList{}})
	require.NoError(t, err)
	assert.Equal(t, "user-1", saved.UID)

	_, ok := reg.Profile.Get(ctx, "profile:user-1")
	assert.False(t, ok, "saved profile must not be served from cache")
	_, ok = reg.Pantry.Get(ctx, "pantry:user-1")
	assert.True(t, ok)
	f.profiles.AssertExpectations(t)
}

func TestSaveProfile_FailedWriteKeepsCache(t *testing.T) {
	f, ctx := newUserDataFixture(t)
	reg := newTestRegistry()
	f.svc = NewUserDataAppService(f.profiles, f.pantry, f.plans, reg, logger.NewNoopLogger())
	reg.Profile.Set(ctx, "profile:user-1", &models.UserProfile{UID: "user-1"})

	f.profiles.On("Save", mock.Anything, mock.Anything).Return(errors.Wrap(stderrors.New("conn reset"), errors.CodeInternal, "x")).Once()

	_, err := f.svc.SaveProfile(ctx, Caller{UserID: "user-1"}, &models.UserProfile{})
	assert.True(t, errors.HasCode(err, errors.CodeInternal))
	_, ok := reg.Profile.Get(ctx, "profile:user-1")
	assert.True(t, ok)
}

func TestSaveProfile_Rejections(t *testing.T) {
	f, ctx := newUserDataFixture(t)
	f.build()

	_, err := f.svc.SaveProfile(ctx, Caller{}, &models.UserProfile{})
	assert.True(t, errors.HasCode(err, errors.CodeUnauthorized))

	_, err = f.svc.SaveProfile(ctx, Caller{UserID: "a"}, &models.UserProfile{UID: "b"})
	assert.True(t, errors.HasCode(err, errors.CodeUnauthorized))

	_, err = f.svc.SaveProfile(ctx, Caller{UserID: "a"}, nil)
	assert.True(t, errors.HasCode(err, errors.CodeValidation))

	_, err = f.svc.SaveProfile(ctx, Caller{UserID: "a"}, &models.UserProfile{
		Location: &models.GeoPoint{Lat: 120, Lng: 0},
	})
	require.True(t, errors.HasCode(err, errors.CodeValidation))
	ge, ok := errors.As(err)
	require.True(t, ok)
	details, _ := ge.Metadata()[errors.MetaDetails].(map[string]string)
	assert.Contains(t, details, "location.lat")

	f.profiles.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestReplacePantry_InvalidatesCachedPantry(t *testing.T) {
	f, ctx := newUserDataFixture(t)
	reg := newTestRegistry()
	f.svc = NewUserDataAppService(f.profiles, f.pantry, f.plans, reg, logger.NewNoopLogger())
	reg.Pantry.Set(ctx, "pantry:user-1", []models.PantryItem{{Name: "rice"}})
	reg.Profile.Set(ctx, "profile:user-1", &models.UserProfile{UID: "user-1"})

	f.pantry.On("ReplaceForUser", mock.Anything, "user-1", mock.MatchedBy(func(items []models.PantryItem) bool {
		return len(items) == 2 && items[0].Name == "lentils"
	})).Return(nil).Once()

	items, err := f.svc.ReplacePantry(ctx, Caller{UserID: "user-1"}, &dto.PantryReplaceRequest{
		Items: []models.PantryItem{{Name: "  lentils "}, {Name: "onion", Zone: "fridge"}},
	})
	require.NoError(t, err)
	assert.Len(t, items, 2)

	_, ok := reg.Pantry.Get(ctx, "pantry:user-1")
	assert.False(t, ok)
	_, ok = reg.Profile.Get(ctx, "profile:user-1")
	assert.True(t, ok)
	f.pantry.AssertExpectations(t)
}

func TestReplacePantry_EmptyClearsPantry(t *testing.T) {
	f, ctx := newUserDataFixture(t)
	f.build()
	f.pantry.On("ReplaceForUser", mock.Anything, "user-1", []models.PantryItem{}).Return(nil).Once()

	items, err := f.svc.ReplacePantry(ctx, Caller{UserID: "user-1"}, nil)
	require.NoError(t, err)
	assert.Empty(t, items)
	f.pantry.AssertExpectations(t)
}

func TestReplacePantry_Rejections(t *testing.T) {
	f, ctx := newUserDataFixture(t)
	f.build()

	_, err := f.svc.ReplacePantry(ctx, Caller{UserID: "a"}, &dto.PantryReplaceRequest{UserID: "b"})
	assert.True(t, errors.HasCode(err, errors.CodeUnauthorized))

	_, err = f.svc.ReplacePantry(ctx, Caller{UserID: "a"}, &dto.PantryReplaceRequest{
		Items: []models.PantryItem{{Name: "   "}},
	})
	assert.True(t, errors.HasCode(err, errors.CodeValidation))

	_, err = f.svc.ReplacePantry(ctx, Caller{UserID: "a"}, &dto.PantryReplaceRequest{
		Items: []models.PantryItem{{Name: strings.Repeat("x", 129)}},
	})
	assert.True(t, errors.HasCode(err, errors.CodeValidation))

	f.pantry.AssertNotCalled(t, "ReplaceForUser", mock.Anything, mock.Anything, mock.Anything)
}

func TestGetPlan_Ownership(t *testing.T) {
	f, ctx := newUserDataFixture(t)
	f.build()
	plan := &models.Plan{ID: "p1", UserID: "user-1", InteractionID: "int-1", Type: "En casa"}
	f.plans.On("FindByInteraction", mock.Anything, "int-1").Return(plan, nil)
	f.plans.On("FindByInteraction", mock.Anything, "int-missing").Return(nil, errors.ErrNotFound("plan"))

	got, err := f.svc.GetPlan(ctx, Caller{UserID: "user-1"}, "int-1")
	require.NoError(t, err)
	assert.Equal(t, "p1", got.ID)

	_, err = f.svc.GetPlan(ctx, Caller{UserID: "user-2"}, "int-1")
	assert.True(t, errors.HasCode(err, errors.CodeNotFound))

	_, err = f.svc.GetPlan(ctx, Caller{UserID: "user-1"}, "int-missing")
	assert.True(t, errors.HasCode(err, errors.CodeNotFound))

	_, err = f.svc.GetPlan(ctx, Caller{UserID: "user-1"}, " ")
	assert.True(t, errors.HasCode(err, errors.CodeValidation))

	_, err = f.svc.GetPlan(ctx, Caller{}, "int-1")
	assert.True(t, errors.HasCode(err, errors.CodeUnauthorized))
}
