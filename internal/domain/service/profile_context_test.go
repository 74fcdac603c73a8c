package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bocado-ai/gate/internal/domain/models"
	"github.com/bocado-ai/gate/pkg/constants"
)

func TestBuildProfileContext_EmptyProfile(t *testing.T) {
	assert.Equal(t, constants.NoRestrictionsSentinel, BuildProfileContext(nil, nil))
	assert.Equal(t, constants.NoRestrictionsSentinel, BuildProfileContext(&models.UserProfile{}, []string{}))
}

func TestBuildProfileContext_SedentaryOnlyIsEmpty(t *testing.T) {
	p := &models.UserProfile{ActivityLevel: "Sedentario"}
	assert.Equal(t, "", demographicSegment(p))
	assert.Equal(t, constants.NoRestrictionsSentinel, BuildProfileContext(p, nil))
}

func TestBuildProfileContext_FullExample(t *testing.T) {
	p := &models.UserProfile{
		EatingHabit:   "Vegano",
		Age:           "35",
		ActivityLevel: "Deportista intenso",
		Diseases:      models.StringList{"Diabetes"},
		Allergies:     models.StringList{},
		DislikedFoods: models.StringList{"pescado"},
	}
	got := BuildProfileContext(p, []string{})
	assert.Equal(t, "Dieta: Vegano, 35 años, Deportista intenso | Restricciones: Diabetes | NO usar: pescado", got)
}

func TestBuildProfileContext_MergesAndDedupes(t *testing.T) {
	p := &models.UserProfile{
		Diseases:       models.StringList{"Diabetes", "Hipertensión"},
		Allergies:      models.StringList{"Celíaco", "diabetes"},
		OtherAllergies: "Kiwi, ",
		DislikedFoods:  models.StringList{"pescado", "brócoli"},
	}
	got := BuildProfileContext(p, []string{"cilantro", "Pescado", "  "})
	assert.Equal(t, "Restricciones: Diabetes, Hipertensión, Celíaco, Kiwi | NO usar: pescado, brócoli, cilantro", got)
}

func TestBuildProfileContext_NeverRendersPlaceholders(t *testing.T) {
	profiles := []*models.UserProfile{
		{EatingHabit: "undefined", Age: "null"},
		{EatingHabit: "null", DislikedFoods: models.StringList{"undefined", "null"}},
		{Age: "40", Allergies: models.StringList{"null"}},
		{ActivityLevel: "sedentario", Diseases: models.StringList{" "}},
		{EatingHabit: "Omnívoro", DislikedFoods: models.StringList{"ajo"}},
	}
	for _, p := range profiles {
		got := BuildProfileContext(p, []string{"undefined"})
		assert.NotContains(t, got, "undefined")
		assert.NotContains(t, got, "null")
		assert.NotContains(t, got, "|  |")
		assert.NotContains(t, got, "| |")
		assert.False(t, strings.HasPrefix(got, " |"))
		assert.False(t, strings.HasSuffix(got, "| "))
		assert.NotEmpty(t, got)
	}
}

func TestMergeDislikes(t *testing.T) {
	assert.Equal(t, []string{"ajo"}, MergeDislikes(nil, []string{"ajo", "AJO"}))
}
