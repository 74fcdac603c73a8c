package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bocado-ai/gate/internal/domain/models"
)

func TestBuildPrompt_AtHome(t *testing.T) {
	req := &models.RecommendationRequest{
		UserID:      "u1",
		Type:        "En casa",
		MealType:    "Cena",
		CookingTime: "30",
		Cravings:    models.StringList{"algo caliente"},
		Budget:      "bajo",
		Currency:    "EUR",
	}
	profile := &models.UserProfile{City: "Madrid", Country: "España", NutritionalGoal: models.StringList{"Perder peso"}}
	prompt := BuildPrompt(PromptInput{
		Request:        req,
		Profile:        profile,
		ProfileContext: "Dieta: Vegano",
		Pantry:         pantry("Lentejas", "Zanahoria"),
		History:        []models.HistoryEntry{{Titles: models.StringList{"Curry de garbanzos"}}},
	})

	assert.Contains(t, prompt, "PERFIL: Dieta: Vegano\n")
	assert.Contains(t, prompt, "OBJETIVO: Perder peso")
	assert.Contains(t, prompt, "UBICACIÓN: Madrid, España")
	assert.Contains(t, prompt, "COMIDA: Cena")
	assert.Contains(t, prompt, "TIEMPO DISPONIBLE: 30 minutos")
	assert.Contains(t, prompt, "ANTOJOS: algo caliente")
	assert.Contains(t, prompt, "PRESUPUESTO: bajo EUR")
	assert.Contains(t, prompt, "EVITA REPETIR: Curry de garbanzos")
	assert.Contains(t, prompt, "DESPENSA DISPONIBLE: Lentejas, Zanahoria")
	assert.Contains(t, prompt, `"pasos_preparacion"`)
	assert.NotContains(t, prompt, "recomendaciones")
}

func TestBuildPrompt_OutDefaultsSummary(t *testing.T) {
	req := &models.RecommendationRequest{
		UserID:       "u1",
		Type:         "Fuera",
		UserLocation: &models.GeoPoint{Lat: 40.4168, Lng: -3.7038},
	}
	prompt := BuildPrompt(PromptInput{Request: req})

	assert.Contains(t, prompt, "PERFIL: Sin restricciones")
	assert.Contains(t, prompt, "COORDENADAS: 40.41680,-3.70380")
	assert.Contains(t, prompt, `"nombre_restaurante"`)
	assert.NotContains(t, prompt, "DESPENSA")
	assert.NotContains(t, prompt, "undefined")
}
