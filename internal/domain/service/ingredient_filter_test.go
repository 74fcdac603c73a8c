package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bocado-ai/gate/internal/domain/models"
)

func pantry(names ...string) []models.PantryItem {
	out := make([]models.PantryItem, 0, len(names))
	for _, n := range names {
		out = append(out, models.PantryItem{ID: n, Name: n})
	}
	return out
}

func names(items []models.PantryItem) []string {
	out := make([]string, 0, len(items))
	for _, i := range items {
		out = append(out, i.Name)
	}
	return out
}

func TestRootWord(t *testing.T) {
	assert.Equal(t, "nuez", RootWord("Nueces"))
	assert.Equal(t, "tomat", RootWord("tomates"))
	assert.Equal(t, "cebolla", RootWord("cebollas"))
	assert.Equal(t, "te", RootWord("té"))
	assert.Equal(t, "limon", RootWord("Limón"))
}

func TestFilterIngredients_Disliked(t *testing.T) {
	items := pantry("Tomate cherry", "Brócoli", "Arroz")
	p := &models.UserProfile{DislikedFoods: models.StringList{"tomates"}}
	got := FilterIngredients(items, p, []string{"brocoli"})
	assert.Equal(t, []string{"Arroz"}, names(got))
}

func TestFilterIngredients_RegionalNamesAreChecked(t *testing.T) {
	items := []models.PantryItem{
		{ID: "1", Name: "Peanut", Regional: models.Regional{MX: "Cacahuate"}},
		{ID: "2", Name: "Avena"},
	}
	p := &models.UserProfile{Allergies: models.StringList{"Alergia a cacahuates"}}
	assert.Equal(t, []string{"Avena"}, names(FilterIngredients(items, p, nil)))
}

func TestFilterIngredients_Allergens(t *testing.T) {
	items := pantry("Pan integral", "Leche de almendra", "Queso fresco", "Manzana")
	p := &models.UserProfile{Allergies: models.StringList{"Celíaco", "Intolerancia a la lactosa"}}
	assert.Equal(t, []string{"Manzana"}, names(FilterIngredients(items, p, nil)))
}

func TestFilterIngredients_UnknownAllergyMatchesItself(t *testing.T) {
	items := pantry("Kiwi", "Pera")
	p := &models.UserProfile{OtherAllergies: "kiwi"}
	assert.Equal(t, []string{"Pera"}, names(FilterIngredients(items, p, nil)))
}

func TestFilterIngredients_Diets(t *testing.T) {
	items := pantry("Pechuga de pollo", "Huevo", "Miel", "Lentejas", "Camarón")

	vegan := &models.UserProfile{EatingHabit: "Vegano"}
	assert.Equal(t, []string{"Lentejas"}, names(FilterIngredients(items, vegan, nil)))

	vegetarian := &models.UserProfile{EatingHabit: "Vegetariano"}
	assert.Equal(t, []string{"Huevo", "Miel", "Lentejas"}, names(FilterIngredients(items, vegetarian, nil)))
}

func TestFilterIngredients_Diseases(t *testing.T) {
	items := pantry("Azúcar morena", "Jamón serrano", "Salmón", "Alga nori", "Chile serrano", "Quinoa")
	p := &models.UserProfile{Diseases: models.StringList{"Diabetes", "Hipertensión", "Hipertiroidismo", "Síndrome de intestino irritable"}}
	assert.Equal(t, []string{"Salmón", "Quinoa"}, names(FilterIngredients(items, p, nil)))
}

func TestFilterIngredients_NoProfileKeepsEverything(t *testing.T) {
	items := pantry("Pollo", "Arroz")
	assert.Len(t, FilterIngredients(items, nil, nil), 2)
}
