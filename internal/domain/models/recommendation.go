package models

import "github.com/bocado-ai/gate/pkg/constants"

// RecommendationRequest is the body of a recommendation call.
type RecommendationRequest struct {
	UserID        string     `json:"userId" validate:"required,notblank,max=128"`
	Type          string     `json:"type" validate:"required,recommendationtype"`
	MealType      string     `json:"mealType,omitempty" validate:"max=50"`
	CookingTime   FlexString `json:"cookingTime,omitempty" validate:"max=20"`
	Cravings      StringList `json:"cravings,omitempty" validate:"max=20,dive,max=100"`
	Budget        string     `json:"budget,omitempty" validate:"max=50"`
	Currency      string     `json:"currency,omitempty" validate:"max=10"`
	DislikedFoods []string   `json:"dislikedFoods,omitempty" validate:"max=50,dive,max=100"`
	UserLocation  *GeoPoint  `json:"userLocation,omitempty" validate:"omitempty"`
	ID            string     `json:"_id,omitempty" validate:"max=128"`
}

// IsAtHome reports whether the request asks for home recipes.
func (r *RecommendationRequest) IsAtHome() bool {
	return constants.RecommendationType(r.Type) == constants.RecommendationAtHome
}

// Recommendation is the structured plan returned by the model.
type Recommendation struct {
	PersonalizedGreeting string             `json:"saludo_personalizado"`
	Recipes              *RecipeSet         `json:"receta,omitempty"`
	Restaurants          []RestaurantOption `json:"recomendaciones,omitempty"`
}

// RecipeSet wraps home recipes.
type RecipeSet struct {
	Recipes []Recipe `json:"recetas"`
}

// Recipe is one home-cooked suggestion.
type Recipe struct {
	Title       string   `json:"titulo"`
	Time        string   `json:"tiempo"`
	Difficulty  string   `json:"dificultad"`
	Match       string   `json:"coincidencia,omitempty"`
	Ingredients []string `json:"ingredientes"`
	Steps       []string `json:"pasos_preparacion"`
	Macros      *Macros  `json:"macros_por_porcion,omitempty"`
}

// Macros are per-serving nutrition estimates.
type Macros struct {
	Kcal    int    `json:"kcal"`
	Protein string `json:"proteinas"`
	Carbs   string `json:"carbohidratos"`
	Fat     string `json:"grasas"`
}

// RestaurantOption is one eating-out suggestion.
type RestaurantOption struct {
	Name          string `json:"nombre_restaurante"`
	CuisineType   string `json:"tipo_comida"`
	Address       string `json:"direccion_aproximada"`
	SuggestedDish string `json:"plato_sugerido"`
	WhyGood       string `json:"por_que_es_bueno"`
	HealthyHack   string `json:"hack_saludable"`
}

// Titles returns the recipe or restaurant names for history records.
func (r *Recommendation) Titles() []string {
	var out []string
	if r.Recipes != nil {
		for _, rec := range r.Recipes.Recipes {
			if rec.Title != "" {
				out = append(out, rec.Title)
			}
		}
	}
	for _, rest := range r.Restaurants {
		if rest.Name != "" {
			out = append(out, rest.Name)
		}
	}
	return out
}

// RecommendationResult is returned to the caller after a successful generation.
type RecommendationResult struct {
	InteractionID  string          `json:"interactionId"`
	Type           string          `json:"type"`
	Recommendation *Recommendation `json:"recommendation"`
	Persisted      bool            `json:"persisted"`
}
