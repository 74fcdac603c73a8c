package service

import (
	"fmt"
	"strings"

	"github.com/bocado-ai/gate/internal/domain/models"
	"github.com/bocado-ai/gate/pkg/constants"
)

// PromptInput gathers everything the prompt is built from.
type PromptInput struct {
	Request        *models.RecommendationRequest
	Profile        *models.UserProfile
	ProfileContext string
	Pantry         []models.PantryItem
	History        []models.HistoryEntry
}

// BuildPrompt renders the model prompt for a recommendation request.
// The output asks for a JSON document matching models.Recommendation.
func BuildPrompt(in PromptInput) string {
	req := in.Request
	profile := in.Profile
	if profile == nil {
		profile = &models.UserProfile{}
	}
	summary := in.ProfileContext
	if summary == "" {
		summary = constants.NoRestrictionsSentinel
	}

	var b strings.Builder
	b.WriteString("Eres un nutricionista experto que diseña planes de comida personalizados.\n")
	fmt.Fprintf(&b, "PERFIL: %s\n", summary)
	if goals := dedupe(models.EnsureList([]string(profile.NutritionalGoal))); len(goals) > 0 {
		fmt.Fprintf(&b, "OBJETIVO: %s\n", strings.Join(goals, listDelimiter))
	}
	if loc := locationLine(profile); loc != "" {
		fmt.Fprintf(&b, "UBICACIÓN: %s\n", loc)
	}
	writeRequestDetails(&b, req)
	writeHistory(&b, in.History)

	if req.IsAtHome() {
		writeAtHome(&b, in.Pantry)
	} else {
		writeOut(&b, req)
	}

	b.WriteString("\nReglas estrictas:\n")
	b.WriteString("- Respeta todas las restricciones del PERFIL sin excepción.\n")
	b.WriteString("- Nunca incluyas alimentos de la lista NO usar.\n")
	b.WriteString("- Responde únicamente con JSON válido, sin texto adicional ni bloques de código.\n")
	return b.String()
}

func writeRequestDetails(b *strings.Builder, req *models.RecommendationRequest) {
	if v := cleanValue(req.MealType); v != "" {
		fmt.Fprintf(b, "COMIDA: %s\n", v)
	}
	if v := cleanValue(req.CookingTime.String()); v != "" {
		fmt.Fprintf(b, "TIEMPO DISPONIBLE: %s minutos\n", v)
	}
	if cravings := dedupe(models.EnsureList([]string(req.Cravings))); len(cravings) > 0 {
		fmt.Fprintf(b, "ANTOJOS: %s\n", strings.Join(cravings, listDelimiter))
	}
	if v := cleanValue(req.Budget); v != "" {
		budget := v
		if c := cleanValue(req.Currency); c != "" {
			budget = budget + " " + c
		}
		fmt.Fprintf(b, "PRESUPUESTO: %s\n", budget)
	}
}

func writeHistory(b *strings.Builder, history []models.HistoryEntry) {
	titles := make([]string, 0)
	for i, h := range history {
		if i >= constants.HistoryPromptLimit {
			break
		}
		titles = append(titles, h.Titles...)
	}
	titles = dedupe(titles)
	if len(titles) > 0 {
		fmt.Fprintf(b, "EVITA REPETIR: %s\n", strings.Join(titles, listDelimiter))
	}
}

func writeAtHome(b *strings.Builder, pantry []models.PantryItem) {
	b.WriteString("\nTAREA: Propón 3 recetas caseras.\n")
	if len(pantry) > 0 {
		names := make([]string, 0, len(pantry))
		for _, item := range pantry {
			names = append(names, item.Name)
		}
		fmt.Fprintf(b, "DESPENSA DISPONIBLE: %s\n", strings.Join(dedupe(names), listDelimiter))
		b.WriteString("Prioriza los ingredientes de la despensa; puedes añadir básicos comunes.\n")
	} else {
		b.WriteString("La despensa está vacía; usa ingredientes comunes y económicos.\n")
	}
	b.WriteString(`Formato JSON:
{"saludo_personalizado":"...","receta":{"recetas":[{"titulo":"...","tiempo":"...","dificultad":"Fácil|Media|Difícil","coincidencia":"...","ingredientes":["..."],"pasos_preparacion":["..."],"macros_por_porcion":{"kcal":0,"proteinas":"...","carbohidratos":"...","grasas":"..."}}]}}
`)
}

func writeOut(b *strings.Builder, req *models.RecommendationRequest) {
	b.WriteString("\nTAREA: Recomienda 5 restaurantes cercanos.\n")
	if req.UserLocation != nil {
		fmt.Fprintf(b, "COORDENADAS: %.5f,%.5f\n", req.UserLocation.Lat, req.UserLocation.Lng)
	}
	b.WriteString(`Formato JSON:
{"saludo_personalizado":"...","recomendaciones":[{"nombre_restaurante":"...","tipo_comida":"...","direccion_aproximada":"...","plato_sugerido":"...","por_que_es_bueno":"...","hack_saludable":"..."}]}
`)
}

func locationLine(p *models.UserProfile) string {
	parts := make([]string, 0, 2)
	if c := cleanValue(p.City); c != "" {
		parts = append(parts, c)
	}
	if c := cleanValue(p.Country); c != "" {
		parts = append(parts, c)
	}
	return strings.Join(parts, listDelimiter)
}
