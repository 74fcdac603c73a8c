package service

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/bocado-ai/gate/internal/domain/models"
)

// allergenTerms maps a declared allergy to the ingredient words it excludes.
// Keys and terms are stored folded (lowercase, no accents).
var allergenTerms = map[string][]string{
	"alergia a frutos secos":    {"nuez", "nueces", "almendra", "cacahuate", "pistacho", "avellana", "semilla", "pecan"},
	"celiaco":                   {"trigo", "cebada", "centeno", "gluten", "pan", "pasta", "galleta"},
	"alergia a mariscos":        {"camaron", "camarones", "langosta", "cangrejo", "mejillon", "ostra", "pulpo"},
	"alergia a cacahuates":      {"cacahuate", "mani", "mantequilla de mani"},
	"intolerancia a la lactosa": {"leche", "queso", "yogur", "mantequilla", "crema", "nata", "helado"},
	"alergia al huevo":          {"huevo", "clara", "yema"},
}

var (
	meatTerms          = []string{"carne", "pollo", "pavo", "res", "cerdo", "cordero", "pescado", "camaron"}
	animalProductTerms = append(append([]string{}, meatTerms...), "huevo", "leche", "queso", "miel")
)

// diseaseRule excludes ingredients for a chronic condition.
type diseaseRule struct {
	matches func(disease string) bool
	terms   []string
}

var diseaseRules = []diseaseRule{
	{contains("diabetes"), []string{"azucar", "dulce", "postre", "chocolate", "refresco", "jugo de", "miel", "caramelo"}},
	{contains("hipertension"), []string{"sal", "embutido", "jamon", "tocino", "salchicha", "conserva", "enlatado"}},
	{contains("colesterol"), []string{"manteca", "mantequilla", "chicharron", "grasa animal", "crema"}},
	{contains("hipotiroidismo"), []string{"agua destilada"}},
	{contains("hipertiroidismo"), []string{"alga", "algas", "nori", "kombu"}},
	{contains("intestino irritable", "ibs"), []string{"picante", "chile", "aji", "curry", "cafe"}},
}

func contains(needles ...string) func(string) bool {
	return func(s string) bool {
		for _, n := range needles {
			if strings.Contains(s, n) {
				return true
			}
		}
		return false
	}
}

// FilterIngredients drops pantry items that conflict with the profile.
// Checks run in priority order: disliked foods, allergens, diet, chronic
// diseases. Matching is case and accent insensitive.
func FilterIngredients(items []models.PantryItem, profile *models.UserProfile, requestDislikes []string) []models.PantryItem {
	if profile == nil {
		profile = &models.UserProfile{}
	}

	disliked := make([]string, 0)
	for _, d := range MergeDislikes(profile, requestDislikes) {
		if root := RootWord(d); root != "" {
			disliked = append(disliked, root)
		}
	}
	allergies := foldAll(dedupe(models.EnsureList([]string(profile.Allergies)), models.EnsureList(profile.OtherAllergies)))
	diseases := foldAll(models.EnsureList([]string(profile.Diseases)))
	habit := Fold(profile.EatingHabit)

	out := make([]models.PantryItem, 0, len(items))
	for _, item := range items {
		text := Fold(strings.Join(item.Names(), " "))
		if text == "" {
			continue
		}
		if conflicts(text, disliked, allergies, diseases, habit) {
			continue
		}
		out = append(out, item)
	}
	return out
}

func conflicts(text string, disliked, allergies, diseases []string, habit string) bool {
	for _, root := range disliked {
		if strings.Contains(text, root) {
			return true
		}
	}

	words := " " + strings.Join(strings.FieldsFunc(text, isSeparator), " ") + " "

	for _, allergy := range allergies {
		terms, ok := allergenTerms[allergy]
		if !ok {
			terms = []string{allergy}
		}
		if anyWord(words, terms) {
			return true
		}
	}

	switch {
	case strings.Contains(habit, "vegano"):
		if anyWord(words, animalProductTerms) {
			return true
		}
	case strings.Contains(habit, "vegetariano"):
		if anyWord(words, meatTerms) {
			return true
		}
	}

	for _, disease := range diseases {
		for _, rule := range diseaseRules {
			if rule.matches(disease) && anyWord(words, rule.terms) {
				return true
			}
		}
	}
	return false
}

// anyWord reports whether padded contains one of terms as whole words.
func anyWord(padded string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(padded, " "+t+" ") {
			return true
		}
	}
	return false
}

func isSeparator(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

// Fold lowercases s and strips diacritics.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return strings.ToLower(strings.TrimSpace(s))
	}
	return folded
}

func foldAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if f := Fold(s); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// RootWord reduces a Spanish noun to a crude singular root so that
// "tomates" matches "tomate" and "nueces" matches "nuez".
func RootWord(s string) string {
	clean := Fold(s)
	if len(clean) <= 3 {
		return clean
	}
	switch {
	case strings.HasSuffix(clean, "ces"):
		return clean[:len(clean)-3] + "z"
	case strings.HasSuffix(clean, "es"):
		return clean[:len(clean)-2]
	case strings.HasSuffix(clean, "s"):
		return clean[:len(clean)-1]
	}
	return clean
}
