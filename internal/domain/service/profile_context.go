package service

import (
	"strings"

	"github.com/bocado-ai/gate/internal/domain/models"
	"github.com/bocado-ai/gate/pkg/constants"
)

const (
	segmentDelimiter = " | "
	listDelimiter    = ", "
)

// BuildProfileContext renders the constraint summary fed to the model.
// Segments are demographic, medical and disliked foods, in that order.
// Empty segments are dropped and an entirely empty profile yields
// constants.NoRestrictionsSentinel. The function performs no I/O.
func BuildProfileContext(profile *models.UserProfile, requestDislikes []string) string {
	if profile == nil {
		profile = &models.UserProfile{}
	}

	segments := make([]string, 0, 3)
	if s := demographicSegment(profile); s != "" {
		segments = append(segments, s)
	}
	if s := medicalSegment(profile); s != "" {
		segments = append(segments, s)
	}
	if s := dislikedSegment(profile, requestDislikes); s != "" {
		segments = append(segments, s)
	}

	if len(segments) == 0 {
		return constants.NoRestrictionsSentinel
	}
	return strings.Join(segments, segmentDelimiter)
}

func demographicSegment(p *models.UserProfile) string {
	parts := make([]string, 0, 3)
	if habit := cleanValue(p.EatingHabit); habit != "" {
		parts = append(parts, "Dieta: "+habit)
	}
	if age := cleanValue(p.Age.String()); age != "" {
		parts = append(parts, age+" años")
	}
	if level := cleanValue(p.ActivityLevel); level != "" && !strings.EqualFold(level, constants.DefaultActivityLevel) {
		parts = append(parts, level)
	}
	return strings.Join(parts, listDelimiter)
}

func medicalSegment(p *models.UserProfile) string {
	restrictions := dedupe(
		models.EnsureList([]string(p.Diseases)),
		models.EnsureList([]string(p.Allergies)),
		models.EnsureList(p.OtherAllergies),
	)
	if len(restrictions) == 0 {
		return ""
	}
	return "Restricciones: " + strings.Join(restrictions, listDelimiter)
}

func dislikedSegment(p *models.UserProfile, requestDislikes []string) string {
	disliked := dedupe(
		models.EnsureList([]string(p.DislikedFoods)),
		models.EnsureList(requestDislikes),
	)
	if len(disliked) == 0 {
		return ""
	}
	return "NO usar: " + strings.Join(disliked, listDelimiter)
}

// MergeDislikes is the union of profile and request dislikes without duplicates.
func MergeDislikes(p *models.UserProfile, requestDislikes []string) []string {
	var own []string
	if p != nil {
		own = p.DislikedFoods
	}
	return dedupe(models.EnsureList(own), models.EnsureList(requestDislikes))
}

// dedupe concatenates lists keeping the first spelling of each
// case-insensitive value and dropping placeholder values.
func dedupe(lists ...[]string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, list := range lists {
		for _, item := range list {
			item = cleanValue(item)
			if item == "" {
				continue
			}
			key := strings.ToLower(item)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, item)
		}
	}
	return out
}

// cleanValue trims s and treats serialized placeholders as empty.
func cleanValue(s string) string {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "undefined", "null", "none", "nil":
		return ""
	}
	return s
}
