package ratelimit

import (
	"fmt"
	"strings"

	"github.com/bocado-ai/gate/internal/domain/models"
	"github.com/bocado-ai/gate/pkg/constants"
	"github.com/bocado-ai/gate/pkg/errors"
)

// RejectionBody is the JSON payload returned with a 429.
type RejectionBody struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retryAfter"`
	Code       string `json:"code"`
}

// LimitCode returns the client-facing code for a policy, e.g. RATE_LIMITED_MAPS.
func LimitCode(policy string) string {
	return "RATE_LIMITED_" + strings.ToUpper(policy)
}

// FormatSecondsUntilReset renders a wait in Spanish, e.g. "2 minutos y 5 segundos".
func FormatSecondsUntilReset(seconds int) string {
	if seconds < 1 {
		seconds = 1
	}
	if seconds < 60 {
		return plural(seconds, "segundo", "segundos")
	}
	minutes, rest := seconds/60, seconds%60
	if rest == 0 {
		return plural(minutes, "minuto", "minutos")
	}
	return plural(minutes, "minuto", "minutos") + " y " + plural(rest, "segundo", "segundos")
}

func plural(n int, one, many string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, one)
	}
	return fmt.Sprintf("%d %s", n, many)
}

// RejectionMessage builds the user-facing text for a rejected decision.
func RejectionMessage(d models.Decision, p models.Policy) string {
	secs := d.RetryAfterSeconds()
	if d.Reason == models.ReasonCooldown {
		if p.Name == string(constants.PolicyRecommendations) {
			return fmt.Sprintf("Espera %d segundos antes de generar otra recomendación.", secs)
		}
		return fmt.Sprintf("Espera %s antes de volver a intentarlo.", FormatSecondsUntilReset(secs))
	}
	msg := p.Message
	if msg == "" {
		msg = "Demasiadas peticiones. Intenta más tarde."
	}
	return fmt.Sprintf("%s Podrás intentarlo de nuevo en %s.", msg, FormatSecondsUntilReset(secs))
}

// Body returns the rejection payload for d.
func Body(d models.Decision, p models.Policy) RejectionBody {
	return RejectionBody{
		Error:      "Rate Limited",
		Message:    RejectionMessage(d, p),
		RetryAfter: d.RetryAfterSeconds(),
		Code:       LimitCode(p.Name),
	}
}

// RejectionError converts a rejected decision into a rate_limited GateError.
func RejectionError(d models.Decision, p models.Policy) errors.GateError {
	return errors.ErrRateLimited(p.Name, d.RetryAfter, RejectionMessage(d, p)).
		WithMetadata(errors.MetaLimitCode, LimitCode(p.Name))
}
