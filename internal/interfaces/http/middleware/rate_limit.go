package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/bocado-ai/gate/internal/application/dto"
	"github.com/bocado-ai/gate/internal/application/service"
	"github.com/bocado-ai/gate/internal/domain/models"
	"github.com/bocado-ai/gate/internal/infrastructure/ratelimit"
	"github.com/bocado-ai/gate/pkg/constants"
	"github.com/bocado-ai/gate/pkg/errors"
	"github.com/bocado-ai/gate/pkg/logger"
)

// RateLimit admits every request under policy, keyed by client IP.
func RateLimit(limiter service.Admitter, policy string, log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := limiter.Policy(policy)
		if !ok {
			c.Next()
			return
		}

		d, err := limiter.Admit(c.Request.Context(), policy, ClientIP(c))
		if err != nil {
			log.Error(c.Request.Context(), "Rate limiter failed", err, logger.String("policy", policy))
			dto.SendError(c, errors.ErrInternal("rate limit check failed").WithCause(err))
			return
		}
		if !d.Allowed {
			SetRateLimitHeaders(c, d)
			dto.SendError(c, ratelimit.RejectionError(d, p))
			return
		}
		c.Next()
	}
}

// SetRateLimitHeaders writes the X-RateLimit-* headers of a decision.
func SetRateLimitHeaders(c *gin.Context, d models.Decision) {
	if d.Limit <= 0 {
		return
	}
	h := c.Writer.Header()
	h.Set(constants.HeaderRateLimitLimit, strconv.Itoa(d.Limit))
	h.Set(constants.HeaderRateLimitRemaining, strconv.Itoa(d.Remaining))
	if !d.ResetAt.IsZero() {
		h.Set(constants.HeaderRateLimitReset, strconv.FormatInt(d.ResetAt.Unix(), 10))
	}
}
