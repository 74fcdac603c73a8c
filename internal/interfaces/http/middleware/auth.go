package middleware

import (
	"context"
	"crypto/subtle"

	"github.com/gin-gonic/gin"

	"github.com/bocado-ai/gate/internal/application/dto"
	"github.com/bocado-ai/gate/internal/application/service"
	"github.com/bocado-ai/gate/internal/infrastructure/ratelimit"
	"github.com/bocado-ai/gate/pkg/constants"
	"github.com/bocado-ai/gate/pkg/errors"
	"github.com/bocado-ai/gate/pkg/logger"
	"github.com/bocado-ai/gate/pkg/utils"
)

// Authenticator resolves the bearer identity of a request. Failed
// verifications count against the auth policy of the client IP.
type Authenticator struct {
	verifier *TokenVerifier
	limiter  service.Admitter
	logger   logger.Logger
}

// NewAuthenticator creates an Authenticator. limiter may be nil.
func NewAuthenticator(verifier *TokenVerifier, limiter service.Admitter, log logger.Logger) *Authenticator {
	return &Authenticator{verifier: verifier, limiter: limiter, logger: log.WithComponent("auth")}
}

// Required rejects requests without a valid bearer token.
func (a *Authenticator) Required() gin.HandlerFunc {
	return a.handle(true)
}

// Optional verifies a bearer token when present and otherwise lets the
// request through anonymously.
func (a *Authenticator) Optional() gin.HandlerFunc {
	return a.handle(false)
}

func (a *Authenticator) handle(required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if extractBearer(c.GetHeader(constants.HeaderAuthorization)) == "" && !required {
			c.Next()
			return
		}
		if _, err := a.Authenticate(c); err != nil {
			if required || errors.IsRateLimited(err) {
				dto.SendError(c, err)
				return
			}
		}
		c.Next()
	}
}

// Authenticate verifies the bearer token of c and stores its subject. It is
// called directly by handlers that validate the body first.
func (a *Authenticator) Authenticate(c *gin.Context) (string, error) {
	token := extractBearer(c.GetHeader(constants.HeaderAuthorization))
	if token == "" {
		return "", errors.ErrUnauthorized("Auth token required")
	}

	uid, err := a.verifier.Verify(token)
	if err != nil {
		a.logger.Warn(c.Request.Context(), "Bearer token rejected", logger.Err(err))
		if rejected := a.countFailure(c); rejected != nil {
			return "", rejected
		}
		return "", errors.ErrUnauthorized("Invalid auth token")
	}

	c.Set(string(constants.ContextKeyUserID), uid)
	ctx := context.WithValue(c.Request.Context(), constants.ContextKeyUserID, utils.MaskID(uid))
	c.Request = c.Request.WithContext(ctx)
	return uid, nil
}

// countFailure records a failed verification and returns a rate-limit error
// once the client IP is over budget.
func (a *Authenticator) countFailure(c *gin.Context) error {
	if a.limiter == nil {
		return nil
	}
	policy := string(constants.PolicyAuth)
	if _, ok := a.limiter.Policy(policy); !ok {
		return nil
	}
	d, err := a.limiter.Admit(c.Request.Context(), policy, ClientIP(c))
	if err != nil || d.Allowed {
		return nil
	}
	p, _ := a.limiter.Policy(policy)
	SetRateLimitHeaders(c, d)
	return ratelimit.RejectionError(d, p)
}

// AdminKey guards operator routes with the X-Admin-Key header.
func AdminKey(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		got := c.GetHeader(constants.HeaderAdminKey)
		if key == "" || got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
			dto.SendError(c, errors.ErrForbidden("Invalid admin key"))
			return
		}
		c.Next()
	}
}
