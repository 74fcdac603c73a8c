package middleware

import (
	"crypto/rsa"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/bocado-ai/gate/internal/config"
	"github.com/bocado-ai/gate/pkg/constants"
)

// TokenVerifier checks bearer identity tokens. RS256 is used when a public
// key is configured, HS256 otherwise.
type TokenVerifier struct {
	key     interface{}
	method  string
	options []jwt.ParserOption
}

// NewTokenVerifier builds a verifier from the auth configuration.
func NewTokenVerifier(cfg config.AuthConfig) (*TokenVerifier, error) {
	v := &TokenVerifier{}
	switch {
	case cfg.JWTPublicKey != "":
		pub, err := jwt.ParseRSAPublicKeyFromPEM([]byte(cfg.JWTPublicKey))
		if err != nil {
			return nil, fmt.Errorf("invalid jwt public key: %w", err)
		}
		v.key, v.method = pub, jwt.SigningMethodRS256.Alg()
	case cfg.JWTSecret != "":
		v.key, v.method = []byte(cfg.JWTSecret), jwt.SigningMethodHS256.Alg()
	default:
		return nil, fmt.Errorf("auth.jwt_secret or auth.jwt_public_key is required")
	}

	v.options = []jwt.ParserOption{
		jwt.WithValidMethods([]string{v.method}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(cfg.Leeway),
	}
	if cfg.Issuer != "" {
		v.options = append(v.options, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		v.options = append(v.options, jwt.WithAudience(cfg.Audience))
	}
	return v, nil
}

// Verify validates the token and returns its subject (sub, else user_id).
func (v *TokenVerifier) Verify(token string) (string, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		switch v.key.(type) {
		case *rsa.PublicKey:
			if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
		default:
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
		}
		return v.key, nil
	}, v.options...)
	if err != nil {
		return "", err
	}

	sub, _ := claims.GetSubject()
	if sub == "" {
		sub, _ = claims["user_id"].(string)
	}
	if strings.TrimSpace(sub) == "" {
		return "", fmt.Errorf("token has no subject")
	}
	return sub, nil
}

// SignHS256 issues a token for tests and local tooling.
func SignHS256(secret, subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	return jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}).SignedString([]byte(secret))
}

// extractBearer extracts the token from the Authorization header.
func extractBearer(authHeader string) string {
	parts := strings.Fields(authHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], strings.TrimSpace(constants.BearerPrefix)) {
		return ""
	}
	return parts[1]
}

// UserID returns the verified subject stored by Authenticate.
func UserID(c *gin.Context) string {
	return c.GetString(string(constants.ContextKeyUserID))
}

// ClientIP returns the address resolved by RequestContext.
func ClientIP(c *gin.Context) string {
	if ip := c.GetString(string(constants.ContextKeyClientIP)); ip != "" {
		return ip
	}
	return c.ClientIP()
}
