package middleware

import (
	"net/http"
	"net/url"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/bocado-ai/gate/internal/config"
	"github.com/bocado-ai/gate/pkg/constants"
)

// OriginAllowed reports whether origin may call the API. Requests without an
// Origin header (mobile clients, server to server) are always allowed.
func OriginAllowed(cfg config.ServerConfig, origin string) bool {
	if origin == "" {
		return true
	}
	for _, o := range cfg.AllowedOrigins {
		if o == "*" || o == origin {
			return true
		}
	}
	if cfg.AllowLocalhost {
		if u, err := url.Parse(origin); err == nil {
			switch u.Hostname() {
			case "localhost", "127.0.0.1":
				return true
			}
		}
	}
	return false
}

// CORS applies the origin allow-list. Disallowed origins get a 403.
func CORS(cfg config.ServerConfig) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool { return OriginAllowed(cfg, origin) },
		AllowMethods:    []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{
			"Origin", "Content-Type", constants.HeaderAuthorization,
			constants.HeaderRequestID, constants.HeaderAdminKey,
		},
		ExposeHeaders: []string{
			constants.HeaderRequestID, constants.HeaderRetryAfter,
			constants.HeaderRateLimitLimit, constants.HeaderRateLimitRemaining, constants.HeaderRateLimitReset,
		},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}
