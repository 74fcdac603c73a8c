// Package http wires the gin engine of the gate: middleware, routes and the
// server lifecycle.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/trace"

	"github.com/bocado-ai/gate/internal/application/dto"
	"github.com/bocado-ai/gate/internal/application/service"
	"github.com/bocado-ai/gate/internal/config"
	"github.com/bocado-ai/gate/internal/interfaces/http/handlers"
	"github.com/bocado-ai/gate/internal/interfaces/http/middleware"
	"github.com/bocado-ai/gate/pkg/constants"
	"github.com/bocado-ai/gate/pkg/errors"
	"github.com/bocado-ai/gate/pkg/logger"
)

// RouterDeps are the collaborators of the HTTP layer.
type RouterDeps struct {
	Limiter         service.Admitter
	Authenticator   *middleware.Authenticator
	Recommendations *handlers.RecommendationHandler
	Maps            *handlers.MapsHandler
	Cache           *handlers.CacheHandler
	UserData        *handlers.UserDataHandler
	Admin           *handlers.AdminHandler
	Health          *handlers.HealthHandler
	Metrics         middleware.HTTPMetrics
	Registry        *prometheus.Registry
	Tracer          trace.Tracer
}

// Router HTTP router
type Router struct {
	engine *gin.Engine
	config *config.Config
	logger logger.Logger
	deps   RouterDeps
	server *http.Server
}

// NewRouter creates the router and registers every route.
func NewRouter(cfg *config.Config, log logger.Logger, deps RouterDeps) *Router {
	if cfg.Server.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	// Forwarding headers are only read when the peer is a trusted proxy; an
	// empty list makes the connection address authoritative.
	engine.RemoteIPHeaders = []string{constants.HeaderForwardedFor, constants.HeaderRealIP}
	engine.TrustedPlatform = cfg.Server.TrustedPlatform
	if err := engine.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		log.Warn(context.Background(), "Invalid trusted proxies, trusting none", logger.Err(err))
		_ = engine.SetTrustedProxies(nil)
	}

	r := &Router{engine: engine, config: cfg, logger: log, deps: deps}
	r.setupRoutes()
	return r
}

func (r *Router) setupRoutes() {
	e := r.engine
	e.Use(middleware.Recovery(r.logger))
	e.Use(middleware.RequestContext())
	if r.deps.Tracer != nil && r.deps.Metrics != nil {
		e.Use(middleware.Observability(r.deps.Tracer, r.deps.Metrics))
	}
	e.Use(middleware.Logging(r.logger))
	e.Use(middleware.CORS(r.config.Server))

	e.GET("/health/live", r.deps.Health.LivenessCheck)
	e.GET("/health/ready", r.deps.Health.ReadinessCheck)
	if r.deps.Registry != nil {
		e.GET("/metrics", gin.WrapH(promhttp.HandlerFor(r.deps.Registry, promhttp.HandlerOpts{})))
	}
	if !r.config.Server.IsProduction() {
		pprof.Register(e)
	}

	v1 := e.Group("/api/v1")
	v1.Use(middleware.RateLimit(r.deps.Limiter, string(constants.PolicyGlobal), r.logger))

	auth := r.deps.Authenticator
	v1.POST("/recommendations", r.deps.Recommendations.Generate)
	v1.POST("/maps", auth.Optional(), r.deps.Maps.Proxy)
	v1.PUT("/profile", auth.Required(), r.deps.UserData.SaveProfile)
	v1.PUT("/pantry", auth.Required(), r.deps.UserData.ReplacePantry)
	v1.GET("/plans/:interactionId", auth.Required(), r.deps.UserData.GetPlan)

	cache := v1.Group("/cache")
	cache.POST("/invalidate", auth.Required(), r.deps.Cache.Invalidate)
	cache.GET("/stats", middleware.AdminKey(r.config.Auth.AdminKey), r.deps.Cache.Stats)

	admin := v1.Group("/admin", middleware.AdminKey(r.config.Auth.AdminKey))
	admin.POST("/cleanup", r.deps.Admin.Cleanup)
	admin.POST("/ratelimit/reset", r.deps.Admin.ResetRateLimit)
	admin.GET("/ratelimit/status", r.deps.Admin.RateLimitStatus)

	e.NoRoute(func(c *gin.Context) {
		dto.SendError(c, errors.ErrNotFound("route"))
	})
}

// Start serves HTTP until Stop is called.
func (r *Router) Start() error {
	addr := fmt.Sprintf("%s:%d", r.config.Server.Host, r.config.Server.Port)
	r.server = &http.Server{
		Addr:              addr,
		Handler:           r.engine,
		ReadTimeout:       r.config.Server.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      r.config.Server.WriteTimeout,
		MaxHeaderBytes:    1 << 20, // 1MB
	}

	r.logger.Info(context.Background(), "Starting HTTP server", logger.String("address", addr))
	if err := r.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop gracefully shuts the server down.
func (r *Router) Stop(ctx context.Context) error {
	if r.server == nil {
		return nil
	}
	r.logger.Info(ctx, "Stopping HTTP server...")
	return r.server.Shutdown(ctx)
}

// Engine exposes the gin engine for tests.
func (r *Router) Engine() *gin.Engine {
	return r.engine
}
