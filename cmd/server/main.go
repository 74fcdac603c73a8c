package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	appservice "github.com/bocado-ai/gate/internal/application/service"
	"github.com/bocado-ai/gate/internal/app"
	"github.com/bocado-ai/gate/internal/config"
	"github.com/bocado-ai/gate/internal/infrastructure/ai"
	"github.com/bocado-ai/gate/internal/infrastructure/cache"
	"github.com/bocado-ai/gate/internal/infrastructure/events"
	"github.com/bocado-ai/gate/internal/infrastructure/maps"
	"github.com/bocado-ai/gate/internal/infrastructure/monitoring"
	"github.com/bocado-ai/gate/internal/infrastructure/secrets"
	"github.com/bocado-ai/gate/internal/interfaces/http"
	"github.com/bocado-ai/gate/internal/interfaces/http/handlers"
	"github.com/bocado-ai/gate/internal/interfaces/http/middleware"
	"github.com/bocado-ai/gate/pkg/logger"
)

func main() {
	config.LoadDotEnv()

	loader := config.NewLoader(os.Getenv("BOCADO_GATE_CONFIG"))
	cfg, err := loader.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger, err := monitoring.NewZapLogger(&cfg.Log)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := secrets.Resolve(ctx, cfg, appLogger); err != nil {
		appLogger.Fatal(ctx, "Failed to resolve secrets", err)
	}
	if err := cfg.ValidateSecrets(); err != nil {
		appLogger.Fatal(ctx, "Invalid secrets", err)
	}

	tracing, err := monitoring.NewTracingManager(cfg.Tracing, cfg.Server.Environment, appLogger)
	if err != nil {
		appLogger.Fatal(ctx, "Failed to initialize tracing", err)
	}
	metrics := monitoring.NewMetrics()

	infra, err := app.NewInfrastructure(ctx, cfg, appLogger, metrics)
	if err != nil {
		appLogger.Fatal(ctx, "Failed to initialize infrastructure", err)
	}

	caches := cache.NewRegistry(cfg.Cache, appLogger, metrics)

	model, err := ai.NewGeminiClient(ctx, cfg.AI, appLogger)
	if err != nil {
		appLogger.Fatal(ctx, "Failed to create model client", err)
	}
	places, err := maps.NewGoogleProvider(cfg.Maps, appLogger)
	if err != nil {
		appLogger.Fatal(ctx, "Failed to create maps provider", err)
	}
	locator := maps.NewIPLocator(cfg.Maps, appLogger)
	publisher := events.NewPublisher(cfg.Kafka, appLogger)

	var responses appservice.ResponseCache
	if infra.MapsCache != nil {
		responses = infra.MapsCache
	}

	if cfg.Cleanup.Enabled {
		go infra.Sweeper.Start(ctx, cfg.Cleanup.Interval)
	}

	// Application services
	recService := appservice.NewRecommendationAppService(appservice.RecommendationDeps{
		Limiter:   infra.Limiter,
		Caches:    caches,
		Profiles:  infra.Profiles,
		Pantry:    infra.Pantry,
		History:   infra.History,
		Plans:     infra.Plans,
		Model:     model,
		Publisher: publisher,
		Metrics:   metrics,
		Logger:    appLogger,
	})
	mapsService := appservice.NewMapsAppService(infra.Limiter, places, locator, responses, metrics, appLogger)
	cacheService := appservice.NewCacheAppService(caches, appLogger)
	userDataService := appservice.NewUserDataAppService(infra.Profiles, infra.Pantry, infra.Plans, caches, appLogger)
	adminService := appservice.NewAdminAppService(infra.Sweeper, infra.Limiter, appLogger)

	verifier, err := middleware.NewTokenVerifier(cfg.Auth)
	if err != nil {
		appLogger.Fatal(ctx, "Failed to create token verifier", err)
	}

	authenticator := middleware.NewAuthenticator(verifier, infra.Limiter, appLogger)

	checks := map[string]handlers.Pinger{"database": infra.DB}
	if infra.Redis != nil {
		checks["redis"] = infra.Redis
	}

	router := http.NewRouter(cfg, appLogger, http.RouterDeps{
		Limiter:         infra.Limiter,
		Authenticator:   authenticator,
		Recommendations: handlers.NewRecommendationHandler(recService, authenticator, appLogger),
		Maps:            handlers.NewMapsHandler(mapsService),
		Cache:           handlers.NewCacheHandler(cacheService),
		UserData:        handlers.NewUserDataHandler(userDataService),
		Admin:           handlers.NewAdminHandler(adminService),
		Health:          handlers.NewHealthHandler(checks, appLogger),
		Metrics:         metrics,
		Registry:        metrics.Registry(),
		Tracer:          tracing.Tracer(),
	})

	loader.Watch(func(next *config.Config) {
		appLogger.SetLevel(logger.ParseLevel(next.Log.Level))
		appLogger.Info(ctx, "Log level reloaded", logger.String("level", next.Log.Level))
	}, func(err error) {
		appLogger.Warn(ctx, "Ignoring invalid config reload", logger.Err(err))
	})

	go func() {
		if err := router.Start(); err != nil {
			appLogger.Error(ctx, "HTTP server failed", err)
			stop()
		}
	}()

	<-ctx.Done()
	appLogger.Info(context.Background(), "Shutting down")

	timeout := cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := router.Stop(shutdownCtx); err != nil {
		appLogger.Error(shutdownCtx, "HTTP server shutdown failed", err)
	}
	if err := publisher.Close(); err != nil {
		appLogger.Warn(shutdownCtx, "Event publisher close failed", logger.Err(err))
	}
	if err := infra.Close(); err != nil {
		appLogger.Warn(shutdownCtx, "Store close failed", logger.Err(err))
	}
	_ = tracing.Shutdown(shutdownCtx)
	appLogger.Info(shutdownCtx, "Server exited")
}
