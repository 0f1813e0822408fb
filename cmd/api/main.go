package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/helpdesk-search/internal/adapters/cache"
	"github.com/zatekoja/helpdesk-search/internal/adapters/database"
	"github.com/zatekoja/helpdesk-search/internal/adapters/events"
	"github.com/zatekoja/helpdesk-search/internal/api/handlers"
	"github.com/zatekoja/helpdesk-search/internal/api/middleware"
	"github.com/zatekoja/helpdesk-search/internal/api/routes"
	"github.com/zatekoja/helpdesk-search/internal/domain/providers"
	"github.com/zatekoja/helpdesk-search/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/helpdesk-search/internal/infrastructure/clients/redis"
	"github.com/zatekoja/helpdesk-search/internal/infrastructure/observability"
	"github.com/zatekoja/helpdesk-search/internal/wire"
	"github.com/zatekoja/helpdesk-search/pkg/config"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Env)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Error().Err(err).Msg("Error shutting down OpenTelemetry")
				}
			}()
			log.Info().Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize metrics")
	}
	searchMetrics, err := observability.InitSearchMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize search metrics")
	}

	checks := make(map[string]handlers.HealthCheck)
	var deps wire.PipelineDeps
	deps.Metrics = searchMetrics

	// PostgreSQL is optional: it stores analytics events and may serve as the article source
	var pgClient *postgres.Client
	if cfg.Database.Enabled {
		pgClient, err = postgres.NewClient(&cfg.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize PostgreSQL client")
		}
		defer pgClient.Close()
		deps.Sink = database.NewSearchAnalyticsAdapter(pgClient)
		checks["postgres"] = pgClient.Ping
	}

	// Redis backs the cache and the analytics event bus; without it an in-process cache is used
	var eventBus providers.EventBus
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(&cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("Redis unavailable, continuing with in-process cache")
		} else {
			defer redisClient.Close()
			deps.Cache = cache.NewRedisAdapter(redisClient)
			eventBus = events.NewRedisEventBus(redisClient)
			deps.EventBus = eventBus
			checks["redis"] = redisClient.Ping
		}
	}
	if deps.Cache == nil {
		deps.Cache = cache.NewMemoryAdapter(cfg.Search.LocalCacheSize, time.Duration(cfg.Search.SuggestionCacheTTLSeconds)*time.Second)
	}

	expander, err := wire.ProvideExpander(&cfg.Search)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize term expansion")
	}
	engine, err := wire.ProvideEngine(ctx, cfg, expander, pgClient)
	if err != nil {
		log.Fatal().Err(err).Str("engine", cfg.Search.Engine).Msg("Failed to initialize search engine")
	}
	defer engine.Close()

	pipeline, err := wire.ProvidePipeline(&cfg.Search, expander, engine, deps)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize query pipeline")
	}

	searchHandler := handlers.NewSearchHandler(pipeline.Service, handlers.ClickRateConfig{
		PerSecond:      cfg.Server.ClickRatePerSecond,
		Burst:          cfg.Server.ClickBurst,
		TrustedProxies: cfg.Server.TrustedProxies,
	})
	healthHandler := handlers.NewHealthHandler(checks)

	router := routes.NewRouter(
		searchHandler,
		healthHandler,
		middleware.ParseAllowedOrigins(cfg.Server.AllowedOrigins),
		metrics,
	)
	if eventBus != nil {
		router.WithEventStream(handlers.NewSSEHandler(eventBus))
	}

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router.SetupRoutes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", serverAddr).Str("engine", cfg.Search.Engine).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Server shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during server shutdown")
	}

	// Deliver analytics still queued for the sink and event bus
	pipeline.Ledger.Close()

	if eventBus != nil {
		if err := eventBus.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing event bus")
		}
	}

	log.Info().Msg("Server stopped")
}
