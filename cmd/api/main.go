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

	"github.com/zatekoja/carefinder/internal/adapters/cache"
	"github.com/zatekoja/carefinder/internal/adapters/database"
	"github.com/zatekoja/carefinder/internal/adapters/providers/places"
	ratelimitstore "github.com/zatekoja/carefinder/internal/adapters/ratelimit"
	"github.com/zatekoja/carefinder/internal/api/handlers"
	"github.com/zatekoja/carefinder/internal/api/routes"
	"github.com/zatekoja/carefinder/internal/application/services"
	"github.com/zatekoja/carefinder/internal/domain/providers"
	"github.com/zatekoja/carefinder/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/carefinder/internal/infrastructure/clients/redis"
	"github.com/zatekoja/carefinder/internal/infrastructure/observability"
	"github.com/zatekoja/carefinder/pkg/config"
	"github.com/zatekoja/carefinder/pkg/ratelimit"
	"github.com/zatekoja/carefinder/pkg/secrets"
)

func main() {
	// Secrets such as PLACES_API_KEY may come from Vault instead of the environment.
	vaultCtx, vaultCancel := context.WithTimeout(context.Background(), 30*time.Second)
	vaultResult, vaultErr := secrets.Apply(vaultCtx, secrets.LoadVaultConfigFromEnv(), nil)
	vaultCancel()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Env)

	if vaultErr != nil {
		log.Fatal().Err(vaultErr).Msg("failed to load secrets from Vault")
	}
	if len(vaultResult.Loaded) > 0 || len(vaultResult.Skipped) > 0 {
		log.Info().Strs("loaded", vaultResult.Loaded).Strs("skipped", vaultResult.Skipped).Msg("applied Vault secrets")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Warn().Err(err).Msg("failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Error().Err(err).Msg("error shutting down OpenTelemetry")
				}
			}()
			log.Info().Str("endpoint", cfg.OTEL.Endpoint).Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	limiterCfg := ratelimit.Config{
		Window:               cfg.RateLimit.Window,
		MaxRequestsPerWindow: cfg.RateLimit.MaxRequestsPerWindow,
		MinInterval:          cfg.RateLimit.MinInterval,
	}

	// Search state: results cache and limiter entries
	var (
		cacheProvider  providers.CacheProvider
		rateLimitStore providers.RateLimitStore
	)
	switch cfg.Search.Backend {
	case "redis":
		redisClient, err := redis.NewClient(ctx, &cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize Redis client")
		}
		defer redisClient.Close()
		cacheProvider = cache.NewRedisAdapter(redisClient.Client())
		rateLimitStore = ratelimitstore.NewRedisStore(redisClient.Client(), limiterCfg)
		log.Info().Str("addr", cfg.Redis.RedisAddr()).Msg("search state stored in Redis")
	default:
		cacheProvider = cache.NewMemoryAdapter()
		rateLimitStore = ratelimitstore.NewMemoryStore()
		log.Info().Msg("search state stored in memory")
	}

	var placesProvider providers.PlacesProvider
	switch cfg.Places.Provider {
	case "mock":
		placesProvider = places.NewMockPlacesProvider()
		log.Warn().Msg("using mock places provider")
	default:
		if cfg.Places.APIKey == "" {
			log.Warn().Msg("PLACES_API_KEY is not set; searches will fail until it is configured")
		}
		placesProvider = places.NewGooglePlacesProviderWithOptions(cfg.Places.BaseURL, &http.Client{Timeout: cfg.Places.Timeout})
	}

	searchService := services.NewProfessionalSearchService(
		placesProvider,
		cacheProvider,
		services.NewRateLimiter(rateLimitStore, limiterCfg),
		services.ProfessionalSearchOptions{
			CacheTTL:                    cfg.Search.CacheTTL,
			MinRating:                   cfg.Places.MinRating,
			MaxResultCount:              cfg.Places.MaxResultCount,
			DefaultRadiusMeters:         cfg.Search.RadiusMeters,
			DefaultMaxPlacesPerCategory: cfg.Search.MaxPlacesPerCategory,
		},
	)
	searchService.SetMetrics(metrics)

	// Search analytics is optional and needs Postgres.
	var (
		analyticsService *services.SearchAnalyticsService
		zeroResultLister handlers.ZeroResultSearchLister
	)
	if cfg.Analytics.Enabled {
		pgClient, err := postgres.NewClient(ctx, &cfg.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize PostgreSQL client")
		}
		defer pgClient.Close()

		eventAdapter := database.NewSearchEventAdapter(pgClient)
		if err := eventAdapter.InitSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to prepare search analytics schema")
		}
		analyticsService = services.NewSearchAnalyticsService(eventAdapter)
		searchService.SetAnalytics(analyticsService)
		zeroResultLister = analyticsService
		log.Info().Msg("search analytics enabled")
	}

	router := routes.NewRouter(
		handlers.NewProfessionalSearchHandler(searchService, cfg.Places.APIKey),
		handlers.NewSearchAnalyticsHandler(zeroResultLister),
		cfg.Server.AllowedOrigins,
		metrics,
	)

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router.SetupRoutes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", serverAddr).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("server shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}

	if analyticsService != nil {
		analyticsService.Wait()
	}
	log.Info().Msg("server stopped")
}
