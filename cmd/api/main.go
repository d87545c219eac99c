package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iroy-mg/iroy-backend/internal/adapters/cache"
	"github.com/iroy-mg/iroy-backend/internal/adapters/database"
	"github.com/iroy-mg/iroy-backend/internal/adapters/routing"
	"github.com/iroy-mg/iroy-backend/internal/adapters/search"
	"github.com/iroy-mg/iroy-backend/internal/api/handlers"
	"github.com/iroy-mg/iroy-backend/internal/api/middleware"
	"github.com/iroy-mg/iroy-backend/internal/api/routes"
	"github.com/iroy-mg/iroy-backend/internal/application/services"
	"github.com/iroy-mg/iroy-backend/internal/domain/providers"
	"github.com/iroy-mg/iroy-backend/internal/domain/repositories"
	"github.com/iroy-mg/iroy-backend/internal/infrastructure/clients/postgres"
	"github.com/iroy-mg/iroy-backend/internal/infrastructure/clients/redis"
	"github.com/iroy-mg/iroy-backend/internal/infrastructure/clients/typesense"
	"github.com/iroy-mg/iroy-backend/internal/infrastructure/observability"
	"github.com/iroy-mg/iroy-backend/pkg/config"
	"github.com/iroy-mg/iroy-backend/pkg/idcodec"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	observability.InitLogger("iroy-backend", cfg.Server.Env)

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	var shutdown func(context.Context) error
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err = observability.Setup(
			ctx,
			cfg.OTEL.ServiceName,
			cfg.OTEL.ServiceVersion,
			cfg.OTEL.Endpoint,
		)
		if err != nil {
			log.Printf("Warning: Failed to set up OpenTelemetry: %v", err)
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Printf("Error shutting down OpenTelemetry: %v", err)
				}
			}()
			log.Println("OpenTelemetry initialized successfully")
		}
	}

	// Initialize metrics
	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatalf("Failed to initialize metrics: %v", err)
	}

	// Initialize database client
	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize PostgreSQL client: %v", err)
	}
	defer pgClient.Close()
	log.Println("PostgreSQL client initialized successfully")

	// Initialize Redis client. The directory works without it: no view
	// cooldown, no response cache.
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		log.Printf("Warning: Failed to initialize Redis client: %v", err)
	} else {
		defer redisClient.Close()
		log.Println("Redis client initialized successfully")
	}

	var cacheProvider providers.CacheProvider
	if redisClient != nil {
		cacheProvider = cache.NewRedisAdapter(redisClient)
	}

	// Initialize Typesense client. Optional: search falls back to SQL ILIKE.
	var searchRepo repositories.CentreSearchRepository
	if cfg.Typesense.URL != "" {
		typesenseClient, err := typesense.NewClient(&cfg.Typesense)
		if err != nil {
			log.Printf("Warning: Failed to initialize Typesense client: %v", err)
		} else {
			adapter := search.NewTypesenseAdapter(typesenseClient)
			if err := adapter.InitSchema(context.Background()); err != nil {
				log.Printf("Warning: Failed to init Typesense schema: %v", err)
			}
			searchRepo = adapter
			log.Println("Typesense client initialized successfully")
		}
	}

	// Initialize adapters
	baseCentreAdapter := database.NewCentreAdapter(pgClient)

	var centreRepo repositories.CentreRepository
	if cacheProvider != nil {
		centreRepo = database.NewCachedCentreAdapter(baseCentreAdapter, cacheProvider)
		log.Println("Centre adapter wrapped with caching layer")
	} else {
		centreRepo = baseCentreAdapter
		log.Println("Centre adapter running without cache (Redis unavailable)")
	}

	interactionRepo := database.NewInteractionAdapter(pgClient)
	adminUserRepo := database.NewAdminUserAdapter(pgClient)

	codec, err := idcodec.New(cfg.Server.IDCodecKey)
	if err != nil {
		log.Fatalf("Failed to initialize ID codec: %v", err)
	}

	osrmClient := routing.NewClient(&cfg.Routing)

	// Initialize services
	centreService := services.NewCentreService(centreRepo, searchRepo)
	interactionService := services.NewInteractionService(interactionRepo, centreRepo, cacheProvider, metrics, cfg.Tracking)
	navigationService := services.NewNavigationService(osrmClient, cfg.Routing)
	exportService := services.NewExportService(centreRepo)

	// Initialize handlers
	centreHandler := handlers.NewCentreHandler(centreService, codec)
	interactionHandler := handlers.NewInteractionHandler(interactionService)
	navigationHandler := handlers.NewNavigationHandler(navigationService)
	adminHandler := handlers.NewAdminHandler(centreService, interactionService, exportService)

	authMiddleware := middleware.NewAuthMiddleware(adminUserRepo)

	var cacheMiddleware *middleware.CacheMiddleware
	if cacheProvider != nil {
		cacheMiddleware = middleware.NewCacheMiddleware(cacheProvider, metrics)
		log.Println("Cache middleware initialized successfully")
	}

	// Set up router
	router := routes.NewRouter(
		centreHandler,
		interactionHandler,
		navigationHandler,
		adminHandler,
		authMiddleware,
		cacheMiddleware,
		metrics,
	)

	handler := router.SetupRoutes()

	// Create HTTP server
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on %s", serverAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during server shutdown: %v", err)
	}

	log.Println("Server stopped")
}
