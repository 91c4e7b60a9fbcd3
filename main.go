package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Vitor-Rausis/leads-diversao-brinquedos/environments"
	"github.com/Vitor-Rausis/leads-diversao-brinquedos/handlers"
	"github.com/Vitor-Rausis/leads-diversao-brinquedos/internal/middlewares"
	"github.com/Vitor-Rausis/leads-diversao-brinquedos/internal/repository"
	"github.com/Vitor-Rausis/leads-diversao-brinquedos/internal/scheduler"
	"github.com/Vitor-Rausis/leads-diversao-brinquedos/internal/service"
	"github.com/Vitor-Rausis/leads-diversao-brinquedos/pkg/database"
	"github.com/Vitor-Rausis/leads-diversao-brinquedos/pkg/gateway"
	"github.com/Vitor-Rausis/leads-diversao-brinquedos/pkg/logger"
	"github.com/Vitor-Rausis/leads-diversao-brinquedos/pkg/phone"
	"github.com/Vitor-Rausis/leads-diversao-brinquedos/pkg/redis"
	"github.com/Vitor-Rausis/leads-diversao-brinquedos/pkg/validator"
	"github.com/Vitor-Rausis/leads-diversao-brinquedos/routes"

	_ "github.com/Vitor-Rausis/leads-diversao-brinquedos/docs" // swagger docs
)

// @title Leads Diversao Brinquedos API
// @version 1.0
// @description WhatsApp lead-nurturing automation for a toy rental business

// @contact.name API Support

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /

// @schemes http https
func main() {
	// Load config
	cfg := environments.Load()

	logger.Init(os.Getenv("LOG_DEBUG") == "true")

	// Hard-fail if required secrets are missing
	if cfg.Auth.APIKey == "" {
		logger.Fatalf("API_KEY is required but not set")
	}
	if cfg.Gateway.URL == "" || cfg.Gateway.APIKey == "" {
		logger.Fatalf("EVOLUTION_API_URL and EVOLUTION_API_KEY are required but not set")
	}

	logger.Infof("Starting lead automation service...")

	// Init DB
	db, err := database.NewMySQLDB(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.RunMigrations(db); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}

	// Seed data
	if os.Getenv("SEED_DATA") == "true" {
		if err := database.SeedDefaults(db); err != nil {
			logger.Warnf("Failed to seed default data: %v", err)
		}
	}

	// Init cache; the inbound dedup fast path degrades to the database when
	// the cache is unavailable.
	var cache *redis.Client
	cache, err = redis.NewRedisClient(cfg.Redis)
	if err != nil {
		logger.Warnf("Cache not available, inbound dedup will hit the database: %v", err)
		cache = nil
	}

	// WhatsApp gateway
	evolution := gateway.NewEvolutionClient(cfg.Gateway)

	normalizer := phone.NewNormalizer(cfg.Phone.CountryCode, cfg.Phone.MobilePrefix)

	// Repositories
	leadRepo := repository.NewLeadRepository(db)
	scheduledRepo := repository.NewScheduledMessageRepository(db)
	templateRepo := repository.NewTemplateRepository(db)
	logRepo := repository.NewMessageLogRepository(db)
	campaignRepo := repository.NewCampaignRepository(db)
	queueRepo := repository.NewDripQueueRepository(db)

	// Engine services
	scheduledService := service.NewScheduledService(
		scheduledRepo,
		templateRepo,
		leadRepo,
		logRepo,
		evolution,
		cfg.Engine.BatchSize,
		cfg.Engine.MaxRetries,
	)
	dripService := service.NewDripService(
		queueRepo,
		campaignRepo,
		logRepo,
		evolution,
		cfg.Engine.BatchSize,
		cfg.Engine.MaxDripAttempts,
		cfg.Engine.DripBackoff,
		cfg.Engine.SendDelay,
	)

	var seenCache service.SeenCache
	if cache != nil {
		seenCache = cache
	}
	reconciler := service.NewReconciler(
		evolution,
		leadRepo,
		logRepo,
		scheduledRepo,
		seenCache,
		normalizer,
		cfg.Engine.PollBatchSize,
		cfg.Engine.PollLookback,
	)

	leadService := service.NewLeadService(leadRepo, campaignRepo, dripService, logRepo, normalizer)

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Engine
	engine := scheduler.NewEngine(scheduledService, dripService, reconciler, cfg.Engine)

	// Handlers
	healthHandler := handlers.NewHealthHandler(db, cache)
	leadHandler := handlers.NewLeadHandler(leadService)
	messageHandler := handlers.NewMessageHandler(logRepo, scheduledRepo, scheduledService)
	campaignHandler := handlers.NewCampaignHandler(campaignRepo, queueRepo, dripService)
	engineHandler := handlers.NewEngineHandler(engine, scheduledService, dripService, reconciler, ctx)
	whatsappHandler := handlers.NewWhatsAppHandler(evolution)

	// Auto-start engine
	if os.Getenv("AUTO_START_ENGINE") != "false" {
		logger.Infof("Auto-starting engine...")
		if err := engine.Start(ctx); err != nil {
			logger.Warnf("Failed to auto-start engine: %v", err)
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = validator.New()

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.RequestID())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderAuthorization,
			middlewares.APIKeyHeader,
			middlewares.CronSecretHeader,
		},
	}))

	// Setup routes
	routes.RegisterRoutes(e, healthHandler, leadHandler, messageHandler, campaignHandler, engineHandler, whatsappHandler, cfg)

	// Start server in goroutine
	go func() {
		addr := ":" + cfg.Server.Port
		logger.Infof("Server starting on http://localhost%s", addr)
		logger.Infof("Swagger docs available at http://localhost%s/swagger/index.html", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Infof("Shutting down gracefully...")

	// Cancel context to signal all goroutines to stop
	cancel()

	// Stop engine first (with timeout)
	if engine.IsRunning() {
		logger.Infof("Stopping engine...")
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer stopCancel()

		done := make(chan error, 1)
		go func() {
			done <- engine.Stop()
		}()

		select {
		case err := <-done:
			if err != nil {
				logger.Errorf("Error stopping engine: %v", err)
			} else {
				logger.Infof("Engine stopped successfully")
			}
		case <-stopCtx.Done():
			logger.Warnf("Engine stop timeout, forcing shutdown")
		}
	}

	// Shutdown HTTP server (with timeout)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	logger.Infof("Shutting down HTTP server...")
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	} else {
		logger.Infof("HTTP server stopped successfully")
	}

	// Close database connection
	logger.Infof("Closing database connection...")
	if err := db.Close(); err != nil {
		logger.Errorf("Error closing database: %v", err)
	}

	// Close cache connection
	if cache != nil {
		logger.Infof("Closing cache connection...")
		if err := cache.Close(); err != nil {
			logger.Errorf("Error closing cache: %v", err)
		}
	}

	logger.Infof("Graceful shutdown completed")
}
