package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/askwhyharsh/proxipal/internal/api"
	"github.com/askwhyharsh/proxipal/internal/config"
	"github.com/askwhyharsh/proxipal/internal/geocode"
	"github.com/askwhyharsh/proxipal/internal/live"
	"github.com/askwhyharsh/proxipal/internal/location"
	"github.com/askwhyharsh/proxipal/internal/ratelimit"
	"github.com/askwhyharsh/proxipal/internal/relationship"
	"github.com/askwhyharsh/proxipal/internal/session"
	"github.com/askwhyharsh/proxipal/internal/storage"
	"github.com/askwhyharsh/proxipal/internal/user"
	"github.com/askwhyharsh/proxipal/pkg/logger"
	"github.com/askwhyharsh/proxipal/pkg/validator"
)

func main() {
	promote := flag.String("promote", "", "grant superuser to the named account and exit")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.NewLogger("", "").Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	appLogger := logger.NewLogger(cfg.Server.Env, cfg.Monitoring.LogLevel)
	defer appLogger.Sync()
	appLogger.Info("Starting ProxiPal server...")

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize storage
	var store storage.Store
	if cfg.UseMemoryStore() {
		appLogger.Warn("DATABASE_URL not set, using in-memory store")
		store = storage.NewMemoryStore()
	} else {
		pg, err := storage.NewPostgresClient(ctx, cfg.Postgres)
		if err != nil {
			appLogger.Error("Failed to connect to Postgres", "error", err)
			os.Exit(1)
		}
		store = pg
		appLogger.Info("Connected to Postgres")
	}
	defer store.Close()

	if *promote != "" {
		if err := store.SetSuperuser(ctx, *promote, true); err != nil {
			appLogger.Error("Failed to promote user", "username", *promote, "error", err)
			os.Exit(1)
		}
		appLogger.Info("User promoted to superuser", "username", *promote)
		return
	}

	// Initialize Redis
	redisClient, err := storage.NewRedisClient(ctx, cfg)
	if err != nil {
		appLogger.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()
	appLogger.Info("Connected to Redis", "address", cfg.RedisAddr())

	// Initialize services
	val := validator.NewValidator()
	broker := live.NewBroker(redisClient)

	userService := user.NewService(store, val)
	relationshipService := relationship.NewService(store, store, appLogger)
	locationService := location.NewService(store, broker, appLogger, cfg.Location.GeohashPrecision, cfg.Location.HistoryLimit)
	sessionService := session.NewService(redisClient, cfg.Session.TTL)

	rateLimiter := ratelimit.NewLimiter(redisClient, cfg.RateLimit)
	rateLimitMiddleware := ratelimit.NewMiddleware(rateLimiter, appLogger)

	// Initialize API handler
	apiHandler := api.NewHandler(api.Deps{
		Users:         userService,
		Relationships: relationshipService,
		Locations:     locationService,
		Sessions:      sessionService,
		RateLimiter:   rateLimiter,
		Geocoder:      geocode.NewClient(cfg.Geocoder),
		Validator:     val,
		Live:          live.NewHandler(broker, appLogger),
		Logger:        appLogger,
		SecureCookie:  cfg.Session.SecureCookie,
	})

	// Setup Gin router
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(api.RequestLogger(appLogger))

	// Setup routes
	if err := api.SetupRoutes(router, apiHandler, rateLimitMiddleware, cfg.Server.AllowedOrigins); err != nil {
		appLogger.Error("Failed to set up routes", "error", err)
		os.Exit(1)
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.ServerAddr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		appLogger.Info("Server starting", "address", srv.Addr, "env", cfg.Server.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error("Failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	cancel()

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server forced to shutdown", "error", err)
	}

	appLogger.Info("Server stopped")
}
