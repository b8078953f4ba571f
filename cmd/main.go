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
	"go.uber.org/zap"

	"github.com/cheekoai/cheeko-server/adapters"
	storemongo "github.com/cheekoai/cheeko-server/adapters/mongo"
	"github.com/cheekoai/cheeko-server/domain/repositories"
	"github.com/cheekoai/cheeko-server/internal/api"
	"github.com/cheekoai/cheeko-server/internal/auth"
	"github.com/cheekoai/cheeko-server/internal/config"
	"github.com/cheekoai/cheeko-server/internal/saga"
	"github.com/cheekoai/cheeko-server/internal/websocket"
	"github.com/cheekoai/cheeko-server/usecase"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	if !auth.Configure(cfg.JWTSecret) {
		logger.Warn("JWT_SECRET not set, using built-in development secret; tokens are forgeable")
	}

	// Create Echo instance
	e := echo.New()

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	// Initialize storage. Without a MongoDB URI the server runs on the
	// in-memory backend, which loses state on restart.
	var (
		credentialRepo repositories.CredentialRepository
		toyRepo        repositories.ToyRepository
		profileRepo    repositories.ProfileRepository
		userRepo       repositories.UserRepository
	)
	if cfg.MongoURI != "" {
		client, err := storemongo.NewClient(cfg.MongoURI, cfg.MongoDatabase, logger)
		if err != nil {
			logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			client.Close(ctx)
		}()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := client.EnsureIndexes(ctx); err != nil {
			cancel()
			logger.Fatal("Failed to ensure indexes", zap.Error(err))
		}
		cancel()

		credentialRepo = storemongo.NewCredentialRepository(client.Database)
		toyRepo = storemongo.NewToyRepository(client.Database)
		profileRepo = storemongo.NewProfileRepository(client.Database)
		userRepo = storemongo.NewUserRepository(client.Database)
	} else {
		logger.Warn("MONGODB_URI not set, using in-memory storage")
		credentialRepo = adapters.NewMemoryCredentialRepository()
		toyRepo = adapters.NewMemoryToyRepository()
		profileRepo = adapters.NewMemoryProfileRepository()
		userRepo = adapters.NewMemoryUserRepository()
	}

	// Initialize status hub pushing toy lifecycle events to parents
	hub := websocket.NewHub(logger)
	go hub.Run()

	// Initialize usecase services
	runner := saga.NewRunner(logger)
	userService := usecase.NewUserService(userRepo, logger)
	activationService := usecase.NewActivationService(credentialRepo, toyRepo, runner, hub, logger)
	toyService := usecase.NewToyService(toyRepo, credentialRepo, runner, hub, logger)
	profileService := usecase.NewProfileService(profileRepo, logger)

	// Initialize API routes
	server := api.NewServer(userService, activationService, toyService, profileService, hub, logger)
	server.Register(e)

	// Graceful shutdown
	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("shutting down the server", zap.Error(err))
		}
	}()

	logger.Info("Server started", zap.String("port", cfg.Port))

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
