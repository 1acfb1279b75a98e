/**
 * @description
 * Main entry point for the DataDash Backend API.
 * Initializes the Fiber web server, loads configuration, and sets up routes.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2: Web framework
 * - github.com/datadash-project/backend/internal/config: Config loader
 * - github.com/datadash-project/backend/internal/db: Database connections
 *
 * @notes
 * - Connects to Postgres and Redis on startup and migrates the schema.
 * - Shuts down gracefully on SIGINT/SIGTERM.
 */

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/datadash-project/backend/internal/api"
	"github.com/datadash-project/backend/internal/config"
	"github.com/datadash-project/backend/internal/db"
	"github.com/datadash-project/backend/internal/logger"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config: %v", err)
	}
	logger.Configure(cfg.Log.Level, cfg.Log.File)

	// 2. Initialize Database Connections
	pgDB, err := db.ConnectPostgres(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to Postgres: %v", err)
	}
	if err := db.Migrate(pgDB); err != nil {
		logger.Fatal("Failed to migrate schema: %v", err)
	}

	redisClient, err := db.ConnectRedis(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	// 3. App + Routes
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app := api.NewApp()
	api.SetupRoutes(ctx, app, pgDB, redisClient)

	// 4. Start Server
	go func() {
		logger.Info("🚀 Starting DataDash Backend on port %s", cfg.Server.Port)
		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			logger.Fatal("Failed to start server: %v", err)
		}
	}()

	// 5. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down API...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("Error during shutdown: %v", err)
	}
	logger.Info("API exited.")
}
