/**
 * @description
 * Worker Service Entry Point.
 * Runs a collection round for every source type on the COLLECT_CRON schedule
 * until SIGINT/SIGTERM.
 *
 * @dependencies
 * - backend/internal/config
 * - backend/internal/db
 * - backend/internal/scheduler
 * - backend/internal/services
 */

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/datadash-project/backend/internal/config"
	"github.com/datadash-project/backend/internal/db"
	"github.com/datadash-project/backend/internal/logger"
	"github.com/datadash-project/backend/internal/scheduler"
	"github.com/datadash-project/backend/internal/services"
)

func main() {
	logger.Info("🔥 Starting DataDash Worker...")

	// 1. Load Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config: %v", err)
	}
	logger.Configure(cfg.Log.Level, cfg.Log.File)

	// 2. Connect DBs
	pgDB, err := db.ConnectPostgres(cfg)
	if err != nil {
		logger.Fatal("Postgres connection failed: %v", err)
	}
	if err := db.Migrate(pgDB); err != nil {
		logger.Fatal("Schema migration failed: %v", err)
	}

	redisClient, err := db.ConnectRedis(cfg)
	if err != nil {
		logger.Fatal("Redis connection failed: %v", err)
	}
	defer redisClient.Close()

	// 3. Initialize Services
	collector := services.NewCollectionService(
		services.NewGormPointStore(pgDB),
		services.NewDataSourceService(pgDB),
		services.NewEventBus(redisClient),
		scheduler.NewFetchers(cfg)...,
	)

	// 4. Context with Cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	worker := scheduler.NewCronWorker(collector)
	if err := worker.Register(ctx, cfg.Collector.Cron); err != nil {
		logger.Fatal("Invalid COLLECT_CRON: %v", err)
	}

	// Initial round so a fresh deployment has data before the first tick.
	worker.RunOnce(ctx)
	worker.Start()

	// 5. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down worker...")
	cancel()
	worker.Stop()
	logger.Info("Worker exited.")
}
