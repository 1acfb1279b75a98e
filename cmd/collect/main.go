/**
 * @description
 * Operational collection command.
 * Collects one source type (or all of them) a fixed number of times with a
 * delay between rounds, printing progress to stdout.
 *
 * Usage:
 *   collect --source=crypto --repeat=3 --delay=60
 *   collect --dry-run   # keep points in memory, no Postgres needed
 *
 * @dependencies
 * - backend/internal/scheduler
 * - backend/internal/services
 */

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/datadash-project/backend/internal/config"
	"github.com/datadash-project/backend/internal/db"
	"github.com/datadash-project/backend/internal/logger"
	"github.com/datadash-project/backend/internal/scheduler"
	"github.com/datadash-project/backend/internal/services"
)

func main() {
	source := flag.String("source", scheduler.SourceAll, "source to collect: crypto, stock, weather, currency or all")
	repeat := flag.Int("repeat", 1, "number of collection rounds")
	delay := flag.Int("delay", 60, "seconds to wait between rounds")
	dryRun := flag.Bool("dry-run", false, "store points in memory instead of Postgres")
	flag.Parse()

	if _, err := scheduler.ParseSource(*source); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if *dryRun && os.Getenv("DATABASE_URL") == "" {
		os.Setenv("DATABASE_URL", "memory://dry-run")
	}
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config: %v", err)
	}
	logger.Configure(cfg.Log.Level, cfg.Log.File)

	redisClient, closeRedis, err := db.ConnectRedisOrMemory(cfg)
	if err != nil {
		logger.Fatal("Redis setup failed: %v", err)
	}
	defer closeRedis()

	var (
		points  services.PointWriter
		sources services.SourceToucher
	)
	if *dryRun {
		points = services.NewMemoryStore()
	} else {
		pgDB, err := db.ConnectPostgres(cfg)
		if err != nil {
			logger.Fatal("Failed to connect to Postgres: %v", err)
		}
		if err := db.Migrate(pgDB); err != nil {
			logger.Fatal("Failed to migrate schema: %v", err)
		}
		points = services.NewGormPointStore(pgDB)
		sources = services.NewDataSourceService(pgDB)
	}

	collector := services.NewCollectionService(points, sources, services.NewEventBus(redisClient), scheduler.NewFetchers(cfg)...)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner := scheduler.NewRunner(collector, os.Stdout)
	if _, err := runner.Run(ctx, *source, *repeat, time.Duration(*delay)*time.Second); err != nil {
		logger.Error("Collection stopped: %v", err)
		os.Exit(1)
	}
}
