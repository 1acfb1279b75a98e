/**
 * @description
 * API Route definitions.
 * Builds the Fiber app, wires services to handlers and mounts the /api/v1 tree.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2
 * - backend/internal/api/handlers
 * - backend/internal/services
 */

package api

import (
	"context"

	"github.com/datadash-project/backend/internal/api/handlers"
	"github.com/datadash-project/backend/internal/db"
	"github.com/datadash-project/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Handlers groups everything mounted under /api/v1.
type Handlers struct {
	DataPoints  *handlers.DataPointHandler
	DataSources *handlers.DataSourceHandler
	Alerts      *handlers.AlertHandler
	Health      *handlers.HealthHandler
}

// NewApp creates the Fiber app with the global middleware stack.
func NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:       "DataDash API",
		StrictRouting: false,
		CaseSensitive: true,
	})

	app.Use(recover.New()) // Panic recovery
	app.Use(logger.New())  // Request logging
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept",
		AllowMethods: "GET, POST, PUT, PATCH, DELETE, OPTIONS",
	}))
	return app
}

// SetupRoutes configures all API routes backed by Postgres and Redis.
// ctx bounds the background stream hub.
func SetupRoutes(ctx context.Context, app *fiber.App, pg *gorm.DB, rdb *redis.Client) {
	points := services.NewGormPointStore(pg)
	hub := services.NewStreamHub(ctx, services.NewEventBus(rdb))

	Mount(app, Handlers{
		DataPoints:  handlers.NewDataPointHandler(services.NewQueryService(points, rdb), hub),
		DataSources: handlers.NewDataSourceHandler(services.NewDataSourceService(pg)),
		Alerts:      handlers.NewAlertHandler(services.NewAlertService(pg)),
		Health: handlers.NewHealthHandler(map[string]handlers.HealthCheck{
			"db":    func(context.Context) error { return db.Ping(pg) },
			"redis": func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		}),
	})
}

// Mount registers h on app. Static datapoint routes come before /:id.
func Mount(app *fiber.App, h Handlers) {
	v1 := app.Group("/api").Group("/v1")

	v1.Get("/health", h.Health.Health)

	dp := v1.Group("/datapoints")
	dp.Get("/", h.DataPoints.ListDataPoints)
	dp.Get("/chart-data", h.DataPoints.GetChartData)
	dp.Get("/summary", h.DataPoints.GetSummary)
	dp.Get("/stream", h.DataPoints.StreamCollections)
	dp.Get("/:id", h.DataPoints.GetDataPoint)

	ds := v1.Group("/datasources")
	ds.Get("/", h.DataSources.ListDataSources)
	ds.Post("/", h.DataSources.CreateDataSource)
	ds.Get("/:id", h.DataSources.GetDataSource)
	ds.Put("/:id", h.DataSources.ReplaceDataSource)
	ds.Patch("/:id", h.DataSources.PatchDataSource)
	ds.Delete("/:id", h.DataSources.DeleteDataSource)

	alerts := v1.Group("/alerts")
	alerts.Get("/", h.Alerts.ListAlerts)
	alerts.Post("/", h.Alerts.CreateAlert)
	alerts.Get("/:id", h.Alerts.GetAlert)
	alerts.Put("/:id", h.Alerts.ReplaceAlert)
	alerts.Patch("/:id", h.Alerts.PatchAlert)
	alerts.Delete("/:id", h.Alerts.DeleteAlert)
}
