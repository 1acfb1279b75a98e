/**
 * @description
 * DataSource CRUD handlers.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2
 * - backend/internal/services
 */

package handlers

import (
	"context"

	"github.com/datadash-project/backend/internal/models"
	"github.com/datadash-project/backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

// DataSourceStore is the DataSource service surface.
type DataSourceStore interface {
	List(ctx context.Context, f services.DataSourceFilter) ([]models.DataSource, error)
	Get(ctx context.Context, id uint64) (*models.DataSource, error)
	Create(ctx context.Context, in services.DataSourceInput) (*models.DataSource, error)
	Replace(ctx context.Context, id uint64, in services.DataSourceInput) (*models.DataSource, error)
	Patch(ctx context.Context, id uint64, in services.DataSourceInput) (*models.DataSource, error)
	Delete(ctx context.Context, id uint64) error
}

type DataSourceHandler struct {
	store DataSourceStore
}

func NewDataSourceHandler(store DataSourceStore) *DataSourceHandler {
	return &DataSourceHandler{store: store}
}

// ListDataSources
// GET /api/v1/datasources?source_type=&is_active=
func (h *DataSourceHandler) ListDataSources(c *fiber.Ctx) error {
	st, err := sourceTypeQuery(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	sources, err := h.store.List(c.Context(), services.DataSourceFilter{
		SourceType: st,
		IsActive:   isActiveQuery(c),
	})
	if err != nil {
		return respondError(c, err, "Failed to fetch data sources")
	}
	return c.JSON(fiber.Map{
		"results": sources,
		"count":   len(sources),
	})
}

// GET /api/v1/datasources/:id
func (h *DataSourceHandler) GetDataSource(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	ds, err := h.store.Get(c.Context(), id)
	if err != nil {
		return respondError(c, err, "Failed to fetch data source")
	}
	return c.JSON(ds)
}

// POST /api/v1/datasources
func (h *DataSourceHandler) CreateDataSource(c *fiber.Ctx) error {
	var in services.DataSourceInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "Invalid request body")
	}
	ds, err := h.store.Create(c.Context(), in)
	if err != nil {
		return respondError(c, err, "Failed to create data source")
	}
	return c.Status(fiber.StatusCreated).JSON(ds)
}

// PUT /api/v1/datasources/:id
func (h *DataSourceHandler) ReplaceDataSource(c *fiber.Ctx) error {
	return h.update(c, h.store.Replace)
}

// PATCH /api/v1/datasources/:id
func (h *DataSourceHandler) PatchDataSource(c *fiber.Ctx) error {
	return h.update(c, h.store.Patch)
}

func (h *DataSourceHandler) update(c *fiber.Ctx, apply func(context.Context, uint64, services.DataSourceInput) (*models.DataSource, error)) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	var in services.DataSourceInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "Invalid request body")
	}
	ds, err := apply(c.Context(), id, in)
	if err != nil {
		return respondError(c, err, "Failed to update data source")
	}
	return c.JSON(ds)
}

// DELETE /api/v1/datasources/:id
func (h *DataSourceHandler) DeleteDataSource(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	if err := h.store.Delete(c.Context(), id); err != nil {
		return respondError(c, err, "Failed to delete data source")
	}
	return c.SendStatus(fiber.StatusNoContent)
}
