package handlers

import (
	"context"

	"github.com/datadash-project/backend/internal/models"
	"github.com/datadash-project/backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

// AlertStore is the Alert service surface.
type AlertStore interface {
	List(ctx context.Context, f services.AlertFilter) ([]models.Alert, error)
	Get(ctx context.Context, id uint64) (*models.Alert, error)
	Create(ctx context.Context, in services.AlertInput) (*models.Alert, error)
	Replace(ctx context.Context, id uint64, in services.AlertInput) (*models.Alert, error)
	Patch(ctx context.Context, id uint64, in services.AlertInput) (*models.Alert, error)
	Delete(ctx context.Context, id uint64) error
}

// AlertHandler serves stored alerts. Alerts are never evaluated here.
type AlertHandler struct {
	store AlertStore
}

func NewAlertHandler(store AlertStore) *AlertHandler {
	return &AlertHandler{store: store}
}

// GET /api/v1/alerts?source_type=&symbol=&is_active=
func (h *AlertHandler) ListAlerts(c *fiber.Ctx) error {
	st, err := sourceTypeQuery(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	alerts, err := h.store.List(c.Context(), services.AlertFilter{
		SourceType: st,
		Symbol:     c.Query("symbol"),
		IsActive:   isActiveQuery(c),
	})
	if err != nil {
		return respondError(c, err, "Failed to fetch alerts")
	}
	return c.JSON(fiber.Map{
		"results": alerts,
		"count":   len(alerts),
	})
}

func (h *AlertHandler) GetAlert(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	a, err := h.store.Get(c.Context(), id)
	if err != nil {
		return respondError(c, err, "Failed to fetch alert")
	}
	return c.JSON(a)
}

func (h *AlertHandler) CreateAlert(c *fiber.Ctx) error {
	var in services.AlertInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "Invalid request body")
	}
	a, err := h.store.Create(c.Context(), in)
	if err != nil {
		return respondError(c, err, "Failed to create alert")
	}
	return c.Status(fiber.StatusCreated).JSON(a)
}

func (h *AlertHandler) ReplaceAlert(c *fiber.Ctx) error {
	return h.update(c, h.store.Replace)
}

func (h *AlertHandler) PatchAlert(c *fiber.Ctx) error {
	return h.update(c, h.store.Patch)
}

func (h *AlertHandler) update(c *fiber.Ctx, apply func(context.Context, uint64, services.AlertInput) (*models.Alert, error)) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	var in services.AlertInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "Invalid request body")
	}
	a, err := apply(c.Context(), id, in)
	if err != nil {
		return respondError(c, err, "Failed to update alert")
	}
	return c.JSON(a)
}

func (h *AlertHandler) DeleteAlert(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	if err := h.store.Delete(c.Context(), id); err != nil {
		return respondError(c, err, "Failed to delete alert")
	}
	return c.SendStatus(fiber.StatusNoContent)
}
