package handlers

import (
	"errors"
	"strconv"
	"strings"

	"github.com/datadash-project/backend/internal/logger"
	"github.com/datadash-project/backend/internal/models"
	"github.com/datadash-project/backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

// respondError maps service errors onto HTTP statuses. Unknown errors are
// logged and reported as 500 with fallback as the message.
func respondError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Not found"})
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrDuplicateName):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	}
	logger.Error("%s %s: %v", c.Method(), c.Path(), err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": fallback})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}

func parseID(c *fiber.Ctx) (uint64, bool) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

// sourceTypeQuery reads ?source_type; empty means no filter.
func sourceTypeQuery(c *fiber.Ctx) (models.SourceType, error) {
	raw := c.Query("source_type")
	if raw == "" {
		return "", nil
	}
	return models.ParseSourceType(raw)
}

// isActiveQuery reads ?is_active. Only a case-insensitive "true" is true;
// any other present value, including an empty one, filters for inactive rows.
func isActiveQuery(c *fiber.Ctx) *bool {
	if !c.Context().QueryArgs().Has("is_active") {
		return nil
	}
	v := strings.EqualFold(c.Query("is_active"), "true")
	return &v
}
