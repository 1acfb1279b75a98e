/**
 * @description
 * DataPoint handlers: recent listings, chart series, summary and the live
 * collection feed.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2
 * - backend/internal/services
 */

package handlers

import (
	"bufio"
	"context"
	"fmt"
	"strconv"

	"github.com/datadash-project/backend/internal/models"
	"github.com/datadash-project/backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

// DataPointQuerier is the read side the handlers need.
type DataPointQuerier interface {
	List(ctx context.Context, f services.PointFilter) ([]models.DataPoint, error)
	Get(ctx context.Context, id uint64) (*models.DataPoint, error)
	ChartSeries(ctx context.Context, f services.PointFilter) ([]services.ChartPoint, error)
	Summary(ctx context.Context) ([]services.SummaryEntry, error)
}

// EventSubscriber hands out collection event feeds. The returned func
// detaches the listener.
type EventSubscriber interface {
	Subscribe() (<-chan []byte, func())
}

type DataPointHandler struct {
	Query  DataPointQuerier
	Events EventSubscriber
}

func NewDataPointHandler(query DataPointQuerier, events EventSubscriber) *DataPointHandler {
	return &DataPointHandler{Query: query, Events: events}
}

func parsePointFilter(c *fiber.Ctx) (services.PointFilter, error) {
	var f services.PointFilter
	st, err := sourceTypeQuery(c)
	if err != nil {
		return f, err
	}
	f.SourceType = st
	f.Symbol = c.Query("symbol")

	if raw := c.Query("hours"); raw != "" {
		hours, err := strconv.Atoi(raw)
		if err != nil || hours <= 0 {
			return f, fmt.Errorf("hours must be a positive integer")
		}
		f.Hours = hours
	}
	return f, nil
}

// ListDataPoints returns points in the requested window, newest first
// GET /api/v1/datapoints
func (h *DataPointHandler) ListDataPoints(c *fiber.Ctx) error {
	f, err := parsePointFilter(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	points, err := h.Query.List(c.Context(), f)
	if err != nil {
		return respondError(c, err, "Failed to fetch data points")
	}
	return c.JSON(fiber.Map{
		"results": points,
		"count":   len(points),
	})
}

// GetDataPoint returns one point
// GET /api/v1/datapoints/:id
func (h *DataPointHandler) GetDataPoint(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	point, err := h.Query.Get(c.Context(), id)
	if err != nil {
		return respondError(c, err, "Failed to fetch data point")
	}
	return c.JSON(point)
}

// GetChartData returns up to 200 points oldest first
// GET /api/v1/datapoints/chart-data
func (h *DataPointHandler) GetChartData(c *fiber.Ctx) error {
	f, err := parsePointFilter(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	series, err := h.Query.ChartSeries(c.Context(), f)
	if err != nil {
		return respondError(c, err, "Failed to build chart data")
	}
	return c.JSON(series)
}

// GetSummary returns one entry per (source_type, symbol)
// GET /api/v1/datapoints/summary
func (h *DataPointHandler) GetSummary(c *fiber.Ctx) error {
	summary, err := h.Query.Summary(c.Context())
	if err != nil {
		return respondError(c, err, "Failed to build summary")
	}
	return c.JSON(summary)
}

// StreamCollections relays collection events as server-sent events
// GET /api/v1/datapoints/stream
func (h *DataPointHandler) StreamCollections(c *fiber.Ctx) error {
	if h.Events == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Event stream unavailable"})
	}

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")

	requestCtx := c.Context()
	ch, unsubscribe := h.Events.Subscribe()

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer unsubscribe()

		// Flush headers so clients see the stream open before the first event.
		fmt.Fprint(w, ": connected\n\n")
		if err := w.Flush(); err != nil {
			return
		}

		for {
			select {
			case <-requestCtx.Done():
				return
			case payload, ok := <-ch:
				if !ok {
					return
				}
				fmt.Fprintf(w, "event: collection\ndata: %s\n\n", payload)
				if err := w.Flush(); err != nil {
					return
				}
			}
		}
	})

	return nil
}
