package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/datadash-project/backend/internal/models"
	"github.com/datadash-project/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

type fakeQuery struct {
	lastFilter services.PointFilter
	points     []models.DataPoint
	err        error
}

func (f *fakeQuery) List(_ context.Context, pf services.PointFilter) ([]models.DataPoint, error) {
	f.lastFilter = pf
	return f.points, f.err
}

func (f *fakeQuery) Get(_ context.Context, id uint64) (*models.DataPoint, error) {
	for _, p := range f.points {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, services.ErrNotFound
}

func (f *fakeQuery) ChartSeries(_ context.Context, pf services.PointFilter) ([]services.ChartPoint, error) {
	f.lastFilter = pf
	return []services.ChartPoint{{Timestamp: "2024-01-01T00:00:00Z", Value: "1.5", Label: "BTC: 1.5"}}, nil
}

func (f *fakeQuery) Summary(context.Context) ([]services.SummaryEntry, error) {
	return []services.SummaryEntry{{SourceType: models.SourceCrypto, Symbol: "BTC", CurrentValue: decimal.RequireFromString("50000.12345678"), TotalDataPoints: 1}}, nil
}

func newDataPointApp(q DataPointQuerier, events EventSubscriber) *fiber.App {
	h := NewDataPointHandler(q, events)
	app := fiber.New()
	app.Get("/api/v1/datapoints", h.ListDataPoints)
	app.Get("/api/v1/datapoints/chart-data", h.GetChartData)
	app.Get("/api/v1/datapoints/summary", h.GetSummary)
	app.Get("/api/v1/datapoints/stream", h.StreamCollections)
	app.Get("/api/v1/datapoints/:id", h.GetDataPoint)
	return app
}

func doRequest(t *testing.T, app *fiber.App, method, target, body string) (*http.Response, string) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, target, err)
	}
	raw, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	return resp, string(raw)
}

func TestListDataPoints_ParsesFilters(t *testing.T) {
	q := &fakeQuery{points: []models.DataPoint{{ID: 7, Symbol: "BTC", SourceType: models.SourceCrypto, Value: decimal.RequireFromString("1.5")}}}
	app := newDataPointApp(q, nil)

	resp, body := doRequest(t, app, http.MethodGet, "/api/v1/datapoints?source_type=Crypto&symbol=BTC&hours=6", "")
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, body)
	}
	if q.lastFilter.SourceType != models.SourceCrypto || q.lastFilter.Symbol != "BTC" || q.lastFilter.Hours != 6 {
		t.Fatalf("unexpected filter %+v", q.lastFilter)
	}

	var payload struct {
		Results []map[string]interface{} `json:"results"`
		Count   int                      `json:"count"`
	}
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Count != 1 || payload.Results[0]["value"] != "1.5" {
		t.Fatalf("unexpected payload %s", body)
	}
}

func TestListDataPoints_RejectsBadQuery(t *testing.T) {
	app := newDataPointApp(&fakeQuery{}, nil)
	for _, target := range []string{
		"/api/v1/datapoints?hours=0",
		"/api/v1/datapoints?hours=abc",
		"/api/v1/datapoints?source_type=forex",
		"/api/v1/datapoints/chart-data?hours=-3",
	} {
		resp, body := doRequest(t, app, http.MethodGet, target, "")
		if resp.StatusCode != fiber.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d: %s", target, resp.StatusCode, body)
		}
	}
}

func TestGetDataPoint_NotFound(t *testing.T) {
	app := newDataPointApp(&fakeQuery{}, nil)
	resp, _ := doRequest(t, app, http.MethodGet, "/api/v1/datapoints/99", "")
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	resp, _ = doRequest(t, app, http.MethodGet, "/api/v1/datapoints/abc", "")
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400 for non-numeric id, got %d", resp.StatusCode)
	}
}

func TestChartAndSummary(t *testing.T) {
	app := newDataPointApp(&fakeQuery{}, nil)

	_, chart := doRequest(t, app, http.MethodGet, "/api/v1/datapoints/chart-data?symbol=BTC", "")
	if !strings.Contains(chart, `"label":"BTC: 1.5"`) {
		t.Fatalf("unexpected chart body %s", chart)
	}

	_, summary := doRequest(t, app, http.MethodGet, "/api/v1/datapoints/summary", "")
	for _, want := range []string{`"current_value":"50000.12345678"`, `"change_24h":null`, `"change_24h_percent":null`, `"total_data_points":1`} {
		if !strings.Contains(summary, want) {
			t.Fatalf("expected %s in %s", want, summary)
		}
	}
}

func TestStreamCollections(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	defer mr.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer redisClient.Close()

	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	bus := services.NewEventBus(redisClient)
	hub := services.NewStreamHub(hubCtx, bus)
	app := newDataPointApp(&fakeQuery{}, hub)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go func() { _ = app.Listener(ln) }()
	defer app.Shutdown()
	baseURL := "http://" + ln.Addr().String()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/api/v1/datapoints/stream", nil)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("failed to call SSE endpoint: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Fatalf("unexpected content type %q", ct)
	}

	waitFor(t, func() bool {
		counts, err := redisClient.PubSubNumSub(ctx, services.CollectionEventChannel).Result()
		return err == nil && counts[services.CollectionEventChannel] > 0 && hub.Listeners() > 0
	})

	go func() {
		_ = bus.PublishCollected(context.Background(), services.CollectionEvent{
			RoundID:    "round-1",
			SourceType: models.SourceCrypto,
			Count:      4,
		})
	}()

	reader := bufio.NewReader(resp.Body)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			t.Fatalf("failed to read SSE stream: %v", err)
		}
		if strings.HasPrefix(line, "data: ") {
			if !strings.Contains(line, `"round_id":"round-1"`) || !strings.Contains(line, `"count":4`) {
				t.Fatalf("unexpected event %q", line)
			}
			return
		}
	}
}

func TestStreamCollections_Unavailable(t *testing.T) {
	app := newDataPointApp(&fakeQuery{}, nil)
	resp, _ := doRequest(t, app, http.MethodGet, "/api/v1/datapoints/stream", "")
	if resp.StatusCode != fiber.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}
