package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/datadash-project/backend/internal/models"
	"github.com/datadash-project/backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type fakeDataSources struct {
	filter  services.DataSourceFilter
	created services.DataSourceInput
	patched services.DataSourceInput
	err     error
}

func (f *fakeDataSources) List(_ context.Context, df services.DataSourceFilter) ([]models.DataSource, error) {
	f.filter = df
	return []models.DataSource{}, f.err
}

func (f *fakeDataSources) Get(_ context.Context, id uint64) (*models.DataSource, error) {
	if id != 1 {
		return nil, services.ErrNotFound
	}
	return &models.DataSource{ID: 1, Name: "CoinGecko"}, nil
}

func (f *fakeDataSources) Create(_ context.Context, in services.DataSourceInput) (*models.DataSource, error) {
	f.created = in
	if f.err != nil {
		return nil, f.err
	}
	return &models.DataSource{ID: 2, Name: *in.Name}, nil
}

func (f *fakeDataSources) Replace(ctx context.Context, id uint64, in services.DataSourceInput) (*models.DataSource, error) {
	return f.Get(ctx, id)
}

func (f *fakeDataSources) Patch(ctx context.Context, id uint64, in services.DataSourceInput) (*models.DataSource, error) {
	f.patched = in
	return f.Get(ctx, id)
}

func (f *fakeDataSources) Delete(_ context.Context, id uint64) error {
	if id != 1 {
		return services.ErrNotFound
	}
	return nil
}

func newDataSourceApp(store DataSourceStore) *fiber.App {
	h := NewDataSourceHandler(store)
	app := fiber.New()
	app.Get("/api/v1/datasources", h.ListDataSources)
	app.Post("/api/v1/datasources", h.CreateDataSource)
	app.Get("/api/v1/datasources/:id", h.GetDataSource)
	app.Put("/api/v1/datasources/:id", h.ReplaceDataSource)
	app.Patch("/api/v1/datasources/:id", h.PatchDataSource)
	app.Delete("/api/v1/datasources/:id", h.DeleteDataSource)
	return app
}

func TestListDataSources_IsActiveFilter(t *testing.T) {
	cases := []struct {
		query string
		want  *bool
	}{
		{"", nil},
		{"?is_active=TRUE", boolPtr(true)},
		{"?is_active=yes", boolPtr(false)},
		{"?is_active=", boolPtr(false)},
	}
	for _, tc := range cases {
		store := &fakeDataSources{}
		resp, body := doRequest(t, newDataSourceApp(store), http.MethodGet, "/api/v1/datasources"+tc.query, "")
		if resp.StatusCode != fiber.StatusOK {
			t.Fatalf("%q: expected 200, got %d: %s", tc.query, resp.StatusCode, body)
		}
		got := store.filter.IsActive
		if (got == nil) != (tc.want == nil) || (got != nil && *got != *tc.want) {
			t.Fatalf("%q: unexpected is_active filter %v", tc.query, got)
		}
	}
}

func TestCreateDataSource_StatusMapping(t *testing.T) {
	store := &fakeDataSources{}
	app := newDataSourceApp(store)

	resp, body := doRequest(t, app, http.MethodPost, "/api/v1/datasources", `{"name":"CoinGecko","source_type":"crypto","api_url":"https://api.coingecko.com","symbols":["bitcoin"]}`)
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.StatusCode, body)
	}
	if store.created.SourceType == nil || *store.created.SourceType != models.SourceCrypto || len(store.created.Symbols) != 1 {
		t.Fatalf("body not decoded: %+v", store.created)
	}

	for _, tc := range []struct {
		err  error
		code int
	}{
		{services.ErrDuplicateName, fiber.StatusConflict},
		{fmt.Errorf("%w: name: required", services.ErrInvalidInput), fiber.StatusBadRequest},
		{fmt.Errorf("connection refused"), fiber.StatusInternalServerError},
	} {
		app := newDataSourceApp(&fakeDataSources{err: tc.err})
		resp, body := doRequest(t, app, http.MethodPost, "/api/v1/datasources", `{"name":"x"}`)
		if resp.StatusCode != tc.code {
			t.Fatalf("%v: expected %d, got %d: %s", tc.err, tc.code, resp.StatusCode, body)
		}
		if tc.code == fiber.StatusInternalServerError && strings.Contains(body, "connection refused") {
			t.Fatalf("internal error leaked to client: %s", body)
		}
	}
}

func TestPatchAndDeleteDataSource(t *testing.T) {
	store := &fakeDataSources{}
	app := newDataSourceApp(store)

	resp, _ := doRequest(t, app, http.MethodPatch, "/api/v1/datasources/1", `{"is_active":false}`)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if store.patched.IsActive == nil || *store.patched.IsActive || store.patched.Name != nil {
		t.Fatalf("unexpected patch input %+v", store.patched)
	}

	resp, _ = doRequest(t, app, http.MethodDelete, "/api/v1/datasources/1", "")
	if resp.StatusCode != fiber.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
	resp, _ = doRequest(t, app, http.MethodDelete, "/api/v1/datasources/5", "")
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

type fakeAlerts struct {
	filter services.AlertFilter
	input  services.AlertInput
}

func (f *fakeAlerts) List(_ context.Context, af services.AlertFilter) ([]models.Alert, error) {
	f.filter = af
	return []models.Alert{}, nil
}

func (f *fakeAlerts) Get(context.Context, uint64) (*models.Alert, error) {
	return nil, services.ErrNotFound
}

func (f *fakeAlerts) Create(_ context.Context, in services.AlertInput) (*models.Alert, error) {
	f.input = in
	return &models.Alert{ID: 1, Symbol: *in.Symbol, ThresholdValue: *in.ThresholdValue}, nil
}

func (f *fakeAlerts) Replace(ctx context.Context, id uint64, _ services.AlertInput) (*models.Alert, error) {
	return f.Get(ctx, id)
}

func (f *fakeAlerts) Patch(ctx context.Context, id uint64, _ services.AlertInput) (*models.Alert, error) {
	return f.Get(ctx, id)
}

func (f *fakeAlerts) Delete(context.Context, uint64) error { return nil }

func TestAlerts_FilterAndCreate(t *testing.T) {
	store := &fakeAlerts{}
	h := NewAlertHandler(store)
	app := fiber.New()
	app.Get("/api/v1/alerts", h.ListAlerts)
	app.Post("/api/v1/alerts", h.CreateAlert)
	app.Put("/api/v1/alerts/:id", h.ReplaceAlert)

	resp, _ := doRequest(t, app, http.MethodGet, "/api/v1/alerts?source_type=stock&symbol=AAPL&is_active=true", "")
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if store.filter.SourceType != models.SourceStock || store.filter.Symbol != "AAPL" || store.filter.IsActive == nil || !*store.filter.IsActive {
		t.Fatalf("unexpected filter %+v", store.filter)
	}

	resp, _ = doRequest(t, app, http.MethodGet, "/api/v1/alerts?is_active=", "")
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if store.filter.IsActive == nil || *store.filter.IsActive {
		t.Fatalf("expected empty is_active to filter inactive alerts, got %v", store.filter.IsActive)
	}

	resp, body := doRequest(t, app, http.MethodPost, "/api/v1/alerts", `{"source_type":"crypto","symbol":"BTC","condition":"above","threshold_value":"60000.5"}`)
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.StatusCode, body)
	}
	if !strings.Contains(body, `"threshold_value":"60000.5"`) {
		t.Fatalf("expected decimal string threshold in %s", body)
	}

	resp, _ = doRequest(t, app, http.MethodPut, "/api/v1/alerts/3", `{"threshold_value":1}`)
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func boolPtr(b bool) *bool { return &b }
