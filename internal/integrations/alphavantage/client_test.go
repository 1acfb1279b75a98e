package alphavantage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/datadash-project/backend/internal/integrations"
	"github.com/datadash-project/backend/internal/models"
	"github.com/shopspring/decimal"
)

func TestGetQuotes_NoAPIKeyMakesNoRequests(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "", integrations.NewClient(integrations.ClientOptions{}), nil)
	if got := client.Fetch(context.Background()); len(got) != 0 {
		t.Fatalf("expected no readings without key, got %d", len(got))
	}
	if hits.Load() != 0 {
		t.Fatalf("expected no upstream calls, got %d", hits.Load())
	}
}

func TestGetQuotes_OneRequestPerSymbol(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		q := r.URL.Query()
		if q.Get("function") != "GLOBAL_QUOTE" || q.Get("apikey") != "demo" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		switch q.Get("symbol") {
		case "AAPL":
			w.Write([]byte(`{"Global Quote": {"01. symbol": "AAPL", "05. price": "189.8400", "09. change": "-1.2300", "10. change percent": "-0.6437%"}}`))
		case "MSFT":
			w.Write([]byte(`{"Note": "Thank you for using Alpha Vantage! Our standard API rate limit is 25 requests per day."}`))
		case "TSLA":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.Write([]byte(`{"Global Quote": {}}`))
		}
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "demo", integrations.NewClient(integrations.ClientOptions{}), nil)
	readings := client.GetQuotes(context.Background(), []string{"AAPL", "MSFT", "TSLA", "GOOGL"})

	if hits.Load() != 4 {
		t.Fatalf("expected 4 requests, got %d", hits.Load())
	}
	if len(readings) != 1 {
		t.Fatalf("expected 1 reading, got %d", len(readings))
	}
	r := readings[0]
	if r.Symbol != "AAPL" || !r.Value.Equal(decimal.RequireFromString("189.84")) {
		t.Fatalf("unexpected reading %+v", r)
	}
	meta := r.Metadata.(models.StockMetadata)
	if meta.Change == nil || !meta.Change.Equal(decimal.RequireFromString("-1.23")) {
		t.Fatalf("unexpected change %v", meta.Change)
	}
	if meta.ChangePercent == nil || !meta.ChangePercent.Equal(decimal.RequireFromString("-0.6437")) {
		t.Fatalf("percent sign not stripped: %v", meta.ChangePercent)
	}
}

func TestParseOptionalDecimal(t *testing.T) {
	if parseOptionalDecimal("") != nil {
		t.Fatal("blank should be nil")
	}
	if parseOptionalDecimal("n/a") != nil {
		t.Fatal("garbage should be nil")
	}
	if d := parseOptionalDecimal(" 1.5 "); d == nil || !d.Equal(decimal.RequireFromString("1.5")) {
		t.Fatalf("unexpected %v", d)
	}
}
