package integrations_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/datadash-project/backend/internal/integrations"
)

func TestGetJSON_SetsHeadersAndQuery(t *testing.T) {
	var gotUA, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotQuery = r.URL.Query().Get("ids")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	client := integrations.NewClient(integrations.ClientOptions{})
	var out struct {
		OK bool `json:"ok"`
	}
	params := url.Values{"ids": {"bitcoin,ethereum"}}
	if err := client.GetJSON(context.Background(), srv.URL+"/simple/price", params, &out); err != nil {
		t.Fatalf("GetJSON: %v", err)
	}
	if !out.OK {
		t.Fatal("expected decoded body")
	}
	if gotUA != integrations.DefaultUserAgent {
		t.Fatalf("expected User-Agent %q, got %q", integrations.DefaultUserAgent, gotUA)
	}
	if gotQuery != "bitcoin,ethereum" {
		t.Fatalf("unexpected ids query %q", gotQuery)
	}
}

func TestGetJSON_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := integrations.NewClient(integrations.ClientOptions{})
	var out map[string]interface{}
	err := client.GetJSON(context.Background(), srv.URL, nil, &out)

	var statusErr *integrations.StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if statusErr.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", statusErr.StatusCode)
	}
}

func TestGetJSON_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := integrations.NewClient(integrations.ClientOptions{Timeout: 20 * time.Millisecond})
	var out map[string]interface{}
	if err := client.GetJSON(context.Background(), srv.URL, nil, &out); err == nil {
		t.Fatal("expected timeout error")
	}
}
