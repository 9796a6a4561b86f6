package testutil

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/TimurManjosov/goprofiles/internal/api"
	"github.com/TimurManjosov/goprofiles/internal/profile"
	"github.com/TimurManjosov/goprofiles/internal/store"
)

func TestNewTestServer(t *testing.T) {
	server, memStore := NewTestServer(t, "test-key")
	if server == nil || memStore == nil {
		t.Fatal("Expected non-nil server and store")
	}

	rr := (&HTTPRequest{Method: http.MethodGet, Path: "/healthz"}).Do(t, server.Router())
	if rr.Code != http.StatusOK || rr.Body.String() != "ok" {
		t.Errorf("healthz = %d %q", rr.Code, rr.Body.String())
	}
}

func TestHTTPRequest_DoWithBodyAndHeaders(t *testing.T) {
	server, memStore := NewTestServer(t, "test-key")
	handler := server.Router()

	def := DataSourceDefinition("acme-metrics", profile.CategoryMetrics, "acme-metrics")
	body, _ := json.Marshal(def)

	rr := (&HTTPRequest{
		Method:  http.MethodPost,
		Path:    "/v1/definitions",
		Body:    string(body),
		Headers: map[string]string{"Authorization": "Bearer test-key"},
	}).Do(t, handler)
	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}

	if _, err := memStore.GetDefinition(context.Background(), "acme-metrics"); err != nil {
		t.Errorf("definition not stored: %v", err)
	}
}

func TestHTTPRequest_HeaderOverride(t *testing.T) {
	server, _ := NewTestServer(t, "test-key")

	rr := (&HTTPRequest{
		Method:  http.MethodGet,
		Path:    "/v1/definitions",
		Headers: map[string]string{"Authorization": "Bearer wrong"},
	}).Do(t, server.Router())
	if rr.Code != http.StatusForbidden {
		t.Errorf("Expected status 403, got %d", rr.Code)
	}
}

func TestSeedDefinitions(t *testing.T) {
	server, memStore := NewTestServer(t, "test-key")
	ctx := context.Background()

	if err := SeedDefinitions(ctx, memStore, nil); err != nil {
		t.Fatalf("SeedDefinitions(empty) failed: %v", err)
	}

	defs := []store.Definition{
		DataSourceDefinition("acme-logs", profile.CategoryLogs, "acme-app"),
		DataSourceDefinition("acme-traces", profile.CategoryTraces, "acme-apm"),
	}
	if err := SeedDefinitions(ctx, memStore, defs); err != nil {
		t.Fatalf("SeedDefinitions failed: %v", err)
	}
	if _, err := server.Rebuild(ctx, api.TriggerAdmin); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}

	rr := (&HTTPRequest{
		Method: http.MethodPost,
		Path:   "/v1/resolve/data-source",
		Body:   `{"dataSource":{"type":"esql"},"query":{"esql":"FROM acme-apm-prod"}}`,
	}).Do(t, server.Router())

	var got profile.Resolved[profile.DataSourceContext]
	if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ProfileID != "acme-traces" || got.Context.Category != profile.CategoryTraces {
		t.Errorf("resolved %+v, want acme-traces", got)
	}
}

func TestLogRecord(t *testing.T) {
	rec := LogRecord("1", "warn", "disk almost full")
	if v, _ := rec.StringValue("log.level"); v != "warn" {
		t.Errorf("log.level = %q", v)
	}
	if _, ok := LogRecord("2", "", "x").FieldValue("log.level"); ok {
		t.Error("empty level should leave log.level unset")
	}
}
