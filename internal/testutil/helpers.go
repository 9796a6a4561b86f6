// Package testutil holds helpers shared by HTTP-level tests.
package testutil

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/TimurManjosov/goprofiles/internal/api"
	"github.com/TimurManjosov/goprofiles/internal/profile"
	"github.com/TimurManjosov/goprofiles/internal/store"
)

// NewTestServer creates a server over an in-memory store with the registry
// already built.
func NewTestServer(t *testing.T, adminKey string) (*api.Server, *store.MemoryStore) {
	t.Helper()
	memStore := store.NewMemoryStore()
	server := api.NewServer(memStore, api.Options{AdminAPIKey: adminKey, Logger: zerolog.Nop()})
	if _, err := server.Rebuild(context.Background(), api.TriggerStartup); err != nil {
		t.Fatalf("build registry: %v", err)
	}
	return server, memStore
}

// HTTPRequest is a helper for making test HTTP requests.
type HTTPRequest struct {
	Method  string
	Path    string
	Body    string
	Headers map[string]string
}

// Do executes the HTTP request and returns the response recorder.
func (r *HTTPRequest) Do(t *testing.T, handler http.Handler) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if r.Body != "" {
		body = bytes.NewBufferString(r.Body)
	}
	req := httptest.NewRequest(r.Method, r.Path, body)
	if r.Body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range r.Headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

// SeedDefinitions stores defs in st.
func SeedDefinitions(ctx context.Context, st store.Store, defs []store.Definition) error {
	for _, d := range defs {
		if _, err := st.UpsertDefinition(ctx, d); err != nil {
			return err
		}
	}
	return nil
}

// DataSourceDefinition returns a valid data-source definition claiming families.
func DataSourceDefinition(id string, category profile.DataSourceCategory, families ...string) store.Definition {
	return store.Definition{
		ID:            id,
		Tier:          profile.TierDataSource,
		IndexPatterns: families,
		Category:      category,
	}
}

// LogRecord returns a record with the given log level and message.
func LogRecord(id, level, message string) profile.Record {
	flat := map[string]any{"message": message}
	if level != "" {
		flat["log.level"] = level
	}
	return profile.Record{ID: id, Flattened: flat}
}
