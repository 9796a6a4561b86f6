package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/TimurManjosov/goprofiles/internal/profile"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReadDefinitions(t *testing.T) {
	t.Run("single yaml definition", func(t *testing.T) {
		path := writeFile(t, "acme.yaml", `
id: acme-logs
tier: data_source
indexPatterns: [acme-app]
category: logs
`)
		defs, err := readDefinitions(path)
		if err != nil {
			t.Fatalf("readDefinitions: %v", err)
		}
		if len(defs) != 1 || defs[0].ID != "acme-logs" || defs[0].Category != profile.CategoryLogs {
			t.Errorf("got %+v", defs)
		}
	})

	t.Run("export file", func(t *testing.T) {
		path := writeFile(t, "export.yaml", `
version: v1
definitions:
  - id: a
    tier: data_source
    indexPatterns: [a]
    category: metrics
  - id: b
    tier: document
    documentType: log
    conditions:
      - field: log.level
        operator: eq
        value: error
`)
		defs, err := readDefinitions(path)
		if err != nil {
			t.Fatalf("readDefinitions: %v", err)
		}
		if len(defs) != 2 || defs[1].Conditions[0].Field != "log.level" {
			t.Errorf("got %+v", defs)
		}
	})

	t.Run("json definition", func(t *testing.T) {
		path := writeFile(t, "acme.json", `{"id":"acme","tier":"data_source","indexPatterns":["acme"],"category":"logs"}`)
		defs, err := readDefinitions(path)
		if err != nil || len(defs) != 1 {
			t.Fatalf("readDefinitions = %v, %v", defs, err)
		}
	})

	t.Run("empty file", func(t *testing.T) {
		path := writeFile(t, "empty.yaml", "version: v1\n")
		if _, err := readDefinitions(path); err == nil {
			t.Error("expected error for file without definitions")
		}
	})

	t.Run("no path", func(t *testing.T) {
		if _, err := readDefinitions(""); err == nil {
			t.Error("expected error without -f")
		}
	})
}

func resetResolveFlags(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		resolveSolution, resolveQuery, resolveDataView, resolveTimeField, resolveRecords = "", "", "", "", ""
		resolveFields = nil
	})
}

func TestBuildResolveRequest(t *testing.T) {
	t.Run("query with fields", func(t *testing.T) {
		resetResolveFlags(t)
		resolveQuery = "FROM logs-nginx.error-* | LIMIT 10"
		resolveFields = []string{"log.level", " "}
		resolveSolution = "oblt"

		req, err := buildResolveRequest()
		if err != nil {
			t.Fatalf("buildResolveRequest: %v", err)
		}
		if req.DataSource.Type != profile.DataSourceESQL || req.Query == nil {
			t.Errorf("data source = %+v", req.DataSource)
		}
		if req.SolutionNavID == nil || *req.SolutionNavID != "oblt" {
			t.Errorf("solution = %v", req.SolutionNavID)
		}
		if req.DataView == nil || req.DataView.Title != "logs-nginx.error-*" || !req.DataView.HasField("log.level") || len(req.DataView.Fields) != 1 {
			t.Errorf("data view = %+v", req.DataView)
		}
	})

	t.Run("data view with records", func(t *testing.T) {
		resetResolveFlags(t)
		resolveDataView = "logs-app-*"
		resolveTimeField = "@timestamp"
		resolveRecords = writeFile(t, "recs.json", `[{"id":"r1","flattened":{"log.level":"error"}},{"id":"r2","flattened":{}}]`)

		req, err := buildResolveRequest()
		if err != nil {
			t.Fatalf("buildResolveRequest: %v", err)
		}
		if req.DataSource.DataViewID != "logs-app-*" || req.DataView.TimeFieldName != "@timestamp" {
			t.Errorf("data view = %+v", req.DataView)
		}
		if len(req.Records) != 2 || req.Records[0].ID != "r1" {
			t.Errorf("records = %+v", req.Records)
		}
	})

	t.Run("single record file", func(t *testing.T) {
		resetResolveFlags(t)
		resolveDataView = "logs-app-*"
		resolveRecords = writeFile(t, "rec.json", `{"id":"only","flattened":{"message":"hi"}}`)

		req, err := buildResolveRequest()
		if err != nil {
			t.Fatalf("buildResolveRequest: %v", err)
		}
		if len(req.Records) != 1 || req.Records[0].ID != "only" {
			t.Errorf("records = %+v", req.Records)
		}
	})

	t.Run("source required", func(t *testing.T) {
		resetResolveFlags(t)
		if _, err := buildResolveRequest(); err == nil {
			t.Error("expected error without --query or --data-view")
		}
	})

	t.Run("sources exclusive", func(t *testing.T) {
		resetResolveFlags(t)
		resolveQuery, resolveDataView = "FROM a", "b"
		if _, err := buildResolveRequest(); err == nil {
			t.Error("expected error with both --query and --data-view")
		}
	})
}

func TestMaskKey(t *testing.T) {
	if got := maskKey("admin-123"); got != "admi***" {
		t.Errorf("maskKey = %q", got)
	}
	if got := maskKey("abc"); got != "***" {
		t.Errorf("maskKey = %q", got)
	}
}
