package db

import (
	"context"
	"strings"
	"testing"
)

func TestMigrationFilesEmbedded(t *testing.T) {
	names, err := MigrationFiles()
	if err != nil {
		t.Fatalf("MigrationFiles: %v", err)
	}
	if len(names) == 0 {
		t.Fatal("expected at least one embedded migration")
	}
	for _, n := range names {
		if !strings.HasSuffix(n, ".sql") {
			t.Errorf("unexpected migration file %q", n)
		}
	}

	body, err := migrations.ReadFile("migrations/" + names[0])
	if err != nil {
		t.Fatalf("read migration: %v", err)
	}
	if !strings.Contains(string(body), "-- +goose Up") {
		t.Error("first migration has no goose Up section")
	}
}

func TestNewPool_InvalidDSN(t *testing.T) {
	_, err := NewPool(context.Background(), "invalid-dsn")
	if err == nil {
		t.Fatal("expected error for invalid DSN")
	}
	if !strings.Contains(err.Error(), "invalid database DSN") {
		t.Errorf("unexpected error: %v", err)
	}
}
