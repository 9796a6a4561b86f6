package store

import (
	"context"
	"testing"
)

func TestNewStore_Memory(t *testing.T) {
	ctx := context.Background()
	store, err := NewStore(ctx, "memory", "", false)
	if err != nil {
		t.Fatalf("NewStore('memory') failed: %v", err)
	}
	if store == nil {
		t.Fatal("Expected non-nil store")
	}

	// Verify it's a memory store by checking it can store and retrieve
	_, err = store.UpsertDefinition(ctx, Definition{ID: "test", Tier: "data_source", IndexPatterns: []string{"logs-test"}})
	if err != nil {
		t.Fatalf("UpsertDefinition failed: %v", err)
	}

	defs, err := store.ListDefinitions(ctx)
	if err != nil {
		t.Fatalf("ListDefinitions failed: %v", err)
	}
	if len(defs) != 1 {
		t.Errorf("Expected 1 definition, got %d", len(defs))
	}

	store.Close()
}

func TestNewStore_UnsupportedType(t *testing.T) {
	ctx := context.Background()
	_, err := NewStore(ctx, "invalid-type", "", false)
	if err == nil {
		t.Fatal("Expected error for unsupported store type")
	}
	expectedMsg := "unsupported store type: invalid-type"
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message '%s', got '%s'", expectedMsg, err.Error())
	}
}

func TestNewStore_PostgresWithInvalidDSN(t *testing.T) {
	ctx := context.Background()
	// Invalid DSN should fail during pool creation
	_, err := NewStore(ctx, "postgres", "invalid-dsn", false)
	if err == nil {
		t.Fatal("Expected error for invalid DSN")
	}
}

func TestNewStore_CaseSensitivity(t *testing.T) {
	ctx := context.Background()

	// Store type should be case-sensitive (lowercase expected)
	_, err := NewStore(ctx, "Memory", "", false)
	if err == nil {
		t.Error("Expected error for 'Memory' (capital M)")
	}

	// Correct case should work
	store, err := NewStore(ctx, "memory", "", false)
	if err != nil {
		t.Fatalf("NewStore('memory') should work: %v", err)
	}
	store.Close()
}
