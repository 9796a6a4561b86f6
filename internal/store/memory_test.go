package store

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/TimurManjosov/goprofiles/internal/profile"
	"github.com/TimurManjosov/goprofiles/internal/rules"
)

func TestMemoryStore_UpsertAndGet(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	expr := `fields["data_stream.type"] == "audit"`
	def := Definition{
		ID:           "audit-document-profile",
		Tier:         profile.TierDocument,
		Description:  "Audit events",
		DocumentType: profile.DocumentLog,
		Conditions:   []rules.Condition{{Field: "event.kind", Operator: rules.OpEq, Value: "event"}},
		Expression:   &expr,
	}

	stored, err := store.UpsertDefinition(ctx, def)
	if err != nil {
		t.Fatalf("UpsertDefinition failed: %v", err)
	}
	if stored.UpdatedAt.IsZero() {
		t.Error("Expected UpdatedAt to be set")
	}

	got, err := store.GetDefinition(ctx, "audit-document-profile")
	if err != nil {
		t.Fatalf("GetDefinition failed: %v", err)
	}
	if got.Tier != profile.TierDocument {
		t.Errorf("Expected tier document, got %q", got.Tier)
	}
	if got.Expression == nil || *got.Expression != expr {
		t.Errorf("Expected expression %q, got %v", expr, got.Expression)
	}
	if len(got.Conditions) != 1 || got.Conditions[0].Field != "event.kind" {
		t.Errorf("Unexpected conditions: %+v", got.Conditions)
	}
}

func TestMemoryStore_GetNotFound(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.GetDefinition(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStore_ListOrderedByID(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	for _, id := range []string{"c", "a", "b"} {
		if _, err := store.UpsertDefinition(ctx, Definition{ID: id, Tier: profile.TierDataSource}); err != nil {
			t.Fatalf("UpsertDefinition failed: %v", err)
		}
	}

	defs, err := store.ListDefinitions(ctx)
	if err != nil {
		t.Fatalf("ListDefinitions failed: %v", err)
	}
	var ids []string
	for _, d := range defs {
		ids = append(ids, d.ID)
	}
	if len(ids) != 3 || ids[0] != "a" || ids[1] != "b" || ids[2] != "c" {
		t.Errorf("Expected [a b c], got %v", ids)
	}
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	patterns := []string{"logs-app"}
	if _, err := store.UpsertDefinition(ctx, Definition{ID: "app", Tier: profile.TierDataSource, IndexPatterns: patterns}); err != nil {
		t.Fatalf("UpsertDefinition failed: %v", err)
	}
	patterns[0] = "mutated"

	got, _ := store.GetDefinition(ctx, "app")
	got.IndexPatterns[0] = "mutated-again"

	again, _ := store.GetDefinition(ctx, "app")
	if again.IndexPatterns[0] != "logs-app" {
		t.Errorf("Stored definition was mutated: %v", again.IndexPatterns)
	}
}

func TestMemoryStore_DeleteIdempotent(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if _, err := store.UpsertDefinition(ctx, Definition{ID: "x", Tier: profile.TierDataSource}); err != nil {
		t.Fatalf("UpsertDefinition failed: %v", err)
	}
	if err := store.DeleteDefinition(ctx, "x"); err != nil {
		t.Fatalf("DeleteDefinition failed: %v", err)
	}
	if err := store.DeleteDefinition(ctx, "x"); err != nil {
		t.Fatalf("Second DeleteDefinition should be a no-op, got %v", err)
	}
	if _, err := store.GetDefinition(ctx, "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = store.UpsertDefinition(ctx, Definition{ID: "shared", Tier: profile.TierDataSource})
		}()
		go func() {
			defer wg.Done()
			_, _ = store.ListDefinitions(ctx)
		}()
	}
	wg.Wait()

	defs, _ := store.ListDefinitions(ctx)
	if len(defs) != 1 {
		t.Errorf("Expected 1 definition, got %d", len(defs))
	}
}
