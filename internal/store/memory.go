package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory implementation of the Store interface.
// It uses a map for storage and RWMutex for thread-safe concurrent access.
// This implementation is suitable for development, testing, or single-instance deployments.
type MemoryStore struct {
	mu   sync.RWMutex
	defs map[string]Definition // id -> Definition
	now  func() time.Time
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		defs: make(map[string]Definition),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// ListDefinitions retrieves all definitions ordered by ID.
func (m *MemoryStore) ListDefinitions(ctx context.Context) ([]Definition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]Definition, 0, len(m.defs))
	for _, def := range m.defs {
		result = append(result, def.Clone())
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// GetDefinition retrieves a single definition by ID.
func (m *MemoryStore) GetDefinition(ctx context.Context, id string) (*Definition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	def, exists := m.defs[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	out := def.Clone()
	return &out, nil
}

// UpsertDefinition creates or replaces a definition in memory.
func (m *MemoryStore) UpsertDefinition(ctx context.Context, def Definition) (Definition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := def.Clone()
	stored.UpdatedAt = m.now()
	m.defs[def.ID] = stored
	return stored.Clone(), nil
}

// DeleteDefinition removes a definition from memory.
func (m *MemoryStore) DeleteDefinition(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Idempotent: no error if the definition doesn't exist
	delete(m.defs, id)
	return nil
}

// Close is a no-op for MemoryStore as there are no resources to release.
func (m *MemoryStore) Close() error {
	return nil
}
