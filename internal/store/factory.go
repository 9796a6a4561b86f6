package store

import (
	"context"
	"fmt"

	mydb "github.com/TimurManjosov/goprofiles/internal/db"
)

// NewStore creates a new store based on the given store type.
// Supported types: "memory", "postgres". For postgres, migrate applies the
// embedded schema migrations before the store is returned.
func NewStore(ctx context.Context, storeType, dbDSN string, migrate bool) (Store, error) {
	switch storeType {
	case "memory":
		return NewMemoryStore(), nil
	case "postgres":
		pool, err := mydb.NewPool(ctx, dbDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to create postgres pool: %w", err)
		}
		if migrate {
			if err := mydb.Migrate(ctx, pool); err != nil {
				pool.Close()
				return nil, fmt.Errorf("failed to migrate database: %w", err)
			}
		}
		return NewPostgresStore(pool), nil
	default:
		return nil, fmt.Errorf("unsupported store type: %s", storeType)
	}
}
