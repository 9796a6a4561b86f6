package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/TimurManjosov/goprofiles/internal/profile"
	"github.com/TimurManjosov/goprofiles/internal/rules"
)

const (
	emptyJSONArray = "[]"

	selectDefinitions = `
SELECT id, tier, description, experimental, priority, index_patterns, category,
       document_type, conditions, expression, default_columns, updated_at
FROM profile_definitions`

	upsertDefinition = `
INSERT INTO profile_definitions (
    id, tier, description, experimental, priority, index_patterns, category,
    document_type, conditions, expression, default_columns, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now())
ON CONFLICT (id) DO UPDATE SET
    tier = EXCLUDED.tier,
    description = EXCLUDED.description,
    experimental = EXCLUDED.experimental,
    priority = EXCLUDED.priority,
    index_patterns = EXCLUDED.index_patterns,
    category = EXCLUDED.category,
    document_type = EXCLUDED.document_type,
    conditions = EXCLUDED.conditions,
    expression = EXCLUDED.expression,
    default_columns = EXCLUDED.default_columns,
    updated_at = now()
RETURNING updated_at`
)

// PostgresStore is a PostgreSQL implementation of the Store interface.
// List-valued fields are stored as JSONB columns.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// ListDefinitions retrieves all definitions ordered by ID.
func (p *PostgresStore) ListDefinitions(ctx context.Context) ([]Definition, error) {
	rows, err := p.pool.Query(ctx, selectDefinitions+" ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	defs := make([]Definition, 0)
	for rows.Next() {
		def, err := scanDefinition(rows)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, rows.Err()
}

// GetDefinition retrieves a single definition by ID from the database.
func (p *PostgresStore) GetDefinition(ctx context.Context, id string) (*Definition, error) {
	row := p.pool.QueryRow(ctx, selectDefinitions+" WHERE id = $1", id)
	def, err := scanDefinition(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, err
	}
	return &def, nil
}

// UpsertDefinition creates or replaces a definition in the database.
func (p *PostgresStore) UpsertDefinition(ctx context.Context, def Definition) (Definition, error) {
	patterns, err := encodeJSONList(def.IndexPatterns)
	if err != nil {
		return Definition{}, err
	}
	conditions, err := encodeJSONList(def.Conditions)
	if err != nil {
		return Definition{}, err
	}
	columns, err := encodeJSONList(def.DefaultColumns)
	if err != nil {
		return Definition{}, err
	}

	stored := def.Clone()
	err = p.pool.QueryRow(ctx, upsertDefinition,
		def.ID,
		string(def.Tier),
		def.Description,
		def.Experimental,
		def.Priority,
		patterns,
		string(def.Category),
		string(def.DocumentType),
		conditions,
		def.Expression,
		columns,
	).Scan(&stored.UpdatedAt)
	if err != nil {
		return Definition{}, err
	}
	stored.UpdatedAt = stored.UpdatedAt.UTC()
	return stored, nil
}

// DeleteDefinition removes a definition from the database.
func (p *PostgresStore) DeleteDefinition(ctx context.Context, id string) error {
	_, err := p.pool.Exec(ctx, "DELETE FROM profile_definitions WHERE id = $1", id)
	return err
}

// Close closes the database connection pool.
func (p *PostgresStore) Close() error {
	p.pool.Close()
	return nil
}

// Ping verifies the database is reachable.
func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// scanDefinition converts one row into a Definition.
func scanDefinition(row pgx.Row) (Definition, error) {
	var (
		def                           Definition
		tier, category, docType       string
		patterns, conditions, columns []byte
		updatedAt                     time.Time
	)
	err := row.Scan(
		&def.ID, &tier, &def.Description, &def.Experimental, &def.Priority,
		&patterns, &category, &docType, &conditions, &def.Expression, &columns, &updatedAt,
	)
	if err != nil {
		return Definition{}, err
	}

	def.Tier = profile.Tier(tier)
	def.Category = profile.DataSourceCategory(category)
	def.DocumentType = profile.DocumentType(docType)
	def.UpdatedAt = updatedAt.UTC()

	if def.IndexPatterns, err = decodeJSONList[string](patterns); err != nil {
		return Definition{}, fmt.Errorf("definition %s: index_patterns: %w", def.ID, err)
	}
	if def.Conditions, err = decodeJSONList[rules.Condition](conditions); err != nil {
		return Definition{}, fmt.Errorf("definition %s: conditions: %w", def.ID, err)
	}
	if def.DefaultColumns, err = decodeJSONList[string](columns); err != nil {
		return Definition{}, fmt.Errorf("definition %s: default_columns: %w", def.ID, err)
	}
	return def, nil
}

func encodeJSONList[T any](items []T) ([]byte, error) {
	if len(items) == 0 {
		return []byte(emptyJSONArray), nil
	}
	return json.Marshal(items)
}

// decodeJSONList decodes a JSONB array column. NULL and empty input yield nil.
func decodeJSONList[T any](raw []byte) ([]T, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var out []T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}
