package store

import (
	"context"
	"errors"
	"time"

	"github.com/TimurManjosov/goprofiles/internal/profile"
	"github.com/TimurManjosov/goprofiles/internal/rules"
)

// ErrNotFound is returned when a definition does not exist.
var ErrNotFound = errors.New("definition not found")

// Store defines the interface for profile definition persistence.
// Implementations must be thread-safe and support concurrent access.
type Store interface {
	// ListDefinitions retrieves all definitions ordered by ID.
	// Returns an empty slice if there are none.
	ListDefinitions(ctx context.Context) ([]Definition, error)

	// GetDefinition retrieves a single definition by ID.
	// Returns an error wrapping ErrNotFound if it does not exist.
	GetDefinition(ctx context.Context, id string) (*Definition, error)

	// UpsertDefinition creates or replaces a definition and returns the stored
	// version with UpdatedAt set.
	UpsertDefinition(ctx context.Context, def Definition) (Definition, error)

	// DeleteDefinition removes a definition by ID.
	// Returns no error if the definition doesn't exist (idempotent).
	DeleteDefinition(ctx context.Context, id string) error

	// Close releases any resources held by the store.
	// After Close is called, the store should not be used.
	Close() error
}

// Definition declares a profile provider without code. Data-source definitions
// match on IndexPatterns; document definitions match on Conditions and
// Expression, both of which must hold when set.
type Definition struct {
	ID           string       `json:"id" yaml:"id"`
	Tier         profile.Tier `json:"tier" yaml:"tier"`
	Description  string       `json:"description,omitempty" yaml:"description,omitempty"`
	Experimental bool         `json:"experimental,omitempty" yaml:"experimental,omitempty"`
	Priority     int          `json:"priority,omitempty" yaml:"priority,omitempty"`

	// IndexPatterns are the source families a data-source definition claims,
	// e.g. "logs-myapp" claims "logs-myapp-*" and "remote:logs-myapp.prod".
	IndexPatterns []string                   `json:"indexPatterns,omitempty" yaml:"indexPatterns,omitempty"`
	Category      profile.DataSourceCategory `json:"category,omitempty" yaml:"category,omitempty"`

	DocumentType profile.DocumentType `json:"documentType,omitempty" yaml:"documentType,omitempty"`
	Conditions   []rules.Condition    `json:"conditions,omitempty" yaml:"conditions,omitempty"`
	Expression   *string              `json:"expression,omitempty" yaml:"expression,omitempty"`

	DefaultColumns []string  `json:"defaultColumns,omitempty" yaml:"defaultColumns,omitempty"`
	UpdatedAt      time.Time `json:"updatedAt" yaml:"updatedAt,omitempty"`
}

// Clone returns a deep copy of d so callers cannot mutate stored state.
func (d Definition) Clone() Definition {
	out := d
	out.IndexPatterns = cloneSlice(d.IndexPatterns)
	out.Conditions = cloneSlice(d.Conditions)
	out.DefaultColumns = cloneSlice(d.DefaultColumns)
	if d.Expression != nil {
		expr := *d.Expression
		out.Expression = &expr
	}
	return out
}

func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	return append([]T(nil), s...)
}
