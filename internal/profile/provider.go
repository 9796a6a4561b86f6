package profile

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrInvalidProvider is returned when a provider cannot be registered.
var ErrInvalidProvider = errors.New("invalid profile provider")

// Identified is implemented by every provider kind so registration helpers can gate
// and order providers without knowing their input or context types.
type Identified interface {
	ID() string
	Experimental() bool
	Rank() int
}

// Provider claims a synchronous resolution when its Resolve predicate matches.
type Provider[In, C any] struct {
	ProfileID      string
	IsExperimental bool
	// Priority orders providers under PrecedencePriority; higher goes first.
	Priority int
	Profile  Profile[C]
	Resolve  func(In) MatchResult[C]
}

func (p Provider[In, C]) ID() string         { return p.ProfileID }
func (p Provider[In, C]) Experimental() bool { return p.IsExperimental }
func (p Provider[In, C]) Rank() int          { return p.Priority }

// AsyncProvider is a Provider whose predicate may block and fail.
type AsyncProvider[In, C any] struct {
	ProfileID      string
	IsExperimental bool
	Priority       int
	Profile        Profile[C]
	Resolve        func(context.Context, In) (MatchResult[C], error)
}

func (p AsyncProvider[In, C]) ID() string         { return p.ProfileID }
func (p AsyncProvider[In, C]) Experimental() bool { return p.IsExperimental }
func (p AsyncProvider[In, C]) Rank() int          { return p.Priority }

// Precedence decides which of several matching providers wins.
type Precedence string

const (
	// PrecedenceRegistration lets the first registered matching provider win.
	PrecedenceRegistration Precedence = "registration"
	// PrecedencePriority orders providers by descending Priority; providers with equal
	// priority keep their registration order.
	PrecedencePriority Precedence = "priority"
)

// ParsePrecedence parses a policy name. The empty string selects PrecedenceRegistration.
func ParsePrecedence(s string) (Precedence, error) {
	switch Precedence(strings.ToLower(strings.TrimSpace(s))) {
	case "", PrecedenceRegistration:
		return PrecedenceRegistration, nil
	case PrecedencePriority:
		return PrecedencePriority, nil
	default:
		return "", fmt.Errorf("unknown precedence policy %q (want %q or %q)", s, PrecedenceRegistration, PrecedencePriority)
	}
}

// Registrar accepts providers of one kind.
type Registrar[P any] interface {
	Register(P) error
}

// RegisterOptions gate which providers are registered.
type RegisterOptions struct {
	// EnabledExperimentalIDs allowlists experimental providers by profile ID.
	EnabledExperimentalIDs []string
}

// IsEnabled reports whether p may be registered under opts: non-experimental
// providers always are, experimental ones only when allowlisted.
func IsEnabled(p Identified, opts RegisterOptions) bool {
	return !p.Experimental() || slices.Contains(opts.EnabledExperimentalIDs, p.ID())
}

// RegisterEnabled registers every enabled provider with r, in order. Duplicate IDs are
// not filtered.
func RegisterEnabled[P Identified](r Registrar[P], providers []P, opts RegisterOptions) error {
	for _, p := range providers {
		if !IsEnabled(p, opts) {
			continue
		}
		if err := r.Register(p); err != nil {
			return err
		}
	}
	return nil
}

// Info describes a registered provider.
type Info struct {
	ProfileID    string `json:"profileId"`
	Tier         Tier   `json:"tier"`
	Experimental bool   `json:"experimental"`
	Priority     int    `json:"priority"`
	Default      bool   `json:"default,omitempty"`
}

func validateProvider(id string, hasResolve bool) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: profile id must not be empty", ErrInvalidProvider)
	}
	if !hasResolve {
		return fmt.Errorf("%w: provider %q has no resolve function", ErrInvalidProvider, id)
	}
	return nil
}
