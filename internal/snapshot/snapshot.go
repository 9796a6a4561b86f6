// Package snapshot holds the active provider registry and tells listeners when it
// changes.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/TimurManjosov/goprofiles/internal/profile"
	"github.com/TimurManjosov/goprofiles/internal/providers"
	"github.com/TimurManjosov/goprofiles/internal/store"
	"github.com/TimurManjosov/goprofiles/internal/validation"
)

// Registry is an immutable set of resolution services together with a
// description of what is registered.
type Registry struct {
	Services    *profile.Services `json:"-"`
	Providers   []profile.Info    `json:"providers"`
	Definitions int               `json:"definitions"`
	// Skipped lists definitions that failed validation and were not registered.
	Skipped   map[string]string `json:"skipped,omitempty"`
	ETag      string            `json:"etag"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// Options configure Build.
type Options struct {
	EnabledExperimentalIDs []string
	ExtraLogsFamilies      []string
	Precedence             profile.Precedence
	Observer               profile.Observer
}

var current atomic.Pointer[Registry]

// Load returns the active registry. Before the first Update it returns a
// registry with the built-in providers only.
func Load() *Registry {
	if r := current.Load(); r != nil {
		return r
	}
	r, err := Build(nil, Options{})
	if err != nil {
		// Built-in providers always register; reaching this is a programming error.
		panic(fmt.Sprintf("snapshot: build built-in registry: %v", err))
	}
	current.CompareAndSwap(nil, r)
	return current.Load()
}

// Update makes r the active registry and notifies subscribers when its ETag
// differs from the previous one.
func Update(r *Registry) {
	prev := current.Swap(r)
	if prev == nil || prev.ETag != r.ETag {
		publishUpdate(r.ETag)
	}
}

// Build creates a registry from the built-in providers and defs. Definitions that
// fail validation are skipped and reported in Registry.Skipped.
func Build(defs []store.Definition, opts Options) (*Registry, error) {
	svcOpts := []profile.Option{profile.WithPrecedence(opts.Precedence)}
	if opts.Observer != nil {
		svcOpts = append(svcOpts, profile.WithObserver(opts.Observer))
	}
	services := profile.NewServices(svcOpts...)

	reserved := providers.BuiltinIDs()
	valid := make([]store.Definition, 0, len(defs))
	skipped := make(map[string]string)
	for _, def := range defs {
		result := validation.ValidateDefinition(def, reserved...)
		if !result.Valid {
			skipped[def.ID] = summarize(result.Errors)
			continue
		}
		valid = append(valid, def)
	}

	err := providers.RegisterAll(services, providers.Options{
		EnabledExperimentalIDs: opts.EnabledExperimentalIDs,
		ExtraLogsFamilies:      opts.ExtraLogsFamilies,
		Definitions:            valid,
	})
	if err != nil {
		return nil, fmt.Errorf("register providers: %w", err)
	}

	infos := services.Providers()
	etag, err := computeETag(infos, valid)
	if err != nil {
		return nil, err
	}
	if len(skipped) == 0 {
		skipped = nil
	}
	return &Registry{
		Services:    services,
		Providers:   infos,
		Definitions: len(valid),
		Skipped:     skipped,
		ETag:        etag,
		UpdatedAt:   time.Now().UTC(),
	}, nil
}

// Reload rebuilds the registry from the definitions in st and activates it.
func Reload(ctx context.Context, st store.Store, opts Options) (*Registry, error) {
	defs, err := st.ListDefinitions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list definitions: %w", err)
	}
	r, err := Build(defs, opts)
	if err != nil {
		return nil, err
	}
	Update(r)
	return r, nil
}

// computeETag hashes the provider listing and the definitions behind it, so
// changing what a definition matches changes the ETag even when its ID does not.
func computeETag(infos []profile.Info, defs []store.Definition) (string, error) {
	normalized := make([]store.Definition, 0, len(defs))
	for _, d := range defs {
		d = d.Clone()
		d.UpdatedAt = time.Time{}
		normalized = append(normalized, d)
	}
	sort.Slice(normalized, func(i, j int) bool { return normalized[i].ID < normalized[j].ID })

	blob, err := json.Marshal(struct {
		Providers   []profile.Info     `json:"providers"`
		Definitions []store.Definition `json:"definitions"`
	}{infos, normalized})
	if err != nil {
		return "", fmt.Errorf("encode registry: %w", err)
	}
	return fmt.Sprintf(`W/"%016x"`, xxhash.Sum64(blob)), nil
}

func summarize(errs map[string]string) string {
	fields := make([]string, 0, len(errs))
	for f := range errs {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	out := ""
	for i, f := range fields {
		if i > 0 {
			out += "; "
		}
		out += f + ": " + errs[f]
	}
	return out
}
