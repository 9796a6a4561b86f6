package providers

import (
	"context"

	"github.com/TimurManjosov/goprofiles/internal/profile"
)

// Root profile IDs.
const (
	ObservabilityRootProfileID = "observability-root-profile"
	SecurityRootProfileID      = "security-root-profile"
	SearchRootProfileID        = "search-root-profile"
	ExampleRootProfileID       = "example-root-profile"
)

// Solution navigation IDs as sent by clients.
const (
	NavObservability = "oblt"
	NavSecurity      = "security"
	NavSearch        = "es"
)

// securityEntityFields are rendered as entity badges in the security solution.
var securityEntityFields = []string{"host.name", "user.name", "source.ip", "destination.ip"}

func rootProviders() []profile.RootProvider {
	return []profile.RootProvider{
		exampleRootProvider(),
		solutionRootProvider(SecurityRootProfileID, NavSecurity, profile.SolutionSecurity, profile.Profile[profile.RootContext]{
			GetCellRenderers: extendRenderers[profile.RootContext](securityEntityFields, renderEntity),
		}),
		solutionRootProvider(ObservabilityRootProfileID, NavObservability, profile.SolutionObservability, profile.Profile[profile.RootContext]{}),
		solutionRootProvider(SearchRootProfileID, NavSearch, profile.SolutionSearch, profile.Profile[profile.RootContext]{}),
	}
}

// solutionRootProvider matches when the caller is in the given solution navigation.
func solutionRootProvider(id, navID string, solution profile.SolutionType, p profile.Profile[profile.RootContext]) profile.RootProvider {
	return profile.RootProvider{
		ProfileID: id,
		Profile:   p,
		Resolve: func(_ context.Context, in profile.RootInput) (profile.MatchResult[profile.RootContext], error) {
			if in.SolutionNavID == nil || *in.SolutionNavID != navID {
				return profile.NoMatch[profile.RootContext](), nil
			}
			return profile.Match(profile.RootContext{SolutionType: solution}), nil
		},
	}
}

// exampleRootProvider claims callers outside any solution and renders timestamps
// as badges.
func exampleRootProvider() profile.RootProvider {
	return profile.RootProvider{
		ProfileID:      ExampleRootProfileID,
		IsExperimental: true,
		Profile: profile.Profile[profile.RootContext]{
			GetCellRenderers: extendRenderers[profile.RootContext]([]string{"@timestamp"}, func(rec profile.Record, field string) profile.Cell {
				v, ok := rec.StringValue(field)
				if !ok {
					return profile.Cell{Text: "-"}
				}
				return profile.Cell{Text: v, Color: "hollow", Badge: true}
			}),
		},
		Resolve: func(_ context.Context, in profile.RootInput) (profile.MatchResult[profile.RootContext], error) {
			if in.SolutionNavID != nil {
				return profile.NoMatch[profile.RootContext](), nil
			}
			return profile.Match(profile.RootContext{SolutionType: profile.SolutionDefault}), nil
		},
	}
}

func renderEntity(rec profile.Record, field string) profile.Cell {
	v, ok := rec.FieldValue(field)
	if !ok {
		return profile.Cell{Text: "-"}
	}
	s, ok := v.(string)
	if !ok {
		return profile.Cell{Text: "-"}
	}
	return profile.Cell{Text: s, Color: "primary", Badge: true}
}

// extendRenderers returns a cell renderer extension that keeps the renderers of
// earlier layers and sets render for each of fields.
func extendRenderers[C any](fields []string, render profile.CellRenderer) func(profile.CellRenderersGetter, profile.ExtensionParams[C]) profile.CellRenderersGetter {
	return func(prev profile.CellRenderersGetter, _ profile.ExtensionParams[C]) profile.CellRenderersGetter {
		return func(params profile.CellRenderersParams) map[string]profile.CellRenderer {
			out := make(map[string]profile.CellRenderer)
			if prev != nil {
				for k, v := range prev(params) {
					out[k] = v
				}
			}
			for _, f := range fields {
				out[f] = render
			}
			return out
		}
	}
}
