package providers

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/TimurManjosov/goprofiles/internal/engine"
	"github.com/TimurManjosov/goprofiles/internal/indexpattern"
	"github.com/TimurManjosov/goprofiles/internal/profile"
	"github.com/TimurManjosov/goprofiles/internal/store"
	"github.com/TimurManjosov/goprofiles/internal/targeting"
)

// DataSourceFromDefinition compiles a data-source definition. Definitions of
// category logs inherit the extension points of the logs profile.
func DataSourceFromDefinition(def store.Definition) (profile.DataSourceProvider, error) {
	if def.Tier != profile.TierDataSource {
		return profile.DataSourceProvider{}, fmt.Errorf("definition %s: tier %q is not %q", def.ID, def.Tier, profile.TierDataSource)
	}
	if len(def.IndexPatterns) == 0 {
		return profile.DataSourceProvider{}, fmt.Errorf("definition %s: no index patterns", def.ID)
	}

	category := def.Category
	if category == "" {
		category = profile.CategoryDefault
	}

	var p profile.Profile[profile.DataSourceContext]
	if category == profile.CategoryLogs {
		p = logsProfile()
	}
	if cols := columnsOf(def.DefaultColumns); len(cols) > 0 {
		p = p.Extend(profile.Profile[profile.DataSourceContext]{GetDefaultAppState: defaultColumns[profile.DataSourceContext](cols)})
	}

	return profile.DataSourceProvider{
		ProfileID:      def.ID,
		IsExperimental: def.Experimental,
		Priority:       def.Priority,
		Profile:        p,
		Resolve:        categoryResolver(indexpattern.NewMatcher(def.IndexPatterns...).MatchPattern, category),
	}, nil
}

// DocumentFromDefinition compiles a document definition. A record matches when
// it satisfies every condition and the expression, if any. Expression errors
// count as no match.
func DocumentFromDefinition(def store.Definition) (profile.DocumentProvider, error) {
	if def.Tier != profile.TierDocument {
		return profile.DocumentProvider{}, fmt.Errorf("definition %s: tier %q is not %q", def.ID, def.Tier, profile.TierDocument)
	}

	var prg *targeting.Program
	if def.Expression != nil {
		var err error
		if prg, err = targeting.Compile(*def.Expression); err != nil {
			return profile.DocumentProvider{}, fmt.Errorf("definition %s: %w", def.ID, err)
		}
	}
	if prg == nil && len(def.Conditions) == 0 {
		return profile.DocumentProvider{}, fmt.Errorf("definition %s: no conditions or expression", def.ID)
	}

	docType := def.DocumentType
	if docType == "" {
		docType = profile.DocumentDefault
	}
	conditions := def.Clone().Conditions
	id := def.ID

	return profile.DocumentProvider{
		ProfileID:      def.ID,
		IsExperimental: def.Experimental,
		Priority:       def.Priority,
		Resolve: func(in profile.DocumentInput) profile.MatchResult[profile.DocumentContext] {
			if !engine.MatchConditions(in.Record, conditions) {
				return profile.NoMatch[profile.DocumentContext]()
			}
			if prg != nil {
				ok, err := prg.Match(in.Record)
				if err != nil {
					log.Debug().Err(err).Str("profile_id", id).Str("record_id", in.Record.ID).Msg("definition expression did not evaluate")
				}
				if !ok {
					return profile.NoMatch[profile.DocumentContext]()
				}
			}
			return profile.Match(profile.DocumentContext{Type: docType})
		},
	}, nil
}

func columnsOf(names []string) []profile.Column {
	cols := make([]profile.Column, 0, len(names))
	for _, n := range names {
		cols = append(cols, profile.Column{Name: n})
	}
	return cols
}
