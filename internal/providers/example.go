package providers

import (
	"github.com/TimurManjosov/goprofiles/internal/profile"
)

// Experimental example profile IDs. They are only registered when allowlisted.
const (
	ExampleDataSourceProfileID = "example-data-source-profile"
	ExampleDocumentProfileID   = "example-document-profile"

	exampleIndexPattern = "my-example-logs"
	exampleStreamType   = "example"
)

func exampleDataSourceProvider() profile.DataSourceProvider {
	return profile.DataSourceProvider{
		ProfileID:      ExampleDataSourceProfileID,
		IsExperimental: true,
		Profile: profile.Profile[profile.DataSourceContext]{
			GetCellRenderers:        extendRenderers[profile.DataSourceContext]([]string{"log.level"}, renderLogLevel),
			GetRowIndicatorProvider: logLevelRowIndicator,
			GetDefaultAppState: defaultColumns[profile.DataSourceContext]([]profile.Column{
				{Name: "log.level", Width: 120},
				{Name: "message"},
			}),
		},
		Resolve: categoryResolver(func(pattern string) bool { return pattern == exampleIndexPattern }, profile.CategoryLogs),
	}
}

func exampleDocumentProvider() profile.DocumentProvider {
	return profile.DocumentProvider{
		ProfileID:      ExampleDocumentProfileID,
		IsExperimental: true,
		Resolve: func(in profile.DocumentInput) profile.MatchResult[profile.DocumentContext] {
			if v, _ := in.Record.StringValue("data_stream.type"); v != exampleStreamType {
				return profile.NoMatch[profile.DocumentContext]()
			}
			return profile.Match(profile.DocumentContext{Type: profile.DocumentLog})
		},
	}
}
