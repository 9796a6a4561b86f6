package providers

import (
	"slices"

	"github.com/TimurManjosov/goprofiles/internal/indexpattern"
	"github.com/TimurManjosov/goprofiles/internal/profile"
)

// Data-source profile IDs of the logs family.
const (
	LogsDataSourceProfileID                    = "observability-logs-data-source-profile"
	SystemLogsDataSourceProfileID              = "observability-system-logs-data-source-profile"
	NginxAccessLogsDataSourceProfileID         = "observability-nginx-access-logs-data-source-profile"
	NginxErrorLogsDataSourceProfileID          = "observability-nginx-error-logs-data-source-profile"
	ApacheErrorLogsDataSourceProfileID         = "observability-apache-error-logs-data-source-profile"
	KubernetesContainerLogsDataSourceProfileID = "observability-kubernetes-container-logs-data-source-profile"
)

// Leading control IDs added by the logs profile.
const (
	DegradedDocsControlID = "connectedDegradedDocs"
	StacktraceControlID   = "connectedStacktraceDocs"
)

// stacktraceFields hold a stack trace in ECS log documents.
var stacktraceFields = []string{"error.stack_trace", "error.exception.stacktrace", "error.log.stacktrace"}

// timeColumnWidth is the width of the time column prepended to default columns.
const timeColumnWidth = 212

// LogsContext decides which index patterns hold logs.
type LogsContext struct {
	matcher *indexpattern.Matcher
}

// NewLogsContext accepts the default log families plus extraFamilies.
func NewLogsContext(extraFamilies ...string) *LogsContext {
	families := slices.Concat(indexpattern.DefaultLogsFamilies, extraFamilies)
	return &LogsContext{matcher: indexpattern.NewMatcher(families...)}
}

// IsLogsIndexPattern reports whether every source of pattern is a log source.
func (l *LogsContext) IsLogsIndexPattern(pattern string) bool {
	return l.matcher.MatchPattern(pattern)
}

// Families returns the accepted log families.
func (l *LogsContext) Families() []string {
	return l.matcher.Families()
}

type logsSubProfile struct {
	id       string
	families []string
	columns  []profile.Column
}

var logsSubProfiles = []logsSubProfile{
	{
		id:       SystemLogsDataSourceProfileID,
		families: []string{"logs-system.syslog", "logs-system.auth"},
		columns: []profile.Column{
			{Name: "log.level", Width: 150},
			{Name: "process.name", Width: 150},
			{Name: "host.name", Width: 150},
			{Name: "message"},
		},
	},
	{
		id:       NginxAccessLogsDataSourceProfileID,
		families: []string{"logs-nginx.access"},
		columns: []profile.Column{
			{Name: "url.original", Width: 150},
			{Name: "http.response.status_code", Width: 120},
			{Name: "http.request.method", Width: 120},
			{Name: "host.name", Width: 150},
			{Name: "message"},
		},
	},
	{
		id:       NginxErrorLogsDataSourceProfileID,
		families: []string{"logs-nginx.error"},
		columns: []profile.Column{
			{Name: "log.level", Width: 150},
			{Name: "message"},
		},
	},
	{
		id:       ApacheErrorLogsDataSourceProfileID,
		families: []string{"logs-apache.error"},
		columns: []profile.Column{
			{Name: "log.level", Width: 150},
			{Name: "client.ip", Width: 150},
			{Name: "message"},
		},
	},
	{
		id:       KubernetesContainerLogsDataSourceProfileID,
		families: []string{"logs-kubernetes.container_logs"},
		columns: []profile.Column{
			{Name: "log.level", Width: 150},
			{Name: "kubernetes.pod.name", Width: 150},
			{Name: "kubernetes.namespace", Width: 150},
			{Name: "orchestrator.cluster.name", Width: 150},
			{Name: "message"},
		},
	},
}

// logsDataSourceProviders returns the logs sub-profiles followed by the generic
// logs provider. Sub-profiles must come first to win over the generic one.
func logsDataSourceProviders(logs *LogsContext, definitions []profile.DataSourceProvider) []profile.DataSourceProvider {
	out := make([]profile.DataSourceProvider, 0, len(logsSubProfiles)+len(definitions)+1)
	for _, sub := range logsSubProfiles {
		out = append(out, profile.DataSourceProvider{
			ProfileID: sub.id,
			Profile:   logsProfile().Extend(profile.Profile[profile.DataSourceContext]{GetDefaultAppState: defaultColumns[profile.DataSourceContext](sub.columns)}),
			Resolve:   categoryResolver(indexpattern.NewMatcher(sub.families...).MatchPattern, profile.CategoryLogs),
		})
	}
	out = append(out, definitions...)
	return append(out, profile.DataSourceProvider{
		ProfileID: LogsDataSourceProfileID,
		Profile:   logsProfile(),
		Resolve:   categoryResolver(logs.IsLogsIndexPattern, profile.CategoryLogs),
	})
}

// categoryResolver matches inputs whose index pattern satisfies match.
func categoryResolver(match func(pattern string) bool, category profile.DataSourceCategory) func(profile.DataSourceInput) profile.MatchResult[profile.DataSourceContext] {
	return func(in profile.DataSourceInput) profile.MatchResult[profile.DataSourceContext] {
		if !match(in.IndexPattern()) {
			return profile.NoMatch[profile.DataSourceContext]()
		}
		return profile.Match(profile.DataSourceContext{Category: category})
	}
}

// logsProfile is the extension set shared by every logs data source.
func logsProfile() profile.Profile[profile.DataSourceContext] {
	return profile.Profile[profile.DataSourceContext]{
		GetCellRenderers:                extendRenderers[profile.DataSourceContext](LogLevelFields, renderLogLevel),
		GetRowIndicatorProvider:         logLevelRowIndicator,
		GetRowAdditionalLeadingControls: logsLeadingControls,
	}
}

// logLevelRowIndicator colours rows by log level when the data view has a
// log.level field; otherwise it defers to the previous layer.
func logLevelRowIndicator(prev profile.RowIndicatorProvider, _ profile.ExtensionParams[profile.DataSourceContext]) profile.RowIndicatorProvider {
	return func(params profile.RowIndicatorParams) profile.RowIndicatorFunc {
		if params.DataView.HasField("log.level") {
			return LogLevelIndicator
		}
		if prev != nil {
			return prev(params)
		}
		return nil
	}
}

func logsLeadingControls(prev profile.LeadingControlsGetter, _ profile.ExtensionParams[profile.DataSourceContext]) profile.LeadingControlsGetter {
	return func(params profile.LeadingControlsParams) []profile.RowControl {
		var out []profile.RowControl
		if prev != nil {
			out = append(out, prev(params)...)
		}
		return append(out, degradedDocsControl(), stacktraceControl())
	}
}

func degradedDocsControl() profile.RowControl {
	return profile.RowControl{
		ID:       DegradedDocsControlID,
		Label:    "Degraded document",
		IconType: "indexClose",
		Active: func(rec profile.Record) bool {
			if _, ok := rec.FieldValue("_ignored"); ok {
				return true
			}
			v, ok := rec.Raw["_ignored"]
			return ok && v != nil
		},
	}
}

func stacktraceControl() profile.RowControl {
	return profile.RowControl{
		ID:       StacktraceControlID,
		Label:    "Stacktrace",
		IconType: "apmTrace",
		Active: func(rec profile.Record) bool {
			for _, f := range stacktraceFields {
				if _, ok := rec.FieldValue(f); ok {
					return true
				}
			}
			return false
		},
	}
}

// defaultColumns returns a default app state extension that shows the data
// view's time field followed by columns, keeping the rest of the previous state.
func defaultColumns[C any](columns []profile.Column) func(profile.DefaultAppStateGetter, profile.ExtensionParams[C]) profile.DefaultAppStateGetter {
	return func(prev profile.DefaultAppStateGetter, _ profile.ExtensionParams[C]) profile.DefaultAppStateGetter {
		return func(params profile.DefaultAppStateParams) *profile.DefaultAppState {
			var state profile.DefaultAppState
			if prev != nil {
				if p := prev(params); p != nil {
					state = *p
				}
			}
			state.Columns = make([]profile.Column, 0, len(columns)+1)
			if dv := params.DataView; dv != nil && dv.TimeFieldName != "" {
				state.Columns = append(state.Columns, profile.Column{Name: dv.TimeFieldName, Width: timeColumnWidth})
			}
			state.Columns = append(state.Columns, columns...)
			return &state
		}
	}
}
