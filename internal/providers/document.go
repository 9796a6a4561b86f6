package providers

import (
	"strings"

	"github.com/TimurManjosov/goprofiles/internal/profile"
)

// LogDocumentProfileID is the document profile of log records.
const LogDocumentProfileID = "observability-log-document-profile"

// logDocumentProvider claims records read from a logs data source, records of a
// logs data stream, and records whose index is a log source.
func logDocumentProvider(logs *LogsContext) profile.DocumentProvider {
	return profile.DocumentProvider{
		ProfileID: LogDocumentProfileID,
		Resolve: func(in profile.DocumentInput) profile.MatchResult[profile.DocumentContext] {
			if !isLogRecord(in, logs) {
				return profile.NoMatch[profile.DocumentContext]()
			}
			return profile.Match(profile.DocumentContext{Type: profile.DocumentLog})
		},
	}
}

func isLogRecord(in profile.DocumentInput, logs *LogsContext) bool {
	if in.DataSourceContext.Context.Category == profile.CategoryLogs {
		return true
	}
	if v, _ := in.Record.StringValue("data_stream.type"); v == "logs" {
		return true
	}
	index, ok := in.Record.StringValue("_index")
	if !ok {
		index, ok = in.Record.Raw["_index"].(string)
	}
	// Data stream backing indices carry a ".ds-" prefix.
	return ok && logs.IsLogsIndexPattern(strings.TrimPrefix(index, ".ds-"))
}
