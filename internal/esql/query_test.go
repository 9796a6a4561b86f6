package esql

import (
	"reflect"
	"testing"
)

func TestSources(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{name: "single source", query: "from logs-nginx.access-*", want: []string{"logs-nginx.access-*"}},
		{name: "uppercase command", query: "FROM logs-*", want: []string{"logs-*"}},
		{name: "multiple sources", query: "from logs-nginx.access-*,metrics-*", want: []string{"logs-nginx.access-*", "metrics-*"}},
		{name: "spaces around commas", query: "from logs-a , logs-b", want: []string{"logs-a", "logs-b"}},
		{name: "pipes ignored", query: "from logs-* | where log.level == \"error\" | limit 10", want: []string{"logs-*"}},
		{name: "no space before pipe", query: "from logs-*| limit 10", want: []string{"logs-*"}},
		{name: "metadata ignored", query: "from logs-* METADATA _id, _index", want: []string{"logs-*"}},
		{name: "quoted source", query: `from "logs-*", metrics-*`, want: []string{"logs-*", "metrics-*"}},
		{name: "remote cluster", query: "from remote:logs-*", want: []string{"remote:logs-*"}},
		{name: "ts command", query: "TS metrics-*", want: []string{"metrics-*"}},
		{name: "line comment", query: "// pick logs\nfrom logs-*", want: []string{"logs-*"}},
		{name: "block comment", query: "from /* all */ logs-*", want: []string{"logs-*"}},
		{name: "not a source command", query: "row a = 1", want: nil},
		{name: "empty", query: "   ", want: nil},
		{name: "command only", query: "from", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Sources(tt.query)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Sources(%q) = %#v, want %#v", tt.query, got, tt.want)
			}
		})
	}
}

func TestIndexPattern(t *testing.T) {
	if got := IndexPattern("from logs-nginx.access-*,metrics-* | limit 5"); got != "logs-nginx.access-*,metrics-*" {
		t.Fatalf("IndexPattern() = %q", got)
	}
	if got := IndexPattern("show info"); got != "" {
		t.Fatalf("IndexPattern() = %q, want empty", got)
	}
}
