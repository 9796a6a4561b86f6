package engine

import (
	"encoding/json"
	"testing"

	"github.com/TimurManjosov/goprofiles/internal/profile"
	"github.com/TimurManjosov/goprofiles/internal/rules"
)

func TestOperatorHandlers(t *testing.T) {
	tests := []struct {
		name       string
		op         rules.Operator
		fieldValue any
		want       any
		expect     bool
	}{
		{name: "equals string true", op: rules.OpEq, fieldValue: "logs", want: "logs", expect: true},
		{name: "equals ignores case", op: rules.Operator("equals"), fieldValue: "ERROR", want: "error", expect: true},
		{name: "equals string false", op: rules.OpEq, fieldValue: "logs", want: "traces", expect: false},
		{name: "contains true", op: rules.OpContains, fieldValue: "connection timeout", want: "timeout", expect: true},
		{name: "starts_with true", op: rules.OpStartsWith, fieldValue: "nginx.access", want: "nginx", expect: true},
		{name: "ends_with true", op: rules.OpEndsWith, fieldValue: "nginx.access", want: "access", expect: true},
		{name: "regex true", op: rules.OpRegex, fieldValue: ".ds-logs-nginx-2024", want: `^\.ds-logs-`, expect: true},
		{name: "regex invalid pattern", op: rules.OpRegex, fieldValue: "abc", want: "(", expect: false},
		{name: "gt int float64", op: rules.OpGt, fieldValue: 500, want: 499.5, expect: true},
		{name: "lte float int", op: rules.OpLte, fieldValue: 10.0, want: 10, expect: true},
		{name: "gte json number", op: rules.OpGte, fieldValue: json.Number("12"), want: 10, expect: true},
		{name: "gt numeric string", op: rules.OpGt, fieldValue: "503", want: 499, expect: true},
		{name: "in_list []string", op: rules.Operator("in_list"), fieldValue: "warn", want: []string{"warn", "error"}, expect: true},
		{name: "in mixed []any", op: rules.OpIn, fieldValue: 404, want: []any{"x", 404.0}, expect: true},
		{name: "not_in_list []any", op: rules.Operator("not_in_list"), fieldValue: "info", want: []any{"warn", "error"}, expect: true},
		{name: "semver gt", op: rules.OpSemVerGt, fieldValue: "8.12.0", want: "8.11.9", expect: true},
		{name: "semver lt prerelease", op: rules.OpSemVerLt, fieldValue: "9.0.0-beta.1", want: "9.0.0", expect: true},
		{name: "invalid type false", op: rules.OpContains, fieldValue: 123, want: "1", expect: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, ok := getOperatorHandler(tt.op)
			if !ok {
				t.Fatalf("handler not found for %q", tt.op)
			}
			if got := handler.Check(tt.fieldValue, tt.want); got != tt.expect {
				t.Fatalf("Check() = %v, want %v", got, tt.expect)
			}
		})
	}
}

func TestMatchConditions(t *testing.T) {
	rec := profile.Record{
		ID: "1",
		Flattened: map[string]any{
			"data_stream.type":          "logs",
			"log.level":                 []any{"WARN"},
			"http.response.status_code": 502,
			"error.stack_trace":         "at main()",
		},
	}

	tests := []struct {
		name       string
		conditions []rules.Condition
		want       bool
	}{
		{name: "empty list matches", want: true},
		{
			name: "all conditions match",
			conditions: []rules.Condition{
				{Field: "data_stream.type", Operator: rules.OpEq, Value: "logs"},
				{Field: "log.level", Operator: rules.OpIn, Value: []any{"warn", "error"}},
				{Field: "http.response.status_code", Operator: rules.OpGte, Value: 500},
			},
			want: true,
		},
		{
			name: "one failing condition fails the list",
			conditions: []rules.Condition{
				{Field: "data_stream.type", Operator: rules.OpEq, Value: "logs"},
				{Field: "http.response.status_code", Operator: rules.OpLt, Value: 500},
			},
			want: false,
		},
		{
			name:       "missing field does not match",
			conditions: []rules.Condition{{Field: "service.name", Operator: rules.OpNeq, Value: "x"}},
			want:       false,
		},
		{
			name:       "exists",
			conditions: []rules.Condition{{Field: "error.stack_trace", Operator: rules.OpExists}},
			want:       true,
		},
		{
			name:       "exists false on missing field",
			conditions: []rules.Condition{{Field: "service.name", Operator: rules.OpExists, Value: false}},
			want:       true,
		},
		{
			name:       "unknown operator",
			conditions: []rules.Condition{{Field: "data_stream.type", Operator: "bogus", Value: "logs"}},
			want:       false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MatchConditions(rec, tt.conditions); got != tt.want {
				t.Fatalf("MatchConditions() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFirstMismatch(t *testing.T) {
	rec := profile.Record{Flattened: map[string]any{"a": "1", "b": "2"}}
	conditions := []rules.Condition{
		{Field: "a", Operator: rules.OpEq, Value: "1"},
		{Field: "b", Operator: rules.OpEq, Value: "3"},
		{Field: "c", Operator: rules.OpExists},
	}

	idx, ok := FirstMismatch(rec, conditions)
	if ok || idx != 1 {
		t.Fatalf("FirstMismatch() = (%d, %v), want (1, false)", idx, ok)
	}
}
