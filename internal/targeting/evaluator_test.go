package targeting

import (
	"errors"
	"testing"

	"github.com/TimurManjosov/goprofiles/internal/profile"
)

func record(fields map[string]any) profile.Record {
	return profile.Record{ID: "doc-1", Flattened: fields}
}

func TestEvaluate_EmptyExpression(t *testing.T) {
	for _, expr := range []string{"", "   "} {
		_, err := Evaluate(expr, record(nil))
		if !errors.Is(err, ErrEmptyExpression) {
			t.Errorf("Evaluate(%q) error = %v, want ErrEmptyExpression", expr, err)
		}
	}
}

func TestEvaluate_SimpleEquality(t *testing.T) {
	expression := `fields["data_stream.type"] == "example"`

	result, err := Evaluate(expression, record(map[string]any{"data_stream.type": "example"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result {
		t.Error("Expected true for example data stream")
	}

	result, err = Evaluate(expression, record(map[string]any{"data_stream.type": "logs"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result {
		t.Error("Expected false for logs data stream")
	}
}

func TestEvaluate_InList(t *testing.T) {
	expression := `fields["log.level"] in ["error", "critical", "fatal"]`

	result, err := Evaluate(expression, record(map[string]any{"log.level": "error"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result {
		t.Error("Expected true for error level")
	}
}

func TestEvaluate_Presence(t *testing.T) {
	expression := `"error.stack_trace" in fields || has(raw.error)`

	result, err := Evaluate(expression, record(map[string]any{"error.stack_trace": "at main()"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result {
		t.Error("Expected true when the stack trace is present")
	}

	result, err = Evaluate(expression, record(map[string]any{"message": "ok"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result {
		t.Error("Expected false without a stack trace")
	}
}

func TestEvaluate_NumericComparison(t *testing.T) {
	expression := `int(fields["http.response.status_code"]) >= 500`

	result, err := Evaluate(expression, record(map[string]any{"http.response.status_code": 503}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result {
		t.Error("Expected true for 503")
	}
}

func TestEvaluate_MissingKey(t *testing.T) {
	result, err := Evaluate(`fields["service.name"] == "api"`, record(map[string]any{}))
	if err == nil {
		t.Fatal("expected an evaluation error for a missing key")
	}
	if result {
		t.Error("Expected false on error")
	}
}

func TestValidate_ValidExpressions(t *testing.T) {
	valid := []string{
		`true`,
		`id.startsWith("doc-")`,
		`fields["data_stream.dataset"] == "nginx.access"`,
		`"log.level" in fields && fields["log.level"] != "info"`,
	}
	for _, expr := range valid {
		if err := ValidateExpression(expr); err != nil {
			t.Errorf("ValidateExpression(%q) = %v, want nil", expr, err)
		}
	}
}

func TestValidate_InvalidExpressions(t *testing.T) {
	invalid := []string{
		`fields[`,
		`"not a bool"`,
		`1 + 2`,
		`unknown_var == 1`,
	}
	for _, expr := range invalid {
		if err := ValidateExpression(expr); !errors.Is(err, ErrInvalidExpression) {
			t.Errorf("ValidateExpression(%q) = %v, want ErrInvalidExpression", expr, err)
		}
	}
}

func TestCompile_Cached(t *testing.T) {
	a, err := Compile(`id == "x"`)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	b, err := Compile(`  id == "x" `)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if a != b {
		t.Error("expected the cached program to be reused")
	}
	if a.String() != `id == "x"` {
		t.Errorf("String() = %q", a.String())
	}
}
