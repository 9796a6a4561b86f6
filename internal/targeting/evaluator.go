// Package targeting evaluates CEL expressions against document records.
//
// An expression sees three variables:
//   - fields: the flattened record, keyed by dotted field name
//   - raw: the unflattened source document
//   - id: the record ID
//
// For example:
//
//	fields["data_stream.type"] == "logs" && "error.stack_trace" in fields
package targeting

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/TimurManjosov/goprofiles/internal/profile"
)

// ErrInvalidExpression is returned when an expression does not compile to a
// boolean CEL program.
var ErrInvalidExpression = errors.New("invalid expression")

// ErrEmptyExpression is returned when an expression is empty or whitespace.
var ErrEmptyExpression = errors.New("invalid expression: empty or whitespace")

var (
	newEnv = sync.OnceValues(func() (*cel.Env, error) {
		return cel.NewEnv(
			cel.Variable("fields", cel.MapType(cel.StringType, cel.DynType)),
			cel.Variable("raw", cel.MapType(cel.StringType, cel.DynType)),
			cel.Variable("id", cel.StringType),
		)
	})
	// programCache keeps compiled programs by expression text.
	// Expected value type is *Program.
	programCache sync.Map
)

// Program is a compiled expression.
type Program struct {
	expr string
	prg  cel.Program
}

// Compile parses and type-checks expression. The result must be boolean or dyn.
func Compile(expression string) (*Program, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return nil, ErrEmptyExpression
	}
	if cached, ok := programCache.Load(expression); ok {
		return cached.(*Program), nil
	}

	env, err := newEnv()
	if err != nil {
		return nil, fmt.Errorf("cel environment: %w", err)
	}
	ast, iss := env.Compile(expression)
	if iss != nil && iss.Err() != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidExpression, iss.Err())
	}
	if out := ast.OutputType(); !out.IsExactType(cel.BoolType) && !out.IsExactType(cel.DynType) {
		return nil, fmt.Errorf("%w: result type is %s, want bool", ErrInvalidExpression, out)
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidExpression, err)
	}

	p := &Program{expr: expression, prg: prg}
	programCache.Store(expression, p)
	return p, nil
}

// ValidateExpression checks that expression compiles.
func ValidateExpression(expression string) error {
	_, err := Compile(expression)
	return err
}

// String returns the expression text.
func (p *Program) String() string { return p.expr }

// Match evaluates the program against rec. Evaluation errors, such as reading a
// key the record does not have, are returned with a false result.
func (p *Program) Match(rec profile.Record) (bool, error) {
	out, _, err := p.prg.Eval(map[string]any{
		"fields": nonNil(rec.Flattened),
		"raw":    nonNil(rec.Raw),
		"id":     rec.ID,
	})
	if err != nil {
		return false, fmt.Errorf("evaluate %q: %w", p.expr, err)
	}
	b, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("evaluate %q: result %v is not a bool", p.expr, out.Value())
	}
	return b, nil
}

// Evaluate compiles expression (cached) and matches it against rec.
func Evaluate(expression string, rec profile.Record) (bool, error) {
	p, err := Compile(expression)
	if err != nil {
		return false, err
	}
	return p.Match(rec)
}

func nonNil(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
