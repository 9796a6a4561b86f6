package rules

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/Masterminds/semver/v3"
)

// Sentinel errors returned by ValidateConditions.
var (
	ErrInvalidOperator  = errors.New("invalid operator")
	ErrInvalidCondition = errors.New("invalid condition")
	ErrInvalidValueType = errors.New("invalid value type")
)

// validOperators is the set of all recognised canonical operators.
var validOperators = map[Operator]struct{}{
	OpEq:         {},
	OpNeq:        {},
	OpContains:   {},
	OpStartsWith: {},
	OpEndsWith:   {},
	OpRegex:      {},
	OpIn:         {},
	OpNotIn:      {},
	OpGt:         {},
	OpLt:         {},
	OpGte:        {},
	OpLte:        {},
	OpSemVerGt:   {},
	OpSemVerLt:   {},
	OpExists:     {},
}

// ValidateConditions performs strict validation of a condition list.
// It is a pure function: it never mutates conditions and has no side effects.
// An empty list is valid.
func ValidateConditions(conditions []Condition) error {
	for i, c := range conditions {
		if err := validateCondition(i, c); err != nil {
			return err
		}
	}
	return nil
}

func validateCondition(i int, c Condition) error {
	if c.Field == "" {
		return fmt.Errorf("%w: condition[%d] field must not be empty", ErrInvalidCondition, i)
	}

	op := Normalize(c.Operator)
	if _, ok := validOperators[op]; !ok {
		return fmt.Errorf("%w: condition[%d] operator %q is not supported", ErrInvalidOperator, i, c.Operator)
	}

	return validateValueType(i, op, c.Value)
}

// validateValueType checks that the condition value has a type compatible with
// the operator. It uses explicit type assertions, no reflection.
func validateValueType(i int, op Operator, v any) error {
	switch op {
	case OpContains, OpStartsWith, OpEndsWith:
		if _, ok := v.(string); !ok {
			return fmt.Errorf("%w: condition[%d] operator %q requires a string value", ErrInvalidValueType, i, op)
		}

	case OpRegex:
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("%w: condition[%d] operator %q requires a string value", ErrInvalidValueType, i, op)
		}
		if _, err := regexp.Compile(s); err != nil {
			return fmt.Errorf("%w: condition[%d] invalid regex: %v", ErrInvalidValueType, i, err)
		}

	case OpSemVerGt, OpSemVerLt:
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("%w: condition[%d] operator %q requires a string value", ErrInvalidValueType, i, op)
		}
		if _, err := semver.NewVersion(s); err != nil {
			return fmt.Errorf("%w: condition[%d] invalid version %q", ErrInvalidValueType, i, s)
		}

	case OpIn, OpNotIn:
		if !isSlice(v) {
			return fmt.Errorf("%w: condition[%d] operator %q requires a slice value", ErrInvalidValueType, i, op)
		}

	case OpGt, OpLt, OpGte, OpLte:
		if !isNumeric(v) {
			return fmt.Errorf("%w: condition[%d] operator %q requires a numeric value", ErrInvalidValueType, i, op)
		}

	case OpEq, OpNeq:
		if !isScalar(v) {
			return fmt.Errorf("%w: condition[%d] operator %q requires a scalar value (string, bool, or number)", ErrInvalidValueType, i, op)
		}

	case OpExists:
		if v == nil {
			return nil
		}
		if _, ok := v.(bool); !ok {
			return fmt.Errorf("%w: condition[%d] operator %q takes an optional bool value", ErrInvalidValueType, i, op)
		}
	}

	return nil
}

// isSlice returns true for slice types that may appear after JSON unmarshaling
// or be provided programmatically.
func isSlice(v any) bool {
	switch v.(type) {
	case []any, []string, []int, []float64:
		return true
	}
	return false
}

// isNumeric returns true for integer and floating-point types.
func isNumeric(v any) bool {
	switch v.(type) {
	case int, int32, int64, float32, float64:
		return true
	}
	return false
}

// isScalar returns true for basic scalar types (string, bool, numeric).
func isScalar(v any) bool {
	switch v.(type) {
	case string, bool, int, int32, int64, float32, float64:
		return true
	}
	return false
}
