package rules

import "strings"

// Operator represents a comparison operator used in record conditions.
type Operator string

// Supported operators (string values for clean JSON serialization).
const (
	OpEq         Operator = "eq"
	OpNeq        Operator = "neq"
	OpContains   Operator = "contains"
	OpStartsWith Operator = "starts_with"
	OpEndsWith   Operator = "ends_with"
	OpRegex      Operator = "regex"
	OpIn         Operator = "in"
	OpNotIn      Operator = "not_in"
	OpGt         Operator = "gt"
	OpLt         Operator = "lt"
	OpGte        Operator = "gte"
	OpLte        Operator = "lte"
	OpSemVerGt   Operator = "semver_gt"
	OpSemVerLt   Operator = "semver_lt"
	OpExists     Operator = "exists"
)

// Condition represents a single predicate on a flattened record field.
// A list of conditions is evaluated with AND semantics: all conditions must
// match for the list to match.
type Condition struct {
	Field    string   `json:"field" yaml:"field"`
	Operator Operator `json:"operator" yaml:"operator"`
	Value    any      `json:"value,omitempty" yaml:"value,omitempty"`
}

// Normalize maps operator aliases ("==", "equals", "in_list", ...) to their
// canonical name. Unknown operators are returned lower-cased.
func Normalize(op Operator) Operator {
	switch strings.ToLower(strings.TrimSpace(string(op))) {
	case "==", "eq", "equals":
		return OpEq
	case "!=", "neq", "not_equals":
		return OpNeq
	case "contains":
		return OpContains
	case "starts_with", "startswith":
		return OpStartsWith
	case "ends_with", "endswith":
		return OpEndsWith
	case "regex", "matches":
		return OpRegex
	case "in", "in_list":
		return OpIn
	case "not_in", "not_in_list", "nin":
		return OpNotIn
	case ">", "gt":
		return OpGt
	case "<", "lt":
		return OpLt
	case ">=", "gte":
		return OpGte
	case "<=", "lte":
		return OpLte
	case "semver_gt", "version_gt":
		return OpSemVerGt
	case "semver_lt", "version_lt":
		return OpSemVerLt
	case "exists":
		return OpExists
	default:
		return Operator(strings.ToLower(string(op)))
	}
}
