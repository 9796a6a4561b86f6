// Package engine evaluates declarative conditions against document records.
package engine

import (
	"github.com/TimurManjosov/goprofiles/internal/profile"
	"github.com/TimurManjosov/goprofiles/internal/rules"
)

// MatchConditions reports whether rec satisfies every condition. An empty list
// matches. Unknown operators and missing fields never match, except for
// exists, which tests presence.
func MatchConditions(rec profile.Record, conditions []rules.Condition) bool {
	_, ok := FirstMismatch(rec, conditions)
	return ok
}

// FirstMismatch returns the index of the first condition rec does not satisfy.
// The boolean is true when all conditions match.
func FirstMismatch(rec profile.Record, conditions []rules.Condition) (int, bool) {
	for i, condition := range conditions {
		if !matchCondition(rec, condition) {
			return i, false
		}
	}
	return -1, true
}

func matchCondition(rec profile.Record, condition rules.Condition) bool {
	value, present := rec.FieldValue(condition.Field)

	if rules.Normalize(condition.Operator) == rules.OpExists {
		want := true
		if b, ok := condition.Value.(bool); ok {
			want = b
		}
		return present == want
	}

	if !present {
		return false
	}
	handler, ok := getOperatorHandler(condition.Operator)
	return ok && handler.Check(value, condition.Value)
}
