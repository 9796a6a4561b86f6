package engine

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/Masterminds/semver/v3"
	"github.com/TimurManjosov/goprofiles/internal/rules"
)

// OperatorHandler evaluates one condition operator against a field value.
type OperatorHandler interface {
	Check(fieldValue, conditionValue any) bool
}

var (
	operatorHandlers = map[rules.Operator]OperatorHandler{
		rules.OpEq:         equalsHandler{},
		rules.OpNeq:        notEqualsHandler{},
		rules.OpContains:   stringHandler{test: strings.Contains},
		rules.OpStartsWith: stringHandler{test: strings.HasPrefix},
		rules.OpEndsWith:   stringHandler{test: strings.HasSuffix},
		rules.OpRegex:      regexHandler{},
		rules.OpGt:         numericCompareHandler{cmp: func(a, b float64) bool { return a > b }},
		rules.OpLt:         numericCompareHandler{cmp: func(a, b float64) bool { return a < b }},
		rules.OpGte:        numericCompareHandler{cmp: func(a, b float64) bool { return a >= b }},
		rules.OpLte:        numericCompareHandler{cmp: func(a, b float64) bool { return a <= b }},
		rules.OpIn:         inListHandler{},
		rules.OpNotIn:      notInListHandler{},
		rules.OpSemVerGt:   semverCompareHandler{cmp: func(a, b *semver.Version) bool { return a.GreaterThan(b) }},
		rules.OpSemVerLt:   semverCompareHandler{cmp: func(a, b *semver.Version) bool { return a.LessThan(b) }},
	}
	// regexCache keeps compiled regex by pattern for the hot evaluation path.
	// Expected value type is *regexp.Regexp.
	regexCache sync.Map
)

func getOperatorHandler(op rules.Operator) (OperatorHandler, bool) {
	h, ok := operatorHandlers[rules.Normalize(op)]
	return h, ok
}

type equalsHandler struct{}

func (equalsHandler) Check(fieldValue, conditionValue any) bool {
	if field, ok := toString(fieldValue); ok {
		want, ok := toString(conditionValue)
		return ok && equalsString(field, want)
	}
	if field, ok := toFloat64(fieldValue); ok {
		want, ok := toFloat64(conditionValue)
		return ok && field == want
	}
	if field, ok := fieldValue.(bool); ok {
		want, ok := conditionValue.(bool)
		return ok && field == want
	}
	return false
}

type notEqualsHandler struct{}

func (notEqualsHandler) Check(fieldValue, conditionValue any) bool {
	return !equalsHandler{}.Check(fieldValue, conditionValue)
}

// stringHandler applies a substring test after case normalization.
type stringHandler struct {
	test func(s, substr string) bool
}

func (h stringHandler) Check(fieldValue, conditionValue any) bool {
	field, ok := toString(fieldValue)
	if !ok {
		return false
	}
	want, ok := toString(conditionValue)
	if !ok {
		return false
	}
	return h.test(normalizeCase(field), normalizeCase(want))
}

type regexHandler struct{}

func (regexHandler) Check(fieldValue, conditionValue any) bool {
	field, ok := toString(fieldValue)
	if !ok {
		return false
	}
	pattern, ok := toString(conditionValue)
	if !ok {
		return false
	}

	rx, ok := getCompiledRegex(pattern)
	if !ok {
		return false
	}
	return rx.MatchString(field)
}

type numericCompareHandler struct {
	cmp func(a, b float64) bool
}

func (h numericCompareHandler) Check(fieldValue, conditionValue any) bool {
	field, ok := toFloat64(fieldValue)
	if !ok {
		return false
	}
	want, ok := toFloat64(conditionValue)
	if !ok {
		return false
	}
	return h.cmp(field, want)
}

type inListHandler struct{}

func (inListHandler) Check(fieldValue, conditionValue any) bool {
	list, ok := conditionValue.([]any)
	if !ok {
		strs, ok := toStringSlice(conditionValue)
		if !ok {
			return false
		}
		list = make([]any, len(strs))
		for i, s := range strs {
			list[i] = s
		}
	}
	for _, item := range list {
		if (equalsHandler{}).Check(fieldValue, item) {
			return true
		}
	}
	return false
}

type notInListHandler struct{}

func (notInListHandler) Check(fieldValue, conditionValue any) bool {
	return !inListHandler{}.Check(fieldValue, conditionValue)
}

type semverCompareHandler struct {
	cmp func(a, b *semver.Version) bool
}

func (h semverCompareHandler) Check(fieldValue, conditionValue any) bool {
	fieldStr, ok := toString(fieldValue)
	if !ok {
		return false
	}
	wantStr, ok := toString(conditionValue)
	if !ok {
		return false
	}
	fieldVer, err := semver.NewVersion(fieldStr)
	if err != nil {
		return false
	}
	wantVer, err := semver.NewVersion(wantStr)
	if err != nil {
		return false
	}
	return h.cmp(fieldVer, wantVer)
}

func getCompiledRegex(pattern string) (*regexp.Regexp, bool) {
	if cached, ok := regexCache.Load(pattern); ok {
		rx, ok := cached.(*regexp.Regexp)
		return rx, ok
	}

	rx, err := regexp.Compile(pattern)
	if err != nil {
		return nil, false
	}
	regexCache.Store(pattern, rx)
	return rx, true
}

func toString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

// toFloat64 accepts numbers and numeric strings, since documents often carry
// numbers as keyword values.
func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func toStringSlice(v any) ([]string, bool) {
	switch values := v.(type) {
	case []string:
		return values, true
	case []any:
		result := make([]string, 0, len(values))
		for _, item := range values {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			result = append(result, s)
		}
		return result, true
	default:
		return nil, false
	}
}

func equalsString(left, right string) bool {
	return normalizeCase(left) == normalizeCase(right)
}

// normalizeCase keeps the case policy in one place. Field values such as log
// levels arrive in any case, so comparisons are case-insensitive.
func normalizeCase(value string) string {
	return strings.ToLower(value)
}
