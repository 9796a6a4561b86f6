// Package validation provides validation rules for profile definitions and request parameters.
package validation

import (
	"errors"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/TimurManjosov/goprofiles/internal/profile"
	"github.com/TimurManjosov/goprofiles/internal/rules"
	"github.com/TimurManjosov/goprofiles/internal/store"
	"github.com/TimurManjosov/goprofiles/internal/targeting"
)

const (
	// MaxIDLength is the maximum length for definition IDs
	MaxIDLength = 128
	// MaxDescriptionLength is the maximum length for definition descriptions
	MaxDescriptionLength = 500
	// MaxPriority bounds the absolute value of a definition priority
	MaxPriority = 1000
	// MaxIndexPatterns is the maximum number of source families per definition
	MaxIndexPatterns = 32
	// MaxDefaultColumns is the maximum number of default columns per definition
	MaxDefaultColumns = 50
)

// idPattern matches lower-case profile IDs such as "acme-logs-data-source-profile".
var idPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]*$`)

// familyPattern matches a source family with an optional cluster prefix. Wildcards
// and lists are not allowed; a family already covers its suffixes.
var familyPattern = regexp.MustCompile(`^(?:[^:,*\s]+:)?[^:,*\s]+$`)

var (
	validCategories = []profile.DataSourceCategory{
		profile.CategoryLogs, profile.CategoryMetrics, profile.CategoryTraces, profile.CategoryDefault,
	}
	validDocumentTypes = []profile.DocumentType{
		profile.DocumentLog, profile.DocumentTrace, profile.DocumentDefault,
	}
)

// ValidationResult holds the result of validation
type ValidationResult struct {
	Valid  bool
	Errors map[string]string
}

// NewValidationResult creates a new validation result
func NewValidationResult() *ValidationResult {
	return &ValidationResult{
		Valid:  true,
		Errors: make(map[string]string),
	}
}

// AddError adds a field error and marks the result as invalid
func (v *ValidationResult) AddError(field, message string) {
	v.Valid = false
	v.Errors[field] = message
}

// Merge combines another validation result into this one
func (v *ValidationResult) Merge(other *ValidationResult) {
	if other == nil {
		return
	}
	for field, message := range other.Errors {
		v.AddError(field, message)
	}
}

// ValidateDefinition validates all definition fields. IDs in reservedIDs (the
// built-in providers) cannot be redefined.
func ValidateDefinition(def store.Definition, reservedIDs ...string) *ValidationResult {
	result := NewValidationResult()

	result.Merge(ValidateID(def.ID, reservedIDs))
	result.Merge(ValidateDescription(def.Description))
	result.Merge(ValidatePriority(def.Priority))
	result.Merge(ValidateDefaultColumns(def.DefaultColumns))

	switch def.Tier {
	case profile.TierDataSource:
		result.Merge(validateDataSource(def))
	case profile.TierDocument:
		result.Merge(validateDocument(def))
	case "":
		result.AddError("tier", "Tier is required")
	default:
		result.AddError("tier", "Tier must be one of: data_source, document")
	}

	return result
}

// ValidateID validates a definition ID
func ValidateID(id string, reservedIDs []string) *ValidationResult {
	result := NewValidationResult()
	id = strings.TrimSpace(id)

	if id == "" {
		result.AddError("id", "ID is required")
		return result
	}

	if utf8.RuneCountInString(id) > MaxIDLength {
		result.AddError("id", "ID must not exceed 128 characters")
		return result
	}

	if !idPattern.MatchString(id) {
		result.AddError("id", "ID must start with a lower-case letter or digit and contain only a-z, 0-9, '.', '_' and '-'")
		return result
	}

	if slices.Contains(reservedIDs, id) {
		result.AddError("id", "ID is reserved by a built-in profile")
	}

	return result
}

// ValidateDescription validates a definition description
func ValidateDescription(description string) *ValidationResult {
	result := NewValidationResult()

	if utf8.RuneCountInString(description) > MaxDescriptionLength {
		result.AddError("description", "Description must not exceed 500 characters")
	}

	return result
}

// ValidatePriority validates a definition priority
func ValidatePriority(priority int) *ValidationResult {
	result := NewValidationResult()

	if priority < -MaxPriority || priority > MaxPriority {
		result.AddError("priority", "Priority must be between -1000 and 1000")
	}

	return result
}

// ValidateDefaultColumns validates the default column names
func ValidateDefaultColumns(columns []string) *ValidationResult {
	result := NewValidationResult()

	if len(columns) > MaxDefaultColumns {
		result.AddError("defaultColumns", "At most 50 default columns are allowed")
		return result
	}

	seen := make(map[string]bool, len(columns))
	for _, c := range columns {
		if strings.TrimSpace(c) == "" {
			result.AddError("defaultColumns", "Column name cannot be empty")
			return result
		}
		if seen[c] {
			result.AddError("defaultColumns", "Duplicate column: "+c)
			return result
		}
		seen[c] = true
	}

	return result
}

// ValidateIndexPatterns validates the source families of a data-source definition
func ValidateIndexPatterns(patterns []string) *ValidationResult {
	result := NewValidationResult()

	if len(patterns) == 0 {
		result.AddError("indexPatterns", "At least one index pattern is required")
		return result
	}
	if len(patterns) > MaxIndexPatterns {
		result.AddError("indexPatterns", "At most 32 index patterns are allowed")
		return result
	}
	for _, p := range patterns {
		if !familyPattern.MatchString(p) {
			result.AddError("indexPatterns", "Invalid index pattern "+quote(p)+": use a source family without wildcards or commas, e.g. logs-myapp")
			return result
		}
	}

	return result
}

func validateDataSource(def store.Definition) *ValidationResult {
	result := ValidateIndexPatterns(def.IndexPatterns)

	if def.Category != "" && !slices.Contains(validCategories, def.Category) {
		result.AddError("category", "Category must be one of: logs, metrics, traces, default")
	}
	if def.DocumentType != "" || len(def.Conditions) > 0 || def.Expression != nil {
		result.AddError("tier", "documentType, conditions and expression only apply to document definitions")
	}

	return result
}

func validateDocument(def store.Definition) *ValidationResult {
	result := NewValidationResult()

	if def.DocumentType != "" && !slices.Contains(validDocumentTypes, def.DocumentType) {
		result.AddError("documentType", "Document type must be one of: log, trace, default")
	}
	if len(def.IndexPatterns) > 0 || def.Category != "" {
		result.AddError("tier", "indexPatterns and category only apply to data_source definitions")
	}

	hasExpression := def.Expression != nil && strings.TrimSpace(*def.Expression) != ""
	if len(def.Conditions) == 0 && !hasExpression {
		result.AddError("conditions", "A document definition needs conditions, an expression, or both")
	}

	if err := rules.ValidateConditions(def.Conditions); err != nil {
		result.AddError("conditions", err.Error())
	}

	if def.Expression != nil {
		if err := targeting.ValidateExpression(*def.Expression); err != nil {
			if errors.Is(err, targeting.ErrEmptyExpression) {
				result.AddError("expression", "Expression must not be empty when set")
			} else {
				result.AddError("expression", err.Error())
			}
		}
	}

	return result
}

func quote(s string) string {
	return "\"" + s + "\""
}
