package tools

import (
	"fmt"
	"slices"
	"time"
)

const (
	dateLayout  = "2006-01-02"
	monthLayout = "2006-01"
)

// Validate input against the schema. Returns a ValidationError listing
// every broken constraint, or nil when the input passes. A nil schema
// accepts anything.
func Validate(schema *InputSchema, input Input) error {
	if schema == nil {
		return nil
	}
	var problems []string

	for _, field := range schema.Required {
		val, exists := input[field]
		if !exists {
			problems = append(problems, fmt.Sprintf("required field missing: '%v'", field))
			continue
		}
		if s, isString := val.(string); isString && s == "" {
			problems = append(problems, fmt.Sprintf("required field empty: '%v'", field))
		}
	}

	for field, param := range schema.Properties {
		val, exists := input[field]
		if !exists {
			continue
		}
		problems = append(problems, validateParam(field, param, val)...)
	}

	if len(problems) > 0 {
		return NewValidationError(problems)
	}
	return nil
}

func validateParam(field string, param ParameterObject, val any) []string {
	var problems []string
	switch param.Type {
	case "number", "integer":
		num, ok := asNumber(val)
		if !ok {
			problems = append(problems, fmt.Sprintf("field '%v' must be numeric, got: %T", field, val))
			break
		}
		if param.Minimum != nil && num < *param.Minimum {
			problems = append(problems, fmt.Sprintf("field '%v' below minimum %v: %v", field, *param.Minimum, num))
		}
		if param.Maximum != nil && num > *param.Maximum {
			problems = append(problems, fmt.Sprintf("field '%v' above maximum %v: %v", field, *param.Maximum, num))
		}
	case "string", "":
		s, ok := val.(string)
		if !ok {
			// Only enforce string-level constraints on actual strings
			if len(param.Enum) > 0 || param.Format != "" {
				problems = append(problems, fmt.Sprintf("field '%v' must be a string, got: %T", field, val))
			}
			break
		}
		if len(param.Enum) > 0 && !slices.Contains(param.Enum, s) {
			problems = append(problems, fmt.Sprintf("field '%v' must be one of %v, got: '%v'", field, param.Enum, s))
		}
		if param.Format != "" {
			if problem := validateFormat(field, param.Format, s); problem != "" {
				problems = append(problems, problem)
			}
		}
	}
	return problems
}

func validateFormat(field, format, val string) string {
	switch format {
	case "date":
		if _, err := time.Parse(dateLayout, val); err != nil {
			return fmt.Sprintf("field '%v' must be a date on format YYYY-MM-DD, got: '%v'", field, val)
		}
	case "month":
		if _, err := time.Parse(monthLayout, val); err != nil {
			return fmt.Sprintf("field '%v' must be a month on format YYYY-MM, got: '%v'", field, val)
		}
	}
	return ""
}

// asNumber accepts the numeric shapes which json decoding and hand
// written tests produce
func asNumber(val any) (float64, bool) {
	switch cast := val.(type) {
	case float64:
		return cast, true
	case float32:
		return float64(cast), true
	case int:
		return float64(cast), true
	case int64:
		return float64(cast), true
	}
	return 0, false
}
