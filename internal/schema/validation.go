package schema

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Validator validates structured payloads against a JSONSchema.
// It works on decoded values (map[string]any / []any) so the same checks run
// whether the payload arrives as raw JSON or an already-parsed document.
type Validator struct {
	schema *JSONSchema
}

// NewValidator creates a new schema validator.
func NewValidator(schema *JSONSchema) *Validator {
	return &Validator{schema: schema}
}

// ValidationError contains details about a schema validation failure.
type ValidationError struct {
	Message  string `json:"message"`
	Path     string `json:"path"`     // JSON path to the invalid field (e.g., "$.issues[0].status")
	Expected string `json:"expected"` // What was expected
	Actual   string `json:"actual"`   // What was received
}

func (e *ValidationError) Error() string {
	if e.Expected != "" && e.Actual != "" {
		return fmt.Sprintf("validation failed at %s: %s (expected %s, got %s)", e.Path, e.Message, e.Expected, e.Actual)
	}
	return fmt.Sprintf("validation failed at %s: %s", e.Path, e.Message)
}

// Validate validates raw JSON bytes against the schema.
// It returns the first failure, or nil when the document conforms.
func (v *Validator) Validate(data []byte) error {
	var parsed any
	if err := json.Unmarshal(data, &parsed); err != nil {
		return &ValidationError{
			Message: "invalid JSON",
			Path:    "$",
		}
	}

	if errs := v.ValidateValue(parsed); len(errs) > 0 {
		return &errs[0]
	}
	return nil
}

// ValidateValue validates an already-decoded value against the schema and
// returns every failure found.
func (v *Validator) ValidateValue(value any) []ValidationError {
	return v.validateValue(value, v.schema, "$")
}

func (v *Validator) validateValue(value any, schema *JSONSchema, path string) []ValidationError {
	var errs []ValidationError

	if schema.Type != "" {
		actualType := valueType(value)
		if actualType != schema.Type {
			errs = append(errs, ValidationError{
				Message:  "type mismatch",
				Path:     path,
				Expected: schema.Type,
				Actual:   actualType,
			})
			return errs
		}
	}

	switch schema.Type {
	case "object":
		errs = append(errs, v.validateObject(value.(map[string]any), schema, path)...)
	case "array":
		if schema.Items != nil {
			for i, item := range value.([]any) {
				itemPath := fmt.Sprintf("%s[%d]", path, i)
				errs = append(errs, v.validateField(item, schema.Items, itemPath)...)
			}
		}
	}

	return errs
}

func (v *Validator) validateObject(obj map[string]any, schema *JSONSchema, path string) []ValidationError {
	var errs []ValidationError

	// A required field's absence is a hard error. An optional field's absence
	// is plain omission and produces nothing.
	for _, required := range schema.Required {
		if _, exists := obj[required]; !exists {
			errs = append(errs, ValidationError{
				Message:  "required field is missing",
				Path:     fmt.Sprintf("%s.%s", path, required),
				Expected: "field to be present",
				Actual:   "field is missing",
			})
		}
	}

	// Closed schemas reject unknown fields; open schemas pass them through
	// unflagged.
	if schema.IsClosed() {
		for fieldName := range obj {
			if _, hasSchema := schema.Properties[fieldName]; !hasSchema {
				errs = append(errs, ValidationError{
					Message:  "additional property not allowed",
					Path:     fmt.Sprintf("%s.%s", path, fieldName),
					Expected: "no additional properties",
					Actual:   fmt.Sprintf("found property %q", fieldName),
				})
			}
		}
	}

	for fieldName, fieldValue := range obj {
		fieldSchema, hasSchema := schema.Properties[fieldName]
		if !hasSchema {
			continue
		}
		fieldPath := fmt.Sprintf("%s.%s", path, fieldName)
		errs = append(errs, v.validateField(fieldValue, &fieldSchema, fieldPath)...)
	}

	return errs
}

func (v *Validator) validateField(value any, schema *SchemaField, path string) []ValidationError {
	var errs []ValidationError

	// An explicit null is only legal when the schema declares the field
	// nullable. Absent fields never reach this point.
	if value == nil {
		if schema.Nullable {
			return nil
		}
		return []ValidationError{{
			Message:  "null is not allowed",
			Path:     path,
			Expected: schema.Type,
			Actual:   "null",
		}}
	}

	if schema.Type != "" {
		actualType := valueType(value)
		if actualType != schema.Type {
			errs = append(errs, ValidationError{
				Message:  "type mismatch",
				Path:     path,
				Expected: schema.Type,
				Actual:   actualType,
			})
			return errs
		}
	}

	switch schema.Type {
	case "array":
		if schema.Items != nil {
			for i, item := range value.([]any) {
				itemPath := fmt.Sprintf("%s[%d]", path, i)
				errs = append(errs, v.validateField(item, schema.Items, itemPath)...)
			}
		}
	case "object":
		obj := value.(map[string]any)
		for _, required := range schema.Required {
			if _, exists := obj[required]; !exists {
				errs = append(errs, ValidationError{
					Message:  "required field is missing",
					Path:     fmt.Sprintf("%s.%s", path, required),
					Expected: "field to be present",
					Actual:   "field is missing",
				})
			}
		}
		for propName, propValue := range obj {
			propSchema, hasSchema := schema.Properties[propName]
			if !hasSchema {
				continue
			}
			propPath := fmt.Sprintf("%s.%s", path, propName)
			errs = append(errs, v.validateField(propValue, &propSchema, propPath)...)
		}
	}

	if len(schema.Enum) > 0 {
		errs = append(errs, v.validateEnum(value, schema, path)...)
	}

	return errs
}

func (v *Validator) validateEnum(value any, schema *SchemaField, path string) []ValidationError {
	strValue := fmt.Sprintf("%v", value)
	for _, enumValue := range schema.Enum {
		if strValue == enumValue {
			return nil
		}
	}
	return []ValidationError{{
		Message:  "invalid enum value",
		Path:     path,
		Expected: fmt.Sprintf("one of: %s", strings.Join(schema.Enum, ", ")),
		Actual:   strValue,
	}}
}

// valueType returns the JSON type name of a decoded value.
func valueType(value any) string {
	if value == nil {
		return "null"
	}

	switch value.(type) {
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64, float32, int, int64, int32:
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return "unknown"
	}
}
