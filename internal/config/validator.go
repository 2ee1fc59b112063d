package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator validates configuration values.
type Validator interface {
	Validate(cfg *Config) error
}

// validatorImpl implements Validator using go-playground/validator.
type validatorImpl struct {
	validate *validator.Validate
}

// NewValidator creates a new Validator instance.
func NewValidator() Validator {
	return &validatorImpl{
		validate: validator.New(),
	}
}

// Validate validates the configuration and returns detailed error messages.
func (v *validatorImpl) Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	if err := v.validate.Struct(cfg); err != nil {
		validationErrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return fmt.Errorf("validation error: %w", err)
		}

		var errorMessages []string
		for _, e := range validationErrs {
			errorMessages = append(errorMessages, formatValidationError(e))
		}

		return fmt.Errorf("invalid configuration:\n  - %s", strings.Join(errorMessages, "\n  - "))
	}

	if err := cfg.LLM.Provider.Validate(); err != nil {
		return fmt.Errorf("invalid configuration:\n  - llm.provider: %v", err)
	}

	if !cfg.Graph.DryRun && len(cfg.Graph.Endpoints) == 0 {
		return fmt.Errorf("invalid configuration:\n  - graph.endpoints must be non-empty unless graph.dry_run is set")
	}
	if !cfg.Graph.DryRun && cfg.Graph.Database == "" {
		return fmt.Errorf("invalid configuration:\n  - graph.database must be set unless graph.dry_run is set")
	}

	if strings.Contains(cfg.Graph.Password, "${") {
		return fmt.Errorf("invalid configuration:\n  - graph.password references an unset environment variable")
	}
	if strings.Contains(cfg.LLM.Provider.APIKey, "${") {
		return fmt.Errorf("invalid configuration:\n  - llm.provider.api_key references an unset environment variable")
	}

	return nil
}

// formatValidationError formats a single validation error with field path and details.
func formatValidationError(e validator.FieldError) string {
	fieldPath := formatFieldPath(e.Namespace())

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fieldPath)
	case "min":
		return fmt.Sprintf("%s must be at least %s (got: %v)", fieldPath, e.Param(), e.Value())
	case "max":
		return fmt.Sprintf("%s must be at most %s (got: %v)", fieldPath, e.Param(), e.Value())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s] (got: %v)", fieldPath, e.Param(), e.Value())
	default:
		return fmt.Sprintf("%s failed validation '%s' (got: %v)", fieldPath, e.Tag(), e.Value())
	}
}

// formatFieldPath converts validator namespace to a readable field path.
// Example: "Config.Coordinator.ParallelLimit" -> "coordinator.parallel_limit"
func formatFieldPath(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) <= 1 {
		return namespace
	}

	result := make([]string, 0, len(parts)-1)
	for i := 1; i < len(parts); i++ {
		result = append(result, toSnakeCase(parts[i]))
	}
	return strings.Join(result, ".")
}

// toSnakeCase converts a Go field name to snake_case.
func toSnakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 && s[i-1] >= 'a' && s[i-1] <= 'z' {
				b.WriteByte('_')
			}
			b.WriteRune(r - 'A' + 'a')
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
