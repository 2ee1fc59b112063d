package schema

// JSONSchema represents a JSON Schema for validating agent output payloads.
// Only the subset of draft-07 the extraction pipeline relies on is modeled.
type JSONSchema struct {
	Type                 string                 `json:"type" yaml:"type"`
	Description          string                 `json:"description,omitempty" yaml:"description,omitempty"`
	Properties           map[string]SchemaField `json:"properties,omitempty" yaml:"properties,omitempty"`
	Required             []string               `json:"required,omitempty" yaml:"required,omitempty"`
	Items                *SchemaField           `json:"items,omitempty" yaml:"items,omitempty"`
	AdditionalProperties *bool                  `json:"additionalProperties,omitempty" yaml:"additionalProperties,omitempty"`
}

// SchemaField represents a field within a schema.
type SchemaField struct {
	Type        string                 `json:"type" yaml:"type"`
	Description string                 `json:"description,omitempty" yaml:"description,omitempty"`
	Enum        []string               `json:"enum,omitempty" yaml:"enum,omitempty"`
	Nullable    bool                   `json:"nullable,omitempty" yaml:"nullable,omitempty"`
	Items       *SchemaField           `json:"items,omitempty" yaml:"items,omitempty"`
	Properties  map[string]SchemaField `json:"properties,omitempty" yaml:"properties,omitempty"`
	Required    []string               `json:"required,omitempty" yaml:"required,omitempty"`
}

// IsClosed reports whether the schema rejects unknown fields
// (additionalProperties: false semantics). An unset flag means open.
func (s *JSONSchema) IsClosed() bool {
	return s.AdditionalProperties != nil && !*s.AdditionalProperties
}

// NewObjectSchema creates a new object schema with the given properties and
// required fields.
func NewObjectSchema(properties map[string]SchemaField, required []string) JSONSchema {
	return JSONSchema{
		Type:       "object",
		Properties: properties,
		Required:   required,
	}
}

// NewArraySchema creates a new array schema with the given item schema.
func NewArraySchema(items SchemaField) JSONSchema {
	return JSONSchema{
		Type:  "array",
		Items: &items,
	}
}

// NewStringField creates a new string field with the given description.
func NewStringField(description string) SchemaField {
	return SchemaField{
		Type:        "string",
		Description: description,
	}
}

// NewNumberField creates a new number field with the given description.
func NewNumberField(description string) SchemaField {
	return SchemaField{
		Type:        "number",
		Description: description,
	}
}

// NewBooleanField creates a new boolean field with the given description.
func NewBooleanField(description string) SchemaField {
	return SchemaField{
		Type:        "boolean",
		Description: description,
	}
}

// NewStringListField creates a new array-of-strings field.
func NewStringListField(description string) SchemaField {
	return SchemaField{
		Type:        "array",
		Description: description,
		Items:       &SchemaField{Type: "string"},
	}
}

// WithEnum adds an enum constraint to the field.
func (f SchemaField) WithEnum(values ...string) SchemaField {
	f.Enum = values
	return f
}

// WithNullable marks the field as accepting an explicit null sentinel.
func (f SchemaField) WithNullable() SchemaField {
	f.Nullable = true
	return f
}

// Closed returns a copy of the schema that rejects unknown fields.
func (s JSONSchema) Closed() JSONSchema {
	closed := false
	s.AdditionalProperties = &closed
	return s
}
