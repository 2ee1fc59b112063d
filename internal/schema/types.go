package schema

import (
	"fmt"
)

// AttrType is the semantic type of an entity or relationship attribute.
type AttrType string

const (
	AttrString     AttrType = "string"
	AttrNumber     AttrType = "number"
	AttrBoolean    AttrType = "boolean"
	AttrStringList AttrType = "string-list"
)

// Valid reports whether the attribute type is one of the declared semantic types.
func (t AttrType) Valid() bool {
	switch t {
	case AttrString, AttrNumber, AttrBoolean, AttrStringList:
		return true
	default:
		return false
	}
}

// Field converts the semantic attribute type to its JSON schema field.
func (t AttrType) Field(description string) SchemaField {
	switch t {
	case AttrNumber:
		return NewNumberField(description)
	case AttrBoolean:
		return NewBooleanField(description)
	case AttrStringList:
		return NewStringListField(description)
	default:
		return NewStringField(description)
	}
}

// AttributeDef declares a single named attribute on an entity or relationship type.
type AttributeDef struct {
	Name        string   `yaml:"name" json:"name" mapstructure:"name"`
	Type        AttrType `yaml:"type" json:"type" mapstructure:"type"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty" mapstructure:"description"`
	Required    bool     `yaml:"required,omitempty" json:"required,omitempty" mapstructure:"required"`
	Nullable    bool     `yaml:"nullable,omitempty" json:"nullable,omitempty" mapstructure:"nullable"`
	Mutable     bool     `yaml:"mutable,omitempty" json:"mutable,omitempty" mapstructure:"mutable"`
}

// EntityTypeDef declares a vertex collection in the knowledge graph:
// its name, ordered attributes, and illustrative examples for prompts.
type EntityTypeDef struct {
	Name        string         `yaml:"name" json:"name" mapstructure:"name"`
	Description string         `yaml:"description,omitempty" json:"description,omitempty" mapstructure:"description"`
	KeyAttr     string         `yaml:"key_attribute" json:"key_attribute" mapstructure:"key_attribute"`
	Attributes  []AttributeDef `yaml:"attributes" json:"attributes" mapstructure:"attributes"`
	Examples    []string       `yaml:"examples,omitempty" json:"examples,omitempty" mapstructure:"examples"`
}

// Validate checks the structural invariants of the entity type:
// non-empty name, unique attribute names, known semantic types, and a key
// attribute that is itself declared.
func (e *EntityTypeDef) Validate() error {
	if e.Name == "" {
		return fmt.Errorf("entity type must have a name")
	}

	seen := make(map[string]bool, len(e.Attributes))
	for _, attr := range e.Attributes {
		if attr.Name == "" {
			return fmt.Errorf("entity type %q has an attribute without a name", e.Name)
		}
		if seen[attr.Name] {
			return fmt.Errorf("entity type %q declares attribute %q more than once", e.Name, attr.Name)
		}
		seen[attr.Name] = true

		if !attr.Type.Valid() {
			return fmt.Errorf("entity type %q attribute %q has unknown type %q", e.Name, attr.Name, attr.Type)
		}
	}

	if e.KeyAttr != "" && !seen[e.KeyAttr] {
		return fmt.Errorf("entity type %q key attribute %q is not a declared attribute", e.Name, e.KeyAttr)
	}

	return nil
}

// Attribute returns the declared attribute with the given name, or nil.
func (e *EntityTypeDef) Attribute(name string) *AttributeDef {
	for i := range e.Attributes {
		if e.Attributes[i].Name == name {
			return &e.Attributes[i]
		}
	}
	return nil
}

// MutableAttributes returns the names of attributes that may be updated on
// an existing vertex during a merge.
func (e *EntityTypeDef) MutableAttributes() []string {
	var names []string
	for _, attr := range e.Attributes {
		if attr.Mutable {
			names = append(names, attr.Name)
		}
	}
	return names
}

// RelationshipTypeDef declares an edge collection between two entity types.
// InferenceRule is an advisory heuristic surfaced to extraction prompts; the
// pipeline never enforces it mechanically.
type RelationshipTypeDef struct {
	Name          string         `yaml:"name" json:"name" mapstructure:"name"`
	Description   string         `yaml:"description,omitempty" json:"description,omitempty" mapstructure:"description"`
	Source        string         `yaml:"source" json:"source" mapstructure:"source"`
	Target        string         `yaml:"target" json:"target" mapstructure:"target"`
	Attributes    []AttributeDef `yaml:"attributes,omitempty" json:"attributes,omitempty" mapstructure:"attributes"`
	InferenceRule string         `yaml:"inference_rule,omitempty" json:"inference_rule,omitempty" mapstructure:"inference_rule"`
}

// Validate checks the structural invariants of the relationship type.
// Source and target existence is checked at registry level, where the
// declared entity types are known.
func (r *RelationshipTypeDef) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("relationship type must have a name")
	}
	if r.Source == "" || r.Target == "" {
		return fmt.Errorf("relationship type %q must declare source and target entity types", r.Name)
	}

	seen := make(map[string]bool, len(r.Attributes))
	for _, attr := range r.Attributes {
		if attr.Name == "" {
			return fmt.Errorf("relationship type %q has an attribute without a name", r.Name)
		}
		if seen[attr.Name] {
			return fmt.Errorf("relationship type %q declares attribute %q more than once", r.Name, attr.Name)
		}
		seen[attr.Name] = true

		if !attr.Type.Valid() {
			return fmt.Errorf("relationship type %q attribute %q has unknown type %q", r.Name, attr.Name, attr.Type)
		}
	}

	return nil
}

// MutableAttributes returns the names of attributes that may be updated on
// an existing edge during a merge.
func (r *RelationshipTypeDef) MutableAttributes() []string {
	var names []string
	for _, attr := range r.Attributes {
		if attr.Mutable {
			names = append(names, attr.Name)
		}
	}
	return names
}

// OutputSchemaDef pairs a registered schema id with its JSON schema document.
type OutputSchemaDef struct {
	ID          string     `yaml:"id" json:"id" mapstructure:"id"`
	Description string     `yaml:"description,omitempty" json:"description,omitempty" mapstructure:"description"`
	Schema      JSONSchema `yaml:"schema" json:"schema" mapstructure:"schema"`
}
