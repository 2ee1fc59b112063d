package schema

import (
	"fmt"

	"github.com/p-breslin/enterprise-agents/internal/types"
)

// Registry holds the declared entity types, relationship types, and agent
// output schemas for a deployment. It is populated once at load time and
// read-only afterwards; validation has no side effects.
type Registry struct {
	entityTypes       map[string]*EntityTypeDef
	relationshipTypes map[string]*RelationshipTypeDef
	outputSchemas     map[string]*OutputSchemaDef
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		entityTypes:       make(map[string]*EntityTypeDef),
		relationshipTypes: make(map[string]*RelationshipTypeDef),
		outputSchemas:     make(map[string]*OutputSchemaDef),
	}
}

// RegisterEntityType validates and registers an entity type definition.
// Names must be unique within the registry.
func (r *Registry) RegisterEntityType(def *EntityTypeDef) error {
	if err := def.Validate(); err != nil {
		return err
	}
	if _, exists := r.entityTypes[def.Name]; exists {
		return fmt.Errorf("entity type %q already registered", def.Name)
	}
	r.entityTypes[def.Name] = def
	return nil
}

// RegisterRelationshipType validates and registers a relationship type.
// Its source and target must reference entity types registered beforehand.
func (r *Registry) RegisterRelationshipType(def *RelationshipTypeDef) error {
	if err := def.Validate(); err != nil {
		return err
	}
	if _, exists := r.relationshipTypes[def.Name]; exists {
		return fmt.Errorf("relationship type %q already registered", def.Name)
	}
	if _, ok := r.entityTypes[def.Source]; !ok {
		return fmt.Errorf("relationship type %q references unknown source entity type %q", def.Name, def.Source)
	}
	if _, ok := r.entityTypes[def.Target]; !ok {
		return fmt.Errorf("relationship type %q references unknown target entity type %q", def.Name, def.Target)
	}
	r.relationshipTypes[def.Name] = def
	return nil
}

// RegisterOutputSchema registers an agent output schema under its id.
func (r *Registry) RegisterOutputSchema(def *OutputSchemaDef) error {
	if def.ID == "" {
		return fmt.Errorf("output schema must have an id")
	}
	if _, exists := r.outputSchemas[def.ID]; exists {
		return fmt.Errorf("output schema %q already registered", def.ID)
	}
	r.outputSchemas[def.ID] = def
	return nil
}

// EntityType returns the entity type with the given name, or nil.
func (r *Registry) EntityType(name string) *EntityTypeDef {
	return r.entityTypes[name]
}

// RelationshipType returns the relationship type with the given name, or nil.
func (r *Registry) RelationshipType(name string) *RelationshipTypeDef {
	return r.relationshipTypes[name]
}

// OutputSchema returns the output schema with the given id, or nil.
func (r *Registry) OutputSchema(id string) *OutputSchemaDef {
	return r.outputSchemas[id]
}

// EntityTypes returns all registered entity type definitions.
func (r *Registry) EntityTypes() []*EntityTypeDef {
	defs := make([]*EntityTypeDef, 0, len(r.entityTypes))
	for _, def := range r.entityTypes {
		defs = append(defs, def)
	}
	return defs
}

// RelationshipTypes returns all registered relationship type definitions.
func (r *Registry) RelationshipTypes() []*RelationshipTypeDef {
	defs := make([]*RelationshipTypeDef, 0, len(r.relationshipTypes))
	for _, def := range r.relationshipTypes {
		defs = append(defs, def)
	}
	return defs
}

// OutputSchemas returns all registered output schema definitions.
func (r *Registry) OutputSchemas() []*OutputSchemaDef {
	defs := make([]*OutputSchemaDef, 0, len(r.outputSchemas))
	for _, def := range r.outputSchemas {
		defs = append(defs, def)
	}
	return defs
}

// Validate validates a structured payload against the registered schema with
// the given id. It returns the first validation failure as a
// SCHEMA_VALIDATION_FAILED pipeline error, or nil when the payload conforms.
func (r *Registry) Validate(schemaID string, payload any) error {
	def, ok := r.outputSchemas[schemaID]
	if !ok {
		return types.NewError(types.SCHEMA_VALIDATION_FAILED,
			fmt.Sprintf("output schema %q is not registered", schemaID))
	}

	v := NewValidator(&def.Schema)
	if errs := v.ValidateValue(payload); len(errs) > 0 {
		return types.WrapError(types.SCHEMA_VALIDATION_FAILED,
			fmt.Sprintf("payload does not conform to schema %q", schemaID), &errs[0])
	}
	return nil
}
