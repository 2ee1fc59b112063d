package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/p-breslin/enterprise-agents/internal/types"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry()

	require.NoError(t, r.RegisterEntityType(&EntityTypeDef{
		Name:    "Epic",
		KeyAttr: "epic_key",
		Attributes: []AttributeDef{
			{Name: "epic_key", Type: AttrString, Required: true},
			{Name: "summary", Type: AttrString, Mutable: true},
			{Name: "project", Type: AttrString},
		},
	}))
	require.NoError(t, r.RegisterEntityType(&EntityTypeDef{
		Name:    "Person",
		KeyAttr: "name",
		Attributes: []AttributeDef{
			{Name: "name", Type: AttrString, Required: true},
		},
	}))

	return r
}

func TestRegistry_RegisterEntityType(t *testing.T) {
	r := newTestRegistry(t)

	assert.NotNil(t, r.EntityType("Epic"))
	assert.Nil(t, r.EntityType("Story"))

	// Duplicate name rejected.
	err := r.RegisterEntityType(&EntityTypeDef{Name: "Epic"})
	assert.ErrorContains(t, err, "already registered")

	// Duplicate attribute names rejected.
	err = r.RegisterEntityType(&EntityTypeDef{
		Name: "Story",
		Attributes: []AttributeDef{
			{Name: "story_key", Type: AttrString},
			{Name: "story_key", Type: AttrString},
		},
	})
	assert.ErrorContains(t, err, "more than once")

	// Unknown semantic type rejected.
	err = r.RegisterEntityType(&EntityTypeDef{
		Name:       "Sprint",
		Attributes: []AttributeDef{{Name: "start", Type: "date"}},
	})
	assert.ErrorContains(t, err, "unknown type")

	// Key attribute must be declared.
	err = r.RegisterEntityType(&EntityTypeDef{
		Name:       "Team",
		KeyAttr:    "team_key",
		Attributes: []AttributeDef{{Name: "name", Type: AttrString}},
	})
	assert.ErrorContains(t, err, "key attribute")
}

func TestRegistry_RegisterRelationshipType(t *testing.T) {
	r := newTestRegistry(t)

	require.NoError(t, r.RegisterRelationshipType(&RelationshipTypeDef{
		Name:   "assigned_to",
		Source: "Epic",
		Target: "Person",
	}))
	assert.NotNil(t, r.RelationshipType("assigned_to"))

	// Source and target must reference declared entity types.
	err := r.RegisterRelationshipType(&RelationshipTypeDef{
		Name:   "has_story",
		Source: "Epic",
		Target: "Story",
	})
	assert.ErrorContains(t, err, "unknown target entity type")

	err = r.RegisterRelationshipType(&RelationshipTypeDef{
		Name:   "belongs_to",
		Source: "Sprint",
		Target: "Epic",
	})
	assert.ErrorContains(t, err, "unknown source entity type")
}

func TestRegistry_Validate(t *testing.T) {
	r := newTestRegistry(t)
	require.NoError(t, r.RegisterOutputSchema(&OutputSchemaDef{
		ID: "epic_list",
		Schema: NewObjectSchema(map[string]SchemaField{
			"epics": {
				Type: "array",
				Items: &SchemaField{
					Type: "object",
					Properties: map[string]SchemaField{
						"epic_key": NewStringField(""),
						"summary":  NewStringField(""),
					},
					Required: []string{"epic_key"},
				},
			},
		}, []string{"epics"}),
	}))

	valid := map[string]any{
		"epics": []any{map[string]any{"epic_key": "ENG-1", "summary": "Auth revamp"}},
	}
	require.NoError(t, r.Validate("epic_list", valid))

	invalid := map[string]any{
		"epics": []any{map[string]any{"summary": "no key"}},
	}
	err := r.Validate("epic_list", invalid)
	require.Error(t, err)
	assert.Equal(t, types.SCHEMA_VALIDATION_FAILED, types.CodeOf(err))

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "$.epics[0].epic_key", verr.Path)

	// Unknown schema id is itself a validation failure.
	err = r.Validate("nope", valid)
	require.Error(t, err)
	assert.Equal(t, types.SCHEMA_VALIDATION_FAILED, types.CodeOf(err))
}

func TestEntityTypeDef_MutableAttributes(t *testing.T) {
	r := newTestRegistry(t)

	epic := r.EntityType("Epic")
	assert.Equal(t, []string{"summary"}, epic.MutableAttributes())
	assert.NotNil(t, epic.Attribute("project"))
	assert.Nil(t, epic.Attribute("sprint"))
}
