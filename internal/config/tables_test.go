package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const entityTypesYAML = `
entity_types:
  - name: Epic
    key_attribute: epic_key
    attributes:
      - name: epic_key
        type: string
        required: true
      - name: summary
        type: string
        mutable: true
  - name: Story
    key_attribute: story_key
    attributes:
      - name: story_key
        type: string
        required: true
      - name: epic_key
        type: string
        nullable: true
      - name: assignee
        type: string
        nullable: true
      - name: status
        type: string
        mutable: true
  - name: Person
    key_attribute: name
    attributes:
      - name: name
        type: string
        required: true
`

const relationshipTypesYAML = `
relationship_types:
  - name: has_story
    source: Epic
    target: Story
    link:
      record_type: Story
      attribute: epic_key
  - name: assigned_to
    source: Story
    target: Person
    link:
      record_type: Story
      attribute: assignee
      record_is_source: true
      ensure_endpoint: true
      endpoint_attr: name
`

const outputSchemasYAML = `
output_schemas:
  - id: epic_list
    schema:
      type: object
      properties:
        epics:
          type: array
          items:
            type: object
            properties:
              epic_key:
                type: string
              summary:
                type: string
            required: [epic_key]
      required: [epics]
`

const promptsYAML = `
prompts:
  - id: epic_extraction
    system: You extract project management entities.
    text: |
      Extract every epic from the document below.

      {document}
`

const agentsYAML = `
agents:
  - id: epic-agent
    role: extraction
    input_keys: [document]
    output_key: epics
    prompt_template: epic_extraction
    output_schema: epic_list
  - id: graph-agent
    role: graph_write
    dependencies: [epic-agent]
    output_key: merge_report
    mappings:
      - state_key: epics
        list_field: epics
        entity_type: Epic
`

const workflowsYAML = `
workflows:
  - id: ticket-ingest
    agent_sequence: [epic-agent, graph-agent]
    failure_policy: continue
`

// writeTables writes the standard fixture tables, applying any overrides by
// file name.
func writeTables(t *testing.T, overrides map[string]string) TablesConfig {
	t.Helper()
	dir := t.TempDir()

	files := map[string]string{
		"entity_types.yaml":       entityTypesYAML,
		"relationship_types.yaml": relationshipTypesYAML,
		"output_schemas.yaml":     outputSchemasYAML,
		"agents.yaml":             agentsYAML,
		"workflows.yaml":          workflowsYAML,
		"prompts.yaml":            promptsYAML,
	}
	for name, contents := range overrides {
		files[name] = contents
	}
	for name, contents := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(contents), 0o644))
	}

	return TablesConfig{
		EntityTypes:       filepath.Join(dir, "entity_types.yaml"),
		RelationshipTypes: filepath.Join(dir, "relationship_types.yaml"),
		OutputSchemas:     filepath.Join(dir, "output_schemas.yaml"),
		Agents:            filepath.Join(dir, "agents.yaml"),
		Workflows:         filepath.Join(dir, "workflows.yaml"),
		Prompts:           filepath.Join(dir, "prompts.yaml"),
	}
}

func TestLoadTables(t *testing.T) {
	set, err := LoadTables(writeTables(t, nil))
	require.NoError(t, err)

	require.NotNil(t, set.Registry.EntityType("Epic"))
	require.NotNil(t, set.Registry.EntityType("Story"))
	require.NotNil(t, set.Registry.RelationshipType("has_story"))
	require.NotNil(t, set.Registry.OutputSchema("epic_list"))

	assert.Equal(t, []string{"epic-agent", "graph-agent"}, set.Agents.IDs())
	assert.Equal(t, []string{"ticket-ingest"}, set.Workflows.IDs())
	require.Contains(t, set.Prompts, "epic_extraction")
	assert.Contains(t, set.Prompts["epic_extraction"].Text, "{document}")

	require.Len(t, set.LinkRules, 2)
	hasStory := set.LinkRules[0]
	assert.Equal(t, "has_story", hasStory.Relationship)
	assert.Equal(t, "Story", hasStory.RecordType)
	assert.Equal(t, "epic_key", hasStory.Attribute)
	assert.False(t, hasStory.RecordIsSource)
	assert.False(t, hasStory.EnsureEndpoint)

	assignedTo := set.LinkRules[1]
	assert.Equal(t, "assigned_to", assignedTo.Relationship)
	assert.True(t, assignedTo.RecordIsSource)
	assert.True(t, assignedTo.EnsureEndpoint)
	assert.Equal(t, "name", assignedTo.EndpointAttr)
}

func TestLoadTables_AgentMappings(t *testing.T) {
	set, err := LoadTables(writeTables(t, nil))
	require.NoError(t, err)

	d, err := set.Agents.Get("graph-agent")
	require.NoError(t, err)
	require.Len(t, d.Mappings, 1)
	assert.Equal(t, "epics", d.Mappings[0].StateKey)
	assert.Equal(t, "epics", d.Mappings[0].ListField)
	assert.Equal(t, "Epic", d.Mappings[0].EntityType)
}

func TestLoadTables_UnknownPromptTemplate(t *testing.T) {
	_, err := LoadTables(writeTables(t, map[string]string{
		"agents.yaml": `
agents:
  - id: epic-agent
    role: extraction
    output_key: epics
    prompt_template: no_such_prompt
`,
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown prompt template")
}

func TestLoadTables_UnknownOutputSchema(t *testing.T) {
	_, err := LoadTables(writeTables(t, map[string]string{
		"agents.yaml": `
agents:
  - id: epic-agent
    role: extraction
    output_key: epics
    prompt_template: epic_extraction
    output_schema: no_such_schema
`,
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown output schema")
}

func TestLoadTables_WorkflowReferencesUnknownAgent(t *testing.T) {
	_, err := LoadTables(writeTables(t, map[string]string{
		"workflows.yaml": `
workflows:
  - id: ticket-ingest
    agent_sequence: [ghost-agent]
`,
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown agent")
}

func TestLoadTables_LinkRuleUndeclaredAttribute(t *testing.T) {
	_, err := LoadTables(writeTables(t, map[string]string{
		"relationship_types.yaml": `
relationship_types:
  - name: has_story
    source: Epic
    target: Story
    link:
      record_type: Story
      attribute: not_an_attribute
`,
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "undeclared attribute")
}

func TestLoadTables_LinkRuleWrongEnd(t *testing.T) {
	// The rule claims Story is the source, but has_story declares Epic there.
	_, err := LoadTables(writeTables(t, map[string]string{
		"relationship_types.yaml": `
relationship_types:
  - name: has_story
    source: Epic
    target: Story
    link:
      record_type: Story
      attribute: epic_key
      record_is_source: true
`,
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source end")
}

func TestLoadTables_RelationshipUnknownEndpoint(t *testing.T) {
	_, err := LoadTables(writeTables(t, map[string]string{
		"relationship_types.yaml": `
relationship_types:
  - name: has_story
    source: Epic
    target: Sprint
`,
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown target entity type")
}

func TestLoadTables_MissingFile(t *testing.T) {
	tables := writeTables(t, nil)
	tables.Agents = filepath.Join(t.TempDir(), "absent.yaml")

	_, err := LoadTables(tables)
	require.Error(t, err)
}
