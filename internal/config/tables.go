package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/p-breslin/enterprise-agents/internal/agent"
	"github.com/p-breslin/enterprise-agents/internal/graph"
	"github.com/p-breslin/enterprise-agents/internal/llm"
	"github.com/p-breslin/enterprise-agents/internal/schema"
	"github.com/p-breslin/enterprise-agents/internal/workflow"
)

// TableSet is the fully loaded, cross-checked definition table bundle the
// pipeline runs from: the schema registry, the agent and workflow tables,
// the prompt templates, and the derived-edge link rules.
type TableSet struct {
	Registry  *schema.Registry
	Agents    *agent.Table
	Workflows *workflow.Table
	Prompts   map[string]*llm.PromptTemplate
	LinkRules []graph.LinkRule
}

// relationshipEntry is one row of the relationship-types table: the type
// definition plus an optional link rule deriving edges of this type from an
// attribute on entity records.
type relationshipEntry struct {
	schema.RelationshipTypeDef `yaml:",inline"`

	Link *linkSpec `yaml:"link,omitempty"`
}

// linkSpec is the file form of a derived-edge rule. The relationship name
// comes from the enclosing entry.
type linkSpec struct {
	RecordType     string `yaml:"record_type"`
	Attribute      string `yaml:"attribute"`
	RecordIsSource bool   `yaml:"record_is_source,omitempty"`
	EnsureEndpoint bool   `yaml:"ensure_endpoint,omitempty"`
	EndpointAttr   string `yaml:"endpoint_attr,omitempty"`
}

type entityTypesFile struct {
	EntityTypes []*schema.EntityTypeDef `yaml:"entity_types"`
}

type relationshipTypesFile struct {
	RelationshipTypes []relationshipEntry `yaml:"relationship_types"`
}

type outputSchemasFile struct {
	OutputSchemas []*schema.OutputSchemaDef `yaml:"output_schemas"`
}

type agentsFile struct {
	Agents []*agent.Descriptor `yaml:"agents"`
}

type workflowsFile struct {
	Workflows []*workflow.Descriptor `yaml:"workflows"`
}

type promptsFile struct {
	Prompts []*llm.PromptTemplate `yaml:"prompts"`
}

// LoadTables reads the six definition table files, registers their contents,
// and validates every cross-table reference. Tables load in dependency
// order: entity types first, then relationship types (which reference
// them), then the rest.
func LoadTables(tables TablesConfig) (*TableSet, error) {
	registry := schema.NewRegistry()

	var entities entityTypesFile
	if err := readYAML(tables.EntityTypes, &entities); err != nil {
		return nil, err
	}
	for _, def := range entities.EntityTypes {
		if err := registry.RegisterEntityType(def); err != nil {
			return nil, fmt.Errorf("%s: %w", tables.EntityTypes, err)
		}
	}

	var relationships relationshipTypesFile
	if err := readYAML(tables.RelationshipTypes, &relationships); err != nil {
		return nil, err
	}
	var rules []graph.LinkRule
	for i := range relationships.RelationshipTypes {
		entry := &relationships.RelationshipTypes[i]
		if err := registry.RegisterRelationshipType(&entry.RelationshipTypeDef); err != nil {
			return nil, fmt.Errorf("%s: %w", tables.RelationshipTypes, err)
		}
		if entry.Link != nil {
			rule, err := buildLinkRule(registry, entry)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", tables.RelationshipTypes, err)
			}
			rules = append(rules, rule)
		}
	}

	var schemas outputSchemasFile
	if err := readYAML(tables.OutputSchemas, &schemas); err != nil {
		return nil, err
	}
	for _, def := range schemas.OutputSchemas {
		if err := registry.RegisterOutputSchema(def); err != nil {
			return nil, fmt.Errorf("%s: %w", tables.OutputSchemas, err)
		}
	}

	var prompts promptsFile
	if err := readYAML(tables.Prompts, &prompts); err != nil {
		return nil, err
	}
	promptTable := make(map[string]*llm.PromptTemplate, len(prompts.Prompts))
	for _, tmpl := range prompts.Prompts {
		if err := tmpl.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", tables.Prompts, err)
		}
		if _, exists := promptTable[tmpl.ID]; exists {
			return nil, fmt.Errorf("%s: duplicate prompt template id %q", tables.Prompts, tmpl.ID)
		}
		promptTable[tmpl.ID] = tmpl
	}

	var agents agentsFile
	if err := readYAML(tables.Agents, &agents); err != nil {
		return nil, err
	}
	agentTable, err := agent.NewTable(agents.Agents)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", tables.Agents, err)
	}

	var workflows workflowsFile
	if err := readYAML(tables.Workflows, &workflows); err != nil {
		return nil, err
	}
	workflowTable, err := workflow.NewTable(workflows.Workflows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", tables.Workflows, err)
	}

	set := &TableSet{
		Registry:  registry,
		Agents:    agentTable,
		Workflows: workflowTable,
		Prompts:   promptTable,
		LinkRules: rules,
	}
	if err := set.validateReferences(); err != nil {
		return nil, err
	}
	return set, nil
}

// buildLinkRule lifts a file-form link spec into an engine rule, checking
// that the conditioning side exists.
func buildLinkRule(registry *schema.Registry, entry *relationshipEntry) (graph.LinkRule, error) {
	spec := entry.Link
	name := entry.Name

	if spec.RecordType == "" || spec.Attribute == "" {
		return graph.LinkRule{}, fmt.Errorf("relationship %q link rule must name record_type and attribute", name)
	}
	recordDef := registry.EntityType(spec.RecordType)
	if recordDef == nil {
		return graph.LinkRule{}, fmt.Errorf("relationship %q link rule references unknown entity type %q", name, spec.RecordType)
	}
	if recordDef.Attribute(spec.Attribute) == nil {
		return graph.LinkRule{}, fmt.Errorf("relationship %q link rule conditions on undeclared attribute %q of %q",
			name, spec.Attribute, spec.RecordType)
	}

	// The record must sit at the declared end of the edge.
	recordEnd := entry.Target
	if spec.RecordIsSource {
		recordEnd = entry.Source
	}
	if recordEnd != spec.RecordType {
		return graph.LinkRule{}, fmt.Errorf("relationship %q link rule places %q at the %s end, but the type declares %q there",
			name, spec.RecordType, endName(spec.RecordIsSource), recordEnd)
	}

	return graph.LinkRule{
		Relationship:   name,
		RecordType:     spec.RecordType,
		Attribute:      spec.Attribute,
		RecordIsSource: spec.RecordIsSource,
		EnsureEndpoint: spec.EnsureEndpoint,
		EndpointAttr:   spec.EndpointAttr,
	}, nil
}

func endName(isSource bool) string {
	if isSource {
		return "source"
	}
	return "target"
}

// validateReferences checks every cross-table reference so a broken table
// fails at load time instead of mid-run.
func (s *TableSet) validateReferences() error {
	for _, id := range s.Agents.IDs() {
		d, err := s.Agents.Get(id)
		if err != nil {
			return err
		}

		if d.PromptTemplate != "" {
			if _, ok := s.Prompts[d.PromptTemplate]; !ok {
				return fmt.Errorf("agent %q references unknown prompt template %q", d.ID, d.PromptTemplate)
			}
		}
		if d.OutputSchema != "" && s.Registry.OutputSchema(d.OutputSchema) == nil {
			return fmt.Errorf("agent %q references unknown output schema %q", d.ID, d.OutputSchema)
		}
		for _, dep := range d.Dependencies {
			if !s.Agents.Has(dep) {
				return fmt.Errorf("agent %q depends on unknown agent %q", d.ID, dep)
			}
		}
		for _, m := range d.Mappings {
			if s.Registry.EntityType(m.EntityType) == nil {
				return fmt.Errorf("agent %q maps state key %q to unknown entity type %q", d.ID, m.StateKey, m.EntityType)
			}
		}
	}

	for _, id := range s.Workflows.IDs() {
		w, err := s.Workflows.Get(id)
		if err != nil {
			return err
		}
		for _, agentID := range w.AgentSequence {
			if !s.Agents.Has(agentID) {
				return fmt.Errorf("workflow %q references unknown agent %q", w.ID, agentID)
			}
		}
	}

	return nil
}

// readYAML reads one table file into out.
func readYAML(path string, out any) error {
	if path == "" {
		return fmt.Errorf("table file path is not configured")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading table file: %w", err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}
