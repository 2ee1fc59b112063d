// Package agent defines agent descriptors and the executor that runs a
// single agent: resolve input from session state, render the prompt, call
// the model, extract and validate JSON output, and publish the result back
// to state.
package agent

import (
	"fmt"

	"github.com/p-breslin/enterprise-agents/internal/graph"
	"github.com/p-breslin/enterprise-agents/internal/types"
)

// Role classifies what an agent contributes to a workflow.
type Role string

const (
	// RoleExtraction agents pull structured records out of raw documents.
	RoleExtraction Role = "extraction"
	// RoleAnalysis agents derive new facts from previously extracted state.
	RoleAnalysis Role = "analysis"
	// RoleIntegration agents combine multiple upstream outputs into one.
	RoleIntegration Role = "integration"
	// RoleGraphWrite agents persist accumulated state into the graph store.
	RoleGraphWrite Role = "graph_write"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	switch r {
	case RoleExtraction, RoleAnalysis, RoleIntegration, RoleGraphWrite:
		return true
	default:
		return false
	}
}

// Descriptor is one row of the agent table: everything the executor needs
// to run the agent, plus the dependency edges the scheduler orders by.
type Descriptor struct {
	// ID uniquely identifies the agent within the table.
	ID string `yaml:"id" json:"id" mapstructure:"id"`

	// Name is a human-readable name for logs and reports.
	Name string `yaml:"name,omitempty" json:"name,omitempty" mapstructure:"name"`

	// Role classifies the agent's contribution.
	Role Role `yaml:"role" json:"role" mapstructure:"role"`

	// Dependencies lists agent IDs whose outputs must exist before this
	// agent runs. The scheduler derives the execution order from these.
	Dependencies []string `yaml:"dependencies,omitempty" json:"dependencies,omitempty" mapstructure:"dependencies"`

	// InputKeys names the session state keys this agent reads. Each key is
	// substituted into the prompt template placeholder of the same name.
	InputKeys []string `yaml:"input_keys,omitempty" json:"input_keys,omitempty" mapstructure:"input_keys"`

	// OutputKey names the session state key the agent's validated output is
	// published under.
	OutputKey string `yaml:"output_key" json:"output_key" mapstructure:"output_key"`

	// PromptTemplate references a prompt template by ID.
	PromptTemplate string `yaml:"prompt_template,omitempty" json:"prompt_template,omitempty" mapstructure:"prompt_template"`

	// OutputSchema references an output schema by ID. The executor rejects
	// model responses that do not conform.
	OutputSchema string `yaml:"output_schema,omitempty" json:"output_schema,omitempty" mapstructure:"output_schema"`

	// Mappings translate session state payloads into graph records. Only
	// meaningful for graph_write agents.
	Mappings []graph.Mapping `yaml:"mappings,omitempty" json:"mappings,omitempty" mapstructure:"mappings"`

	// Model optionally overrides the provider's default model.
	Model string `yaml:"model,omitempty" json:"model,omitempty" mapstructure:"model"`

	// Temperature optionally overrides the configured sampling temperature.
	Temperature float64 `yaml:"temperature,omitempty" json:"temperature,omitempty" mapstructure:"temperature"`
}

// Validate checks the descriptor's internal consistency. Cross-table
// references (prompt templates, output schemas, dependency IDs) are checked
// by the table loader, which can see the whole table set.
func (d *Descriptor) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("agent must have an id")
	}
	if !d.Role.Valid() {
		return fmt.Errorf("agent %q has unknown role %q", d.ID, d.Role)
	}
	if d.OutputKey == "" {
		return fmt.Errorf("agent %q must have an output_key", d.ID)
	}
	if d.Role != RoleGraphWrite && d.PromptTemplate == "" {
		return fmt.Errorf("agent %q has role %q and must reference a prompt_template", d.ID, d.Role)
	}
	if d.Role == RoleGraphWrite && len(d.Mappings) == 0 {
		return fmt.Errorf("agent %q has role graph_write and must declare mappings", d.ID)
	}
	seen := make(map[string]bool, len(d.Dependencies))
	for _, dep := range d.Dependencies {
		if dep == d.ID {
			return fmt.Errorf("agent %q depends on itself", d.ID)
		}
		if seen[dep] {
			return fmt.Errorf("agent %q lists dependency %q twice", d.ID, dep)
		}
		seen[dep] = true
	}
	return nil
}

// Table is an ordered agent table indexed by ID. Declaration order is
// preserved because the scheduler uses it to break ties deterministically.
type Table struct {
	order []string
	byID  map[string]*Descriptor
}

// NewTable builds a table from descriptors, rejecting duplicates and
// invalid entries.
func NewTable(descriptors []*Descriptor) (*Table, error) {
	t := &Table{
		order: make([]string, 0, len(descriptors)),
		byID:  make(map[string]*Descriptor, len(descriptors)),
	}
	for _, d := range descriptors {
		if err := d.Validate(); err != nil {
			return nil, err
		}
		if _, exists := t.byID[d.ID]; exists {
			return nil, fmt.Errorf("duplicate agent id %q", d.ID)
		}
		t.order = append(t.order, d.ID)
		t.byID[d.ID] = d
	}
	return t, nil
}

// Get returns the descriptor for an agent ID.
func (t *Table) Get(id string) (*Descriptor, error) {
	d, ok := t.byID[id]
	if !ok {
		return nil, types.NewError(types.AGENT_NOT_FOUND, "unknown agent: "+id)
	}
	return d, nil
}

// Has reports whether an agent ID exists in the table.
func (t *Table) Has(id string) bool {
	_, ok := t.byID[id]
	return ok
}

// IDs returns agent IDs in declaration order.
func (t *Table) IDs() []string {
	ids := make([]string, len(t.order))
	copy(ids, t.order)
	return ids
}

// Len returns the number of agents in the table.
func (t *Table) Len() int {
	return len(t.order)
}
