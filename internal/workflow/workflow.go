// Package workflow contains the dependency scheduler and the run
// coordinator: it orders a workflow's agents into executable stages from
// their declared dependencies and drives a run through them, enforcing the
// configured failure policy.
package workflow

import (
	"fmt"

	"github.com/p-breslin/enterprise-agents/internal/types"
)

// FailurePolicy controls how a run reacts when an agent fails terminally.
type FailurePolicy string

const (
	// FailAbort stops scheduling new agents and cancels the run. Agents
	// already in flight finish cooperatively.
	FailAbort FailurePolicy = "abort"

	// FailContinue skips the failed agent's dependent subtree and keeps
	// running every agent whose dependencies all succeeded.
	FailContinue FailurePolicy = "continue"
)

// Valid reports whether the policy is one of the known values.
func (p FailurePolicy) Valid() bool {
	return p == FailAbort || p == FailContinue
}

// Descriptor is one row of the workflow table: an ordered list of agent IDs
// plus run-level policy. The agent order is a declaration order, not an
// execution order; execution order is derived from agent dependencies, with
// declaration order only breaking ties.
type Descriptor struct {
	// ID uniquely identifies the workflow within the table.
	ID string `yaml:"id" json:"id" mapstructure:"id"`

	// Description is a human-readable summary for logs and listings.
	Description string `yaml:"description,omitempty" json:"description,omitempty" mapstructure:"description"`

	// AgentSequence lists the IDs of the agents this workflow runs.
	AgentSequence []string `yaml:"agent_sequence" json:"agent_sequence" mapstructure:"agent_sequence"`

	// TriggerCondition names the event that starts this workflow (e.g.
	// "manual", "document_received"). Informational; runs are started
	// explicitly through the coordinator.
	TriggerCondition string `yaml:"trigger_condition,omitempty" json:"trigger_condition,omitempty" mapstructure:"trigger_condition"`

	// OutputDestination names where the workflow's final output goes, such
	// as a graph collection set or a state key.
	OutputDestination string `yaml:"output_destination,omitempty" json:"output_destination,omitempty" mapstructure:"output_destination"`

	// FailurePolicy selects abort or continue semantics. Empty means abort.
	FailurePolicy FailurePolicy `yaml:"failure_policy,omitempty" json:"failure_policy,omitempty" mapstructure:"failure_policy"`
}

// Policy returns the effective failure policy, defaulting to abort.
func (d *Descriptor) Policy() FailurePolicy {
	if d.FailurePolicy == "" {
		return FailAbort
	}
	return d.FailurePolicy
}

// Validate checks the descriptor's internal consistency.
func (d *Descriptor) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("workflow must have an id")
	}
	if len(d.AgentSequence) == 0 {
		return fmt.Errorf("workflow %q must list at least one agent", d.ID)
	}
	seen := make(map[string]bool, len(d.AgentSequence))
	for _, id := range d.AgentSequence {
		if seen[id] {
			return fmt.Errorf("workflow %q lists agent %q twice", d.ID, id)
		}
		seen[id] = true
	}
	if d.FailurePolicy != "" && !d.FailurePolicy.Valid() {
		return fmt.Errorf("workflow %q has unknown failure_policy %q", d.ID, d.FailurePolicy)
	}
	return nil
}

// Table is an ordered workflow table indexed by ID.
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
			return nil, fmt.Errorf("duplicate workflow id %q", d.ID)
		}
		t.order = append(t.order, d.ID)
		t.byID[d.ID] = d
	}
	return t, nil
}

// Get returns the descriptor for a workflow ID.
func (t *Table) Get(id string) (*Descriptor, error) {
	d, ok := t.byID[id]
	if !ok {
		return nil, types.NewError(types.WORKFLOW_NOT_FOUND, "unknown workflow: "+id)
	}
	return d, nil
}

// IDs returns workflow IDs in declaration order.
func (t *Table) IDs() []string {
	ids := make([]string, len(t.order))
	copy(ids, t.order)
	return ids
}

// RunStatus represents the lifecycle state of a workflow run.
type RunStatus string

const (
	// RunStatusPending indicates the run is created but not yet scheduled.
	RunStatusPending RunStatus = "pending"

	// RunStatusScheduling indicates the execution order is being computed.
	RunStatusScheduling RunStatus = "scheduling"

	// RunStatusRunning indicates agents are executing.
	RunStatusRunning RunStatus = "running"

	// RunStatusCompleted indicates every agent succeeded.
	RunStatusCompleted RunStatus = "completed"

	// RunStatusPartiallyCompleted indicates some agents succeeded and the
	// rest were skipped under the continue policy.
	RunStatusPartiallyCompleted RunStatus = "partially_completed"

	// RunStatusFailed indicates the run was aborted or could not be
	// scheduled.
	RunStatusFailed RunStatus = "failed"
)

// String returns the string representation of the run status.
func (s RunStatus) String() string {
	return string(s)
}

// IsTerminal returns true if the status represents a terminal state.
func (s RunStatus) IsTerminal() bool {
	switch s {
	case RunStatusCompleted, RunStatusPartiallyCompleted, RunStatusFailed:
		return true
	default:
		return false
	}
}
