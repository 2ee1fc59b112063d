package workflow

import (
	"time"

	"github.com/p-breslin/enterprise-agents/internal/graph"
	"github.com/p-breslin/enterprise-agents/internal/types"
)

// AgentStatus is the terminal outcome of one agent within a run.
type AgentStatus string

const (
	AgentSucceeded AgentStatus = "succeeded"
	AgentFailed    AgentStatus = "failed"
	AgentSkipped   AgentStatus = "skipped"
)

// AgentResult records one agent's outcome for the run report.
type AgentResult struct {
	AgentID    string             `json:"agent_id"`
	Status     AgentStatus        `json:"status"`
	Error      string             `json:"error,omitempty"`
	Code       types.ErrorCode    `json:"code,omitempty"`
	Attempts   int                `json:"attempts,omitempty"`
	RepairUsed bool               `json:"repair_used,omitempty"`
	Duration   time.Duration      `json:"duration,omitempty"`
	Merge      *graph.MergeReport `json:"merge,omitempty"`
}

// RunReport is the coordinator's structured result for one workflow run:
// overall status plus per-agent outcomes in execution order. Partial failure
// is reported here rather than thrown.
type RunReport struct {
	RunID       types.ID      `json:"run_id"`
	WorkflowID  string        `json:"workflow_id"`
	Status      RunStatus     `json:"status"`
	StartedAt   time.Time     `json:"started_at"`
	CompletedAt time.Time     `json:"completed_at"`
	Duration    time.Duration `json:"duration"`
	Order       []string      `json:"order,omitempty"`
	Agents      []AgentResult `json:"agents,omitempty"`
}

// Agent returns the result for one agent id, or nil.
func (r *RunReport) Agent(id string) *AgentResult {
	for i := range r.Agents {
		if r.Agents[i].AgentID == id {
			return &r.Agents[i]
		}
	}
	return nil
}

// Succeeded counts agents that published successfully.
func (r *RunReport) Succeeded() int {
	return r.count(AgentSucceeded)
}

// Failed counts agents that failed terminally.
func (r *RunReport) Failed() int {
	return r.count(AgentFailed)
}

// Skipped counts agents skipped because a dependency failed or the run
// aborted.
func (r *RunReport) Skipped() int {
	return r.count(AgentSkipped)
}

func (r *RunReport) count(status AgentStatus) int {
	n := 0
	for i := range r.Agents {
		if r.Agents[i].Status == status {
			n++
		}
	}
	return n
}
