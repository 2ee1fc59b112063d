package workflow

import (
	"fmt"
	"strings"

	"github.com/p-breslin/enterprise-agents/internal/agent"
	"github.com/p-breslin/enterprise-agents/internal/types"
)

// Plan is a validated execution order for one workflow: a total order for
// deterministic reporting plus a partition into stages, where every agent in
// a stage has all its dependencies satisfied by earlier stages. Agents within
// a stage are independent and may run concurrently.
type Plan struct {
	Workflow *Descriptor
	Order    []string
	Stages   [][]string

	// Dependents maps each agent to the agents that depend on it, within
	// this workflow. The coordinator uses it to skip subtrees under the
	// continue policy.
	Dependents map[string][]string
}

// Scheduler derives execution plans from agent dependency declarations.
// It is stateless.
type Scheduler struct {
	agents *agent.Table
}

// NewScheduler creates a scheduler over an agent table.
func NewScheduler(agents *agent.Table) *Scheduler {
	return &Scheduler{agents: agents}
}

// Schedule validates the workflow's agent graph and computes the execution
// plan. It fails with MISSING_DEPENDENCY if an agent references an ID outside
// the workflow, and with CYCLE_DETECTED (naming the cycle path) if the
// dependency graph is not acyclic.
//
// The order is deterministic: among agents whose dependencies are all
// satisfied, the workflow's declaration order breaks ties. Re-scheduling the
// same workflow always yields the same plan.
func (s *Scheduler) Schedule(w *Descriptor) (*Plan, error) {
	if err := s.validateMembers(w); err != nil {
		return nil, err
	}

	if cycle := s.detectCycle(w); len(cycle) > 0 {
		return nil, types.NewError(types.CYCLE_DETECTED,
			"cycle detected in workflow "+w.ID+": "+strings.Join(cycle, " -> "))
	}

	order, stages := s.stableTopoSort(w)

	return &Plan{
		Workflow:   w,
		Order:      order,
		Stages:     stages,
		Dependents: s.buildDependents(w),
	}, nil
}

// validateMembers checks that every agent in the sequence exists in the
// agent table and that every dependency points at another member of the
// same workflow.
func (s *Scheduler) validateMembers(w *Descriptor) error {
	members := make(map[string]bool, len(w.AgentSequence))
	for _, id := range w.AgentSequence {
		if !s.agents.Has(id) {
			return types.NewError(types.AGENT_NOT_FOUND,
				fmt.Sprintf("workflow %q references unknown agent %q", w.ID, id))
		}
		members[id] = true
	}

	for _, id := range w.AgentSequence {
		d, err := s.agents.Get(id)
		if err != nil {
			return err
		}
		for _, dep := range d.Dependencies {
			if !members[dep] {
				return types.NewError(types.MISSING_DEPENDENCY,
					fmt.Sprintf("agent %q depends on %q which is not part of workflow %q", id, dep, w.ID))
			}
		}
	}
	return nil
}

// detectCycle runs depth-first search with color marking over the dependency
// graph. Colors: white (0) = unvisited, gray (1) = in-progress, black (2) =
// done. Returns the nodes on a cycle if one exists, otherwise nil. Traversal
// follows declaration order so the reported path is deterministic.
func (s *Scheduler) detectCycle(w *Descriptor) []string {
	color := make(map[string]int, len(w.AgentSequence))
	parent := make(map[string]string)

	adj := s.buildDependents(w)

	var dfs func(id string) []string
	dfs = func(id string) []string {
		color[id] = 1

		for _, next := range adj[id] {
			if color[next] == 0 {
				parent[next] = id
				if cycle := dfs(next); cycle != nil {
					return cycle
				}
			} else if color[next] == 1 {
				// Back edge: reconstruct the cycle path.
				cycle := []string{next}
				current := id
				for current != next {
					cycle = append([]string{current}, cycle...)
					current = parent[current]
				}
				cycle = append([]string{next}, cycle...)
				return cycle
			}
		}

		color[id] = 2
		return nil
	}

	for _, id := range w.AgentSequence {
		if color[id] == 0 {
			if cycle := dfs(id); cycle != nil {
				return cycle
			}
		}
	}
	return nil
}

// stableTopoSort runs Kahn's algorithm with the workflow's declaration order
// as the tie-break, producing both the total order and the stage partition.
// Assumes the graph is already known to be acyclic.
func (s *Scheduler) stableTopoSort(w *Descriptor) (order []string, stages [][]string) {
	inDegree := make(map[string]int, len(w.AgentSequence))
	for _, id := range w.AgentSequence {
		d, _ := s.agents.Get(id)
		inDegree[id] = len(d.Dependencies)
	}

	dependents := s.buildDependents(w)
	done := make(map[string]bool, len(w.AgentSequence))

	for len(done) < len(w.AgentSequence) {
		// Collect every not-yet-done agent with zero remaining in-degree,
		// in declaration order. These form one stage.
		var stage []string
		for _, id := range w.AgentSequence {
			if !done[id] && inDegree[id] == 0 {
				stage = append(stage, id)
			}
		}

		for _, id := range stage {
			done[id] = true
			order = append(order, id)
			for _, next := range dependents[id] {
				inDegree[next]--
			}
		}
		stages = append(stages, stage)
	}

	return order, stages
}

// buildDependents inverts the dependency edges: if A depends on B, the
// result maps B to A. Slices follow declaration order.
func (s *Scheduler) buildDependents(w *Descriptor) map[string][]string {
	dependents := make(map[string][]string, len(w.AgentSequence))
	for _, id := range w.AgentSequence {
		dependents[id] = nil
	}
	for _, id := range w.AgentSequence {
		d, err := s.agents.Get(id)
		if err != nil {
			continue
		}
		for _, dep := range d.Dependencies {
			dependents[dep] = append(dependents[dep], id)
		}
	}
	return dependents
}
