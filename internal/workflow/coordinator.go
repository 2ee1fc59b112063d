package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/p-breslin/enterprise-agents/internal/agent"
	"github.com/p-breslin/enterprise-agents/internal/state"
	"github.com/p-breslin/enterprise-agents/internal/types"
)

// Runner executes one agent against a run's session state. Satisfied by
// agent.Executor.
type Runner interface {
	Execute(ctx context.Context, d *agent.Descriptor, st *state.Store) (*agent.Execution, error)
}

// Coordinator drives workflow runs: it schedules a workflow into stages,
// executes each stage with bounded concurrency, enforces the failure policy,
// and assembles the run report. It owns the session state for the duration
// of each run.
type Coordinator struct {
	agents    *agent.Table
	workflows *Table
	scheduler *Scheduler
	runner    Runner

	parallelLimit int
	agentTimeout  time.Duration
	logger        *slog.Logger
	tracer        trace.Tracer
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithCoordinatorLogger sets the logger used for run progress.
func WithCoordinatorLogger(logger *slog.Logger) CoordinatorOption {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

// WithTracer enables span creation around runs and agent executions.
func WithTracer(tracer trace.Tracer) CoordinatorOption {
	return func(c *Coordinator) {
		c.tracer = tracer
	}
}

// WithParallelLimit caps how many agents of one stage run concurrently.
// Values below 1 are treated as 1.
func WithParallelLimit(n int) CoordinatorOption {
	return func(c *Coordinator) {
		if n < 1 {
			n = 1
		}
		c.parallelLimit = n
	}
}

// WithAgentTimeout bounds each agent execution. Zero means no bound beyond
// the run context.
func WithAgentTimeout(d time.Duration) CoordinatorOption {
	return func(c *Coordinator) {
		c.agentTimeout = d
	}
}

// NewCoordinator creates a coordinator over an agent table, a workflow
// table, and a runner.
func NewCoordinator(agents *agent.Table, workflows *Table, runner Runner, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		agents:        agents,
		workflows:     workflows,
		scheduler:     NewScheduler(agents),
		runner:        runner,
		parallelLimit: 4,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run executes one workflow to a terminal state. The seed values are
// published into the run's session state before any agent runs, typically
// the raw document the extraction agents read.
//
// A scheduling failure (unknown agent, dependency outside the workflow, or a
// dependency cycle) fails the run before any agent executes. During
// execution, the workflow's failure policy decides what an agent failure
// means: abort cancels everything still pending, continue skips only the
// failed agent's dependent subtree. The report is always returned; the error
// is non-nil only when the run did not complete.
func (c *Coordinator) Run(ctx context.Context, workflowID string, seed map[string]any) (*RunReport, error) {
	report := &RunReport{
		RunID:      types.NewID(),
		WorkflowID: workflowID,
		Status:     RunStatusPending,
		StartedAt:  time.Now(),
	}
	defer func() {
		report.CompletedAt = time.Now()
		report.Duration = report.CompletedAt.Sub(report.StartedAt)
	}()

	if c.tracer != nil {
		var span trace.Span
		ctx, span = c.tracer.Start(ctx, "workflow.run",
			trace.WithAttributes(
				attribute.String("workflow.id", workflowID),
				attribute.String("run.id", string(report.RunID)),
			))
		defer span.End()
	}

	w, err := c.workflows.Get(workflowID)
	if err != nil {
		report.Status = RunStatusFailed
		return report, err
	}

	report.Status = RunStatusScheduling
	plan, err := c.scheduler.Schedule(w)
	if err != nil {
		c.logger.Error("workflow scheduling failed", "workflow", w.ID, "error", err)
		report.Status = RunStatusFailed
		return report, err
	}
	report.Order = plan.Order

	st := state.NewStore(report.RunID)
	for key, value := range seed {
		if err := st.Publish(key, value); err != nil {
			report.Status = RunStatusFailed
			return report, fmt.Errorf("seeding run state: %w", err)
		}
	}

	report.Status = RunStatusRunning
	c.logger.Info("workflow run started",
		"workflow", w.ID,
		"run_id", report.RunID,
		"agents", len(plan.Order),
		"stages", len(plan.Stages),
		"policy", string(w.Policy()))

	results, abortErr := c.runStages(ctx, w, plan, st)

	for _, id := range plan.Order {
		report.Agents = append(report.Agents, *results[id])
	}

	if abortErr != nil {
		report.Status = RunStatusFailed
		c.logger.Error("workflow run aborted", "workflow", w.ID, "run_id", report.RunID, "error", abortErr)
		return report, abortErr
	}

	if report.Failed() > 0 || report.Skipped() > 0 {
		report.Status = RunStatusPartiallyCompleted
	} else {
		report.Status = RunStatusCompleted
	}

	c.logger.Info("workflow run finished",
		"workflow", w.ID,
		"run_id", report.RunID,
		"status", report.Status.String(),
		"succeeded", report.Succeeded(),
		"failed", report.Failed(),
		"skipped", report.Skipped())
	return report, nil
}

// runStages executes the plan stage by stage. Within a stage, agents run
// concurrently up to the parallel limit. Returns per-agent results keyed by
// agent ID, plus the abort error if the run was cut short.
func (c *Coordinator) runStages(ctx context.Context, w *Descriptor, plan *Plan, st *state.Store) (map[string]*AgentResult, error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu       sync.Mutex
		results  = make(map[string]*AgentResult, len(plan.Order))
		excluded = make(map[string]bool, len(plan.Order))
		abortErr error
	)

	record := func(r *AgentResult) {
		mu.Lock()
		defer mu.Unlock()
		results[r.AgentID] = r
		if r.Status != AgentSucceeded {
			excluded[r.AgentID] = true
		}
	}

	for _, stage := range plan.Stages {
		// Partition the stage under the lock before anything runs: stage
		// goroutines write the exclusion set through record, so it must not
		// be read concurrently. Dependencies always sit in earlier stages,
		// so the set is complete for this stage once those have finished.
		mu.Lock()
		aborted := abortErr != nil
		var runnable []string
		var skipped []*AgentResult
		for _, id := range stage {
			if aborted {
				skipped = append(skipped, &AgentResult{AgentID: id, Status: AgentSkipped, Error: "run aborted"})
				continue
			}
			if failedDep := c.excludedDependency(id, excluded); failedDep != "" {
				skipped = append(skipped, &AgentResult{
					AgentID: id,
					Status:  AgentSkipped,
					Error:   fmt.Sprintf("dependency %q did not succeed", failedDep),
				})
				continue
			}
			runnable = append(runnable, id)
		}
		mu.Unlock()

		for _, r := range skipped {
			record(r)
		}
		if len(runnable) == 0 {
			continue
		}

		g, stageCtx := errgroup.WithContext(runCtx)
		g.SetLimit(c.parallelLimit)

		for _, id := range runnable {
			id := id
			g.Go(func() error {
				result := c.runAgent(stageCtx, id, st)
				record(result)

				if result.Status == AgentFailed && w.Policy() == FailAbort {
					mu.Lock()
					if abortErr == nil {
						abortErr = types.NewError(types.WORKFLOW_ABORTED,
							fmt.Sprintf("workflow %q aborted: agent %q failed: %s", w.ID, id, result.Error))
					}
					mu.Unlock()
					cancel()
				}
				return nil
			})
		}

		// Errors are recorded in results, never returned from goroutines.
		_ = g.Wait()
	}

	return results, abortErr
}

// excludedDependency returns the first dependency of id that failed or was
// skipped, or "" when all dependencies succeeded. Skipping propagates
// transitively because a skipped agent is itself excluded by the time its
// dependents' stage is evaluated.
func (c *Coordinator) excludedDependency(id string, excluded map[string]bool) string {
	d, err := c.agents.Get(id)
	if err != nil {
		return ""
	}
	for _, dep := range d.Dependencies {
		if excluded[dep] {
			return dep
		}
	}
	return ""
}

// runAgent executes a single agent and converts the outcome into a result
// row. Cancellation before the agent starts counts as a skip, not a failure.
func (c *Coordinator) runAgent(ctx context.Context, id string, st *state.Store) *AgentResult {
	if err := ctx.Err(); err != nil {
		return &AgentResult{AgentID: id, Status: AgentSkipped, Error: "run aborted"}
	}

	d, err := c.agents.Get(id)
	if err != nil {
		return &AgentResult{AgentID: id, Status: AgentFailed, Error: err.Error(), Code: types.CodeOf(err)}
	}

	if c.agentTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.agentTimeout)
		defer cancel()
	}

	if c.tracer != nil {
		var span trace.Span
		ctx, span = c.tracer.Start(ctx, "agent.execute",
			trace.WithAttributes(attribute.String("agent.id", id)))
		defer span.End()
	}

	exec, err := c.runner.Execute(ctx, d, st)

	result := &AgentResult{AgentID: id, Status: AgentSucceeded}
	if exec != nil {
		result.Attempts = exec.Attempts
		result.RepairUsed = exec.RepairUsed
		result.Duration = exec.Duration
		result.Merge = exec.MergeReport
	}
	if err != nil {
		result.Status = AgentFailed
		result.Error = err.Error()
		result.Code = types.CodeOf(err)
		c.logger.Error("agent failed", "agent", id, "code", string(result.Code), "error", err)
	}
	return result
}
