package workflow

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/p-breslin/enterprise-agents/internal/agent"
	"github.com/p-breslin/enterprise-agents/internal/state"
	"github.com/p-breslin/enterprise-agents/internal/types"
)

// fakeRunner records the order agents were executed in and fails the ones it
// is scripted to fail. Successful executions publish the agent's output key
// so downstream input resolution behaves like the real executor.
type fakeRunner struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]error
}

func (f *fakeRunner) Execute(ctx context.Context, d *agent.Descriptor, st *state.Store) (*agent.Execution, error) {
	f.mu.Lock()
	f.calls = append(f.calls, d.ID)
	f.mu.Unlock()

	exec := &agent.Execution{AgentID: d.ID, OutputKey: d.OutputKey, Attempts: 1}
	if err, ok := f.fail[d.ID]; ok {
		return exec, err
	}
	if err := st.Publish(d.OutputKey, map[string]any{"from": d.ID}); err != nil {
		return exec, err
	}
	return exec, nil
}

func (f *fakeRunner) executed() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *fakeRunner) indexOf(id string) int {
	for i, call := range f.executed() {
		if call == id {
			return i
		}
	}
	return -1
}

func newWorkflowTable(t *testing.T, descriptors ...*Descriptor) *Table {
	t.Helper()
	table, err := NewTable(descriptors)
	require.NoError(t, err)
	return table
}

func TestRun_Completed(t *testing.T) {
	agents := newAgentTable(t,
		extractionAgent("a"),
		extractionAgent("b", "a"),
		extractionAgent("c", "a"),
	)
	workflows := newWorkflowTable(t, &Descriptor{ID: "w", AgentSequence: []string{"a", "b", "c"}})
	runner := &fakeRunner{}

	c := NewCoordinator(agents, workflows, runner)
	report, err := c.Run(context.Background(), "w", map[string]any{"document": "raw text"})
	require.NoError(t, err)

	assert.Equal(t, RunStatusCompleted, report.Status)
	assert.Equal(t, "w", report.WorkflowID)
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, []string{"a", "b", "c"}, report.Order)
	assert.Equal(t, 3, report.Succeeded())
	assert.Zero(t, report.Failed())
	assert.Zero(t, report.Skipped())

	for _, id := range []string{"a", "b", "c"} {
		result := report.Agent(id)
		require.NotNil(t, result)
		assert.Equal(t, AgentSucceeded, result.Status)
		assert.Equal(t, 1, result.Attempts)
	}

	// a runs in an earlier stage than both of its dependents.
	assert.Less(t, runner.indexOf("a"), runner.indexOf("b"))
	assert.Less(t, runner.indexOf("a"), runner.indexOf("c"))
}

func TestRun_AbortPolicy(t *testing.T) {
	agents := newAgentTable(t,
		extractionAgent("a"),
		extractionAgent("b", "a"),
		extractionAgent("c", "b"),
	)
	workflows := newWorkflowTable(t, &Descriptor{
		ID:            "w",
		AgentSequence: []string{"a", "b", "c"},
		FailurePolicy: FailAbort,
	})
	runner := &fakeRunner{fail: map[string]error{
		"b": types.NewError(types.EXTRACTION_FAILED, "agent b produced garbage"),
	}}

	c := NewCoordinator(agents, workflows, runner)
	report, err := c.Run(context.Background(), "w", nil)
	require.Error(t, err)
	assert.Equal(t, types.WORKFLOW_ABORTED, types.CodeOf(err))

	assert.Equal(t, RunStatusFailed, report.Status)
	assert.Equal(t, AgentSucceeded, report.Agent("a").Status)
	assert.Equal(t, AgentFailed, report.Agent("b").Status)
	assert.Equal(t, types.EXTRACTION_FAILED, report.Agent("b").Code)
	assert.Equal(t, AgentSkipped, report.Agent("c").Status)

	assert.NotContains(t, runner.executed(), "c")
}

func TestRun_ContinuePolicy(t *testing.T) {
	agents := newAgentTable(t,
		extractionAgent("a"),
		extractionAgent("b", "a"),
		extractionAgent("c", "a"),
		extractionAgent("d", "b"),
	)
	workflows := newWorkflowTable(t, &Descriptor{
		ID:            "w",
		AgentSequence: []string{"a", "b", "c", "d"},
		FailurePolicy: FailContinue,
	})
	runner := &fakeRunner{fail: map[string]error{
		"b": types.NewError(types.SCHEMA_VALIDATION_FAILED, "output rejected"),
	}}

	c := NewCoordinator(agents, workflows, runner)
	report, err := c.Run(context.Background(), "w", nil)
	require.NoError(t, err)

	assert.Equal(t, RunStatusPartiallyCompleted, report.Status)
	assert.Equal(t, AgentSucceeded, report.Agent("a").Status)
	assert.Equal(t, AgentFailed, report.Agent("b").Status)
	assert.Equal(t, AgentSucceeded, report.Agent("c").Status)
	assert.Equal(t, AgentSkipped, report.Agent("d").Status)
	assert.Contains(t, report.Agent("d").Error, `"b"`)

	// The subtree under b is skipped without executing.
	assert.NotContains(t, runner.executed(), "d")
	assert.Contains(t, runner.executed(), "c")
}

func TestRun_ContinuePolicySkipsTransitively(t *testing.T) {
	agents := newAgentTable(t,
		extractionAgent("a"),
		extractionAgent("b", "a"),
		extractionAgent("c", "b"),
		extractionAgent("d", "c"),
	)
	workflows := newWorkflowTable(t, &Descriptor{
		ID:            "w",
		AgentSequence: []string{"a", "b", "c", "d"},
		FailurePolicy: FailContinue,
	})
	runner := &fakeRunner{fail: map[string]error{
		"b": types.NewError(types.EXTRACTION_FAILED, "boom"),
	}}

	c := NewCoordinator(agents, workflows, runner)
	report, err := c.Run(context.Background(), "w", nil)
	require.NoError(t, err)

	assert.Equal(t, RunStatusPartiallyCompleted, report.Status)
	assert.Equal(t, AgentSkipped, report.Agent("c").Status)
	assert.Equal(t, AgentSkipped, report.Agent("d").Status)
	assert.Equal(t, []string{"a", "b"}, runner.executed())
}

func TestRun_ContinuePolicyWideStageConcurrentFailures(t *testing.T) {
	// One root fanning out to a wide middle stage with several failures, each
	// middle agent with its own dependent. The middle stage runs fully
	// concurrently, so failures land in the exclusion set from many
	// goroutines while the final stage is partitioned against it.
	descriptors := []*agent.Descriptor{extractionAgent("root")}
	sequence := []string{"root"}
	fail := map[string]error{}
	for i := 0; i < 8; i++ {
		mid := fmt.Sprintf("mid%d", i)
		leaf := fmt.Sprintf("leaf%d", i)
		descriptors = append(descriptors,
			extractionAgent(mid, "root"),
			extractionAgent(leaf, mid),
		)
		sequence = append(sequence, mid, leaf)
		if i%3 == 1 {
			fail[mid] = types.NewError(types.EXTRACTION_FAILED, mid+" produced garbage")
		}
	}

	agents := newAgentTable(t, descriptors...)
	workflows := newWorkflowTable(t, &Descriptor{
		ID:            "w",
		AgentSequence: sequence,
		FailurePolicy: FailContinue,
	})
	runner := &fakeRunner{fail: fail}

	c := NewCoordinator(agents, workflows, runner, WithParallelLimit(8))
	report, err := c.Run(context.Background(), "w", nil)
	require.NoError(t, err)

	assert.Equal(t, RunStatusPartiallyCompleted, report.Status)
	assert.Equal(t, AgentSucceeded, report.Agent("root").Status)

	executed := runner.executed()
	for i := 0; i < 8; i++ {
		mid := fmt.Sprintf("mid%d", i)
		leaf := fmt.Sprintf("leaf%d", i)
		if _, failed := fail[mid]; failed {
			assert.Equal(t, AgentFailed, report.Agent(mid).Status)
			assert.Equal(t, AgentSkipped, report.Agent(leaf).Status)
			assert.NotContains(t, executed, leaf)
		} else {
			assert.Equal(t, AgentSucceeded, report.Agent(mid).Status)
			assert.Equal(t, AgentSucceeded, report.Agent(leaf).Status)
		}
	}
	assert.Equal(t, len(fail), report.Failed())
	assert.Equal(t, len(fail), report.Skipped())
	assert.Equal(t, 1+2*(8-len(fail)), report.Succeeded())
}

func TestRun_SchedulingFailureRunsNothing(t *testing.T) {
	agents := newAgentTable(t,
		extractionAgent("a", "b"),
		extractionAgent("b", "a"),
	)
	workflows := newWorkflowTable(t, &Descriptor{ID: "w", AgentSequence: []string{"a", "b"}})
	runner := &fakeRunner{}

	c := NewCoordinator(agents, workflows, runner)
	report, err := c.Run(context.Background(), "w", nil)
	require.Error(t, err)
	assert.Equal(t, types.CYCLE_DETECTED, types.CodeOf(err))

	assert.Equal(t, RunStatusFailed, report.Status)
	assert.Empty(t, report.Agents)
	assert.Empty(t, runner.executed())
}

func TestRun_UnknownWorkflow(t *testing.T) {
	agents := newAgentTable(t, extractionAgent("a"))
	workflows := newWorkflowTable(t, &Descriptor{ID: "w", AgentSequence: []string{"a"}})

	c := NewCoordinator(agents, workflows, &fakeRunner{})
	report, err := c.Run(context.Background(), "ghost", nil)
	require.Error(t, err)
	assert.Equal(t, types.WORKFLOW_NOT_FOUND, types.CodeOf(err))
	assert.Equal(t, RunStatusFailed, report.Status)
}

func TestRun_SeedIsVisibleToAgents(t *testing.T) {
	agents := newAgentTable(t, extractionAgent("a"))
	workflows := newWorkflowTable(t, &Descriptor{ID: "w", AgentSequence: []string{"a"}})

	var sawDocument bool
	runner := runnerFunc(func(ctx context.Context, d *agent.Descriptor, st *state.Store) (*agent.Execution, error) {
		_, sawDocument = st.Get("document")
		return &agent.Execution{AgentID: d.ID}, st.Publish(d.OutputKey, "ok")
	})

	c := NewCoordinator(agents, workflows, runner)
	_, err := c.Run(context.Background(), "w", map[string]any{"document": "ticket dump"})
	require.NoError(t, err)
	assert.True(t, sawDocument)
}

type runnerFunc func(ctx context.Context, d *agent.Descriptor, st *state.Store) (*agent.Execution, error)

func (f runnerFunc) Execute(ctx context.Context, d *agent.Descriptor, st *state.Store) (*agent.Execution, error) {
	return f(ctx, d, st)
}
