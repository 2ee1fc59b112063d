package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/p-breslin/enterprise-agents/internal/graph"
	"github.com/p-breslin/enterprise-agents/internal/llm"
	"github.com/p-breslin/enterprise-agents/internal/schema"
	"github.com/p-breslin/enterprise-agents/internal/state"
	"github.com/p-breslin/enterprise-agents/internal/types"
)

// Execution records what happened while running one agent: model attempts,
// whether the repair retry fired, and for graph_write agents the merge
// report.
type Execution struct {
	AgentID     string             `json:"agent_id"`
	OutputKey   string             `json:"output_key"`
	Attempts    int                `json:"attempts"`
	RepairUsed  bool               `json:"repair_used,omitempty"`
	Duration    time.Duration      `json:"duration"`
	MergeReport *graph.MergeReport `json:"merge_report,omitempty"`
}

// Executor runs one agent at a time: resolve inputs from session state,
// render the prompt, invoke the model, extract and validate the JSON
// response, and publish to state. Its only externally visible side effect is
// the publish; a terminal failure leaves the agent's output key unset.
type Executor struct {
	provider llm.Provider
	registry *schema.Registry
	prompts  map[string]*llm.PromptTemplate
	merger   *graph.Merger

	retry       RetryPolicy
	temperature float64
	maxTokens   int
	logger      *slog.Logger

	// sleep is swapped out in tests to avoid real backoff delays.
	sleep func(ctx context.Context, d time.Duration) error
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithRetryPolicy sets the transient-failure retry policy.
func WithRetryPolicy(policy RetryPolicy) ExecutorOption {
	return func(e *Executor) {
		e.retry = policy
	}
}

// WithLogger sets the logger used for execution progress.
func WithLogger(logger *slog.Logger) ExecutorOption {
	return func(e *Executor) {
		e.logger = logger
	}
}

// WithMerger provides the graph merge engine used by graph_write agents.
func WithMerger(merger *graph.Merger) ExecutorOption {
	return func(e *Executor) {
		e.merger = merger
	}
}

// WithGenerationDefaults sets the sampling parameters applied when a
// descriptor does not override them.
func WithGenerationDefaults(temperature float64, maxTokens int) ExecutorOption {
	return func(e *Executor) {
		e.temperature = temperature
		e.maxTokens = maxTokens
	}
}

// NewExecutor creates an executor over a model provider, schema registry,
// and prompt template table.
func NewExecutor(provider llm.Provider, registry *schema.Registry, prompts map[string]*llm.PromptTemplate, opts ...ExecutorOption) *Executor {
	e := &Executor{
		provider: provider,
		registry: registry,
		prompts:  prompts,
		retry:    DefaultRetryPolicy(),
		logger:   slog.Default(),
		sleep:    sleepContext,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs one agent against the session state.
func (e *Executor) Execute(ctx context.Context, d *Descriptor, st *state.Store) (*Execution, error) {
	start := time.Now()
	exec := &Execution{AgentID: d.ID, OutputKey: d.OutputKey}
	defer func() {
		exec.Duration = time.Since(start)
	}()

	e.logger.Info("executing agent", "agent", d.ID, "role", string(d.Role))

	if d.Role == RoleGraphWrite {
		return exec, e.executeGraphWrite(ctx, d, st, exec)
	}
	return exec, e.executeModelAgent(ctx, d, st, exec)
}

// executeModelAgent drives the extraction/analysis/integration path:
// prompt, invoke, parse, validate, publish.
func (e *Executor) executeModelAgent(ctx context.Context, d *Descriptor, st *state.Store, exec *Execution) error {
	vars, err := e.resolveInputs(d, st)
	if err != nil {
		return err
	}

	tmpl, ok := e.prompts[d.PromptTemplate]
	if !ok {
		return types.NewError(types.PROMPT_TEMPLATE_NOT_FOUND,
			fmt.Sprintf("agent %q references unknown prompt template %q", d.ID, d.PromptTemplate))
	}

	prompt := tmpl.Render(vars)

	value, failure, repairable := e.attempt(ctx, d, tmpl.System, prompt, exec)
	if failure != nil {
		// Only a rejected response earns a repair pass. Provider failures
		// (transient exhaustion, auth) surface as-is: re-invoking with a
		// correction hint cannot fix them and would blow the call budget.
		if !repairable {
			return failure
		}

		// One bounded repair retry: re-invoke with an error-correction hint
		// naming what was wrong with the previous response.
		exec.RepairUsed = true
		e.logger.Warn("agent output rejected, attempting repair",
			"agent", d.ID, "reason", failure.Error())

		value, failure, _ = e.attempt(ctx, d, tmpl.System, repairPrompt(prompt, failure), exec)
		if failure != nil {
			return failure
		}
	}

	if err := st.Publish(d.OutputKey, value); err != nil {
		return types.WrapError(types.EXTRACTION_FAILED,
			fmt.Sprintf("agent %q could not publish output", d.ID), err)
	}

	e.logger.Info("agent published output", "agent", d.ID, "key", d.OutputKey, "attempts", exec.Attempts)
	return nil
}

// attempt performs one invoke-parse-validate pass. Transient provider
// failures are retried with backoff inside the invoke and come back
// non-repairable; parse and validation failures come back repairable, as
// EXTRACTION_FAILED / SCHEMA_VALIDATION_FAILED errors, for the caller's
// repair decision.
func (e *Executor) attempt(ctx context.Context, d *Descriptor, system, prompt string, exec *Execution) (value any, failure error, repairable bool) {
	raw, err := e.invoke(ctx, d, system, prompt, exec)
	if err != nil {
		return nil, err, false
	}

	value, err = llm.ExtractJSONValue(raw)
	if err != nil {
		return nil, types.WrapError(types.EXTRACTION_FAILED,
			fmt.Sprintf("agent %q produced unparseable output", d.ID), err), true
	}

	if d.OutputSchema != "" {
		if err := e.registry.Validate(d.OutputSchema, value); err != nil {
			return nil, err, true
		}
	}

	return value, nil, false
}

// invoke calls the model provider, retrying transient failures up to the
// policy's bound with backoff.
func (e *Executor) invoke(ctx context.Context, d *Descriptor, system, prompt string, exec *Execution) (string, error) {
	req := llm.Request{
		Model:       d.Model,
		System:      system,
		Prompt:      prompt,
		Temperature: e.temperature,
		MaxTokens:   e.maxTokens,
	}
	if d.Temperature > 0 {
		req.Temperature = d.Temperature
	}

	var lastErr error
	for attempt := 0; ; attempt++ {
		exec.Attempts++
		raw, err := e.provider.Complete(ctx, req)
		if err == nil {
			return raw, nil
		}
		lastErr = err

		if !llm.IsRetryable(err) {
			return "", types.WrapError(types.EXTRACTION_FAILED,
				fmt.Sprintf("agent %q model call failed", d.ID), err)
		}
		if attempt >= e.retry.MaxRetries {
			break
		}

		delay := e.retry.CalculateDelay(attempt)
		e.logger.Warn("transient model failure, backing off",
			"agent", d.ID, "attempt", attempt+1, "delay", delay, "error", err)
		if serr := e.sleep(ctx, delay); serr != nil {
			return "", types.WrapError(types.WORKFLOW_CANCELLED, "agent cancelled during backoff", serr)
		}
	}

	return "", &types.PipelineError{
		Code:      types.TRANSIENT_FAILURE,
		Message:   fmt.Sprintf("agent %q exhausted %d transient retries", d.ID, e.retry.MaxRetries),
		Retryable: true,
		Cause:     lastErr,
	}
}

// executeGraphWrite gathers mapped state payloads, merges them into the
// graph, and publishes the merge report. A batch with unresolved dangling
// references is a terminal failure for the agent; the report still rides on
// the Execution for the run report.
func (e *Executor) executeGraphWrite(ctx context.Context, d *Descriptor, st *state.Store, exec *Execution) error {
	if e.merger == nil {
		return types.NewError(types.GRAPH_UNAVAILABLE,
			fmt.Sprintf("agent %q requires a graph store but none is configured", d.ID))
	}

	values := make(map[string]any, len(d.Mappings))
	for _, mapping := range d.Mappings {
		value, err := st.Require(mapping.StateKey)
		if err != nil {
			return err
		}
		values[mapping.StateKey] = value
	}

	batch, err := graph.BuildBatch(values, d.Mappings)
	if err != nil {
		return err
	}

	report := e.merger.Merge(ctx, batch)
	exec.MergeReport = report

	if !report.OK() {
		return types.NewError(types.DANGLING_REFERENCE,
			fmt.Sprintf("agent %q merge batch finished with %d failed records", d.ID, len(report.Errors)))
	}

	if err := st.Publish(d.OutputKey, report); err != nil {
		return types.WrapError(types.GRAPH_UPSERT_FAILED,
			fmt.Sprintf("agent %q could not publish merge report", d.ID), err)
	}

	e.logger.Info("agent merged graph batch",
		"agent", d.ID,
		"vertices", report.VertexUpserts,
		"edges", report.EdgeUpserts)
	return nil
}

// resolveInputs fetches each declared input key from state and renders it
// into a prompt variable of the same name.
func (e *Executor) resolveInputs(d *Descriptor, st *state.Store) (map[string]string, error) {
	vars := make(map[string]string, len(d.InputKeys))
	for _, key := range d.InputKeys {
		value, err := st.Require(key)
		if err != nil {
			return nil, err
		}

		rendered, err := renderValue(value)
		if err != nil {
			return nil, types.WrapError(types.MISSING_STATE,
				fmt.Sprintf("state key %q cannot be rendered into a prompt", key), err)
		}
		vars[key] = rendered
	}
	return vars, nil
}

// renderValue turns a state value into prompt text: strings pass through,
// structured documents become indented JSON.
func renderValue(value any) (string, error) {
	if s, ok := value.(string); ok {
		return s, nil
	}
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// repairPrompt extends the original prompt with an error-correction hint.
func repairPrompt(prompt string, failure error) string {
	return prompt + "\n\nYour previous response could not be used: " + failure.Error() +
		"\nRespond again with only a valid JSON document that conforms to the requested structure."
}

// sleepContext waits for the delay or the context, whichever ends first.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
