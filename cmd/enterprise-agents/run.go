package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"

	"github.com/p-breslin/enterprise-agents/internal/agent"
	"github.com/p-breslin/enterprise-agents/internal/config"
	"github.com/p-breslin/enterprise-agents/internal/graph"
	"github.com/p-breslin/enterprise-agents/internal/llm/providers"
	"github.com/p-breslin/enterprise-agents/internal/workflow"
)

var (
	runSeedFile   string
	runSeedKey    string
	runDryRun     bool
	runJSONOutput bool
)

var runCmd = &cobra.Command{
	Use:   "run <workflow-id>",
	Short: "Execute a workflow",
	Long: `Execute a workflow from the workflow table to completion and print the
run report.

The seed file is published into the run's session state before any agent
executes; extraction agents typically read it as the source document.
JSON seed files are published as structured documents, anything else as
raw text.

With --dry-run, graph-write agents merge into an in-memory store instead
of ArangoDB, so workflows can be exercised without a database.`,
	Example: `  # Run the ingest workflow over a ticket export
  enterprise-agents run ticket-ingest --seed export.txt

  # Rehearse without touching ArangoDB
  enterprise-agents run ticket-ingest --seed export.txt --dry-run

  # Machine-readable report
  enterprise-agents run ticket-ingest --seed export.txt --json`,
	Args: cobra.ExactArgs(1),
	RunE: runWorkflow,
}

func init() {
	runCmd.Flags().StringVar(&runSeedFile, "seed", "", "File published into session state before the run")
	runCmd.Flags().StringVar(&runSeedKey, "seed-key", "document", "State key the seed file is published under")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "Merge into an in-memory graph store")
	runCmd.Flags().BoolVar(&runJSONOutput, "json", false, "Print the run report as JSON")
}

func runWorkflow(cmd *cobra.Command, args []string) error {
	cfg, set, err := loadRuntime()
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Logging)

	seed, err := loadSeed()
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	store, err := openStore(ctx, cfg.Graph)
	if err != nil {
		return err
	}
	defer store.Close()

	merger := graph.NewMerger(store, set.Registry,
		graph.WithLinkRules(set.LinkRules),
		graph.WithMergerLogger(logger))
	if err := merger.EnsureCollections(ctx); err != nil {
		return fmt.Errorf("preparing graph collections: %w", err)
	}

	provider, err := providers.New(cfg.LLM.Provider)
	if err != nil {
		return err
	}

	retry := agent.DefaultRetryPolicy()
	retry.MaxRetries = cfg.Coordinator.MaxTransientRetries

	executor := agent.NewExecutor(provider, set.Registry, set.Prompts,
		agent.WithMerger(merger),
		agent.WithRetryPolicy(retry),
		agent.WithGenerationDefaults(cfg.LLM.Temperature, cfg.LLM.MaxTokens),
		agent.WithLogger(logger))

	opts := []workflow.CoordinatorOption{
		workflow.WithCoordinatorLogger(logger),
		workflow.WithParallelLimit(cfg.Coordinator.ParallelLimit),
		workflow.WithAgentTimeout(cfg.Coordinator.AgentTimeout),
	}
	if cfg.Tracing.Enabled {
		opts = append(opts, workflow.WithTracer(otel.Tracer("enterprise-agents")))
	}
	coordinator := workflow.NewCoordinator(set.Agents, set.Workflows, executor, opts...)

	report, runErr := coordinator.Run(ctx, args[0], seed)

	if err := printReport(cmd, report); err != nil {
		return err
	}
	return runErr
}

// openStore connects the configured graph store. Dry-run mode (from the
// flag or the config file) substitutes an in-memory store.
func openStore(ctx context.Context, cfg config.GraphConfig) (graph.Store, error) {
	if runDryRun || cfg.DryRun {
		return graph.NewMemoryStore(), nil
	}

	return graph.NewArangoStore(ctx, graph.ArangoConfig{
		Endpoints: cfg.Endpoints,
		Database:  cfg.Database,
		Username:  cfg.Username,
		Password:  cfg.Password,
		Timeout:   cfg.Timeout,
	})
}

// loadSeed reads the seed file into the value published under the seed key.
func loadSeed() (map[string]any, error) {
	if runSeedFile == "" {
		return nil, nil
	}

	data, err := os.ReadFile(runSeedFile)
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}

	var value any = string(data)
	if strings.EqualFold(filepath.Ext(runSeedFile), ".json") {
		var doc any
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parsing seed file %s: %w", runSeedFile, err)
		}
		value = doc
	}

	return map[string]any{runSeedKey: value}, nil
}

// printReport renders the run report as a table or JSON.
func printReport(cmd *cobra.Command, report *workflow.RunReport) error {
	if report == nil {
		return nil
	}

	if runJSONOutput {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Printf("Run %s (%s): %s in %s\n",
		report.RunID, report.WorkflowID, report.Status, report.Duration.Round(time.Millisecond))

	if len(report.Agents) == 0 {
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "AGENT\tSTATUS\tATTEMPTS\tDURATION\tDETAIL")
	for _, r := range report.Agents {
		detail := r.Error
		if r.Merge != nil {
			detail = fmt.Sprintf("%d vertices, %d edges, %d skipped",
				r.Merge.VertexUpserts, r.Merge.EdgeUpserts, r.Merge.Skipped)
			if len(r.Merge.Errors) > 0 {
				detail += fmt.Sprintf(", %d errors", len(r.Merge.Errors))
			}
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
			r.AgentID, r.Status, r.Attempts, r.Duration.Round(time.Millisecond), detail)
	}
	return w.Flush()
}
