package main

import (
	"github.com/spf13/cobra"

	"github.com/p-breslin/enterprise-agents/internal/workflow"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration and definition tables",
	Long: `Load the runtime config and every definition table, check all
cross-table references, and schedule every workflow to verify its
dependency graph is acyclic.

Nothing is executed and no connections are made; this is a static check
suitable for CI.`,
	Example: `  # Validate the default config and its tables
  enterprise-agents validate

  # Validate an alternate deployment
  enterprise-agents validate --config deploy/prod/config.yaml`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	_, set, err := loadRuntime()
	if err != nil {
		return err
	}

	scheduler := workflow.NewScheduler(set.Agents)
	for _, id := range set.Workflows.IDs() {
		w, err := set.Workflows.Get(id)
		if err != nil {
			return err
		}
		plan, err := scheduler.Schedule(w)
		if err != nil {
			return err
		}
		cmd.Printf("workflow %s: %d agents in %d stages\n", id, len(plan.Order), len(plan.Stages))
	}

	cmd.Printf("OK: %d entity types, %d relationship types, %d agents, %d workflows, %d prompts\n",
		len(set.Registry.EntityTypes()),
		len(set.Registry.RelationshipTypes()),
		set.Agents.Len(),
		len(set.Workflows.IDs()),
		len(set.Prompts))
	return nil
}
