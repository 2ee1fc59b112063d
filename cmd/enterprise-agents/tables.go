package main

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "List the loaded definition tables",
	Long: `Print a summary of every definition table: entity types with their key
attributes, relationship types with their endpoints, agents with their
dependencies, and workflows with their agent sequences.`,
	Args: cobra.NoArgs,
	RunE: runTables,
}

func runTables(cmd *cobra.Command, args []string) error {
	_, set, err := loadRuntime()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)

	fmt.Fprintln(w, "ENTITY TYPE\tKEY\tATTRIBUTES")
	entities := set.Registry.EntityTypes()
	sort.Slice(entities, func(i, j int) bool { return entities[i].Name < entities[j].Name })
	for _, def := range entities {
		names := make([]string, len(def.Attributes))
		for i, attr := range def.Attributes {
			names[i] = attr.Name
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", def.Name, def.KeyAttr, strings.Join(names, ", "))
	}

	fmt.Fprintln(w, "\nRELATIONSHIP\tSOURCE\tTARGET")
	relationships := set.Registry.RelationshipTypes()
	sort.Slice(relationships, func(i, j int) bool { return relationships[i].Name < relationships[j].Name })
	for _, def := range relationships {
		fmt.Fprintf(w, "%s\t%s\t%s\n", def.Name, def.Source, def.Target)
	}

	fmt.Fprintln(w, "\nAGENT\tROLE\tDEPENDS ON\tOUTPUT KEY")
	for _, id := range set.Agents.IDs() {
		d, err := set.Agents.Get(id)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", d.ID, d.Role, strings.Join(d.Dependencies, ", "), d.OutputKey)
	}

	fmt.Fprintln(w, "\nWORKFLOW\tPOLICY\tAGENTS")
	for _, id := range set.Workflows.IDs() {
		wf, err := set.Workflows.Get(id)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", wf.ID, wf.Policy(), strings.Join(wf.AgentSequence, ", "))
	}

	return w.Flush()
}
