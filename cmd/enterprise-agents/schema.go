package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Inspect registered output schemas",
}

var schemaListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered output schemas",
	Args:  cobra.NoArgs,
	RunE:  runSchemaList,
}

var schemaShowCmd = &cobra.Command{
	Use:   "show <schema-id>",
	Short: "Print one output schema as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runSchemaShow,
}

func init() {
	schemaCmd.AddCommand(schemaListCmd)
	schemaCmd.AddCommand(schemaShowCmd)
	rootCmd.AddCommand(schemaCmd)
}

func runSchemaList(cmd *cobra.Command, args []string) error {
	_, set, err := loadRuntime()
	if err != nil {
		return err
	}

	defs := set.Registry.OutputSchemas()
	sort.Slice(defs, func(i, j int) bool { return defs[i].ID < defs[j].ID })

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SCHEMA\tDESCRIPTION")
	for _, def := range defs {
		fmt.Fprintf(w, "%s\t%s\n", def.ID, def.Description)
	}
	return w.Flush()
}

func runSchemaShow(cmd *cobra.Command, args []string) error {
	_, set, err := loadRuntime()
	if err != nil {
		return err
	}

	def := set.Registry.OutputSchema(args[0])
	if def == nil {
		return fmt.Errorf("output schema %q is not registered", args[0])
	}

	data, err := json.MarshalIndent(def, "", "  ")
	if err != nil {
		return err
	}
	cmd.Println(string(data))
	return nil
}
