package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/reoring/ocppskema/jsonschema"
)

func newSchemaCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Inspect the message catalogue",
	}

	var messages bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List registered type ids",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := cmd.OutOrStdout()
			if messages {
				for _, t := range a.catalog.Messages() {
					fmt.Fprintf(w, "%s\t%s\n", t.ID, t.Action)
				}
				return nil
			}
			for _, id := range a.catalog.IDs() {
				fmt.Fprintln(w, id)
			}
			return nil
		},
	}
	list.Flags().BoolVar(&messages, "messages", false, "only message payload types, with their action")

	var check bool
	export := &cobra.Command{
		Use:   "export TYPE",
		Short: "Print the JSON Schema (draft-07) of a type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := jsonschema.Export(a.catalog, args[0])
			if err != nil {
				return err
			}
			if check {
				if _, err := jsonschema.Compile(s); err != nil {
					return fmt.Errorf("exported schema does not compile: %w", err)
				}
			}
			out, err := jsonschema.Marshal(s)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\n", out)
			return err
		},
	}
	export.Flags().BoolVar(&check, "check", false, "compile the export with an independent validator first")

	cmd.AddCommand(list, export)
	return cmd
}
