package cmd

import (
	"aags-annotator/cmd/aags/globals"
	"aags-annotator/cmd/aags/utils"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	listCmd.Flags().Bool("json", false, "print the list in the {success, subjects, error} shape")
	rootCmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Fetch and print the subjects that satisfy AAGS.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		g := globals.Get(cmd.Context())
		out := cmd.OutOrStdout()

		result := g.List.Result(cmd.Context())
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			if err := utils.PrintJSON(out, result); err != nil {
				return err
			}
			return result.Err()
		}
		if err := result.Err(); err != nil {
			return err
		}

		t := utils.NewTable(out)
		t.AppendHeader(table.Row{"#", "Subject"})
		for i, s := range result.Subjects {
			t.AppendRow(table.Row{i + 1, s})
		}
		t.AppendFooter(table.Row{"", len(result.Subjects)})
		t.Render()
		return nil
	},
}
