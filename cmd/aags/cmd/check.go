package cmd

import (
	"errors"
	"strings"

	"aags-annotator/cmd/aags/globals"
	"aags-annotator/cmd/aags/utils"
	"aags-annotator/internal/subject"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	checkCmd.Flags().Float64("threshold", 0.9, "minimum similarity for suggestions")
	checkCmd.Flags().Int("suggestions", 3, "maximum suggestions per subject, 0 disables them")
	rootCmd.AddCommand(checkCmd)
}

var checkCmd = &cobra.Command{
	Use:   "check <subject>...",
	Short: "Check whether subject numbers satisfy AAGS.",
	Long: `Check whether subject numbers satisfy AAGS. Arguments use catalog notation,
slash lists and bracketed legacy numbers are understood:

  aags check 6.1220 "6.1000/A/B" "6.5060[6.827]"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		g := globals.Get(cmd.Context())
		threshold, _ := cmd.Flags().GetFloat64("threshold")
		limit, _ := cmd.Flags().GetInt("suggestions")

		flagged, err := g.List.Load(cmd.Context())
		if err != nil {
			return err
		}

		t := utils.NewTable(cmd.OutOrStdout())
		t.AppendHeader(table.Row{"Query", "Subject", "Format", "AAGS", "Did you mean"})

		var invalid []error
		for _, raw := range args {
			subjects, err := subject.Normalize(raw)
			if err != nil {
				invalid = append(invalid, err)
				continue
			}

			for _, s := range subjects {
				format := "legacy"
				if subject.IsNewFormat(s) {
					format = "new"
				}

				status := "no"
				var similar []string
				if subject.IsMember(s, flagged) {
					status = "yes"
				} else {
					for _, suggestion := range subject.Suggest(s, flagged, threshold, limit) {
						similar = append(similar, suggestion.Subject)
					}
				}
				t.AppendRow(table.Row{raw, s, format, status, strings.Join(similar, ", ")})
			}
		}

		t.Render()
		return errors.Join(invalid...)
	},
}
