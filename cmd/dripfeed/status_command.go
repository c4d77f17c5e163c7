package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show rebuild progress from the manifest",
		RunE: func(cmd *cobra.Command, args []string) error {
			man, err := ctx.loadManifest()
			if err != nil {
				return err
			}

			phase, targets, completed, failed := man.Snapshot()
			pending := man.PendingIDs()

			out := cmd.OutOrStdout()
			phaseLabel := "(none)"
			if phase != "" {
				phaseLabel = titleCaser.String(phase)
			}
			fmt.Fprintf(out, "Phase: %s\n\n", phaseLabel)

			rows := [][]string{
				{"Targets", strconv.Itoa(len(targets))},
				{"Completed", strconv.Itoa(len(completed))},
				{"Failed", strconv.Itoa(len(failed))},
				{"Pending", strconv.Itoa(len(pending))},
			}
			fmt.Fprintln(out, renderTable([]string{"Set", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))

			if len(pending) > 0 {
				fmt.Fprintf(out, "\nPending IDs: %s\n", joinOrDash(pending))
			}
			if len(failed) > 0 {
				fmt.Fprintf(out, "Failed IDs:  %s\n", joinOrDash(failed))
			}
			return nil
		},
	}
}
