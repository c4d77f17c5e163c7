package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"dripfeed/internal/ledger"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var showBatches bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent rebuild runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := ledger.Open(cfg.LedgerPath())
			if err != nil {
				return fmt.Errorf("open run history: %w", err)
			}
			defer store.Close()

			runs, err := store.RecentRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No recorded runs yet.")
				return nil
			}

			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				rows = append(rows, []string{
					shortID(run.RunID),
					run.Phase,
					run.StartedAt.Local().Format(time.DateTime),
					string(run.Outcome),
					fmt.Sprintf("%d/%d", run.DatesDone, run.DatesTotal),
					strconv.Itoa(run.FilesSucceeded),
					strconv.Itoa(run.FilesFailed),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Run", "Phase", "Started", "Outcome", "Days", "OK", "Failed"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight},
			))

			if !showBatches {
				return nil
			}
			for _, run := range runs {
				batches, err := store.BatchesForRun(cmd.Context(), run.RunID)
				if err != nil {
					return err
				}
				if len(batches) == 0 {
					continue
				}
				fmt.Fprintf(out, "\nRun %s:\n", shortID(run.RunID))
				batchRows := make([][]string, 0, len(batches))
				for _, batch := range batches {
					resolved := "-"
					if batch.ResolvedAt != nil {
						resolved = batch.ResolvedAt.Local().Format(time.TimeOnly)
					}
					batchRows = append(batchRows, []string{
						batch.Day,
						strconv.Itoa(batch.BatchSize),
						strconv.Itoa(batch.Succeeded),
						strconv.Itoa(batch.Failed),
						batch.ReleasedAt.Local().Format(time.TimeOnly),
						resolved,
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Day", "Size", "OK", "Failed", "Released", "Resolved"},
					batchRows,
					[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignLeft, alignLeft},
				))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Maximum number of runs to show")
	cmd.Flags().BoolVar(&showBatches, "batches", false, "Also list each run's released day batches")
	return cmd
}

func shortID(runID string) string {
	if len(runID) > 8 {
		return runID[:8]
	}
	return runID
}
