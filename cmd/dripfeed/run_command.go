package main

import (
	"errors"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"dripfeed/internal/completion"
	"dripfeed/internal/contentdate"
	"dripfeed/internal/ledger"
	"dripfeed/internal/logging"
	"dripfeed/internal/manifest"
	"dripfeed/internal/rebuild"
	"dripfeed/internal/staging"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var confirm bool

	cmd := &cobra.Command{
		Use:   "run <phase>",
		Short: "Release one phase's source files day by day",
		Long: `Run stages every discoverable source file of the phase out of the
watched ingestion folders, then releases them back one calendar day at a
time, oldest first, waiting for the workers to finish each day before
the next is released.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm {
				return errors.New("run relocates source files out of the watched folders; pass --confirm to proceed")
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			phase := args[0]

			sigCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			runName := "dripfeed-" + time.Now().UTC().Format("20060102T150405Z")
			logger, err := ctx.newLogger(runName)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			man := manifest.Load(cfg.ManifestPath(), logger)
			files := staging.NewManager(cfg.Paths.StagingDir, cfg.RestorePause(), contentdate.FilenameExtractor{}, logger)
			watcher := completion.NewWatcher(man, cfg.Paths.ProcessedDir, cfg.Paths.FailedDir,
				cfg.PollInterval(), cfg.InactivityTimeout(), logger)

			history, err := ledger.Open(cfg.LedgerPath())
			if err != nil {
				logger.Warn("run history unavailable",
					logging.Error(err),
					logging.String(logging.FieldImpact, "this run will not appear in 'dripfeed history'"),
				)
				history = nil
			}
			if history != nil {
				defer history.Close()
			}

			mgr := rebuild.NewManager(cfg, man, files, watcher, history, logger)
			if err := mgr.Run(sigCtx, phase); err != nil {
				var timeoutErr *completion.TimeoutError
				if errors.As(err, &timeoutErr) {
					printTimeoutDiagnostics(cmd.OutOrStdout(), timeoutErr)
				}
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Phase %s fully released and resolved.\n", phase)
			return nil
		},
	}

	cmd.Flags().BoolVar(&confirm, "confirm", false, "Acknowledge that files will be moved out of the watched folders")
	return cmd
}

// printTimeoutDiagnostics dumps everything an operator needs to act on a
// stalled batch without digging through logs.
func printTimeoutDiagnostics(out io.Writer, err *completion.TimeoutError) {
	fmt.Fprintf(out, "\nBatch for %s stalled: no new artifact for %s.\n", err.Day, err.Inactivity)

	rows := make([][]string, 0, len(err.PendingFiles))
	for _, name := range err.PendingFiles {
		rows = append(rows, []string{name})
	}
	fmt.Fprintln(out, renderTable([]string{"Still pending"}, rows, nil))

	printListing(out, "Processed folder", err.ProcessedListing)
	printListing(out, "Failed folder", err.FailedListing)
}

func printListing(out io.Writer, title string, listing completion.Listing) {
	fmt.Fprintf(out, "\n%s (%s):\n", title, listing.Dir)
	if listing.Err != nil {
		fmt.Fprintf(out, "  unreadable: %v\n", listing.Err)
		return
	}
	if len(listing.Artifacts) == 0 {
		fmt.Fprintln(out, "  (empty)")
		return
	}
	rows := make([][]string, 0, len(listing.Artifacts))
	for _, artifact := range listing.Artifacts {
		rows = append(rows, []string{
			artifact.Name,
			humanize.IBytes(uint64(artifact.Size)),
			humanize.Time(artifact.ModTime),
		})
	}
	fmt.Fprintln(out, renderTable([]string{"Artifact", "Size", "Modified"}, rows, []columnAlignment{alignLeft, alignRight, alignLeft}))
}
