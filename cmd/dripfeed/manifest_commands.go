package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newManifestCommand(ctx *commandContext) *cobra.Command {
	manifestCmd := &cobra.Command{
		Use:   "manifest",
		Short: "Inspect and reset the persisted rebuild manifest",
	}

	manifestCmd.AddCommand(newManifestShowCommand(ctx))
	manifestCmd.AddCommand(newManifestClearCommand(ctx))

	return manifestCmd
}

func newManifestShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the raw manifest file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			data, err := os.ReadFile(cfg.ManifestPath())
			if err != nil {
				if os.IsNotExist(err) {
					fmt.Fprintf(cmd.OutOrStdout(), "No manifest at %s yet.\n", cfg.ManifestPath())
					return nil
				}
				return fmt.Errorf("read manifest: %w", err)
			}
			cmd.OutOrStdout().Write(data)
			fmt.Fprintln(cmd.OutOrStdout())
			return nil
		},
	}
}

func newManifestClearCommand(ctx *commandContext) *cobra.Command {
	var confirm bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Reset the manifest to empty defaults",
		Long: `Clear erases the completed and failed ID sets, so the next run will
re-release every discoverable file. Emergency use only.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm {
				return errors.New("clearing the manifest forgets all completed work; pass --confirm to proceed")
			}
			man, err := ctx.loadManifest()
			if err != nil {
				return err
			}
			if err := man.Clear(); err != nil {
				return fmt.Errorf("clear manifest: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Manifest reset: %s\n", man.Path())
			return nil
		},
	}

	cmd.Flags().BoolVar(&confirm, "confirm", false, "Acknowledge that all completion records will be erased")
	return cmd
}
