package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/jobmail-sync/internal/types"
)

var syncJSON bool

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Scan the source folder and update the records",
	Long: `Reads every email in the source folder, extracts and classifies it and merges the result into the store.

Records whose emails disappeared from the folder are removed. Manual statuses are kept, and a status pin
restores them if the opportunity shows up again later. Descriptions are fetched only for new records.`,
	Args: cobra.NoArgs,
	RunE: runSync,
}

var resetForce bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete all records and rebuild them from the source folder",
	Long: `Pins every non-incoming status, deletes all records and runs a full sync.
Pinned statuses are restored on the rebuilt records.`,
	Args: cobra.NoArgs,
	RunE: runReset,
}

func init() {
	syncCmd.Flags().BoolVar(&syncJSON, "json", false, "Print the summary as JSON")
	resetCmd.Flags().BoolVar(&resetForce, "force", false, "Confirm deleting all records")

	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(resetCmd)
}

func runSync(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()
	if err := a.requireSource(); err != nil {
		return err
	}

	summary, err := a.engine.Sync(ctx)
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}
	return printSummary(cmd, a, summary)
}

func runReset(cmd *cobra.Command, _ []string) error {
	if !resetForce {
		return fmt.Errorf("reset deletes every record; pass --force to confirm")
	}
	ctx := cmd.Context()
	a, err := openApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()
	if err := a.requireSource(); err != nil {
		return err
	}

	summary, err := a.engine.Reset(ctx)
	if err != nil {
		return fmt.Errorf("reset failed: %w", err)
	}
	return printSummary(cmd, a, summary)
}

func printSummary(cmd *cobra.Command, a *app, summary types.SyncSummary) error {
	if !syncJSON {
		a.printer.PrintSyncSummary(summary)
		return nil
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(summary)
}
