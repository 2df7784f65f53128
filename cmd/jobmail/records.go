package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/jobmail-sync/internal/types"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Count records per status",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

var listCmd = &cobra.Command{
	Use:   "list [status]",
	Short: "List records, optionally only those with one status",
	Long: `Lists records grouped by status in the order incoming, applied, rejected, interview, manual_sort, archive.
Within a status, records are ordered by company, newest email first.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runList,
}

var showCmd = &cobra.Command{
	Use:   "show <id|record-key>",
	Short: "Show one record with its description",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

var setStatusCmd = &cobra.Command{
	Use:   "set-status <id|record-key> <status|none>",
	Short: "Set or clear the manual status of a record",
	Long: `Sets the manual status of a record. It wins over the status derived from the emails and survives later syncs.
"none" clears the manual status and the record falls back to its derived status.`,
	Args: cobra.ExactArgs(2),
	RunE: runSetStatus,
}

var describeCmd = &cobra.Command{
	Use:   "describe <id|record-key>",
	Short: "Fetch a missing description and translate it",
	Args:  cobra.ExactArgs(1),
	RunE:  runDescribe,
}

var translateExistingCmd = &cobra.Command{
	Use:   "translate-existing",
	Short: "Translate stored descriptions that have no translation yet",
	Args:  cobra.NoArgs,
	RunE:  runTranslateExisting,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(setStatusCmd)
	rootCmd.AddCommand(describeCmd)
	rootCmd.AddCommand(translateExistingCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	counts, err := a.engine.StatusCounts(ctx)
	if err != nil {
		return err
	}
	a.printer.PrintStatusCounts(counts)
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	statuses := types.StatusOrder
	if len(args) == 1 {
		status, err := types.ParseStatus(args[0])
		if err != nil {
			return err
		}
		if status == "" {
			return fmt.Errorf("%w: %q", types.ErrInvalidStatus, args[0])
		}
		statuses = []types.Status{status}
	}

	ctx := cmd.Context()
	a, err := openApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	printed := 0
	for _, status := range statuses {
		records, err := a.engine.List(ctx, status)
		if err != nil {
			return err
		}
		if len(args) == 0 && len(records) == 0 {
			continue
		}
		if printed > 0 {
			_, _ = fmt.Fprintln(cmd.OutOrStdout())
		}
		a.printer.PrintRecords(status, records)
		printed++
	}
	return nil
}

func runShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	rec, err := a.engine.Resolve(ctx, args[0])
	if err != nil {
		return err
	}
	a.printer.PrintRecord(rec)
	return nil
}

func runSetStatus(cmd *cobra.Command, args []string) error {
	status, err := types.ParseStatus(args[1])
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := openApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	rec, err := a.engine.SetStatus(ctx, args[0], types.StatusPtr(status))
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", rec.RecordKey, rec.CurrentStatus.Title())
	return nil
}

func runDescribe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	rec, err := a.engine.RefreshDescription(ctx, args[0])
	if err != nil {
		return err
	}
	a.printer.PrintRecord(rec)
	return nil
}

func runTranslateExisting(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.engine.TranslateExisting(ctx)
	if err != nil {
		return err
	}
	a.printer.PrintTranslateResult(res.Checked, res.Updated, res.Failed)
	return nil
}
