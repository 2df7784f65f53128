package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/jobmail-sync/internal/mailbox"
)

var (
	pullFolders []string
	pullSince   string
	pullSync    bool
)

var pullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Download mailbox messages into the source folder",
	Long: `Connects to the configured IMAP server over TLS and saves the messages of the configured folders
as .eml files in the source folder. Messages already present are skipped, so pulling again is cheap.

IMAP settings come from the "imap" section of the config file.`,
	Args: cobra.NoArgs,
	RunE: runPull,
}

func init() {
	pullCmd.Flags().StringSliceVar(&pullFolders, "folder", nil, "Mailbox folder to pull (repeatable, overrides the config)")
	pullCmd.Flags().StringVar(&pullSince, "since", "", "Only pull messages received on or after this date (YYYY-MM-DD)")
	pullCmd.Flags().BoolVar(&pullSync, "sync", false, "Run a sync after pulling")
	rootCmd.AddCommand(pullCmd)
}

func runPull(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("folder") {
		cfg.IMAP.Folders = pullFolders
	}
	if cmd.Flags().Changed("since") {
		cfg.IMAP.Since = pullSince
	}
	if err := cfg.ValidateIMAP(); err != nil {
		return err
	}
	since, err := cfg.IMAPSince()
	if err != nil {
		return err
	}

	puller := mailbox.NewPuller(mailbox.Options{
		Host:     cfg.IMAP.Host,
		Email:    cfg.IMAP.Email,
		Password: cfg.IMAP.Password,
		Folders:  cfg.IMAP.Folders,
		Since:    since,
		Dir:      cfg.SourceDir,
		Timeout:  cfg.FetchTimeoutDuration(),
		Verbose:  cfg.Verbose,
	})
	res, err := puller.Pull(ctx)
	if err != nil {
		return fmt.Errorf("pull failed: %w", err)
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Pulled %d messages: %d new, %d already present, %d failed\n",
		res.Found, res.Written, res.Skipped, res.Failed)

	if !pullSync {
		return nil
	}
	return runSync(cmd, nil)
}
