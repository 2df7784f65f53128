package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/jobmail-sync/internal/db"
	"github.com/jonathan/jobmail-sync/internal/server"
)

var serveMCPCmd = &cobra.Command{
	Use:   "serve-mcp",
	Short: "Serve the records as MCP tools over stdio",
	Long: `Starts a Model Context Protocol server on stdin/stdout with the tools list_opportunities, show_opportunity,
set_status, sync, status_counts and refresh_description. Logs go to stderr.`,
	Args: cobra.NoArgs,
	RunE: runServeMCP,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or upgrade the database schema",
	Args:  cobra.NoArgs,
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(serveMCPCmd)
	rootCmd.AddCommand(migrateCmd)
}

func runServeMCP(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd.Context(), cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	return server.New(a.engine, version).ServeStdio()
}

// runMigrate opens the store, which applies pending migrations.
func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.DBDriver == db.DriverMemory {
		return fmt.Errorf("the memory driver has no schema to migrate")
	}

	store, err := db.Open(cmd.Context(), db.Options{Driver: cfg.DBDriver, Path: cfg.DBPath, DatabaseURL: cfg.DatabaseURL})
	if err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	defer func() { _ = store.Close() }()

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Migrations applied (%s)\n", cfg.DBDriver)
	return nil
}
