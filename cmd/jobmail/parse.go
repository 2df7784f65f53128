package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/jobmail-sync/internal/ingestion"
	"github.com/jonathan/jobmail-sync/internal/observability"
	"github.com/jonathan/jobmail-sync/internal/parsing"
	"github.com/jonathan/jobmail-sync/internal/schemas"
	"github.com/jonathan/jobmail-sync/internal/types"
)

var (
	parseOutput    string
	parsePrint     bool
	validateSchema string
)

var parseCmd = &cobra.Command{
	Use:   "parse [folder]",
	Short: "Extract the fields of every email into a JSON file",
	Long: `Parses every email of the folder (default: the configured source folder) without touching the store
and writes one entry per email to a JSON file. The output is checked against the embedded schema before it is written.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runParse,
}

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Check a parsed export against its JSON schema",
	Long: `Validates a file written by "jobmail parse" (or edited by hand) against the embedded parsed opportunities
schema, or against the schema file given with --schema.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	parseCmd.Flags().StringVarP(&parseOutput, "out", "o", "parsed_jobs.json", "Output file")
	parseCmd.Flags().BoolVar(&parsePrint, "print", false, "Also print each parsed email")
	validateCmd.Flags().StringVar(&validateSchema, "schema", "", "Schema file to validate against instead of the embedded one")
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(validateCmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	dir := ""
	if len(args) == 1 {
		dir = args[0]
	} else {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		dir = cfg.SourceDir
	}
	if dir == "" {
		return fmt.Errorf("a folder is required (argument, --source or source_dir in the config file)")
	}

	parsed, err := parseFolder(cmd.Context(), dir)
	if err != nil {
		return err
	}
	if parsePrint {
		printer := observability.NewPrinter(cmd.OutOrStdout())
		for _, p := range parsed {
			printer.PrintParsed(p)
		}
	}
	if err := writeParsedExport(parseOutput, parsed); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d parsed emails to %s\n", len(parsed), parseOutput)
	return nil
}

// parseFolder parses every readable email under dir. Unreadable files are logged and skipped.
func parseFolder(ctx context.Context, dir string) ([]types.ParsedOpportunity, error) {
	items, failures, err := ingestion.NewFolderSource(dir).Items(ctx)
	if err != nil {
		return nil, err
	}
	for _, f := range failures {
		log.Printf("[PARSE] skipped %v", f)
	}

	parsed := make([]types.ParsedOpportunity, 0, len(items))
	for _, item := range items {
		parsed = append(parsed, parsing.ParseEmail(item))
	}
	return parsed, nil
}

// writeParsedExport validates the export against its schema and writes it to path.
func writeParsedExport(path string, parsed []types.ParsedOpportunity) error {
	data, err := json.MarshalIndent(parsed, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode parsed emails: %w", err)
	}
	if err := schemas.ValidateParsedExport(data); err != nil {
		return err
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func runValidate(cmd *cobra.Command, args []string) error {
	path := args[0]
	var err error
	if validateSchema != "" {
		err = schemas.ValidateJSON(validateSchema, path)
	} else {
		var data []byte
		data, err = os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		err = schemas.ValidateParsedExport(data)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s is valid\n", path)
	return nil
}
