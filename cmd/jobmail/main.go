// Package main provides the jobmail command line: it turns exported job emails into tracked opportunities.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "jobmail",
	Short: "Track job applications from exported emails",
	Long: `jobmail scans a folder of exported job emails (.txt, .html, .eml), extracts company, role, location
and job link, classifies the hiring stage and keeps one record per opportunity in a local database.

Re-running sync is idempotent. Statuses set by hand survive later syncs and even a reset.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var (
	rootConfigPath        string
	rootSourceDir         string
	rootDBDriver          string
	rootDBPath            string
	rootDatabaseURL       string
	rootTargetLanguage    string
	rootTranslateProvider string
	rootNoTranslate       bool
	rootOffline           bool
	rootUseBrowser        bool
	rootWorkers           int
	rootVerbose           bool
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&rootConfigPath, "config", "", "Path to config file (.json, .yaml or .yml)")
	flags.StringVarP(&rootSourceDir, "source", "s", "", "Folder of exported emails")
	flags.StringVar(&rootDBDriver, "db-driver", "", "Storage engine: sqlite, postgres or memory")
	flags.StringVar(&rootDBPath, "db", "", "SQLite database file (defaults to JOBMAIL_DB_PATH or jobmail.db)")
	flags.StringVar(&rootDatabaseURL, "db-url", "", "PostgreSQL connection URL (defaults to DATABASE_URL env var)")
	flags.StringVar(&rootTargetLanguage, "target-language", "", "Language descriptions are translated to")
	flags.StringVar(&rootTranslateProvider, "translate-provider", "", "Preferred provider: google_unofficial, google_api, gemini or mymemory")
	flags.BoolVar(&rootNoTranslate, "no-translate", false, "Keep descriptions in their original language")
	flags.BoolVar(&rootOffline, "offline", false, "Do not fetch or translate descriptions; store the email excerpt")
	flags.BoolVar(&rootUseBrowser, "use-browser", false, "Render job pages with headless Chrome when plain HTTP yields too little text")
	flags.IntVar(&rootWorkers, "workers", 0, "Parallel parse workers (default: number of CPUs)")
	flags.BoolVarP(&rootVerbose, "verbose", "v", false, "Print detailed debug information")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
