package main

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/jonathan/jobmail-sync/internal/config"
	"github.com/jonathan/jobmail-sync/internal/db"
	"github.com/jonathan/jobmail-sync/internal/enrichment"
	"github.com/jonathan/jobmail-sync/internal/fetch"
	"github.com/jonathan/jobmail-sync/internal/ingestion"
	"github.com/jonathan/jobmail-sync/internal/llm"
	"github.com/jonathan/jobmail-sync/internal/observability"
	"github.com/jonathan/jobmail-sync/internal/pipeline"
	"github.com/jonathan/jobmail-sync/internal/translate"
)

// loadConfig layers explicitly set flags over the config file, the environment and the defaults.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(rootConfigPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to load config: %w", err)
	}
	applyFlags(cmd, &cfg)

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	if cfg.Verbose && rootConfigPath != "" {
		log.Printf("[VERBOSE] loaded config from %s", rootConfigPath)
	}
	return cfg, nil
}

// applyFlags overrides cfg only with flags that were set on the command line.
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("source") {
		cfg.SourceDir = rootSourceDir
	}
	if flags.Changed("db-driver") {
		cfg.DBDriver = rootDBDriver
	}
	if flags.Changed("db") {
		cfg.DBPath = rootDBPath
	}
	if flags.Changed("db-url") {
		cfg.DatabaseURL = rootDatabaseURL
		if !flags.Changed("db-driver") {
			cfg.DBDriver = db.DriverPostgres
		}
	}
	if flags.Changed("target-language") {
		cfg.TargetLanguage = rootTargetLanguage
	}
	if flags.Changed("translate-provider") {
		cfg.TranslateProvider = rootTranslateProvider
	}
	if flags.Changed("no-translate") {
		enabled := !rootNoTranslate
		cfg.Translate = &enabled
	}
	if flags.Changed("use-browser") {
		cfg.UseBrowser = rootUseBrowser
	}
	if flags.Changed("workers") {
		cfg.Workers = rootWorkers
	}
	if flags.Changed("verbose") {
		cfg.Verbose = rootVerbose
	}
}

// app holds what a command needs: the config, the store and the sync engine.
type app struct {
	cfg     config.Config
	store   db.Store
	engine  *pipeline.Engine
	printer *observability.Printer
	closers []func() error
}

// openApp opens the configured store and builds the engine. Enrichment is skipped
// with --offline.
func openApp(ctx context.Context, cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	store, err := db.Open(ctx, db.Options{Driver: cfg.DBDriver, Path: cfg.DBPath, DatabaseURL: cfg.DatabaseURL})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.DBDriver, err)
	}
	a := &app{
		cfg:     cfg,
		store:   store,
		printer: observability.NewPrinter(cmd.OutOrStdout()),
		closers: []func() error{store.Close},
	}

	var enricher enrichment.Enricher
	if !rootOffline {
		svc, closeFn, err := buildEnricher(ctx, cfg)
		if err != nil {
			a.Close()
			return nil, err
		}
		if closeFn != nil {
			a.closers = append(a.closers, closeFn)
		}
		enricher = svc
	}

	var source pipeline.Source
	if cfg.SourceDir != "" {
		source = ingestion.NewFolderSource(cfg.SourceDir)
	}
	a.engine = pipeline.New(pipeline.Options{
		Store:          store,
		Source:         source,
		Enricher:       enricher,
		TargetLanguage: cfg.TargetLanguage,
		Workers:        cfg.Workers,
		Verbose:        cfg.Verbose,
	})
	return a, nil
}

// requireSource fails when no source folder is configured.
func (a *app) requireSource() error {
	if a.cfg.SourceDir == "" {
		return fmt.Errorf("a source folder is required (--source or source_dir in the config file)")
	}
	return nil
}

// Close releases the store and the clients opened for enrichment.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Printf("failed to close: %v", err)
		}
	}
}

// buildEnricher wires the cached fetcher (with the optional browser fallback) and the
// translation provider chain. The returned func closes the LLM client, if one was created.
func buildEnricher(ctx context.Context, cfg config.Config) (*enrichment.Service, func() error, error) {
	fetchOpts := fetch.DefaultOptions()
	fetchOpts.Timeout = cfg.FetchTimeoutDuration()
	fetchOpts.Attempts = cfg.FetchAttempts
	fetchOpts.Verbose = cfg.Verbose

	fetcherCfg := fetch.DefaultCachedFetcherConfig()
	fetcherCfg.Options = fetchOpts
	if cfg.UseBrowser {
		fetcherCfg.Render = fetch.BrowserRenderer(fetchOpts.Timeout, cfg.Verbose)
	}

	opts := enrichment.Options{
		Fetcher: fetch.NewCachedFetcher(fetcherCfg),
		Verbose: cfg.Verbose,
	}
	if !cfg.TranslateEnabled() {
		return enrichment.New(opts), nil, nil
	}

	var (
		client  llm.Client
		closeFn func() error
	)
	if cfg.GeminiAPIKey != "" {
		c, err := llm.NewClient(ctx, llm.DefaultConfig(), cfg.GeminiAPIKey)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create gemini client: %w", err)
		}
		client, closeFn = c, c.Close
	}

	chain, err := translate.New(ctx, translate.Options{
		Preferred:    cfg.TranslateProvider,
		GoogleAPIKey: cfg.GoogleTranslateAPIKey,
		LLM:          client,
		Verbose:      cfg.Verbose,
	})
	if err != nil {
		if closeFn != nil {
			_ = closeFn()
		}
		return nil, nil, fmt.Errorf("failed to create translator: %w", err)
	}
	if cfg.Verbose {
		log.Printf("[VERBOSE] translation providers: %v", chain.Providers())
	}
	opts.Translator = chain
	return enrichment.New(opts), closeFn, nil
}
