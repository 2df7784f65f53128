// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Defaults used when neither flags, the config file nor the environment set a value.
const (
	DefaultDBDriver          = "sqlite"
	DefaultDBPath            = "jobmail.db"
	DefaultTargetLanguage    = "ru"
	DefaultTranslateProvider = "google_unofficial"
	DefaultFetchTimeout      = 30
	DefaultFetchAttempts     = 2
	DefaultIMAPFolder        = "INBOX"
)

// Environment variables read as fallbacks.
const (
	EnvDBPath            = "JOBMAIL_DB_PATH"
	EnvDatabaseURL       = "DATABASE_URL"
	EnvGoogleAPIKey      = "GOOGLE_TRANSLATE_API_KEY"
	EnvGeminiAPIKey      = "GEMINI_API_KEY"
	EnvTranslate         = "JOBMAIL_TRANSLATE"
	EnvTranslateProvider = "JOBMAIL_TRANSLATE_PROVIDER"
)

// IMAPConfig configures the mailbox pull.
type IMAPConfig struct {
	Host     string   `json:"host,omitempty" yaml:"host,omitempty" validate:"omitempty,hostname_port"`
	Email    string   `json:"email,omitempty" yaml:"email,omitempty" validate:"omitempty,email"`
	Password string   `json:"password,omitempty" yaml:"password,omitempty"`
	Folders  []string `json:"folders,omitempty" yaml:"folders,omitempty" validate:"dive,required"`
	Since    string   `json:"since,omitempty" yaml:"since,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// Config represents the CLI configuration that can be loaded from a JSON or YAML file.
// All fields are optional; missing values come from the environment or defaults.
type Config struct {
	// Source and storage
	SourceDir   string `json:"source_dir,omitempty" yaml:"source_dir,omitempty"`
	DBDriver    string `json:"db_driver,omitempty" yaml:"db_driver,omitempty" validate:"omitempty,oneof=sqlite postgres memory"`
	DBPath      string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
	DatabaseURL string `json:"database_url,omitempty" yaml:"database_url,omitempty" validate:"omitempty,url"`

	// Translation
	Translate             *bool  `json:"translate,omitempty" yaml:"translate,omitempty"`
	TargetLanguage        string `json:"target_language,omitempty" yaml:"target_language,omitempty" validate:"omitempty,min=2,max=8"`
	TranslateProvider     string `json:"translate_provider,omitempty" yaml:"translate_provider,omitempty" validate:"omitempty,oneof=google_unofficial google_api gemini mymemory"`
	GoogleTranslateAPIKey string `json:"google_translate_api_key,omitempty" yaml:"google_translate_api_key,omitempty"`
	GeminiAPIKey          string `json:"gemini_api_key,omitempty" yaml:"gemini_api_key,omitempty"`

	// Fetching
	UseBrowser    bool `json:"use_browser,omitempty" yaml:"use_browser,omitempty"`
	FetchTimeout  int  `json:"fetch_timeout,omitempty" yaml:"fetch_timeout,omitempty" validate:"gte=0"`   // seconds
	FetchAttempts int  `json:"fetch_attempts,omitempty" yaml:"fetch_attempts,omitempty" validate:"gte=0,lte=10"`
	Workers       int  `json:"workers,omitempty" yaml:"workers,omitempty" validate:"gte=0,lte=64"`
	Verbose       bool `json:"verbose,omitempty" yaml:"verbose,omitempty"`

	IMAP IMAPConfig `json:"imap,omitempty" yaml:"imap,omitempty"`
}

var envPlaceholder = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnv replaces ${VAR} placeholders with environment values. Bare $VAR is left alone.
func expandEnv(data []byte) []byte {
	return envPlaceholder.ReplaceAllFunc(data, func(m []byte) []byte {
		name := envPlaceholder.FindSubmatch(m)[1]
		return []byte(os.Getenv(string(name)))
	})
}

// LoadConfig loads configuration from a JSON file, or a YAML file when the extension is
// .yaml or .yml. ${VAR} placeholders are expanded from the environment before parsing.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	data = expandEnv(data)

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	}

	return &cfg, nil
}

// FromEnv returns the values set through environment variables.
func FromEnv() Config {
	cfg := Config{
		DBPath:                os.Getenv(EnvDBPath),
		DatabaseURL:           os.Getenv(EnvDatabaseURL),
		GoogleTranslateAPIKey: os.Getenv(EnvGoogleAPIKey),
		GeminiAPIKey:          os.Getenv(EnvGeminiAPIKey),
		TranslateProvider:     os.Getenv(EnvTranslateProvider),
	}
	if v := os.Getenv(EnvTranslate); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Translate = &b
		}
	}
	return cfg
}

// Defaults returns the built-in defaults.
func Defaults() Config {
	translate := true
	return Config{
		DBDriver:          DefaultDBDriver,
		DBPath:            DefaultDBPath,
		Translate:         &translate,
		TargetLanguage:    DefaultTargetLanguage,
		TranslateProvider: DefaultTranslateProvider,
		FetchTimeout:      DefaultFetchTimeout,
		FetchAttempts:     DefaultFetchAttempts,
		IMAP:              IMAPConfig{Folders: []string{DefaultIMAPFolder}},
	}
}

// Load reads the config file at path (optional), then fills unset values from the
// environment and the defaults. A database url without an explicit driver selects postgres.
func Load(path string) (Config, error) {
	cfg := &Config{}
	if path != "" {
		var err error
		if cfg, err = LoadConfig(path); err != nil {
			return Config{}, err
		}
	}

	merged := cfg.MergeWithDefaults(FromEnv())
	if merged.DBDriver == "" && merged.DatabaseURL != "" {
		merged.DBDriver = "postgres"
	}
	return merged.MergeWithDefaults(Defaults()), nil
}

var validate = validator.New()

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	if c.DBDriver == "postgres" && c.DatabaseURL == "" {
		return fmt.Errorf("config error: 'database_url' is required for the postgres driver")
	}
	if c.TranslateProvider == "google_api" && c.GoogleTranslateAPIKey == "" {
		return fmt.Errorf("config error: 'google_translate_api_key' is required for the google_api provider")
	}
	if c.TranslateProvider == "gemini" && c.GeminiAPIKey == "" {
		return fmt.Errorf("config error: 'gemini_api_key' is required for the gemini provider")
	}
	if c.SourceDir != "" {
		if info, err := os.Stat(c.SourceDir); err == nil && !info.IsDir() {
			return fmt.Errorf("config error: source_dir is not a directory: %s", c.SourceDir)
		}
	}

	return nil
}

// ValidateIMAP checks the fields needed to pull a mailbox.
func (c *Config) ValidateIMAP() error {
	if c.IMAP.Host == "" || c.IMAP.Email == "" || c.IMAP.Password == "" {
		return fmt.Errorf("config error: imap host, email and password are required")
	}
	if c.SourceDir == "" {
		return fmt.Errorf("config error: 'source_dir' is required to store pulled messages")
	}
	return nil
}

// TranslateEnabled reports whether descriptions are translated.
func (c *Config) TranslateEnabled() bool {
	return c.Translate != nil && *c.Translate
}

// FetchTimeoutDuration returns the fetch timeout as a duration.
func (c *Config) FetchTimeoutDuration() time.Duration {
	return time.Duration(c.FetchTimeout) * time.Second
}

// IMAPSince returns the earliest message date to pull, or the zero time when unset.
func (c *Config) IMAPSince() (time.Time, error) {
	if c.IMAP.Since == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", c.IMAP.Since)
	if err != nil {
		return time.Time{}, fmt.Errorf("config error: invalid imap since date %q: %w", c.IMAP.Since, err)
	}
	return t, nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// This is used to layer the config file over the environment over the built-in defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.SourceDir == "" {
		result.SourceDir = defaults.SourceDir
	}
	if result.DBDriver == "" {
		result.DBDriver = defaults.DBDriver
	}
	if result.DBPath == "" {
		result.DBPath = defaults.DBPath
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.TargetLanguage == "" {
		result.TargetLanguage = defaults.TargetLanguage
	}
	if result.TranslateProvider == "" {
		result.TranslateProvider = defaults.TranslateProvider
	}
	if result.GoogleTranslateAPIKey == "" {
		result.GoogleTranslateAPIKey = defaults.GoogleTranslateAPIKey
	}
	if result.GeminiAPIKey == "" {
		result.GeminiAPIKey = defaults.GeminiAPIKey
	}

	// Int fields: use default if zero
	if result.FetchTimeout == 0 {
		result.FetchTimeout = defaults.FetchTimeout
	}
	if result.FetchAttempts == 0 {
		result.FetchAttempts = defaults.FetchAttempts
	}
	if result.Workers == 0 {
		result.Workers = defaults.Workers
	}

	// Translate is a pointer so an explicit false survives the merge
	if result.Translate == nil && defaults.Translate != nil {
		v := *defaults.Translate
		result.Translate = &v
	}

	if result.IMAP.Host == "" {
		result.IMAP.Host = defaults.IMAP.Host
	}
	if result.IMAP.Email == "" {
		result.IMAP.Email = defaults.IMAP.Email
	}
	if result.IMAP.Password == "" {
		result.IMAP.Password = defaults.IMAP.Password
	}
	if len(result.IMAP.Folders) == 0 {
		result.IMAP.Folders = append([]string(nil), defaults.IMAP.Folders...)
	}
	if result.IMAP.Since == "" {
		result.IMAP.Since = defaults.IMAP.Since
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}
