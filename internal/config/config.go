// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"net/mail"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cast"

	"github.com/metamendmarketing/reportbuilderv3/internal/types"
)

// Environment variables read by FromEnv
const (
	EnvAPIKey      = "GEMINI_API_KEY"
	EnvFromEmail   = "DEFAULT_FROM_EMAIL"
	EnvDatabaseURL = "DATABASE_URL"
	EnvModel       = "REPORT_BUILDER_MODEL"
	EnvStrict      = "REPORT_BUILDER_STRICT_GROUNDING"
)

// DefaultOutputDir is where generate writes its files.
const DefaultOutputDir = "out"

// Config represents the CLI configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults or must be provided via CLI flags.
type Config struct {
	// Model
	APIKey string `json:"api_key,omitempty"` // Gemini API key
	Model  string `json:"model,omitempty"`   // Overrides the standard-tier model

	// Envelope and signature
	FromEmail   string `json:"from_email,omitempty"`
	ToEmail     string `json:"to_email,omitempty"`
	SenderName  string `json:"sender_name,omitempty"`
	SenderTitle string `json:"sender_title,omitempty"`

	// Paths
	Template  string `json:"template,omitempty"`   // Path to the HTML email template
	OutputDir string `json:"output_dir,omitempty"` // Directory for generated files

	// Limits
	MaxCharsPerFile int `json:"max_chars_per_file,omitempty"`
	MaxTotalChars   int `json:"max_total_chars,omitempty"`

	// Behavior
	Verbosity       string `json:"verbosity,omitempty"` // quick, standard or deep
	StrictGrounding bool   `json:"strict_grounding,omitempty"`
	PDF             bool   `json:"pdf,omitempty"`
	DatabaseURL     string `json:"database_url,omitempty"` // PostgreSQL connection URL for the run archive
	LogMode         string `json:"log_mode,omitempty"`     // dev, prod or quiet
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
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

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// FromEnv builds a Config from the process environment. Call it after
// godotenv has loaded any .env file.
func FromEnv() Config {
	return Config{
		APIKey:          os.Getenv(EnvAPIKey),
		Model:           os.Getenv(EnvModel),
		FromEmail:       os.Getenv(EnvFromEmail),
		DatabaseURL:     os.Getenv(EnvDatabaseURL),
		StrictGrounding: cast.ToBool(os.Getenv(EnvStrict)),
	}
}

// Validate checks that the configuration has valid values.
// Note: This doesn't check for required fields since those are handled
// by CLI flag validation after merging.
func (c *Config) Validate() error {
	// Validate numeric ranges
	if c.MaxCharsPerFile < 0 {
		return fmt.Errorf("config error: 'max_chars_per_file' must be non-negative")
	}
	if c.MaxTotalChars < 0 {
		return fmt.Errorf("config error: 'max_total_chars' must be non-negative")
	}

	if c.Verbosity != "" && !types.IsTier(c.Verbosity) {
		return fmt.Errorf("config error: 'verbosity' must be one of quick, standard, deep (got %q)", c.Verbosity)
	}

	switch c.LogMode {
	case "", "dev", "development", "prod", "production", "quiet":
	default:
		return fmt.Errorf("config error: unknown 'log_mode' %q", c.LogMode)
	}

	if c.FromEmail != "" {
		if _, err := mail.ParseAddress(c.FromEmail); err != nil {
			return fmt.Errorf("config error: invalid 'from_email': %w", err)
		}
	}
	if c.ToEmail != "" {
		if _, err := mail.ParseAddressList(c.ToEmail); err != nil {
			return fmt.Errorf("config error: invalid 'to_email': %w", err)
		}
	}

	// Validate file paths exist (if specified)
	if c.Template != "" {
		if _, err := os.Stat(c.Template); os.IsNotExist(err) {
			return fmt.Errorf("config error: template file not found: %s", c.Template)
		}
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty string fields filled from defaults.
// This is used to apply config file values as defaults for CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	mergeString(&result.APIKey, defaults.APIKey)
	mergeString(&result.Model, defaults.Model)
	mergeString(&result.FromEmail, defaults.FromEmail)
	mergeString(&result.ToEmail, defaults.ToEmail)
	mergeString(&result.SenderName, defaults.SenderName)
	mergeString(&result.SenderTitle, defaults.SenderTitle)
	mergeString(&result.Template, defaults.Template)
	mergeString(&result.OutputDir, defaults.OutputDir)
	mergeString(&result.Verbosity, defaults.Verbosity)
	mergeString(&result.DatabaseURL, defaults.DatabaseURL)
	mergeString(&result.LogMode, defaults.LogMode)

	// Int fields: use default if zero
	if result.MaxCharsPerFile == 0 {
		result.MaxCharsPerFile = defaults.MaxCharsPerFile
	}
	if result.MaxTotalChars == 0 {
		result.MaxTotalChars = defaults.MaxTotalChars
	}

	// Bool fields: true in either source wins
	result.StrictGrounding = result.StrictGrounding || defaults.StrictGrounding
	result.PDF = result.PDF || defaults.PDF

	if result.OutputDir == "" {
		result.OutputDir = DefaultOutputDir
	}

	return result
}

func mergeString(dst *string, fallback string) {
	if strings.TrimSpace(*dst) == "" {
		*dst = fallback
	}
}
