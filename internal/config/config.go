package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/robfig/cron/v3"
)

// Config holds all application configuration
// Supports environment variables with sensible defaults
//
// Environment Variables:
// Editor Configuration:
// - ENTRY_DURATION_MS: Default duration for new entries in milliseconds (default: 3000)
// - HISTORY_CAPACITY: Undo history depth per document (default: 100)
//
// Autosave Configuration:
// - AUTOSAVE_ENABLED: Enable the periodic autosave sweep (default: true)
// - AUTOSAVE_CRON_EXPR: Cron expression for the sweep (default: @every 2m)
//
// Correction Configuration:
// - CORRECTION_API_URL: Correction service endpoint (required when enabled)
// - CORRECTION_API_KEY: Bearer token for the correction service (optional)
// - CORRECTION_MODEL: Model identifier sent with requests (optional)
// - CORRECTION_TIMEOUT: Request timeout in seconds (default: 30)
// - CORRECTION_WORKERS: Concurrent correction workers (default: 2)
//
// System Configuration:
// - DATA_DIR: Directory for the session database (default: /app/data)
// - HTTP_ADDR: Listen address for the embedding API (default: :8080)

type Config struct {
	Editor     EditorConfig     `json:"editor"`
	Autosave   AutosaveConfig   `json:"autosave"`
	Correction CorrectionConfig `json:"correction"`
	System     SystemConfig     `json:"system"`
}

// EditorConfig holds document editing defaults.
type EditorConfig struct {
	EntryDurationMs int `json:"entry_duration_ms"`
	HistoryCapacity int `json:"history_capacity"`
}

// AutosaveConfig holds the periodic save sweep configuration.
type AutosaveConfig struct {
	Enabled  bool   `json:"enabled"`
	CronExpr string `json:"cron_expr"`
}

// CorrectionConfig holds the configuration for the correction service.
// The service is optional; when APIURL is empty corrections are off.
type CorrectionConfig struct {
	APIURL  string `json:"api_url"`
	APIKey  string `json:"api_key"`
	Model   string `json:"model"`
	Timeout int    `json:"timeout"`
	Workers int    `json:"workers"`
}

// Enabled reports whether a correction endpoint is configured.
func (c CorrectionConfig) Enabled() bool {
	return c.APIURL != ""
}

// SystemConfig holds paths and network addresses.
type SystemConfig struct {
	DataDir  string `json:"data_dir"`
	HTTPAddr string `json:"http_addr"`
}

// DBPath returns the session database location under the data dir.
func (c *Config) DBPath() string {
	return filepath.Join(c.System.DataDir, "subedit.db")
}

// Option is a function type for configuring Config
type Option func(*Config)

// NewFromEnv creates a new Config instance with values from environment variables and options
func NewFromEnv(opts ...Option) (*Config, error) {
	config := &Config{
		Editor: EditorConfig{
			EntryDurationMs: getEnvInt("ENTRY_DURATION_MS", 3000),
			HistoryCapacity: getEnvInt("HISTORY_CAPACITY", 100),
		},
		Autosave: AutosaveConfig{
			Enabled:  getEnvBool("AUTOSAVE_ENABLED", true),
			CronExpr: getEnvString("AUTOSAVE_CRON_EXPR", "@every 2m"),
		},
		Correction: CorrectionConfig{
			APIURL:  getEnvString("CORRECTION_API_URL", ""),
			APIKey:  getEnvString("CORRECTION_API_KEY", ""),
			Model:   getEnvString("CORRECTION_MODEL", ""),
			Timeout: getEnvInt("CORRECTION_TIMEOUT", 30),
			Workers: getEnvInt("CORRECTION_WORKERS", 2),
		},
		System: SystemConfig{
			DataDir:  getEnvString("DATA_DIR", "/app/data"),
			HTTPAddr: getEnvString("HTTP_ADDR", ":8080"),
		},
	}

	// Apply custom options
	for _, opt := range opts {
		opt(config)
	}

	// Validate required configuration
	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// validate checks if all required configuration is properly set
func (c *Config) validate() error {
	if c.Editor.EntryDurationMs <= 0 {
		return fmt.Errorf("ENTRY_DURATION_MS must be positive")
	}
	if c.Editor.HistoryCapacity <= 0 {
		return fmt.Errorf("HISTORY_CAPACITY must be positive")
	}
	if c.Autosave.Enabled {
		if _, err := cron.ParseStandard(c.Autosave.CronExpr); err != nil {
			return fmt.Errorf("invalid AUTOSAVE_CRON_EXPR: %w", err)
		}
	}
	if c.Correction.Enabled() {
		if c.Correction.Timeout <= 0 {
			return fmt.Errorf("CORRECTION_TIMEOUT must be positive")
		}
		if c.Correction.Workers <= 0 {
			return fmt.Errorf("CORRECTION_WORKERS must be positive")
		}
	}
	return nil
}

// getEnvString gets a string value from environment variables with default
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer value from environment variables with default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvBool gets a boolean value from environment variables with default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
