package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/robfig/cron/v3"
)

const DefaultRuntimeSettingsFile = "/app/config/settings.json"

// RuntimeSettings are the settings the user can change from the app
// without restarting. They are persisted to a JSON file and layered on
// top of the environment configuration at startup.
type RuntimeSettings struct {
	CorrectionAPIURL string `json:"correction_api_url"`
	CorrectionAPIKey string `json:"correction_api_key"`
	CorrectionModel  string `json:"correction_model"`
	AutosaveCronExpr string `json:"autosave_cron_expr"`
	EntryDurationMs  int    `json:"entry_duration_ms"`
}

func RuntimeSettingsFilePath() string {
	return getEnvString("SETTINGS_FILE", DefaultRuntimeSettingsFile)
}

func (s RuntimeSettings) Validate() error {
	if strings.TrimSpace(s.AutosaveCronExpr) == "" {
		return fmt.Errorf("autosave_cron_expr is required")
	}
	if _, err := cron.ParseStandard(s.AutosaveCronExpr); err != nil {
		return fmt.Errorf("invalid autosave_cron_expr: %w", err)
	}
	if s.EntryDurationMs <= 0 {
		return fmt.Errorf("entry_duration_ms must be positive")
	}
	return nil
}

func (c *Config) RuntimeSettings() RuntimeSettings {
	return RuntimeSettings{
		CorrectionAPIURL: c.Correction.APIURL,
		CorrectionAPIKey: c.Correction.APIKey,
		CorrectionModel:  c.Correction.Model,
		AutosaveCronExpr: c.Autosave.CronExpr,
		EntryDurationMs:  c.Editor.EntryDurationMs,
	}
}

func WithRuntimeSettings(settings RuntimeSettings) Option {
	return func(c *Config) {
		if strings.TrimSpace(settings.CorrectionAPIURL) != "" {
			c.Correction.APIURL = settings.CorrectionAPIURL
		}
		if strings.TrimSpace(settings.CorrectionAPIKey) != "" {
			c.Correction.APIKey = settings.CorrectionAPIKey
		}
		if strings.TrimSpace(settings.CorrectionModel) != "" {
			c.Correction.Model = settings.CorrectionModel
		}
		if strings.TrimSpace(settings.AutosaveCronExpr) != "" {
			c.Autosave.CronExpr = settings.AutosaveCronExpr
		}
		if settings.EntryDurationMs > 0 {
			c.Editor.EntryDurationMs = settings.EntryDurationMs
		}
	}
}

func LoadRuntimeSettingsFile(path string) (RuntimeSettings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RuntimeSettings{}, err
	}
	var settings RuntimeSettings
	if err := json.Unmarshal(data, &settings); err != nil {
		return RuntimeSettings{}, fmt.Errorf("invalid settings file: %w", err)
	}
	return settings, nil
}

func WriteRuntimeSettingsFile(path string, settings RuntimeSettings) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	content, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return err
	}
	content = append(content, '\n')

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, content, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}

type RuntimeSettingsStore struct {
	path string

	mu      sync.RWMutex
	current RuntimeSettings
}

func NewRuntimeSettingsStore(path string, initial RuntimeSettings) (*RuntimeSettingsStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("settings file path is required")
	}
	if err := initial.Validate(); err != nil {
		return nil, err
	}
	return &RuntimeSettingsStore{
		path:    path,
		current: initial,
	}, nil
}

func (s *RuntimeSettingsStore) GetRuntimeSettings() (RuntimeSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, nil
}

func (s *RuntimeSettingsStore) UpdateRuntimeSettings(next RuntimeSettings) (RuntimeSettings, error) {
	if err := next.Validate(); err != nil {
		return RuntimeSettings{}, err
	}
	if err := WriteRuntimeSettingsFile(s.path, next); err != nil {
		return RuntimeSettings{}, err
	}

	s.mu.Lock()
	s.current = next
	s.mu.Unlock()
	return next, nil
}
