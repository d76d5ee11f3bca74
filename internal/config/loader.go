package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/thruflo/ranker/internal/logging"
	"github.com/thruflo/ranker/internal/stream"
)

// Default values for Config.
const (
	DefaultBackendURL   = "http://127.0.0.1:8000"
	DefaultReadyTimeout = stream.DefaultReadyTimeout
	DefaultMode         = string(stream.ModeBatch)
	DefaultExportDir    = "~/Downloads"
	DefaultLogLevel     = "warn"
)

// Dir and File name the config location relative to the working directory.
const (
	Dir  = ".ranker"
	File = "config.yaml"
)

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		Backend: Backend{
			URL:          DefaultBackendURL,
			AnalyzePath:  stream.DefaultAnalyzePath,
			PromptPath:   stream.DefaultPromptPath,
			HealthPath:   stream.DefaultHealthPath,
			ReadyTimeout: DefaultReadyTimeout,
		},
		Analysis: Analysis{Mode: DefaultMode},
		Export:   Export{Dir: DefaultExportDir},
		Log:      Log{Level: DefaultLogLevel},
	}
}

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

// IsValidationError checks if an error is a ValidationError.
func IsValidationError(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}

// Path returns the default config path under basePath.
func Path(basePath string) string {
	return filepath.Join(basePath, Dir, File)
}

// LoadConfig reads and parses .ranker/config.yaml from the given base path.
// If the file doesn't exist, returns default config.
// Applies defaults for any missing fields.
func LoadConfig(basePath string) (*Config, error) {
	cfg, err := load(Path(basePath))
	if errors.Is(err, os.ErrNotExist) {
		def := DefaultConfig()
		return &def, nil
	}
	return cfg, err
}

// LoadFile reads an explicitly named config file. Unlike LoadConfig, a missing
// file is an error.
func LoadFile(path string) (*Config, error) {
	cfg, err := load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}
	return cfg, err
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := ValidateConfig(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes cfg to path, creating parent directories.
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ValidateConfig checks that all config values are valid.
func ValidateConfig(cfg *Config) error {
	if cfg.Backend.URL == "" {
		return ValidationError{Field: "backend.url", Message: "required field is empty"}
	}
	u, err := url.Parse(cfg.Backend.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ValidationError{Field: "backend.url", Message: "must be an http or https URL"}
	}
	if cfg.Backend.ReadyTimeout < 0 {
		return ValidationError{Field: "backend.ready_timeout", Message: "must not be negative"}
	}
	if _, err := stream.ParseMode(cfg.Analysis.Mode); err != nil {
		return ValidationError{Field: "analysis.mode", Message: "must be one of batch, single"}
	}
	if cfg.Export.Dir == "" {
		return ValidationError{Field: "export.dir", Message: "required field is empty"}
	}
	if _, err := logging.ParseLevel(cfg.Log.Level); err != nil {
		return ValidationError{Field: "log.level", Message: "must be one of debug, info, warn, error"}
	}
	return nil
}

// Mode returns the configured analysis mode.
func (c *Config) Mode() stream.Mode {
	m, err := stream.ParseMode(c.Analysis.Mode)
	if err != nil {
		return stream.ModeBatch
	}
	return m
}

// Level returns the configured log level.
func (c *Config) Level() logging.Level {
	l, _ := logging.ParseLevel(c.Log.Level)
	return l
}
