package config

import "time"

// Backend locates the analysis service.
type Backend struct {
	URL          string        `yaml:"url"`
	AnalyzePath  string        `yaml:"analyze_path,omitempty"`
	PromptPath   string        `yaml:"prompt_path,omitempty"`
	HealthPath   string        `yaml:"health_path,omitempty"`
	ReadyTimeout time.Duration `yaml:"ready_timeout"`
}

// Analysis holds request defaults.
type Analysis struct {
	Mode string `yaml:"mode"`
}

// Export controls where selected images are written.
type Export struct {
	Dir string `yaml:"dir"`
}

// Log configures the process logger.
type Log struct {
	Level      string `yaml:"level"`
	Timestamps bool   `yaml:"timestamps"`
}

// Config represents the .ranker/config.yaml file.
type Config struct {
	Backend  Backend  `yaml:"backend"`
	Analysis Analysis `yaml:"analysis"`
	Export   Export   `yaml:"export"`
	Log      Log      `yaml:"log"`
}
