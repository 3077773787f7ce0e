// Package config loads pipeline configuration from an optional YAML file
// with environment-variable overrides.
package config

import (
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"epipulse/internal/errors"
)

// Config represents the complete pipeline configuration
type Config struct {
	Logging LoggingConfig `yaml:"logging" envconfig:"LOGGING"`
	Paths   PathsConfig   `yaml:"paths" envconfig:"PATHS"`
	Fetch   FetchConfig   `yaml:"fetch" envconfig:"FETCH"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info" validate:"oneof=debug info warn error"`
	Format   string `yaml:"format" envconfig:"FORMAT" default:"json" validate:"oneof=json text"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"console" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/pipeline.log"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	CacheDir  string `yaml:"cache_dir" envconfig:"CACHE_DIR" default:"data/cache" validate:"required"`
	OutputDir string `yaml:"output_dir" envconfig:"OUTPUT_DIR" default:"data/output" validate:"required"`
}

// FetchConfig contains raw-file retrieval configuration
type FetchConfig struct {
	Timeout           time.Duration `yaml:"timeout" envconfig:"TIMEOUT" default:"5m" validate:"gt=0"`
	RequestsPerSecond float64       `yaml:"requests_per_second" envconfig:"REQUESTS_PER_SECOND" default:"1" validate:"gt=0"`
}

// Load loads configuration from the given YAML file (if path is non-empty
// and the file exists) and then applies EPIPULSE_* environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, errors.NewConfigError("failed to read config file", err)
			}
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, errors.NewConfigError("failed to parse config file", err)
			}
		}
	}

	if err := envconfig.Process("EPIPULSE", cfg); err != nil {
		return nil, errors.NewConfigError("failed to load config from env", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration against its struct tags.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.NewConfigError("config validation failed", err)
	}
	return nil
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/pipeline.log",
		},
		Paths: PathsConfig{
			CacheDir:  "data/cache",
			OutputDir: "data/output",
		},
		Fetch: FetchConfig{
			Timeout:           5 * time.Minute,
			RequestsPerSecond: 1,
		},
	}
}
