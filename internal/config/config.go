// Package config loads application settings from defaults, an optional YAML
// file and FORECAST_* environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix is prepended to every environment variable name
const EnvPrefix = "FORECAST"

// DefaultConfigFile is read when present and no other file is named
const DefaultConfigFile = "config.yaml"

// Config represents the complete application configuration
type Config struct {
	Server  ServerConfig  `yaml:"server" envconfig:"SERVER"`
	Data    DataConfig    `yaml:"data" envconfig:"DATA"`
	Store   StoreConfig   `yaml:"store" envconfig:"STORE"`
	Logging LoggingConfig `yaml:"logging" envconfig:"LOGGING"`
	Export  ExportConfig  `yaml:"export" envconfig:"EXPORT"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" split_words:"true" validate:"gte=1,lte=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" split_words:"true" validate:"gt=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" split_words:"true" validate:"gt=0"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" split_words:"true" validate:"gt=0"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" split_words:"true" validate:"gt=0"`
	AllowedOrigins  []string      `yaml:"allowed_origins" split_words:"true"`
}

// DataConfig describes the spending dataset and the modeled year range
type DataConfig struct {
	Path              string `yaml:"path" split_words:"true" validate:"required"`
	EntityField       string `yaml:"entity_field" split_words:"true" validate:"required"`
	HistoryStart      int    `yaml:"history_start" split_words:"true" validate:"gte=1900"`
	HistoryEnd        int    `yaml:"history_end" split_words:"true" validate:"gtfield=HistoryStart"`
	DefaultYearsAhead int    `yaml:"default_years_ahead" split_words:"true" validate:"gte=1,ltefield=MaxYearsAhead"`
	MaxYearsAhead     int    `yaml:"max_years_ahead" split_words:"true" validate:"gte=1"`
}

// StoreConfig locates the run-history database
type StoreConfig struct {
	Path string `yaml:"path" split_words:"true" validate:"required"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" split_words:"true" validate:"oneof=debug info warn error"`
	Format   string `yaml:"format" split_words:"true" validate:"oneof=json text"`
	Output   string `yaml:"output" split_words:"true" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" split_words:"true"`
}

// ExportConfig contains forecast export configuration
type ExportConfig struct {
	OutputDir string `yaml:"output_dir" split_words:"true" validate:"required"`
}

// Default returns the configuration used when nothing overrides it
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			AllowedOrigins:  []string{"*"},
		},
		Data: DataConfig{
			Path:              "drug_data.json",
			EntityField:       "Brnd_Name",
			HistoryStart:      2018,
			HistoryEnd:        2022,
			DefaultYearsAhead: 3,
			MaxYearsAhead:     50,
		},
		Store: StoreConfig{Path: "pipeline.db"},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/forecast.log",
		},
		Export: ExportConfig{OutputDir: "outputs"},
	}
}

// Load builds the configuration. An empty path falls back to FORECAST_CONFIG_FILE,
// then to config.yaml if it exists.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		if env := os.Getenv(EnvPrefix + "_CONFIG_FILE"); env != "" {
			path, explicit = env, true
		} else {
			path = DefaultConfigFile
		}
	}

	if err := loadFromFile(path, &cfg); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// loadFromFile overlays the YAML file onto cfg
func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate checks field constraints
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}

// Addr is the listen address for the HTTP server
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}
