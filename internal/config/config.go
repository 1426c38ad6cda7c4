// Package config provides configuration management for the ingestion pipeline.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Configuration validation errors.
var (
	ErrMissingBatchDir   = errors.New("pipeline.batch_dir is required")
	ErrMissingRawDir     = errors.New("at least one of pipeline.raw_csv_dir or pipeline.raw_html_dir is required")
	ErrMissingStorePath  = errors.New("pipeline.store.path is required")
	ErrInvalidStartDate  = errors.New("pipeline.start_date must be YYYY-MM-DD")
	ErrInvalidEndDate    = errors.New("pipeline.end_date must be YYYY-MM-DD")
	ErrDateRangeInverted = errors.New("pipeline.start_date cannot be after pipeline.end_date")
	ErrInvalidLogLevel   = errors.New("logging.level must be one of: debug, info, warn, error")
	ErrInvalidLogFormat  = errors.New("logging.format must be 'text' or 'json'")
)

const dateLayout = "2006-01-02"

// Config represents the complete pipeline configuration.
type Config struct {
	Pipeline PipelineConfig `yaml:"pipeline"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// PipelineConfig contains the transform/load settings.
type PipelineConfig struct {
	RawCSVDir  string      `yaml:"raw_csv_dir"`
	RawHTMLDir string      `yaml:"raw_html_dir"`
	BatchDir   string      `yaml:"batch_dir"`
	StartDate  string      `yaml:"start_date"`
	EndDate    string      `yaml:"end_date"`
	Store      StoreConfig `yaml:"store"`
}

// StoreConfig locates the document store.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig defines logging behavior.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads and validates configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}

	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Pipeline.BatchDir == "" {
		return ErrMissingBatchDir
	}

	if c.Pipeline.RawCSVDir == "" && c.Pipeline.RawHTMLDir == "" {
		return ErrMissingRawDir
	}

	if c.Pipeline.Store.Path == "" {
		return ErrMissingStorePath
	}

	if c.Pipeline.StartDate != "" {
		if _, err := time.Parse(dateLayout, c.Pipeline.StartDate); err != nil {
			return ErrInvalidStartDate
		}
	}

	if c.Pipeline.EndDate != "" {
		if _, err := time.Parse(dateLayout, c.Pipeline.EndDate); err != nil {
			return ErrInvalidEndDate
		}
	}

	if c.Pipeline.StartDate != "" && c.Pipeline.EndDate != "" && c.Pipeline.StartDate > c.Pipeline.EndDate {
		return ErrDateRangeInverted
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return ErrInvalidLogLevel
	}

	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		return ErrInvalidLogFormat
	}

	return nil
}

// DateRange returns the configured bounds as times; zero values mean the
// bound is open.
func (c *Config) DateRange() (from, to time.Time) {
	if c.Pipeline.StartDate != "" {
		from, _ = time.Parse(dateLayout, c.Pipeline.StartDate)
	}

	if c.Pipeline.EndDate != "" {
		to, _ = time.Parse(dateLayout, c.Pipeline.EndDate)
	}

	return from, to
}

// String returns a string representation of the config.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{CSV: %s, HTML: %s, Batches: %s, Store: %s}",
		c.Pipeline.RawCSVDir,
		c.Pipeline.RawHTMLDir,
		c.Pipeline.BatchDir,
		c.Pipeline.Store.Path,
	)
}
