package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gyeh/benchref/internal/importer"
)

// DefaultBenchmarkYear is used when neither flag nor config file sets one.
const DefaultBenchmarkYear = 2026

// Config holds all runtime configuration for a refload run.
type Config struct {
	DSN        string
	LogFormat  string // "text" or "json"
	Verbose    bool
	FilePath   string
	Dataset    string // fees, gpci, or zip
	MasterFile string // optional parquet master snapshot for offline resolve
	Year       int    `yaml:"benchmark_year"`
}

// yamlConfig is the on-disk YAML structure.
type yamlConfig struct {
	BenchmarkYear int    `yaml:"benchmark_year"`
	LogFormat     string `yaml:"log_format"`
}

// LoadFromFile reads a YAML config file and merges its values into Config.
// Flag values already set take precedence over file values.
func (c *Config) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	if c.Year == 0 {
		c.Year = yc.BenchmarkYear
	}
	if c.LogFormat == "" {
		c.LogFormat = yc.LogFormat
	}
	return nil
}

// Normalize fills defaults after flags and file are merged.
func (c *Config) Normalize() {
	if c.Year == 0 {
		c.Year = DefaultBenchmarkYear
	}
	if c.LogFormat == "" {
		c.LogFormat = "text"
	}
}

// ValidateImport checks fields required by the import command.
func (c *Config) ValidateImport() error {
	if c.FilePath == "" {
		return fmt.Errorf("--file is required")
	}
	if _, err := os.Stat(c.FilePath); err != nil {
		return fmt.Errorf("file not accessible: %w", err)
	}
	switch c.Dataset {
	case importer.DatasetFees, importer.DatasetGPCI, importer.DatasetZips:
	default:
		return fmt.Errorf("--dataset must be one of fees, gpci, zip (got %q)", c.Dataset)
	}
	return c.ValidateDSN()
}

// ValidateDSN checks that a connection string is configured.
func (c *Config) ValidateDSN() error {
	if c.DSN == "" {
		return fmt.Errorf("--dsn or BENCHREF_DB_URL is required")
	}
	return nil
}

// ValidateYear rejects implausible benchmark years.
func (c *Config) ValidateYear() error {
	if c.Year < 2000 || c.Year > 2100 {
		return fmt.Errorf("benchmark year %d out of range", c.Year)
	}
	return nil
}
