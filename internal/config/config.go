package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// FileName is the config file looked up in the working directory.
const FileName = "tradeimport.yaml"

// Config represents the top-level tradeimport.yaml configuration.
type Config struct {
	Locale      string          `yaml:"locale"`
	SampleBytes int             `yaml:"sample_bytes"`
	MaxWarnings int             `yaml:"max_warnings"`
	Adapters    AdaptersConfig  `yaml:"adapters"`
	Telemetry   TelemetryConfig `yaml:"telemetry"`
	Server      ServerConfig    `yaml:"server"`
}

// AdaptersConfig controls which provider adapters take part in detection.
type AdaptersConfig struct {
	Disabled []string `yaml:"disabled,omitempty"`
}

// TelemetryConfig controls logging and the import event log.
type TelemetryConfig struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"` // "text" or "json"
	EventLog  bool   `yaml:"event_log"`
	Notice    bool   `yaml:"notice"`
}

// ServerConfig controls the HTTP host.
type ServerConfig struct {
	Addr           string        `yaml:"addr"`
	RatePerSecond  float64       `yaml:"rate_per_second"`
	Burst          int           `yaml:"burst"`
	MappingTTL     time.Duration `yaml:"mapping_ttl"`
	MaxUploadBytes int64         `yaml:"max_upload_bytes"`
}

// Load reads a tradeimport.yaml file from disk. Keys absent from the file keep
// their Default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault is Load, except that a missing file yields Default().
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new project.
func Default() *Config {
	return &Config{
		Locale:      "en-US",
		SampleBytes: 2048,
		MaxWarnings: 50,
		Telemetry: TelemetryConfig{
			LogLevel:  "info",
			LogFormat: "text",
			EventLog:  true,
			Notice:    true,
		},
		Server: ServerConfig{
			Addr:           "127.0.0.1:8080",
			RatePerSecond:  10,
			Burst:          30,
			MappingTTL:     15 * time.Minute,
			MaxUploadBytes: 10 << 20,
		},
	}
}

// Validate rejects values the engine cannot run with.
func (c *Config) Validate() error {
	if c.SampleBytes <= 0 {
		return fmt.Errorf("sample_bytes must be positive, got %d", c.SampleBytes)
	}
	if c.MaxWarnings < 0 {
		return fmt.Errorf("max_warnings must not be negative, got %d", c.MaxWarnings)
	}
	switch c.Telemetry.LogFormat {
	case "", "text", "json":
	default:
		return fmt.Errorf("telemetry.log_format must be text or json, got %q", c.Telemetry.LogFormat)
	}
	if c.Server.RatePerSecond < 0 || c.Server.Burst < 0 {
		return fmt.Errorf("server rate limit must not be negative")
	}
	return nil
}

// Environment variables that override file values.
const (
	EnvLocale      = "TRADEIMPORT_LOCALE"
	EnvLogLevel    = "TRADEIMPORT_LOG_LEVEL"
	EnvSampleBytes = "TRADEIMPORT_SAMPLE_BYTES"
	EnvAddr        = "TRADEIMPORT_ADDR"
)

// LoadEnvFile adds the variables of a .env file to the process environment without
// replacing ones already set. A missing file is not an error.
func LoadEnvFile(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides c with any TRADEIMPORT_* variables that are set.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv(EnvLocale); v != "" {
		c.Locale = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Telemetry.LogLevel = v
	}
	if v := os.Getenv(EnvAddr); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv(EnvSampleBytes); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", EnvSampleBytes, err)
		}
		c.SampleBytes = n
	}
	return c.Validate()
}
