package config

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/vogtb/go-spreadsheet/packages/formulas"
)

// Config represents the fncheck configuration
type Config struct {
	Evaluator EvaluatorConfig `toml:"evaluator"`
	Runner    RunnerConfig    `toml:"runner"`
	Logging   LoggingConfig   `toml:"logging"`
	Metrics   MetricsConfig   `toml:"metrics"`
}

// EvaluatorConfig holds settings passed to every function call
type EvaluatorConfig struct {
	MaxArguments      int `toml:"max_arguments"`
	SignificantDigits int `toml:"significant_digits"`
}

// RunnerConfig holds conformance runner settings
type RunnerConfig struct {
	Workers      int           `toml:"workers"`
	Tolerance    float64       `toml:"tolerance"`
	CaseTimeout  time.Duration `toml:"case_timeout"`
	NumberFormat string        `toml:"number_format"`
	Output       string        `toml:"output"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// MetricsConfig holds metrics settings
type MetricsConfig struct {
	Enabled bool `toml:"enabled"`
}

// DefaultConfig returns a Config with Excel-compatible evaluator settings
func DefaultConfig() *Config {
	return &Config{
		Evaluator: EvaluatorConfig{
			MaxArguments:      formulas.DefaultMaxArguments,
			SignificantDigits: formulas.DefaultSignificantDigits,
		},
		Runner: RunnerConfig{
			Workers:      runtime.NumCPU(),
			Tolerance:    1e-9,
			CaseTimeout:  2 * time.Second,
			NumberFormat: "General",
			Output:       "text",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: false,
		},
	}
}

// LoadFromFile loads configuration from a TOML file on top of the defaults
func LoadFromFile(path string) (*Config, error) {
	config := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", path)
	}

	meta, err := toml.DecodeFile(path, config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown config key: %s", undecoded[0])
	}

	return config, nil
}

// LoadConfig returns the defaults when configPath is empty, otherwise the
// file's settings layered over them. flags are applied by the caller.
func LoadConfig(configPath string) (*Config, error) {
	if configPath == "" {
		return DefaultConfig(), nil
	}
	return LoadFromFile(configPath)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Evaluator.MaxArguments <= 0 {
		return fmt.Errorf("evaluator max_arguments must be positive")
	}
	if c.Evaluator.SignificantDigits < 1 || c.Evaluator.SignificantDigits > 17 {
		return fmt.Errorf("evaluator significant_digits must be between 1 and 17")
	}

	if c.Runner.Workers <= 0 {
		return fmt.Errorf("runner workers must be positive")
	}
	if c.Runner.Tolerance < 0 {
		return fmt.Errorf("runner tolerance cannot be negative")
	}
	if c.Runner.CaseTimeout <= 0 {
		return fmt.Errorf("runner case_timeout must be positive")
	}
	if c.Runner.Output != "text" && c.Runner.Output != "json" {
		return fmt.Errorf("unsupported runner output: %s (must be text or json)", c.Runner.Output)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logging.Level)
	}
	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be text or json)", c.Logging.Format)
	}

	return nil
}

// Options converts the evaluator section into evaluation options
func (c *Config) Options() formulas.Options {
	return formulas.Options{
		MaxArguments:      c.Evaluator.MaxArguments,
		SignificantDigits: c.Evaluator.SignificantDigits,
	}
}
