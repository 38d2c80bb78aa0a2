package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 255, cfg.Evaluator.MaxArguments)
	assert.Equal(t, 15, cfg.Evaluator.SignificantDigits)
	assert.Positive(t, cfg.Runner.Workers)
	assert.Equal(t, 2*time.Second, cfg.Runner.CaseTimeout)
	assert.Equal(t, "General", cfg.Runner.NumberFormat)
	assert.Equal(t, "text", cfg.Runner.Output)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Metrics.Enabled)
	require.NoError(t, cfg.Validate())

	opts := cfg.Options()
	assert.Equal(t, 255, opts.MaxArguments)
	assert.Equal(t, 15, opts.SignificantDigits)
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fncheck.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
[evaluator]
max_arguments = 30

[runner]
workers = 3
tolerance = 1e-6
case_timeout = "500ms"
number_format = "0.000"
output = "json"

[logging]
level = "debug"
format = "json"

[metrics]
enabled = true
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, 30, cfg.Evaluator.MaxArguments)
	// untouched keys keep their defaults
	assert.Equal(t, 15, cfg.Evaluator.SignificantDigits)
	assert.Equal(t, 3, cfg.Runner.Workers)
	assert.Equal(t, 1e-6, cfg.Runner.Tolerance)
	assert.Equal(t, 500*time.Millisecond, cfg.Runner.CaseTimeout)
	assert.Equal(t, "0.000", cfg.Runner.NumberFormat)
	assert.Equal(t, "json", cfg.Runner.Output)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Metrics.Enabled)
	require.NoError(t, cfg.Validate())
}

func TestLoadFromFileErrors(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorContains(t, err, "does not exist")

	_, err = LoadFromFile(writeConfig(t, "[runner\nworkers = 2"))
	assert.ErrorContains(t, err, "failed to parse config file")

	_, err = LoadFromFile(writeConfig(t, "[runner]\nthreads = 2\n"))
	assert.ErrorContains(t, err, "unknown config key: runner.threads")
}

func TestLoadConfigWithoutPath(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Evaluator, cfg.Evaluator)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"max arguments", func(c *Config) { c.Evaluator.MaxArguments = 0 }, "max_arguments"},
		{"significant digits", func(c *Config) { c.Evaluator.SignificantDigits = 18 }, "significant_digits"},
		{"workers", func(c *Config) { c.Runner.Workers = 0 }, "workers"},
		{"tolerance", func(c *Config) { c.Runner.Tolerance = -1 }, "tolerance"},
		{"timeout", func(c *Config) { c.Runner.CaseTimeout = 0 }, "case_timeout"},
		{"output", func(c *Config) { c.Runner.Output = "xml" }, "unsupported runner output"},
		{"level", func(c *Config) { c.Logging.Level = "verbose" }, "invalid log level"},
		{"format", func(c *Config) { c.Logging.Format = "logfmt" }, "invalid log format"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			cfg := DefaultConfig()
			c.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), c.errMsg)
		})
	}
}
