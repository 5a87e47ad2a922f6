package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/rickchristie/gentrun/tools/builtin"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func clearProviderEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{"OPENAI_API_KEY", "ANTHROPIC_API_KEY", "GITHUB_TOKEN"} {
		t.Setenv(name, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearProviderEnv(t)

	cfg, used, err := Load(Options{SearchPaths: []string{t.TempDir()}})
	require.NoError(t, err)
	assert.Empty(t, used)

	assert.Equal(t, "openai", cfg.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.Model)
	assert.Equal(t, 10, cfg.MaxIterations)
	assert.True(t, cfg.Render)
	assert.Equal(t, builtin.Names, cfg.Tools.Enabled)
	assert.Equal(t, builtin.DefaultShellTimeout, cfg.Tools.ShellTimeout)
	assert.Equal(t, "grpc", cfg.Telemetry.OTLPProtocol)
	assert.Equal(t, History{Strategy: HistoryWindow, KeepTurns: 20, MaxMessages: 60}, cfg.History)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_Layering(t *testing.T) {
	clearProviderEnv(t)
	path := writeConfig(t, `
provider: anthropic
model: claude-sonnet
max-iterations: 4
tools:
  enabled: [current_time, read_file]
  shell-timeout: 5s
telemetry:
  otlp-endpoint: localhost:4317
`)

	t.Run("file over defaults", func(t *testing.T) {
		cfg, used, err := Load(Options{ConfigFile: path})
		require.NoError(t, err)
		assert.Equal(t, path, used)
		assert.Equal(t, "anthropic", cfg.Provider)
		assert.Equal(t, 4, cfg.MaxIterations)
		assert.Equal(t, []string{"current_time", "read_file"}, cfg.Tools.Enabled)
		assert.Equal(t, 5*time.Second, cfg.Tools.ShellTimeout)
		assert.Equal(t, "localhost:4317", cfg.Telemetry.OTLPEndpoint)
	})

	t.Run("env over file", func(t *testing.T) {
		t.Setenv("GENTRUN_MAX_ITERATIONS", "7")
		t.Setenv("GENTRUN_TOOLS_SHELL_TIMEOUT", "1m")

		cfg, _, err := Load(Options{ConfigFile: path})
		require.NoError(t, err)
		assert.Equal(t, 7, cfg.MaxIterations)
		assert.Equal(t, time.Minute, cfg.Tools.ShellTimeout)
	})

	t.Run("set flags over env, unset flags ignored", func(t *testing.T) {
		t.Setenv("GENTRUN_MAX_ITERATIONS", "7")

		flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
		flags.Int("max-iterations", 10, "")
		flags.String("model", "flag-default", "")
		require.NoError(t, flags.Parse([]string{"--max-iterations", "2"}))

		cfg, _, err := Load(Options{ConfigFile: path, Flags: flags})
		require.NoError(t, err)
		assert.Equal(t, 2, cfg.MaxIterations)
		assert.Equal(t, "claude-sonnet", cfg.Model)
	})
}

func TestLoad_ProviderKeyFallback(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-from-env")
	path := writeConfig(t, "provider: anthropic\n")

	cfg, _, err := Load(Options{ConfigFile: path})
	require.NoError(t, err)
	assert.Equal(t, "sk-ant-from-env", cfg.APIKey)

	t.Setenv("GENTRUN_API_KEY", "explicit")
	cfg, _, err = Load(Options{ConfigFile: path})
	require.NoError(t, err)
	assert.Equal(t, "explicit", cfg.APIKey)
}

func TestLoad_Errors(t *testing.T) {
	_, _, err := Load(Options{ConfigFile: filepath.Join(t.TempDir(), "missing.yaml")})
	assert.ErrorContains(t, err, "could not read config file")

	_, _, err = Load(Options{ConfigFile: writeConfig(t, "provider: [unterminated\n")})
	assert.ErrorContains(t, err, "could not read config file")
}

func TestConfig_Validate(t *testing.T) {
	type input struct {
		mutate func(c *Config)
	}

	type expected struct {
		err string
	}

	tests := []struct {
		name     string
		input    input
		expected expected
	}{
		{
			name:     "valid",
			input:    input{mutate: func(*Config) {}},
			expected: expected{},
		},
		{
			name:     "unknown provider",
			input:    input{mutate: func(c *Config) { c.Provider = "skynet" }},
			expected: expected{err: `unknown provider "skynet"`},
		},
		{
			name:     "missing model",
			input:    input{mutate: func(c *Config) { c.Model = "" }},
			expected: expected{err: "model is required"},
		},
		{
			name:     "zero iterations",
			input:    input{mutate: func(c *Config) { c.MaxIterations = 0 }},
			expected: expected{err: "max-iterations must be positive"},
		},
		{
			name:     "unknown tool",
			input:    input{mutate: func(c *Config) { c.Tools.Enabled = []string{"teleport"} }},
			expected: expected{err: `unknown tool "teleport"`},
		},
		{
			name:     "negative rate",
			input:    input{mutate: func(c *Config) { c.Tools.RatePerMinute = -1 }},
			expected: expected{err: "rate-per-minute must not be negative"},
		},
		{
			name:     "history disabled ignores keep-turns",
			input:    input{mutate: func(c *Config) { c.History = History{Strategy: HistoryNone} }},
			expected: expected{},
		},
		{
			name:     "unknown history strategy",
			input:    input{mutate: func(c *Config) { c.History.Strategy = "forget" }},
			expected: expected{err: `history.strategy must be none, window or summarize, got "forget"`},
		},
		{
			name:     "summarize without kept turns",
			input:    input{mutate: func(c *Config) { c.History = History{Strategy: HistorySummarize} }},
			expected: expected{err: "history.keep-turns must be at least 1"},
		},
		{
			name:     "bad protocol",
			input:    input{mutate: func(c *Config) { c.Telemetry.OTLPProtocol = "udp" }},
			expected: expected{err: "otlp-protocol must be grpc or http"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Config{
				Provider:      "openai",
				Model:         "gpt-4o",
				MaxIterations: 3,
				Tools:         Tools{Enabled: []string{"shell"}},
				History:       History{Strategy: HistoryWindow, KeepTurns: 5},
				Telemetry:     Telemetry{OTLPProtocol: "grpc"},
			}
			tc.input.mutate(&cfg)

			err := cfg.Validate()
			if tc.expected.err == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tc.expected.err)
		})
	}
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "", MaskSecret(""))
	assert.Equal(t, "****", MaskSecret("short"))
	assert.Equal(t, "****cdef", MaskSecret("sk-0123456789abcdef"))
}

func TestConfig_YAMLMasksKey(t *testing.T) {
	cfg := &Config{
		Provider: "openai",
		APIKey:   "sk-0123456789abcdef",
		Tools:    Tools{ShellTimeout: 30 * time.Second},
	}

	out, err := cfg.YAML()
	require.NoError(t, err)
	assert.NotContains(t, out, "0123456789")
	assert.Equal(t, "sk-0123456789abcdef", cfg.APIKey)

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "****cdef", decoded["api-key"])
	assert.Equal(t, "30s", decoded["tools"].(map[string]any)["shell-timeout"])
}
