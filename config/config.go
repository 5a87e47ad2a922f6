// Package config loads gentrun CLI configuration.
//
// Values are layered, later sources winning:
//
//  1. built-in defaults
//  2. YAML config file (--config, or $XDG_CONFIG_HOME/gentrun/config.yaml, or ./gentrun.yaml)
//  3. GENTRUN_* environment variables (nested keys use underscores: GENTRUN_TOOLS_SHELL_TIMEOUT)
//  4. command-line flags that were set explicitly
//
// When no API key is configured, the provider's conventional variable is used
// (OPENAI_API_KEY, ANTHROPIC_API_KEY, GITHUB_TOKEN).
package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/rickchristie/gentrun/agent"
	"github.com/rickchristie/gentrun/models"
	"github.com/rickchristie/gentrun/tools/builtin"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "GENTRUN"

// Config is the effective CLI configuration.
type Config struct {
	Provider      string `mapstructure:"provider" yaml:"provider"`
	Model         string `mapstructure:"model" yaml:"model"`
	APIKey        string `mapstructure:"api-key" yaml:"api-key"`
	BaseURL       string `mapstructure:"base-url" yaml:"base-url,omitempty"`
	MaxIterations int    `mapstructure:"max-iterations" yaml:"max-iterations"`
	SystemPrompt  string `mapstructure:"system-prompt" yaml:"system-prompt,omitempty"`
	Instructions  string `mapstructure:"instructions" yaml:"instructions,omitempty"`
	Stream        bool   `mapstructure:"stream" yaml:"stream"`
	LogLevel      string `mapstructure:"log-level" yaml:"log-level"`
	Render        bool   `mapstructure:"render" yaml:"render"`

	Tools     Tools     `mapstructure:"tools" yaml:"tools"`
	History   History   `mapstructure:"history" yaml:"history"`
	Telemetry Telemetry `mapstructure:"telemetry" yaml:"telemetry"`
}

// History strategies.
const (
	HistoryNone      = "none"
	HistoryWindow    = "window"
	HistorySummarize = "summarize"
)

// History bounds the chat history carried between turns.
type History struct {
	// Strategy is one of none, window or summarize.
	Strategy string `mapstructure:"strategy" yaml:"strategy"`
	// KeepTurns is the number of recent turns kept verbatim.
	KeepTurns int `mapstructure:"keep-turns" yaml:"keep-turns"`
	// MaxMessages triggers compaction once the history holds this many messages.
	MaxMessages int `mapstructure:"max-messages" yaml:"max-messages"`
}

// Tools configures the built-in tools.
type Tools struct {
	Enabled       []string      `mapstructure:"enabled" yaml:"enabled"`
	Root          string        `mapstructure:"root" yaml:"root"`
	ShellTimeout  time.Duration `mapstructure:"shell-timeout" yaml:"shell-timeout"`
	RatePerMinute int           `mapstructure:"rate-per-minute" yaml:"rate-per-minute"`
}

// Telemetry configures OTLP trace export. Export is off while OTLPEndpoint is empty.
type Telemetry struct {
	OTLPEndpoint string `mapstructure:"otlp-endpoint" yaml:"otlp-endpoint,omitempty"`
	OTLPProtocol string `mapstructure:"otlp-protocol" yaml:"otlp-protocol"`
	Insecure     bool   `mapstructure:"insecure" yaml:"insecure"`
	ServiceName  string `mapstructure:"service-name" yaml:"service-name"`
}

var defaults = map[string]any{
	"provider":                models.ProviderOpenAI,
	"model":                   "gpt-4o-mini",
	"api-key":                 "",
	"base-url":                "",
	"max-iterations":          agent.DefaultMaxIterations,
	"system-prompt":           "",
	"instructions":            "",
	"stream":                  false,
	"log-level":               "warn",
	"render":                  true,
	"tools.enabled":           builtin.Names,
	"tools.root":              ".",
	"tools.shell-timeout":     builtin.DefaultShellTimeout,
	"tools.rate-per-minute":   0,
	"history.strategy":        HistoryWindow,
	"history.keep-turns":      20,
	"history.max-messages":    60,
	"telemetry.otlp-endpoint": "",
	"telemetry.otlp-protocol": "grpc",
	"telemetry.insecure":      false,
	"telemetry.service-name":  "gentrun",
}

// providerKeyEnv names the conventional API key variable of each provider.
var providerKeyEnv = map[string]string{
	models.ProviderOpenAI:    "OPENAI_API_KEY",
	models.ProviderAnthropic: "ANTHROPIC_API_KEY",
	models.ProviderGitHub:    "GITHUB_TOKEN",
}

// Options controls Load.
type Options struct {
	// ConfigFile is an explicit config path. It must exist when set.
	ConfigFile string

	// SearchPaths are directories searched for gentrun.yaml / config.yaml when ConfigFile is
	// empty. Default: the user config dir ($XDG_CONFIG_HOME/gentrun) and ".".
	SearchPaths []string

	// Flags are bound over every other source; only flags that were set take effect.
	Flags *pflag.FlagSet
}

// Load resolves the configuration. It returns the config file used, or "" when none was found.
func Load(opts Options) (*Config, string, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	v.SetConfigType("yaml")
	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
	} else {
		v.SetConfigName("config")
		for _, p := range searchPaths(opts.SearchPaths) {
			v.AddConfigPath(p)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || opts.ConfigFile != "" {
			return nil, "", errors.Wrap(err, "could not read config file")
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if opts.Flags != nil {
		if err := v.BindPFlags(opts.Flags); err != nil {
			return nil, "", errors.Wrap(err, "could not bind flags")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", errors.Wrap(err, "could not decode config")
	}

	if cfg.APIKey == "" {
		if name, ok := providerKeyEnv[cfg.Provider]; ok {
			cfg.APIKey = os.Getenv(name)
		}
	}

	return &cfg, v.ConfigFileUsed(), nil
}

func searchPaths(paths []string) []string {
	if len(paths) > 0 {
		return paths
	}
	var out []string
	if dir, err := os.UserConfigDir(); err == nil {
		out = append(out, filepath.Join(dir, "gentrun"))
	}
	return append(out, ".")
}

// Validate reports configuration errors that would prevent a run.
func (c *Config) Validate() error {
	if !slices.Contains(models.Providers, c.Provider) {
		return errors.Errorf("unknown provider %q (supported: %s)", c.Provider, strings.Join(models.Providers, ", "))
	}
	if c.Model == "" {
		return errors.New("model is required")
	}
	if c.MaxIterations <= 0 {
		return errors.Errorf("max-iterations must be positive, got %d", c.MaxIterations)
	}
	if c.Tools.ShellTimeout < 0 {
		return errors.Errorf("tools.shell-timeout must not be negative, got %s", c.Tools.ShellTimeout)
	}
	if c.Tools.RatePerMinute < 0 {
		return errors.Errorf("tools.rate-per-minute must not be negative, got %d", c.Tools.RatePerMinute)
	}
	for _, name := range c.Tools.Enabled {
		if !slices.Contains(builtin.Names, name) {
			return errors.Errorf("unknown tool %q in tools.enabled (available: %s)", name, strings.Join(builtin.Names, ", "))
		}
	}
	switch c.History.Strategy {
	case HistoryNone:
	case HistoryWindow, HistorySummarize:
		if c.History.KeepTurns < 1 {
			return errors.Errorf("history.keep-turns must be at least 1, got %d", c.History.KeepTurns)
		}
	default:
		return errors.Errorf("history.strategy must be none, window or summarize, got %q", c.History.Strategy)
	}
	switch c.Telemetry.OTLPProtocol {
	case "grpc", "http":
	default:
		return errors.Errorf("telemetry.otlp-protocol must be grpc or http, got %q", c.Telemetry.OTLPProtocol)
	}
	return nil
}

// Masked returns a copy of c with the API key hidden.
func (c Config) Masked() Config {
	c.APIKey = MaskSecret(c.APIKey)
	c.Tools.Enabled = slices.Clone(c.Tools.Enabled)
	return c
}

// MaskSecret keeps the last four characters of long secrets.
func MaskSecret(s string) string {
	switch {
	case s == "":
		return ""
	case len(s) <= 8:
		return "****"
	default:
		return "****" + s[len(s)-4:]
	}
}

// YAML renders c with the API key masked.
func (c *Config) YAML() (string, error) {
	data, err := yaml.Marshal(c.Masked())
	if err != nil {
		return "", errors.Wrap(err, "could not encode config")
	}
	return string(data), nil
}
