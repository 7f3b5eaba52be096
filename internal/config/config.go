// Package config loads quibo settings. Precedence, lowest first: built-in
// defaults, ~/.quibo/config.yaml, QUIBO_* environment variables, command flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultAPIURL = "http://localhost:8000"
	EnvConfigDir  = "QUIBO_CONFIG_DIR"

	configFile = "config.yaml"
)

type Config struct {
	API        APIConfig        `mapstructure:"api" json:"api"`
	Auth       AuthConfig       `mapstructure:"auth" json:"auth"`
	Generation GenerationConfig `mapstructure:"generation" json:"generation"`
	Log        LogConfig        `mapstructure:"log" json:"log"`
	Output     OutputConfig     `mapstructure:"output" json:"output"`
	Offline    bool             `mapstructure:"offline" json:"offline"`

	// Dir is the directory the configuration was loaded from.
	Dir string `mapstructure:"-" json:"dir"`
}

type APIConfig struct {
	URL     string        `mapstructure:"url" json:"url"`
	Key     string        `mapstructure:"key" json:"key"`
	Timeout time.Duration `mapstructure:"timeout" json:"timeout"`
}

// AuthConfig points at the hosted auth provider used to refresh sessions.
type AuthConfig struct {
	URL     string `mapstructure:"url" json:"url"`
	AnonKey string `mapstructure:"anon_key" json:"anonKey"`
}

// GenerationConfig holds defaults applied to generation requests.
type GenerationConfig struct {
	Model            string  `mapstructure:"model" json:"model"`
	SpecificModel    string  `mapstructure:"specific_model" json:"specificModel"`
	Persona          string  `mapstructure:"persona" json:"persona"`
	Length           string  `mapstructure:"length" json:"length"`
	Style            string  `mapstructure:"style" json:"style"`
	MaxIterations    int     `mapstructure:"max_iterations" json:"maxIterations"`
	QualityThreshold float64 `mapstructure:"quality_threshold" json:"qualityThreshold"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" json:"level"`
	Format string `mapstructure:"format" json:"format"`
}

type OutputConfig struct {
	Format string `mapstructure:"format" json:"format"`
	Pretty bool   `mapstructure:"pretty" json:"pretty"`
}

// envBindings maps config keys to their environment variable names.
var envBindings = map[string]string{
	"api.url":                      "QUIBO_API_URL",
	"api.key":                      "QUIBO_API_KEY",
	"api.timeout":                  "QUIBO_API_TIMEOUT",
	"auth.url":                     "QUIBO_AUTH_URL",
	"auth.anon_key":                "QUIBO_AUTH_ANON_KEY",
	"generation.model":             "QUIBO_MODEL",
	"generation.specific_model":    "QUIBO_SPECIFIC_MODEL",
	"generation.persona":           "QUIBO_PERSONA",
	"generation.length":            "QUIBO_LENGTH",
	"generation.style":             "QUIBO_STYLE",
	"generation.max_iterations":    "QUIBO_MAX_ITERATIONS",
	"generation.quality_threshold": "QUIBO_QUALITY_THRESHOLD",
	"log.level":                    "QUIBO_LOG_LEVEL",
	"log.format":                   "QUIBO_LOG_FORMAT",
	"output.format":                "QUIBO_FORMAT",
	"output.pretty":                "QUIBO_PRETTY",
	"offline":                      "QUIBO_OFFLINE",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.url", DefaultAPIURL)
	v.SetDefault("api.key", "")
	v.SetDefault("api.timeout", 10*time.Minute)

	v.SetDefault("auth.url", "")
	v.SetDefault("auth.anon_key", "")

	v.SetDefault("generation.model", "gemini")
	v.SetDefault("generation.specific_model", "")
	v.SetDefault("generation.persona", "neuraforge")
	v.SetDefault("generation.length", "auto")
	v.SetDefault("generation.style", "balanced")
	v.SetDefault("generation.max_iterations", 3)
	v.SetDefault("generation.quality_threshold", 0.8)

	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "text")

	v.SetDefault("output.format", "json")
	v.SetDefault("output.pretty", false)

	v.SetDefault("offline", false)
}

// Keys lists every settable configuration key.
func Keys() []string {
	keys := make([]string, 0, len(envBindings))
	for k := range envBindings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func validKey(key string) bool {
	_, ok := envBindings[key]
	return ok
}

// Dir returns the quibo config directory (QUIBO_CONFIG_DIR or ~/.quibo).
func Dir() (string, error) {
	if v := strings.TrimSpace(os.Getenv(EnvConfigDir)); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".quibo"), nil
}

// Path returns the config file location inside dir.
func Path(dir string) string { return filepath.Join(dir, configFile) }

// Load reads configuration from dir (Dir() when empty). overrides holds
// flag values and wins over every other source.
func Load(dir string, overrides map[string]any) (*Config, error) {
	if dir == "" {
		d, err := Dir()
		if err != nil {
			return nil, err
		}
		dir = d
	}

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)

	v.SetConfigFile(Path(dir))
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read %s: %w", Path(dir), err)
		}
	}

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, err
		}
	}
	for key, val := range overrides {
		if !validKey(key) {
			return nil, fmt.Errorf("unknown config key %q", key)
		}
		v.Set(key, val)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Dir = dir
	cfg.API.URL = strings.TrimRight(strings.TrimSpace(cfg.API.URL), "/")
	cfg.Auth.URL = strings.TrimRight(strings.TrimSpace(cfg.Auth.URL), "/")
	return &cfg, nil
}

// Set writes a single key to dir's config file, keeping other file values.
func Set(dir, key, value string) error {
	if !validKey(key) {
		return fmt.Errorf("unknown config key %q (known: %s)", key, strings.Join(Keys(), ", "))
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(Path(dir))
	if err := v.ReadInConfig(); err != nil && !errors.Is(err, os.ErrNotExist) {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("read %s: %w", Path(dir), err)
		}
	}
	v.Set(key, value)
	return v.WriteConfigAs(Path(dir))
}

// Init creates dir and a config file populated with defaults. An existing
// file is left untouched and reported with created=false.
func Init(dir string) (created bool, err error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false, err
	}
	if _, err := os.Stat(Path(dir)); err == nil {
		return false, nil
	}
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)
	if err := v.WriteConfigAs(Path(dir)); err != nil {
		return false, err
	}
	return true, nil
}

// Redacted returns a copy safe to print.
func (c Config) Redacted() Config {
	if c.API.Key != "" {
		c.API.Key = redact(c.API.Key)
	}
	if c.Auth.AnonKey != "" {
		c.Auth.AnonKey = redact(c.Auth.AnonKey)
	}
	return c
}

func redact(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return "****" + s[len(s)-4:]
}
