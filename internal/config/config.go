// Package config loads quantumia configuration.
// Source priority (highest to lowest):
// 1. Environment variables (QUANTUMIA_DB, QUANTUMIA_CEILING, ...)
// 2. Config file given by --config or $QUANTUMIA_CONFIG
// 3. ~/.quantumia/config.yaml
// 4. Built-in defaults
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ctrl-alt-del-2010-developer/Quantumia/internal/dispatch"
)

// RetentionConfig bounds the stored exchange history.
type RetentionConfig struct {
	// Ceiling is the row count that triggers compaction.
	Ceiling int `yaml:"ceiling"`
	// Floor is the number of newest rows kept after compaction.
	Floor int `yaml:"floor"`
}

// Config is the complete configuration structure.
type Config struct {
	// DBPath is the SQLite database file. Empty means ~/.quantumia/quantumia.db.
	DBPath string `yaml:"db_path"`

	// RulesPath points at a YAML rule file. Empty uses the embedded rules.
	RulesPath string `yaml:"rules_path"`

	Retention RetentionConfig `yaml:"retention"`

	// WindowSize is how many recent exchanges the session keeps in memory.
	WindowSize int `yaml:"window_size"`

	// Seed fixes response selection. 0 seeds from the clock.
	Seed int64 `yaml:"seed"`

	// LogLevel: debug | info | warn | error
	LogLevel string `yaml:"log_level"`

	// ExitKeywords end the session when typed on their own.
	ExitKeywords []string `yaml:"exit_keywords"`

	EmptyInputResponse string `yaml:"empty_input_response"`
	Farewell           string `yaml:"farewell"`
	ErrorResponse      string `yaml:"error_response"`

	// BotName prefixes replies in the interactive loop.
	BotName string `yaml:"bot_name"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Retention: RetentionConfig{
			Ceiling: 1000,
			Floor:   500,
		},
		WindowSize:   20,
		LogLevel:     "warn",
		ExitKeywords: append([]string(nil), dispatch.DefaultExitKeywords...),
		BotName:      "Quantumia",
	}
}

// Dir returns ~/.quantumia.
func Dir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".quantumia")
}

// DefaultPath returns the config file used when neither --config nor
// $QUANTUMIA_CONFIG is set.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// DefaultDBPath returns the database used when nothing else is configured.
func DefaultDBPath() string {
	return filepath.Join(Dir(), "quantumia.db")
}

// Load reads the config file, applies environment overrides and validates
// the result. A missing file is not an error.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	explicit := configPath != ""
	if configPath == "" {
		configPath = os.Getenv("QUANTUMIA_CONFIG")
		explicit = configPath != ""
	}
	if configPath == "" {
		configPath = DefaultPath()
	}

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("read config %s: %w", configPath, err)
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the numeric bounds.
func (c *Config) Validate() error {
	if c.Retention.Floor < 1 {
		return fmt.Errorf("retention.floor must be at least 1, got %d", c.Retention.Floor)
	}
	if c.Retention.Ceiling <= c.Retention.Floor {
		return fmt.Errorf("retention.ceiling (%d) must be greater than retention.floor (%d)",
			c.Retention.Ceiling, c.Retention.Floor)
	}
	if c.WindowSize < 1 {
		return fmt.Errorf("window_size must be at least 1, got %d", c.WindowSize)
	}
	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log_level %q", c.LogLevel)
	}
	return nil
}

// ResolvedDBPath returns DBPath, or the default location when unset.
func (c *Config) ResolvedDBPath() string {
	if c.DBPath != "" {
		return c.DBPath
	}
	return DefaultDBPath()
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("QUANTUMIA_DB"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("QUANTUMIA_RULES"); v != "" {
		cfg.RulesPath = v
	}
	if v := os.Getenv("QUANTUMIA_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	var err error
	if cfg.Retention.Ceiling, err = getEnvInt("QUANTUMIA_CEILING", cfg.Retention.Ceiling); err != nil {
		return err
	}
	if cfg.Retention.Floor, err = getEnvInt("QUANTUMIA_FLOOR", cfg.Retention.Floor); err != nil {
		return err
	}
	if cfg.WindowSize, err = getEnvInt("QUANTUMIA_WINDOW", cfg.WindowSize); err != nil {
		return err
	}
	if v := os.Getenv("QUANTUMIA_SEED"); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("QUANTUMIA_SEED: %w", err)
		}
		cfg.Seed = seed
	}
	return nil
}

func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return parsed, nil
}
