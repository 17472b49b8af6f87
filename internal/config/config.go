// Package config loads the settings of the stklos-regexp command from a
// YAML file and the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Retropikzel/STklos/regex"
)

// Config holds the settings of the stklos-regexp command.
type Config struct {
	// Pattern compilation
	Engine       string        `yaml:"engine" env:"STKLOS_REGEXP_ENGINE"`
	MatchTimeout time.Duration `yaml:"match_timeout" env:"STKLOS_REGEXP_TIMEOUT"`
	IgnoreCase   bool          `yaml:"ignore_case" env:"STKLOS_REGEXP_IGNORE_CASE"`

	// REPL
	HistoryFile string `yaml:"history_file"`

	// PredeclareQuote also binds regexp.quote to the global name quote.
	PredeclareQuote bool `yaml:"predeclare_quote"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Engine: regex.DefaultEngine,
	}
}

// Options returns the compile options described by c.
func (c *Config) Options() regex.Options {
	return regex.Options{
		Engine:       c.Engine,
		IgnoreCase:   c.IgnoreCase,
		MatchTimeout: c.MatchTimeout,
	}
}

// Load reads the configuration file, if any, then applies environment
// overrides and validates the result.
func Load() (*Config, error) {
	return LoadFile(Path())
}

// LoadFile is like Load but reads the file at path. A missing file is
// not an error; an empty path skips the file.
func LoadFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		if err := loadFromFile(cfg, path); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Path returns the configuration file path: $STKLOS_REGEXP_CONFIG if set,
// otherwise stklos-regexp/config.yaml under the user's config directory.
func Path() string {
	if path := os.Getenv("STKLOS_REGEXP_CONFIG"); path != "" {
		return path
	}

	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "stklos-regexp", "config.yaml")
	}

	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config", "stklos-regexp", "config.yaml")
	}
	return ""
}

func loadFromFile(cfg *Config, path string) error {
	// #nosec G304 - the path comes from the environment or the standard location
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

func loadFromEnv(cfg *Config) error {
	if engine := os.Getenv("STKLOS_REGEXP_ENGINE"); engine != "" {
		cfg.Engine = engine
	}

	if timeout := os.Getenv("STKLOS_REGEXP_TIMEOUT"); timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			return fmt.Errorf("invalid STKLOS_REGEXP_TIMEOUT: %w", err)
		}
		cfg.MatchTimeout = d
	}

	if ic := os.Getenv("STKLOS_REGEXP_IGNORE_CASE"); ic != "" {
		switch ic {
		case "true", "1", "yes":
			cfg.IgnoreCase = true
		case "false", "0", "no":
			cfg.IgnoreCase = false
		default:
			return fmt.Errorf("invalid STKLOS_REGEXP_IGNORE_CASE value: %q (use true/false)", ic)
		}
	}
	return nil
}

// Validate reports the first invalid setting of c.
func (c *Config) Validate() error {
	if engines := regex.Engines(); !slices.Contains(engines, c.Engine) {
		return fmt.Errorf("engine %q is not one of %s", c.Engine, strings.Join(engines, ", "))
	}
	if c.MatchTimeout < 0 {
		return fmt.Errorf("match_timeout must be non-negative")
	}
	return nil
}
