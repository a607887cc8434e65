// Package config loads ecsgen's runtime configuration: a TOML file,
// overridden by environment variables, with every field defaulted so the
// tool runs with no config file present.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
)

// Config holds all configuration for the ecsgen CLI.
// Precedence: environment variables > config file > defaults.
type Config struct {
	Output    OutputConfig    `toml:"output"`
	Log       LogConfig       `toml:"log"`
	Templates TemplatesConfig `toml:"templates"`
}

// OutputConfig controls where and how the generated output is written.
type OutputConfig struct {
	Dir         string `toml:"dir"`
	AllowUnsafe bool   `toml:"allow_unsafe"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `toml:"level"` // debug, info, warn, error
}

// TemplatesConfig selects the template set.
type TemplatesConfig struct {
	Dir string `toml:"dir"` // empty = built-in default template set
}

// Load creates a Config by reading from a TOML config file and environment
// variables. Precedence: environment variables > config file > defaults.
//
// Config file search order (first found wins):
//  1. Path passed via configPath parameter (from --config flag)
//  2. ECSGEN_CONFIG environment variable
//  3. ./ecsgen.toml (current directory)
//  4. ~/.config/ecsgen/ecsgen.toml (XDG-style)
//
// All fields are optional in the config file. Environment variables always
// override file values.
func Load(configPath string) (*Config, error) {
	cfg := &Config{
		Output: OutputConfig{
			Dir:         "./gen",
			AllowUnsafe: false,
		},
		Log: LogConfig{
			Level: "info",
		},
		Templates: TemplatesConfig{
			Dir: "",
		},
	}

	if err := cfg.loadFile(configPath); err != nil {
		return nil, err
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFile finds and parses the TOML config file. If no file is found, this
// is a no-op (the config file is optional).
func (c *Config) loadFile(configPath string) error {
	path := resolveConfigPath(configPath)
	if path == "" {
		return nil
	}

	if _, err := toml.DecodeFile(path, c); err != nil {
		return fmt.Errorf("reading config file %s: %w", path, err)
	}

	return nil
}

// resolveConfigPath determines which config file to use. Returns empty
// string if no config file is found (the config file is optional).
func resolveConfigPath(explicit string) string {
	if explicit != "" {
		return explicit // caller wants this file; let DecodeFile report if missing
	}

	if p := os.Getenv("ECSGEN_CONFIG"); p != "" {
		return p
	}

	if _, err := os.Stat("ecsgen.toml"); err == nil {
		return "ecsgen.toml"
	}

	if home, err := os.UserHomeDir(); err == nil {
		p := home + "/.config/ecsgen/ecsgen.toml"
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}

// applyEnv overlays environment variables on top of existing config values.
// An env var only takes effect if it is set.
func (c *Config) applyEnv() {
	envOverride("ECSGEN_OUTPUT_DIR", &c.Output.Dir)
	envOverride("ECSGEN_LOG_LEVEL", &c.Log.Level)
	envOverride("ECSGEN_TEMPLATES_DIR", &c.Templates.Dir)

	if v := os.Getenv("ECSGEN_ALLOW_UNSAFE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Output.AllowUnsafe = b
		}
	}
}

// Validate checks that the loaded configuration is internally consistent.
func (c *Config) Validate() error {
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %q (must be debug, info, warn, or error)", c.Log.Level)
	}
	if c.Output.Dir == "" {
		return fmt.Errorf("output.dir must not be empty")
	}
	return nil
}

// envOverride sets *dst to the value of the named env var, if it is set.
func envOverride(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
