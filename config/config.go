// Package config loads console configuration from TOML files and
// supports live reload through a file watcher.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Duration wraps time.Duration so TOML values can be written as
// human-readable strings ("5s", "250ms").
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return fmt.Errorf("parsing duration %q: %w", string(b), err)
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config holds console settings.
type Config struct {
	// Prompt is the input prompt string.
	Prompt string `toml:"prompt"`

	// Color enables colored log output.
	Color bool `toml:"color"`

	// HistoryLimit caps the number of retained history entries.
	HistoryLimit int `toml:"history_limit"`

	// CtrlCWindow is how long a Ctrl+C exit confirmation stays armed.
	CtrlCWindow Duration `toml:"ctrlc_window"`

	// LogLevel is the minimum severity emitted ("debug", "info", ...).
	LogLevel string `toml:"log_level"`

	// ScriptDir holds Lua command scripts; empty disables script loading.
	ScriptDir string `toml:"script_dir"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Prompt:       "> ",
		Color:        true,
		HistoryLimit: 1000,
		CtrlCWindow:  Duration(5 * time.Second),
		LogLevel:     "info",
	}
}

// Load reads a TOML configuration file. A missing file is not an error:
// defaults are returned so a console can start before any config exists.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config file %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("parsing config file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Default(), fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for usable values.
func (c Config) Validate() error {
	if c.HistoryLimit < 1 {
		return fmt.Errorf("%w: history_limit must be at least 1", ErrInvalidConfig)
	}
	if c.CtrlCWindow <= 0 {
		return fmt.Errorf("%w: ctrlc_window must be positive", ErrInvalidConfig)
	}
	return nil
}
