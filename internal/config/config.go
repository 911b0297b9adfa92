// Package config loads cdpwire's optional TOML configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds the defaults the CLI falls back to when flags are not given.
type Config struct {
	// URL is the debugger WebSocket endpoint, e.g. ws://127.0.0.1:9222/....
	URL string `toml:"url"`
	// Timeout bounds a single command round trip.
	Timeout Duration `toml:"timeout"`
	// Capacity is the size of the event capture ring.
	Capacity int `toml:"capacity"`
}

// Duration wraps time.Duration so TOML values like "30s" parse.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Timeout:  Duration{30 * time.Second},
		Capacity: 500,
	}
}

// Path returns the default config file location under XDG_CONFIG_HOME.
func Path() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "cdpwire", "config.toml")
}

// Load reads the config at path, filling unset fields with defaults. A
// missing file is not an error; the defaults apply.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	if err := Validate(cfg); err != nil {
		return Config{}, fmt.Errorf("config invalid (%s): %w", path, err)
	}
	return cfg, nil
}

// Validate checks field constraints.
func Validate(cfg Config) error {
	if cfg.URL != "" && !strings.HasPrefix(cfg.URL, "ws://") && !strings.HasPrefix(cfg.URL, "wss://") {
		return fmt.Errorf("url must be a ws:// or wss:// endpoint, got %q", cfg.URL)
	}
	if cfg.Timeout.Duration <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", cfg.Timeout.Duration)
	}
	if cfg.Capacity <= 0 {
		return fmt.Errorf("capacity must be positive, got %d", cfg.Capacity)
	}
	return nil
}
