// Package config resolves tool configuration with defaults, an optional
// TOML file, and GHSWITCH_* environment overrides, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// ErrInvalidConfig indicates a configuration value is out of range.
var ErrInvalidConfig = errors.New("invalid configuration")

const (
	dirName      = "ghswitch"
	fileName     = "config.toml"
	profilesFile = "profiles"
	projectsFile = "projects"
	usersFile    = "users"
)

// DefaultHost is used when neither the file nor the environment names one.
const DefaultHost = "github.com"

// GuardConfig controls guard output.
type GuardConfig struct {
	// Mode is "verbose" or "terse".
	Mode string `toml:"mode"`

	// Color is "auto", "always", or "never".
	Color string `toml:"color"`
}

// Config is the resolved tool configuration.
type Config struct {
	// BaseDir holds the profiles, projects, and users files.
	BaseDir string `toml:"base_dir"`

	// Host is the default GitHub host for new profiles.
	Host string `toml:"host"`

	Guard GuardConfig `toml:"guard"`
}

// Load resolves configuration. The config file is optional; a missing one
// just means defaults plus environment.
func Load() (*Config, error) {
	cfg := defaults()

	// GHSWITCH_DIR moves the whole data directory, config file included,
	// so it applies before the file is read and again after.
	if dir := os.Getenv("GHSWITCH_DIR"); dir != "" {
		cfg.BaseDir = dir
	}

	path := filepath.Join(cfg.BaseDir, fileName)
	if data, err := os.ReadFile(path); err == nil { //nolint:gosec // G304: path from trusted config dir
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	applyEnv(cfg)
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	base := ""
	if dir, err := os.UserConfigDir(); err == nil {
		base = filepath.Join(dir, dirName)
	}
	return &Config{
		BaseDir: base,
		Host:    DefaultHost,
		Guard:   GuardConfig{Mode: "verbose", Color: "auto"},
	}
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("GHSWITCH_DIR"); v != "" {
		cfg.BaseDir = v
	}
	if v := os.Getenv("GHSWITCH_HOST"); v != "" {
		cfg.Host = v
	}
	if v := os.Getenv("GHSWITCH_GUARD_MODE"); v != "" {
		cfg.Guard.Mode = v
	}
	if v := os.Getenv("GHSWITCH_GUARD_COLOR"); v != "" {
		cfg.Guard.Color = v
	}
}

func (c *Config) normalize() error {
	if c.BaseDir == "" {
		return fmt.Errorf("%w: no data directory (set GHSWITCH_DIR)", ErrInvalidConfig)
	}

	c.Guard.Mode = strings.ToLower(c.Guard.Mode)
	switch c.Guard.Mode {
	case "":
		c.Guard.Mode = "verbose"
	case "verbose", "terse":
	default:
		return fmt.Errorf("%w: guard.mode %q", ErrInvalidConfig, c.Guard.Mode)
	}

	c.Guard.Color = strings.ToLower(c.Guard.Color)
	switch c.Guard.Color {
	case "":
		c.Guard.Color = "auto"
	case "auto", "always", "never":
	default:
		return fmt.Errorf("%w: guard.color %q", ErrInvalidConfig, c.Guard.Color)
	}

	return nil
}

// ProfilesPath returns the profiles file location.
func (c *Config) ProfilesPath() string { return filepath.Join(c.BaseDir, profilesFile) }

// ProjectsPath returns the project assignment file location.
func (c *Config) ProjectsPath() string { return filepath.Join(c.BaseDir, projectsFile) }

// UsersPath returns the user list file location.
func (c *Config) UsersPath() string { return filepath.Join(c.BaseDir, usersFile) }
