// Package config provides configuration loading for gemindex.
//
// Values are resolved in increasing order of precedence: built-in defaults,
// the YAML config file, a .env file in the working directory, then the
// GEMINDEX_* environment variables. Command-line flags are applied on top by
// the app package.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Environment variables that override the config file.
const (
	EnvDriver      = "GEMINDEX_DB_DRIVER"
	EnvDSN         = "GEMINDEX_DB_DSN"
	EnvSnapshotDir = "GEMINDEX_SNAPSHOT_DIR"
	EnvPlatform    = "GEMINDEX_PLATFORM"
)

// Config is the resolved gemindex configuration.
type Config struct {
	Database    DatabaseConfig `yaml:"database"`
	Platform    string         `yaml:"platform"`
	SnapshotDir string         `yaml:"snapshot_dir"`
}

// DatabaseConfig selects the store driver and its DSN.
type DatabaseConfig struct {
	Driver string `yaml:"driver"` // "sqlite" or "postgres"
	DSN    string `yaml:"dsn"`
}

// Dir returns the gemindex config directory, respecting XDG_CONFIG_HOME.
// Defaults to ~/.config/gemindex if XDG_CONFIG_HOME is not set.
func Dir() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "gemindex"), nil
}

// DataDir returns the directory holding the default database and snapshots.
func DataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", zerr.Wrap(err, "failed to get user home directory")
	}
	return filepath.Join(home, ".gemindex"), nil
}

// Default returns the built-in configuration.
func Default() (*Config, error) {
	dataDir, err := DataDir()
	if err != nil {
		return nil, err
	}
	return &Config{
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    filepath.Join(dataDir, "gemindex.db"),
		},
		Platform:    "ruby",
		SnapshotDir: filepath.Join(dataDir, "snapshots"),
	}, nil
}

// Load resolves the configuration. An empty path means {Dir()}/config.yaml.
// A missing config file is not an error; a malformed one is.
func Load(path string) (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}

	if path == "" {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(dir, "config.yaml")
	}

	if err := cfg.mergeFile(path); err != nil {
		return nil, err
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, zerr.Wrap(err, "failed to load .env")
	}
	cfg.applyEnv()

	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to read config file"), "path", path)
	}

	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to parse config file"), "path", path)
	}

	c.Database.Driver = firstNonEmpty(file.Database.Driver, c.Database.Driver)
	c.Database.DSN = firstNonEmpty(file.Database.DSN, c.Database.DSN)
	c.Platform = firstNonEmpty(file.Platform, c.Platform)
	c.SnapshotDir = firstNonEmpty(file.SnapshotDir, c.SnapshotDir)
	return nil
}

func (c *Config) applyEnv() {
	c.Database.Driver = firstNonEmpty(env(EnvDriver), c.Database.Driver)
	c.Database.DSN = firstNonEmpty(env(EnvDSN), c.Database.DSN)
	c.SnapshotDir = firstNonEmpty(env(EnvSnapshotDir), c.SnapshotDir)
	c.Platform = firstNonEmpty(env(EnvPlatform), c.Platform)
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
