package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/pocketmoney-dev/pocketmoney/internal/logging"
	"github.com/pocketmoney-dev/pocketmoney/internal/store"
)

// FileName is the config file looked up in the data directory.
const FileName = "pocketmoney.yaml"

// Environment variables that override the file.
const (
	EnvStoreBackend = "POCKETMONEY_STORE_BACKEND"
	EnvStoreDSN     = "POCKETMONEY_STORE_DSN"
	EnvLogLevel     = "POCKETMONEY_LOG_LEVEL"
)

// Config represents the top-level pocketmoney.yaml configuration.
type Config struct {
	Store   StoreConfig   `yaml:"store"`
	Display DisplayConfig `yaml:"display"`
	Git     GitConfig     `yaml:"git"`
	Log     LogConfig     `yaml:"log"`
}

// StoreConfig selects where the ledger lives.
type StoreConfig struct {
	Backend string `yaml:"backend"`        // file, sqlite, postgres or memory
	Path    string `yaml:"path,omitempty"` // relative paths resolve against the data dir
	DSN     string `yaml:"dsn,omitempty"`
}

// DisplayConfig controls output formatting.
type DisplayConfig struct {
	Currency string `yaml:"currency"`
}

// GitConfig controls git integration.
type GitConfig struct {
	AutoCommit  bool   `yaml:"auto_commit"`
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
}

// LogConfig sets the diagnostic log level.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Load reads a pocketmoney.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new data directory.
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			Backend: store.BackendFile,
			Path:    "pocketmoney.json",
		},
		Display: DisplayConfig{
			Currency: "₹",
		},
		Git: GitConfig{
			AuthorName:  "PocketMoney",
			AuthorEmail: "pocketmoney@localhost",
		},
		Log: LogConfig{
			Level: "warn",
		},
	}
}

// ApplyEnv overrides fields from the environment. lookup is usually
// os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvStoreBackend); ok && v != "" {
		c.Store.Backend = v
	}
	if v, ok := lookup(EnvStoreDSN); ok && v != "" {
		c.Store.DSN = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.Log.Level = v
	}
}

// Validate reports every problem with the config.
func (c *Config) Validate() error {
	var errs []error

	switch c.Store.Backend {
	case store.BackendFile, store.BackendSQLite:
		if strings.TrimSpace(c.Store.Path) == "" {
			errs = append(errs, fmt.Errorf("store.path is required for the %s backend", c.Store.Backend))
		}
	case store.BackendPostgres:
		if strings.TrimSpace(c.Store.DSN) == "" {
			errs = append(errs, errors.New("store.dsn is required for the postgres backend"))
		}
	case store.BackendMemory:
	default:
		errs = append(errs, fmt.Errorf("store.backend %q is not one of file, sqlite, postgres, memory", c.Store.Backend))
	}

	if c.Git.AutoCommit && c.Store.Backend != store.BackendFile && c.Store.Backend != store.BackendSQLite {
		errs = append(errs, errors.New("git.auto_commit needs a file or sqlite backend"))
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}

	return errors.Join(errs...)
}

// StoreOptions returns the store options with the path resolved against dir.
func (c *Config) StoreOptions(dir string) store.Options {
	path := c.Store.Path
	if path != "" && !filepath.IsAbs(path) {
		path = filepath.Join(dir, path)
	}
	return store.Options{
		Backend: c.Store.Backend,
		Path:    path,
		DSN:     c.Store.DSN,
	}
}
