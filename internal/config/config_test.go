package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pocketmoney-dev/pocketmoney/internal/store"
)

func env(vars map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := vars[k]
		return v, ok
	}
}

func TestRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Store = StoreConfig{Backend: store.BackendSQLite, Path: "ledger.db"}
	cfg.Git.AutoCommit = true
	cfg.Display.Currency = "$"

	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, Save(path, cfg))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestDefaults(t *testing.T) {
	cfg := Default()

	assert.Equal(t, store.BackendFile, cfg.Store.Backend)
	assert.Equal(t, "pocketmoney.json", cfg.Store.Path)
	assert.Equal(t, "₹", cfg.Display.Currency)
	assert.False(t, cfg.Git.AutoCommit)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: debug\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, store.BackendFile, cfg.Store.Backend)
	assert.Equal(t, "₹", cfg.Display.Currency)
}

func TestLoadNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("store: [unclosed"), 0o644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "parsing config")
}

func TestYAMLFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, Save(path, Default()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	contents := string(data)

	assert.Contains(t, contents, "backend: file")
	assert.Contains(t, contents, "path: pocketmoney.json")
	assert.Contains(t, contents, "auto_commit: false")
	assert.NotContains(t, contents, "dsn:")
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	cfg.ApplyEnv(env(map[string]string{
		EnvStoreBackend: "postgres",
		EnvStoreDSN:     "postgres://localhost/pm",
		EnvLogLevel:     "",
	}))

	assert.Equal(t, store.BackendPostgres, cfg.Store.Backend)
	assert.Equal(t, "postgres://localhost/pm", cfg.Store.DSN)
	assert.Equal(t, "warn", cfg.Log.Level, "empty values are ignored")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   []string
	}{
		{"unknown backend", func(c *Config) { c.Store.Backend = "redis" }, []string{`store.backend "redis"`}},
		{"file without path", func(c *Config) { c.Store.Path = "" }, []string{"store.path is required"}},
		{"postgres without dsn", func(c *Config) { c.Store.Backend = store.BackendPostgres }, []string{"store.dsn is required"}},
		{"git with memory", func(c *Config) {
			c.Store.Backend = store.BackendMemory
			c.Git.AutoCommit = true
		}, []string{"git.auto_commit"}},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, []string{"log.level"}},
		{"several at once", func(c *Config) {
			c.Store.Backend = store.BackendPostgres
			c.Log.Level = "loud"
		}, []string{"store.dsn is required", "log.level"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			for _, w := range tt.want {
				assert.Contains(t, err.Error(), w)
			}
		})
	}
}

func TestStoreOptions(t *testing.T) {
	cfg := Default()
	opts := cfg.StoreOptions("/data")
	assert.Equal(t, store.Options{Backend: store.BackendFile, Path: filepath.Join("/data", "pocketmoney.json")}, opts)

	cfg.Store.Path = "/abs/ledger.json"
	assert.Equal(t, "/abs/ledger.json", cfg.StoreOptions("/data").Path)

	cfg.Store = StoreConfig{Backend: store.BackendPostgres, DSN: "postgres://x"}
	opts = cfg.StoreOptions("/data")
	assert.Equal(t, "", opts.Path)
	assert.Equal(t, "postgres://x", opts.DSN)
}
