package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/attrengine/internal/attribute"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "attrserver.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultEngine(), cfg)
}

func TestLoad_YAMLOverrides(t *testing.T) {
	path := writeConfig(t, `
log_level: debug
store: postgres
save_interval: 30s
sweep_interval: 250ms
database:
  host: db.internal
  port: 6432
defaults:
  luck: 7
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, StorePostgres, cfg.Store)
	assert.Equal(t, 30*time.Second, cfg.SaveInterval)
	assert.Equal(t, 250*time.Millisecond, cfg.SweepInterval)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 6432, cfg.Database.Port)
	assert.Equal(t, "attrengine", cfg.Database.User, "unset keys keep defaults")
	assert.Equal(t, 7.0, cfg.Defaults["luck"])
	assert.Equal(t, 100.0, cfg.Defaults["hp"])
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	path := writeConfig(t, "store: sqlite\nsave_concurrency: 2\n")
	t.Setenv("ATTR_STORE", "memory")
	t.Setenv("ATTR_SAVE_CONCURRENCY", "8")
	t.Setenv("ATTR_SWEEP_INTERVAL", "2s")
	t.Setenv("ATTR_DB_HOST", "10.0.0.5")
	t.Setenv("ATTR_DB_PASSWORD", "secret")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, StoreMemory, cfg.Store)
	assert.Equal(t, 8, cfg.SaveConcurrency)
	assert.Equal(t, 2*time.Second, cfg.SweepInterval)
	assert.Equal(t, "10.0.0.5", cfg.Database.Host)
	assert.Equal(t, "secret", cfg.Database.Password)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "malformed yaml", body: "store: [sqlite"},
		{name: "unknown store", body: "store: redis"},
		{name: "unknown default attribute", body: "defaults:\n  mana: 10\n"},
		{name: "zero sweep interval", body: "sweep_interval: 0s"},
		{name: "negative save interval", body: "save_interval: -1s"},
		{name: "zero save concurrency", body: "save_concurrency: 0"},
		{name: "sqlite without path", body: "store: sqlite\nsqlite_path: \"\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoad_BadEnvValue(t *testing.T) {
	t.Setenv("ATTR_SAVE_INTERVAL", "soon")
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{Host: "localhost", Port: 5432, User: "u", Password: "p", DBName: "attrs", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@localhost:5432/attrs?sslmode=disable", d.DSN())
}

func TestEngine_DefaultBases(t *testing.T) {
	cfg := DefaultEngine()
	cfg.Defaults = map[string]float64{"hp": 120, "crit_rate": 5, "bogus": 1}

	assert.Equal(t, map[attribute.ID]float64{
		attribute.HP:       120,
		attribute.CritRate: 5,
	}, cfg.DefaultBases())
}

func TestDefaultEngine_IsValid(t *testing.T) {
	assert.NoError(t, DefaultEngine().Validate())
}
