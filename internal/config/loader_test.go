package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := NewLoader(filepath.Join(t.TempDir(), "missing.yaml")).decode()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 10*time.Minute, cfg.Cache.ProfileTTL)
	assert.Equal(t, 5*time.Minute, cfg.Cache.PantryTTL)
	assert.Equal(t, time.Hour, cfg.Cache.HistoryTTL)

	rec := cfg.RateLimit.Policies["recommendations"]
	assert.Equal(t, 5, rec.MaxRequests)
	assert.Equal(t, 10*time.Minute, rec.Window)
	assert.Equal(t, 30*time.Second, rec.Cooldown)
	assert.False(t, rec.FailOpen)

	global := cfg.RateLimit.Policies["global"]
	assert.Equal(t, 100, global.MaxRequests)
	assert.True(t, global.FailOpen)
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
server:
  port: 9090
rate_limit:
  backend: memory
  policies:
    recommendations:
      max_requests: 3
      cooldown_counts_against_window: true
database:
  driver: sqlite
  database: "file::memory:"
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	t.Setenv("BOCADO_GATE_LOG_LEVEL", "debug")

	cfg, err := NewLoader(path).Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "file::memory:", cfg.Database.GetDSN())

	rec := cfg.RateLimit.Policies["recommendations"]
	assert.Equal(t, 3, rec.MaxRequests)
	assert.True(t, rec.CooldownCountsAgainstWindow)
	// untouched keys keep their defaults
	assert.Equal(t, 30*time.Second, rec.Cooldown)
	assert.Equal(t, 10*time.Minute, rec.Window)
}

func TestValidate(t *testing.T) {
	cfg, err := NewLoader(filepath.Join(t.TempDir(), "missing.yaml")).decode()
	require.NoError(t, err)

	bad := *cfg
	bad.Database.Driver = "mysql"
	assert.Error(t, bad.Validate())

	prod := *cfg
	prod.Server.Environment = "production"
	assert.NoError(t, prod.Validate())
	assert.Error(t, prod.ValidateSecrets())
	prod.Auth.JWTSecret = "s3cret"
	prod.AI.APIKey = "key"
	assert.NoError(t, prod.ValidateSecrets())
}

func TestDatabaseConfig_GetDSN(t *testing.T) {
	c := DatabaseConfig{Driver: "postgres", Host: "db", Port: 5432, User: "u", Password: "p", Database: "d", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=d sslmode=disable", c.GetDSN())
	c.DSN = "postgres://x"
	assert.Equal(t, "postgres://x", c.GetDSN())
}
