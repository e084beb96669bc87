package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8000", cfg.Server.Addr)
	assert.Equal(t, "dev-secret", cfg.Auth.Secret)
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.TokenTTL)
	assert.True(t, cfg.Auth.Enforce)
	assert.Equal(t, 50, cfg.Quota.Initial)
	assert.Equal(t, 5*time.Second, cfg.Database.Timeout)
	assert.Equal(t, DefaultPlaceholderURL, cfg.Generation.PlaceholderURL)
	assert.Equal(t, "uploads", cfg.Storage.KeyPrefix)
	assert.Equal(t, []string{"*"}, cfg.CORS.Origins)
	assert.Equal(t, filepath.Join("data", "studioaljo.db"), cfg.DatabasePath())
}

func TestLoadPrefixedEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STUDIO_SERVER_ADDR", "127.0.0.1:9000")
	t.Setenv("STUDIO_AUTH_ENFORCE", "false")
	t.Setenv("STUDIO_REDIS_TTL", "30s")
	t.Setenv("STUDIO_CORS_ORIGINS", "http://a.test, http://b.test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.False(t, cfg.Auth.Enforce)
	assert.Equal(t, 30*time.Second, cfg.Redis.TTL)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.Origins)
}

func TestLoadLegacyEnvNames(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DATABASE_URL", "file:/var/lib/studio")
	t.Setenv("DATABASE_NAME", "gallery")
	t.Setenv("SECRET_KEY", "legacy-secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "legacy-secret", cfg.Auth.Secret)
	assert.Equal(t, filepath.Join("/var/lib/studio", "gallery.db"), cfg.DatabasePath())
}

func TestPrefixedEnvWinsOverLegacy(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SECRET_KEY", "legacy")
	t.Setenv("STUDIO_AUTH_SECRET", "current")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "current", cfg.Auth.Secret)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("STUDIO_QUOTA_INITIAL=7\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("STUDIO_QUOTA_INITIAL") })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Quota.Initial)
}

func TestLoadRejectsBlankSecret(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STUDIO_AUTH_SECRET", " ")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidateRejectsMongoURL(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DATABASE_URL", "mongodb://localhost:27017")

	_, err := Load()
	assert.Error(t, err)
}

func TestDatabasePathAcceptsFile(t *testing.T) {
	var cfg Config
	cfg.Database.URL = "file:/tmp/custom.db"
	assert.Equal(t, "/tmp/custom.db", cfg.DatabasePath())
}
