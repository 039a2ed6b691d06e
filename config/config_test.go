package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags_Defaults(t *testing.T) {
	cfg, err := ParseFlags([]string{"-api-url", "http://api.local/api"})
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.Addr)
	assert.Equal(t, "http://localhost:8080", cfg.Url())
	assert.Equal(t, StoreSQLite, cfg.Store)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
	assert.False(t, cfg.Debug)
}

func TestParseFlags_EnvFallback(t *testing.T) {
	t.Setenv("QS_API_URL", "https://surveys.example.com/api")
	t.Setenv("QS_PORT", "9000")
	t.Setenv("QS_STORE", "redis")
	t.Setenv("QS_SESSION_TTL", "30m")
	t.Setenv("QS_DEBUG", "true")

	cfg, err := ParseFlags(nil)
	require.NoError(t, err)

	assert.Equal(t, "https://surveys.example.com/api", cfg.APIBaseURL)
	assert.Equal(t, "0.0.0.0:9000", cfg.Addr)
	assert.Equal(t, StoreRedis, cfg.Store)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.True(t, cfg.Debug)
}

func TestParseFlags_CLIOverridesEnv(t *testing.T) {
	t.Setenv("QS_PORT", "9000")
	t.Setenv("QS_STORE", "redis")

	cfg, err := ParseFlags([]string{"-port", "8081", "-store", "memory", "-api-url", "http://x"})
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8081", cfg.Addr)
	assert.Equal(t, StoreMemory, cfg.Store)
}

func TestParseFlags_PositionalArgs(t *testing.T) {
	cfg, err := ParseFlags([]string{"-api-url", "http://x", "team-pulse"})
	require.NoError(t, err)
	assert.Equal(t, []string{"team-pulse"}, cfg.Args)
}

func TestParseFlags_Invalid(t *testing.T) {
	t.Setenv("QS_PORT", "eighty")
	t.Setenv("QS_SESSION_TTL", "forever")

	_, err := ParseFlags([]string{"-api-url", "http://x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "QS_PORT")
	assert.Contains(t, err.Error(), "QS_SESSION_TTL")
}

func TestParseFlags_Validation(t *testing.T) {
	_, err := ParseFlags([]string{"-store", "etcd"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "-api-url")
	assert.Contains(t, err.Error(), `unknown store "etcd"`)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("QS_TEST_DOTENV=loaded\n"), 0o600))
	t.Setenv("QS_TEST_DOTENV", "")
	os.Unsetenv("QS_TEST_DOTENV")

	require.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env"), path))
	assert.Equal(t, "loaded", os.Getenv("QS_TEST_DOTENV"))
}
