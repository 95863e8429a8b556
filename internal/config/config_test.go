package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const configYAML = `
logging:
  level: debug
  format: json
metrics:
  enabled: true
  namespace: beanctl
resources:
  roots: [conf, shared]
  http_timeout: 3s
  redis_addr: localhost:6379
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, "beans", cfg.Metrics.Namespace)
	assert.Equal(t, []string{"."}, cfg.Resources.Roots)
	assert.Equal(t, 10*time.Second, cfg.Resources.HTTPTimeout)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".beans.yaml")
	writeFile(t, path, configYAML)

	cfg, err := Load(path, filepath.Join(dir, "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, path, cfg.Path)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "beanctl", cfg.Metrics.Namespace)
	assert.Equal(t, []string{"conf", "shared"}, cfg.Resources.Roots)
	assert.Equal(t, 3*time.Second, cfg.Resources.HTTPTimeout)
	assert.Equal(t, "localhost:6379", cfg.Resources.RedisAddr)
}

func TestLoad_ExplicitPathMustExist(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".beans.yaml")
	writeFile(t, path, "logging: [")

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".beans.yaml")
	writeFile(t, path, configYAML)

	t.Setenv("BEANS_LOG_LEVEL", "warn")
	t.Setenv("BEANS_HTTP_TIMEOUT", "250ms")
	t.Setenv("BEANS_METRICS_ENABLED", "false")
	t.Setenv("BEANS_RESOURCE_ROOTS", "a"+string(os.PathListSeparator)+"b")

	cfg, err := Load(path, filepath.Join(dir, "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, 250*time.Millisecond, cfg.Resources.HTTPTimeout)
	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, []string{"a", "b"}, cfg.Resources.Roots)
}

func TestLoad_InvalidEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".beans.yaml")
	writeFile(t, path, configYAML)
	t.Setenv("BEANS_HTTP_TIMEOUT", "soon")

	_, err := Load(path, filepath.Join(t.TempDir(), "missing.env"))
	assert.ErrorContains(t, err, "BEANS_HTTP_TIMEOUT")
}

func TestLoad_EnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".beans.yaml")
	writeFile(t, path, configYAML)
	envFile := filepath.Join(dir, "test.env")
	writeFile(t, envFile, "BEANS_REDIS_PREFIX=defs:\n")

	// Registered so the variable set by the env file is removed afterwards.
	t.Setenv("BEANS_REDIS_PREFIX", "")
	require.NoError(t, os.Unsetenv("BEANS_REDIS_PREFIX"))

	cfg, err := Load(path, envFile)
	require.NoError(t, err)
	assert.Equal(t, "defs:", cfg.Resources.RedisPrefix)
}

func TestFind_WalksUp(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, ".beans.yml")
	writeFile(t, path, "logging:\n  level: debug\n")
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	assert.Equal(t, path, Find(nested))
}
