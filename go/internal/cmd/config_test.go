package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "oscarnight.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

// clearEnv blanks every override; getEnv treats empty values as unset
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"PORT", "LOG_LEVEL", "STORAGE_BACKEND", "DATA_DIR", "KV_BUCKET", "NATS_URL", "MIRROR_EVENTS"} {
		t.Setenv(key, "")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t)
	config, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml"), false)
	require.NoError(t, err)

	assert.Equal(t, 3000, config.Port)
	assert.Equal(t, "file", config.Storage.Backend)
	assert.Equal(t, "config", config.Storage.Dir)
	assert.Equal(t, 3, config.Writer.MaxRetries)
	assert.False(t, config.NATS.MirrorEvents)
}

func TestLoadConfig_ExplicitMissingFileFails(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml"), true)
	assert.Error(t, err)
}

func TestLoadConfig_Precedence(t *testing.T) {
	clearEnv(t)
	path := writeConfigFile(t, `
port: 4000
log_level: debug
storage:
  backend: postgres
writer:
  retry_delay: 2s
nats:
  mirror_events: true
`)

	config, err := loadConfig(path, true)
	require.NoError(t, err)
	assert.Equal(t, 4000, config.Port)
	assert.Equal(t, "debug", config.LogLevel)
	assert.Equal(t, "postgres", config.Storage.Backend)
	assert.Equal(t, 2*time.Second, config.Writer.RetryDelay)
	assert.True(t, config.NATS.MirrorEvents)
	// untouched keys keep their defaults
	assert.Equal(t, 3, config.Writer.MaxRetries)

	t.Setenv("PORT", "5000")
	t.Setenv("STORAGE_BACKEND", "nats")
	t.Setenv("MIRROR_EVENTS", "false")

	config, err = loadConfig(path, true)
	require.NoError(t, err)
	assert.Equal(t, 5000, config.Port)
	assert.Equal(t, "nats", config.Storage.Backend)
	assert.False(t, config.NATS.MirrorEvents)

	require.NoError(t, resolvePort(config, 6000, nil))
	assert.Equal(t, 6000, config.Port)

	require.NoError(t, resolvePort(config, 6000, []string{"7000"}))
	assert.Equal(t, 7000, config.Port)
}

func TestLoadConfig_Invalid(t *testing.T) {
	clearEnv(t)
	path := writeConfigFile(t, "storage:\n  backend: s3\n")
	_, err := loadConfig(path, true)
	assert.ErrorContains(t, err, "unknown storage backend")

	path = writeConfigFile(t, "port: [")
	_, err = loadConfig(path, true)
	assert.ErrorContains(t, err, "failed to parse config")
}

func TestResolvePort_RejectsBadArgument(t *testing.T) {
	config := defaultConfig()
	assert.Error(t, resolvePort(config, 0, []string{"three-thousand"}))
	assert.Error(t, resolvePort(config, 0, []string{"70000"}))
}
