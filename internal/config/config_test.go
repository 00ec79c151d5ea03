package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Locale = "de-DE"
	cfg.Adapters.Disabled = []string{"webull"}
	cfg.Server.MappingTTL = 5 * time.Minute

	path := filepath.Join(t.TempDir(), FileName)
	err := Save(path, cfg)
	require.NoError(t, err)

	got, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, cfg, got)
}

func TestDefaults(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "en-US", cfg.Locale)
	assert.Equal(t, 2048, cfg.SampleBytes)
	assert.Equal(t, 50, cfg.MaxWarnings)
	assert.Empty(t, cfg.Adapters.Disabled)
	assert.Equal(t, "info", cfg.Telemetry.LogLevel)
	assert.True(t, cfg.Telemetry.Notice)
	assert.Equal(t, 15*time.Minute, cfg.Server.MappingTTL)
	assert.NoError(t, cfg.Validate())
}

func TestLoadNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)

	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("locale: fr-FR\nserver:\n  addr: \":9000\"\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "fr-FR", cfg.Locale)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, 2048, cfg.SampleBytes)
	assert.Equal(t, 30, cfg.Server.Burst)
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("sample_bytes: 0\n"), 0o644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "sample_bytes")
}

func TestYAMLFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, Save(path, Default()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	contents := string(data)

	assert.Contains(t, contents, "locale: en-US")
	assert.Contains(t, contents, "sample_bytes: 2048")
	assert.Contains(t, contents, "max_warnings: 50")
	assert.Contains(t, contents, "mapping_ttl: 15m0s")
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvLocale, "nl-NL")
	t.Setenv(EnvLogLevel, "debug")
	t.Setenv(EnvSampleBytes, "4096")
	t.Setenv(EnvAddr, ":7000")

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv())
	assert.Equal(t, "nl-NL", cfg.Locale)
	assert.Equal(t, "debug", cfg.Telemetry.LogLevel)
	assert.Equal(t, 4096, cfg.SampleBytes)
	assert.Equal(t, ":7000", cfg.Server.Addr)
}

func TestApplyEnvBadNumber(t *testing.T) {
	t.Setenv(EnvSampleBytes, "lots")
	assert.Error(t, Default().ApplyEnv())
}

func TestLoadEnvFile(t *testing.T) {
	assert.NoError(t, LoadEnvFile(filepath.Join(t.TempDir(), ".env")))

	// Register cleanup, then clear so the file can set it.
	t.Setenv(EnvAddr, "")
	require.NoError(t, os.Unsetenv(EnvAddr))

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(EnvAddr+"=:6000\n"), 0o644))
	require.NoError(t, LoadEnvFile(path))

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv())
	assert.Equal(t, ":6000", cfg.Server.Addr)
}
