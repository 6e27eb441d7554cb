package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func TestLoaderDefaults(t *testing.T) {
	resetViper(t)
	tmp := t.TempDir()
	t.Chdir(tmp)

	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	want := DefaultConfig()
	assert.Equal(t, want.LogLevel, cfg.LogLevel)
	assert.Equal(t, want.Decode.ExpectedQuestions, cfg.Decode.ExpectedQuestions)
	assert.Equal(t, want.Server.Port, cfg.Server.Port)
}

func TestLoaderEnvOverride(t *testing.T) {
	resetViper(t)
	t.Chdir(t.TempDir())
	t.Setenv("OMRSCORE_LOG_LEVEL", "debug")
	t.Setenv("OMRSCORE_SERVER_PORT", "9090")

	cfg, err := NewLoader().Load()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 9090, cfg.Server.Port)
}

func TestLoaderConfigFile(t *testing.T) {
	resetViper(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"log_level: warn\ndecode:\n  expected_questions: 15\n"), 0o600))

	cfg, err := NewLoader().LoadWithFile(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, 15, cfg.Decode.ExpectedQuestions)
}

func TestLoaderConfigFileMissing(t *testing.T) {
	resetViper(t)
	_, err := NewLoader().LoadWithFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoaderInvalidConfigRejected(t *testing.T) {
	resetViper(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: loud\n"), 0o600))

	_, err := NewLoader().LoadWithFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation")
}

func TestGetConfigSearchPaths(t *testing.T) {
	paths := GetConfigSearchPaths()
	assert.Contains(t, paths, ".")
	assert.Contains(t, paths, "/etc/omrscore")
}
