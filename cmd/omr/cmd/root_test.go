package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	assert.NotNil(t, rootCmd)
	assert.Equal(t, "omr", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestRootCommandHasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, sub := range rootCmd.Commands() {
		names[strings.Fields(sub.Use)[0]] = true
	}
	for _, expected := range []string{"decode", "layouts", "serve"} {
		assert.True(t, names[expected], "missing subcommand %s", expected)
	}
}

func TestRootCommandVersion(t *testing.T) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	require.NoError(t, rootCmd.PersistentFlags().Set("version", "true"))
	t.Cleanup(func() {
		_ = rootCmd.PersistentFlags().Set("version", "false")
	})

	err := rootCmd.RunE(rootCmd, nil)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "omr version")
}

func TestGetConfig(t *testing.T) {
	cfg := GetConfig()
	require.NotNil(t, cfg)
	assert.NotEmpty(t, cfg.LogLevel)
	assert.Positive(t, cfg.Decode.ExpectedQuestions)
}

func TestGetConfigLoader(t *testing.T) {
	loader := GetConfigLoader()
	require.NotNil(t, loader)
	assert.NotNil(t, loader.GetViper())
}
