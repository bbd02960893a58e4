//go:build !integration

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, name := range []string{"analyze", "clean", "results", "serve"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "claims-cli", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestAnalyzeCommand_Flags(t *testing.T) {
	for _, name := range []string{"claims", "zips", "counties", "population", "report", "plots", "metrics-out"} {
		f := analyzeCmd.Flags().Lookup(name)
		require.NotNil(t, f, "analyze should have --%s", name)
		assert.Empty(t, f.DefValue)
	}
	f := analyzeCmd.Flags().Lookup("no-cache")
	require.NotNil(t, f)
	assert.Equal(t, "false", f.DefValue)
}

func TestCleanCommand_Flags(t *testing.T) {
	require.NotNil(t, cleanCmd.Flags().Lookup("claims"))
	require.NotNil(t, cleanCmd.Flags().Lookup("out"))
	assert.Nil(t, cleanCmd.Flags().Lookup("zips"))
}

func TestResultsCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range resultsCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["list"])
	assert.True(t, names["show"])

	limit := resultsListCmd.Flags().Lookup("limit")
	require.NotNil(t, limit)
	assert.Equal(t, "20", limit.DefValue)

	format := resultsShowCmd.Flags().Lookup("format")
	require.NotNil(t, format)
	assert.Equal(t, "json", format.DefValue)
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}
