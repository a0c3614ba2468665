package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/electora/rollscan/internal/config"
)

func TestConfigCommand(t *testing.T) {
	assert.NotNil(t, configCmd)
	assert.Equal(t, "config", configCmd.Use)

	subcommands := configCmd.Commands()
	commandNames := make([]string, len(subcommands))
	for i, subcmd := range subcommands {
		commandNames[i] = subcmd.Name()
	}
	for _, expected := range []string{"init", "paths", "show"} {
		assert.Contains(t, commandNames, expected)
	}
}

func TestConfigInitCommand(t *testing.T) {
	target := filepath.Join(t.TempDir(), "rollscan.yaml")
	require.NoError(t, configInitCmd.Flags().Set("output", target))
	t.Cleanup(func() { _ = configInitCmd.Flags().Set("output", "") })

	buf := new(bytes.Buffer)
	configInitCmd.SetOut(buf)

	err := configInitCmd.RunE(configInitCmd, []string{})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), target)

	data, err := os.ReadFile(target)
	require.NoError(t, err)

	var loaded config.Config
	require.NoError(t, yaml.Unmarshal(data, &loaded))
	assert.Equal(t, 10, loaded.Pipeline.Grid.Rows)
	assert.Equal(t, 3, loaded.Pipeline.Grid.Cols)
	assert.Equal(t, []string{"mar", "eng"}, loaded.Pipeline.OCR.Languages)
	assert.Equal(t, "xlsx", loaded.Output.Format)
}

func TestConfigPathsCommand(t *testing.T) {
	buf := new(bytes.Buffer)
	configPathsCmd.SetOut(buf)

	err := configPathsCmd.RunE(configPathsCmd, []string{})
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "rollscan.yaml")
	assert.Contains(t, output, "Search paths")
	assert.Contains(t, output, "/etc/rollscan")
}

func TestConfigShowCommand(t *testing.T) {
	buf := new(bytes.Buffer)
	configShowCmd.SetOut(buf)

	err := configShowCmd.RunE(configShowCmd, []string{})
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "log_level: info")
	assert.Contains(t, output, "pipeline:")
	assert.Contains(t, output, "server:")
}
