package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func chdir(t *testing.T, dir string) {
	t.Helper()

	originalWD, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { require.NoError(t, os.Chdir(originalWD)) })
}

func TestInitCmd_WritesConfigFile(t *testing.T) {
	tempDir := t.TempDir()
	chdir(t, tempDir)

	cmd, out := newTestRootCmd(newInitCmd())
	cmd.SetArgs([]string{"init"})
	require.NoError(t, cmd.Execute())

	targetPath := filepath.Join(tempDir, configFileName)
	contents, err := os.ReadFile(targetPath)
	require.NoError(t, err)
	assert.Contains(t, out.String(), configFileName)

	var config map[string]any
	require.NoError(t, yaml.Unmarshal(contents, &config))
	assert.EqualValues(t, currentConfigVersion, config[configVersionKey])
	assert.Contains(t, config, "run")
	assert.Contains(t, config, "filters")
}

func TestInitCmd_ErrorsWhenFileExists(t *testing.T) {
	tempDir := t.TempDir()
	chdir(t, tempDir)

	targetPath := filepath.Join(tempDir, configFileName)
	require.NoError(t, os.WriteFile(targetPath, []byte("version: 1\n"), 0o644))

	cmd, _ := newTestRootCmd(newInitCmd())
	cmd.SetArgs([]string{"init"})
	require.Error(t, cmd.Execute())

	contents, err := os.ReadFile(targetPath)
	require.NoError(t, err)
	assert.Equal(t, "version: 1\n", string(contents))
}
