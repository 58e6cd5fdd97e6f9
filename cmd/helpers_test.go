package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	domainmocks "gooze.dev/pkg/mutants/internal/domain/mocks"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "mutants-cmd")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// Keep the log of every command out of the package directory.
	_ = os.Setenv("MUTANTS_LOG_FILENAME", filepath.Join(dir, "mutants.log"))

	code := m.Run()

	_ = os.RemoveAll(dir)
	os.Exit(code)
}

// useMockWorkflow swaps the package workflow for a mock until the test ends.
func useMockWorkflow(t *testing.T) *domainmocks.MockWorkflow {
	t.Helper()

	mockWorkflow := domainmocks.NewMockWorkflow(t)

	originalWorkflow := workflow
	workflow = mockWorkflow
	t.Cleanup(func() { workflow = originalWorkflow })

	return mockWorkflow
}

// resetConfig restores the default viper state when the test ends.
func resetConfig(t *testing.T) {
	t.Helper()

	t.Cleanup(func() {
		viper.Reset()
		initConfig()
	})
}

func newTestRootCmd(subcommands ...*cobra.Command) (*cobra.Command, *bytes.Buffer) {
	cmd := newRootCmd()
	cmd.AddCommand(subcommands...)

	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})

	return cmd, out
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), configFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}
