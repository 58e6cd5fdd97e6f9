package domain

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	m "gooze.dev/pkg/mutants/internal/model"
)

func examplePath(t *testing.T, name string) m.Path {
	t.Helper()

	path, err := filepath.Abs(filepath.Join("..", "..", "examples", name))
	require.NoError(t, err)

	return m.Path(path)
}

// copyExample copies an example module into a temporary directory so tests
// can modify it.
func copyExample(t *testing.T, name string) m.Path {
	t.Helper()

	src := string(examplePath(t, name))
	dst := t.TempDir()

	err := filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}

		target := filepath.Join(dst, rel)
		if info.IsDir() {
			return os.MkdirAll(target, 0o755)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		return os.WriteFile(target, data, 0o644)
	})
	require.NoError(t, err)

	return m.Path(dst)
}

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()

	for name, contents := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	}
}

func mutantNames(mutants []m.Mutant) []string {
	names := make([]string, 0, len(mutants))
	for _, mutant := range mutants {
		names = append(names, mutant.Name())
	}

	return names
}
