package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	m "gooze.dev/pkg/mutants/internal/model"
)

func TestReportStore_OpenCreatesLayout(t *testing.T) {
	root := t.TempDir()
	store := NewReportStore()

	out, err := store.Open(context.Background(), m.Path(root))
	require.NoError(t, err)
	defer func() { require.NoError(t, out.Close()) }()

	assert.Equal(t, m.Path(filepath.Join(root, OutputDirName)), out.Path())
	assert.DirExists(t, filepath.Join(root, OutputDirName, "log"))
	assert.DirExists(t, filepath.Join(root, OutputDirName, "diff"))
	assert.FileExists(t, filepath.Join(root, GateFileName))

	var info LockInfo
	data, err := os.ReadFile(filepath.Join(root, OutputDirName, "lock.json"))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &info))
	assert.Equal(t, os.Getpid(), info.PID)
	assert.NotEmpty(t, info.RunID)
}

func TestReportStore_RotatesPreviousOutput(t *testing.T) {
	root := t.TempDir()
	store := NewReportStore()
	ctx := context.Background()

	first, err := store.Open(ctx, m.Path(root))
	require.NoError(t, err)
	require.NoError(t, first.AppendName(ctx, m.Caught, "a.go:1:1: replace f with {}"))
	require.NoError(t, first.Close())

	second, err := store.Open(ctx, m.Path(root))
	require.NoError(t, err)
	defer func() { _ = second.Close() }()

	assert.FileExists(t, filepath.Join(root, OldOutputDirName, "caught.txt"))
	assert.NoFileExists(t, filepath.Join(root, OutputDirName, "caught.txt"))
}

func TestReportStore_SecondOpenIsLocked(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("advisory locks are unix only")
	}

	root := t.TempDir()
	store := NewReportStore()

	out, err := store.Open(context.Background(), m.Path(root))
	require.NoError(t, err)
	defer func() { _ = out.Close() }()

	_, err = store.Open(context.Background(), m.Path(root))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLocked))
}

func TestReportStore_ConcurrentOpen(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("advisory locks are unix only")
	}

	root := t.TempDir()
	store := NewReportStore()
	ctx := context.Background()

	// A previous output gives every Open something to rotate.
	previous, err := store.Open(ctx, m.Path(root))
	require.NoError(t, err)
	require.NoError(t, previous.AppendName(ctx, m.Caught, "a.go:1:1: replace f with {}"))
	require.NoError(t, previous.Close())

	const n = 8

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		opened []OutputDir
		locked int
	)

	for range n {
		wg.Add(1)

		go func() {
			defer wg.Done()

			out, err := store.Open(ctx, m.Path(root))

			mu.Lock()
			defer mu.Unlock()

			switch {
			case err == nil:
				opened = append(opened, out)
			case errors.Is(err, ErrLocked):
				locked++
			default:
				t.Errorf("Open() error = %v", err)
			}
		}()
	}

	wg.Wait()

	require.Len(t, opened, 1)
	assert.Equal(t, n-1, locked)

	// The winner's directory was not rotated away by a loser.
	assert.DirExists(t, string(opened[0].Path()))
	assert.FileExists(t, filepath.Join(root, OldOutputDirName, "caught.txt"))
	require.NoError(t, opened[0].AppendName(ctx, m.Missed, "b.go:1:1: replace g with {}"))
	assert.FileExists(t, filepath.Join(root, OutputDirName, "missed.txt"))

	require.NoError(t, opened[0].Close())

	again, err := store.Open(ctx, m.Path(root))
	require.NoError(t, err)
	require.NoError(t, again.Close())
}

func TestOutputDir_Artifacts(t *testing.T) {
	root := t.TempDir()
	ctx := context.Background()

	out, err := NewReportStore().Open(ctx, m.Path(root))
	require.NoError(t, err)
	defer func() { _ = out.Close() }()

	mutants := []m.Mutant{{Genre: m.GenreFnValue, File: "a.go", Replacement: "{}"}}
	require.NoError(t, out.WriteCatalog(ctx, mutants))
	require.NoError(t, out.WriteOutcomes(ctx, map[string]int{"caught": 1}))
	require.NoError(t, out.AppendName(ctx, m.Missed, "first"))
	require.NoError(t, out.AppendName(ctx, m.Missed, "second"))
	require.NoError(t, out.AppendName(ctx, m.Success, "ignored"))

	var catalog []m.Mutant
	data, err := os.ReadFile(filepath.Join(string(out.Path()), "mutants.json"))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &catalog))
	assert.Len(t, catalog, 1)

	missed, err := os.ReadFile(filepath.Join(string(out.Path()), "missed.txt"))
	require.NoError(t, err)
	assert.Equal(t, "first\nsecond\n", string(missed))

	assert.FileExists(t, filepath.Join(string(out.Path()), "outcomes.json"))

	diffPath, err := out.WriteDiff(ctx, "a", "--- a/a.go\n+++ b/a.go\n")
	require.NoError(t, err)
	assert.Equal(t, m.Path("diff/a.diff"), diffPath)

	w1, p1, err := out.CreateLog(ctx, "same")
	require.NoError(t, err)
	_, _ = io.WriteString(w1, "log one")
	require.NoError(t, w1.Close())

	w2, p2, err := out.CreateLog(ctx, "same")
	require.NoError(t, err)
	require.NoError(t, w2.Close())

	assert.Equal(t, m.Path("log/same.log"), p1)
	assert.NotEqual(t, p1, p2)
	assert.True(t, strings.HasPrefix(string(p2), "log/same_"))
}

func TestReportStore_ReadPrevious(t *testing.T) {
	root := t.TempDir()
	ctx := context.Background()
	store := NewReportStore()

	names, err := store.ReadPrevious(ctx, m.Path(root))
	require.NoError(t, err)
	assert.Empty(t, names)

	out, err := store.Open(ctx, m.Path(root))
	require.NoError(t, err)
	require.NoError(t, out.AppendName(ctx, m.Caught, "caught one"))
	require.NoError(t, out.AppendName(ctx, m.Unviable, "unviable one"))
	require.NoError(t, out.AppendName(ctx, m.Missed, "missed one"))
	require.NoError(t, out.WritePreviouslyCaught(ctx, []string{"older"}))
	require.NoError(t, out.Close())

	names, err = store.ReadPrevious(ctx, m.Path(root))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"caught one", "unviable one", "older"}, names)
}
