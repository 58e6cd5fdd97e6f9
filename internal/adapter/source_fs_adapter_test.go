package adapter

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	m "gooze.dev/pkg/mutants/internal/model"
)

func TestLocalSourceFSAdapter_Walk(t *testing.T) {
	t.Run("non recursive skips nested files", func(t *testing.T) {
		adapter := NewLocalSourceFSAdapter()

		root := t.TempDir()
		writeTestFile(t, filepath.Join(root, "main.go"), "package main\n")

		nestedDir := filepath.Join(root, "nested")
		writeTestFile(t, filepath.Join(nestedDir, "child.go"), "package nested\n")

		var visited []string
		err := adapter.Walk(context.Background(), m.Path(root), false, func(path string, _ os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			visited = append(visited, path)
			return nil
		})
		if err != nil {
			t.Fatalf("Walk() error = %v", err)
		}

		if containsPath(visited, filepath.Join(nestedDir, "child.go")) {
			t.Fatalf("Walk() unexpectedly visited nested file when recursive is false")
		}

		if !containsPath(visited, filepath.Join(root, "main.go")) {
			t.Fatalf("Walk() did not visit top-level file")
		}
	})

	t.Run("recursive visits nested files", func(t *testing.T) {
		adapter := NewLocalSourceFSAdapter()

		root := t.TempDir()
		child := filepath.Join(root, "nested", "child.go")
		writeTestFile(t, child, "package nested\n")

		var visited []string
		err := adapter.Walk(context.Background(), m.Path(root), true, func(path string, _ os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			visited = append(visited, path)
			return nil
		})
		if err != nil {
			t.Fatalf("Walk() error = %v", err)
		}

		if !containsPath(visited, child) {
			t.Fatalf("Walk() did not visit nested file")
		}
	})
}

func TestLocalSourceFSAdapter_FindProjectRoot(t *testing.T) {
	adapter := NewLocalSourceFSAdapter()

	root := t.TempDir()
	writeTestFile(t, filepath.Join(root, "go.mod"), "module example.com/x\n")
	nested := filepath.Join(root, "a", "b")
	writeTestFile(t, filepath.Join(nested, "b.go"), "package b\n")

	for _, start := range []string{nested, filepath.Join(nested, "b.go"), root} {
		got, err := adapter.FindProjectRoot(context.Background(), m.Path(start))
		if err != nil {
			t.Fatalf("FindProjectRoot(%s) error = %v", start, err)
		}

		want, _ := filepath.EvalSymlinks(root)
		gotResolved, _ := filepath.EvalSymlinks(string(got))

		if gotResolved != want {
			t.Fatalf("FindProjectRoot(%s) = %s, want %s", start, got, root)
		}
	}
}

func TestLocalSourceFSAdapter_CopyTree(t *testing.T) {
	adapter := NewLocalSourceFSAdapter()

	src := t.TempDir()
	writeTestFile(t, filepath.Join(src, "go.mod"), "module example.com/x\n")
	writeTestFile(t, filepath.Join(src, "pkg", "a.go"), "package pkg\n")
	writeTestFile(t, filepath.Join(src, ".git", "HEAD"), "ref: refs/heads/main\n")
	writeTestFile(t, filepath.Join(src, ".gitignore"), "build/\n*.tmp\n")
	writeTestFile(t, filepath.Join(src, "build", "artifact"), "bin")
	writeTestFile(t, filepath.Join(src, "scratch.tmp"), "tmp")
	writeTestFile(t, filepath.Join(src, "mutants.out", "outcomes.json"), "{}")

	modTime := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	if err := os.Chtimes(filepath.Join(src, "pkg", "a.go"), modTime, modTime); err != nil {
		t.Fatalf("Chtimes() error = %v", err)
	}

	dst := filepath.Join(t.TempDir(), "copy")

	err := adapter.CopyTree(context.Background(), m.Path(src), m.Path(dst), CopyOptions{
		ExcludeNames:  DefaultExcludeNames,
		ExcludePaths:  []m.Path{m.Path(filepath.Join(src, "mutants.out"))},
		Gitignore:     true,
		PreserveTimes: true,
	})
	if err != nil {
		t.Fatalf("CopyTree() error = %v", err)
	}

	if got := string(readFileBytes(t, filepath.Join(dst, "pkg", "a.go"))); got != "package pkg\n" {
		t.Fatalf("copied content = %q", got)
	}

	info, err := os.Stat(filepath.Join(dst, "pkg", "a.go"))
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}

	if !info.ModTime().Equal(modTime) {
		t.Errorf("mod time = %v, want %v", info.ModTime(), modTime)
	}

	for _, absent := range []string{".git", "build", "scratch.tmp", "mutants.out"} {
		if _, err := os.Stat(filepath.Join(dst, absent)); !os.IsNotExist(err) {
			t.Errorf("%s should not be copied (err = %v)", absent, err)
		}
	}
}

func TestLocalSourceFSAdapter_CopyTree_GitignoreRequiresCheckout(t *testing.T) {
	adapter := NewLocalSourceFSAdapter()

	src := t.TempDir()
	writeTestFile(t, filepath.Join(src, ".gitignore"), "*.tmp\n")
	writeTestFile(t, filepath.Join(src, "keep.tmp"), "tmp")

	dst := filepath.Join(t.TempDir(), "copy")
	if err := adapter.CopyTree(context.Background(), m.Path(src), m.Path(dst), CopyOptions{Gitignore: true}); err != nil {
		t.Fatalf("CopyTree() error = %v", err)
	}

	if _, err := os.Stat(filepath.Join(dst, "keep.tmp")); err != nil {
		t.Fatalf("keep.tmp should be copied outside a git checkout: %v", err)
	}
}

func TestLocalSourceFSAdapter_CopyTree_RelocatesModules(t *testing.T) {
	adapter := NewLocalSourceFSAdapter()

	parent := t.TempDir()
	src := filepath.Join(parent, "tree")
	writeTestFile(t, filepath.Join(src, "go.mod"), strings.Join([]string{
		"module example.com/tree",
		"",
		"go 1.22",
		"",
		"replace example.com/sibling => ../sibling",
		"",
		"replace example.com/inner => ./inner",
		"",
	}, "\n"))

	dst := filepath.Join(t.TempDir(), "copy")
	if err := adapter.CopyTree(context.Background(), m.Path(src), m.Path(dst), CopyOptions{RelocateModules: true}); err != nil {
		t.Fatalf("CopyTree() error = %v", err)
	}

	gomod := string(readFileBytes(t, filepath.Join(dst, "go.mod")))

	if !strings.Contains(gomod, filepath.Join(parent, "sibling")) {
		t.Errorf("outside replace not made absolute:\n%s", gomod)
	}

	if !strings.Contains(gomod, "=> ./inner") {
		t.Errorf("inside replace should stay relative:\n%s", gomod)
	}

	srcInfo, err := os.Stat(filepath.Join(src, "go.mod"))
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}

	dstInfo, err := os.Stat(filepath.Join(dst, "go.mod"))
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}

	if dstInfo.Mode().Perm() != srcInfo.Mode().Perm() {
		t.Errorf("relocated go.mod mode = %v, want %v", dstInfo.Mode().Perm(), srcInfo.Mode().Perm())
	}
}

func TestWriteFileMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "go.mod")
	if err := os.WriteFile(path, []byte("module a\n"), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if err := writeFileMode(path, []byte("module b\n"), 0o644); err != nil {
		t.Fatalf("writeFileMode() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}

	if info.Mode().Perm() != 0o644 {
		t.Errorf("mode = %v, want 0644", info.Mode().Perm())
	}

	if got := string(readFileBytes(t, path)); got != "module b\n" {
		t.Errorf("content = %q", got)
	}
}

func TestLocalSourceFSAdapter_SetModTime(t *testing.T) {
	adapter := NewLocalSourceFSAdapter()
	path := filepath.Join(t.TempDir(), "a.go")
	writeTestFile(t, path, "package a\n")

	when := time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC)
	if err := adapter.SetModTime(context.Background(), m.Path(path), when); err != nil {
		t.Fatalf("SetModTime() error = %v", err)
	}

	info, err := adapter.FileInfo(context.Background(), m.Path(path))
	if err != nil {
		t.Fatalf("FileInfo() error = %v", err)
	}

	if !info.ModTime().Equal(when) {
		t.Fatalf("mod time = %v, want %v", info.ModTime(), when)
	}
}

func TestLocalSourceFSAdapter_PathHelpers(t *testing.T) {
	adapter := NewLocalSourceFSAdapter()

	joined := adapter.JoinPath("a", "b", "c.go")
	if string(joined) != filepath.Join("a", "b", "c.go") {
		t.Fatalf("JoinPath() = %s", joined)
	}

	rel, err := adapter.RelPath(m.Path("/tmp/root"), m.Path("/tmp/root/pkg/a.go"))
	if err != nil {
		t.Fatalf("RelPath() error = %v", err)
	}

	if string(rel) != filepath.Join("pkg", "a.go") {
		t.Fatalf("RelPath() = %s", rel)
	}
}
