// Package adapter contains UI and infrastructure adapters for the mutants CLI.
package adapter

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	ignore "github.com/sabhiram/go-gitignore"
	m "gooze.dev/pkg/mutants/internal/model"
)

// SourceFSAdapter abstracts filesystem-specific operations that the domain layer
// relies on when scanning and copying user projects. It hides direct `os`
// access so the workflow logic can be tested without touching the disk.
//
//nolint:interfacebloat // A richer interface keeps workflow logic decoupled from os/fs.
type SourceFSAdapter interface {
	// Walk traverses the provided root path. When recursive is false the
	// implementation limits itself to the root directory (no sub-dirs).
	Walk(ctx context.Context, root m.Path, recursive bool, fn FilepathWalkFunc) error

	// ReadFile loads a file from disk and returns its contents.
	ReadFile(ctx context.Context, path m.Path) ([]byte, error)

	// WriteFile writes content to a file with the given permissions.
	WriteFile(ctx context.Context, path m.Path, content []byte, perm os.FileMode) error

	// FileInfo returns metadata for a path.
	FileInfo(ctx context.Context, path m.Path) (os.FileInfo, error)

	// SetModTime sets the access and modification time of a file.
	SetModTime(ctx context.Context, path m.Path, modTime time.Time) error

	// FindProjectRoot searches for go.mod walking up the directory tree.
	FindProjectRoot(ctx context.Context, startPath m.Path) (m.Path, error)

	// CreateTempDir creates a temporary directory.
	CreateTempDir(ctx context.Context, pattern string) (m.Path, error)

	// RemoveAll removes a directory and all its contents.
	RemoveAll(ctx context.Context, path m.Path) error

	// CopyTree recursively copies a source tree into dst.
	CopyTree(ctx context.Context, src, dst m.Path, opts CopyOptions) error

	// RelPath returns the relative path from base to target.
	RelPath(base, target m.Path) (m.Path, error)

	// JoinPath joins path elements into a single path.
	JoinPath(elem ...string) m.Path
}

// CopyOptions controls what CopyTree copies.
type CopyOptions struct {
	// ExcludeNames are directory base names never copied.
	ExcludeNames []string
	// ExcludePaths are absolute paths never copied.
	ExcludePaths []m.Path
	// Gitignore skips paths matched by the root .gitignore of a git checkout.
	Gitignore bool
	// PreserveTimes copies file modification times.
	PreserveTimes bool
	// RelocateModules rewrites go.mod and go.work paths that point outside the tree.
	RelocateModules bool
}

// DefaultExcludeNames are version-control directories never copied.
var DefaultExcludeNames = []string{".git", ".hg", ".svn", ".jj", "_darcs"}

// FilepathWalkFunc mirrors the callback shape used by filepath.Walk. It is
// defined here to avoid leaking the standard-library type directly into the
// domain layer.
type FilepathWalkFunc func(path string, info os.FileInfo, err error) error

// LocalSourceFSAdapter is the os-backed SourceFSAdapter.
type LocalSourceFSAdapter struct{}

// NewLocalSourceFSAdapter constructs a LocalSourceFSAdapter instance ready to
// be wired into the workflow.
func NewLocalSourceFSAdapter() *LocalSourceFSAdapter {
	return &LocalSourceFSAdapter{}
}

// Walk iterates over files under root, optionally descending into subdirectories.
func (a *LocalSourceFSAdapter) Walk(ctx context.Context, root m.Path, recursive bool, fn FilepathWalkFunc) error {
	rootStr := string(root)

	return filepath.Walk(rootStr, func(path string, info os.FileInfo, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if err != nil {
			return fn(path, info, err)
		}

		if info.IsDir() && !recursive && path != rootStr {
			return filepath.SkipDir
		}

		return fn(path, info, nil)
	})
}

// ReadFile loads file contents from disk.
func (a *LocalSourceFSAdapter) ReadFile(_ context.Context, path m.Path) ([]byte, error) {
	return os.ReadFile(string(path))
}

// WriteFile writes content to a file with the given permissions.
func (a *LocalSourceFSAdapter) WriteFile(_ context.Context, path m.Path, content []byte, perm os.FileMode) error {
	return os.WriteFile(string(path), content, perm)
}

// FileInfo returns os.FileInfo metadata for the given path.
func (a *LocalSourceFSAdapter) FileInfo(_ context.Context, path m.Path) (os.FileInfo, error) {
	return os.Stat(string(path))
}

// SetModTime updates both access and modification times.
func (a *LocalSourceFSAdapter) SetModTime(_ context.Context, path m.Path, modTime time.Time) error {
	return os.Chtimes(string(path), modTime, modTime)
}

// FindProjectRoot searches for go.mod starting at startPath (a file or directory).
func (a *LocalSourceFSAdapter) FindProjectRoot(_ context.Context, startPath m.Path) (m.Path, error) {
	dir, err := filepath.Abs(string(startPath))
	if err != nil {
		return "", err
	}

	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		dir = filepath.Dir(dir)
	}

	for {
		goModPath := filepath.Join(dir, "go.mod")
		if _, err := os.Stat(goModPath); err == nil {
			return m.Path(dir), nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("go.mod not found in any parent directory of %s", startPath)
		}

		dir = parent
	}
}

// CreateTempDir creates a temporary directory in the system temp location.
func (a *LocalSourceFSAdapter) CreateTempDir(_ context.Context, pattern string) (m.Path, error) {
	tmpDir, err := os.MkdirTemp("", pattern)
	if err != nil {
		return "", err
	}

	return m.Path(tmpDir), nil
}

// RemoveAll removes a directory and all its contents.
func (a *LocalSourceFSAdapter) RemoveAll(_ context.Context, path m.Path) error {
	return os.RemoveAll(string(path))
}

// CopyTree recursively copies src into dst honoring opts.
func (a *LocalSourceFSAdapter) CopyTree(ctx context.Context, src, dst m.Path, opts CopyOptions) error {
	srcRoot := filepath.Clean(string(src))
	dstRoot := filepath.Clean(string(dst))

	excludedNames := make(map[string]struct{}, len(opts.ExcludeNames))
	for _, name := range opts.ExcludeNames {
		excludedNames[name] = struct{}{}
	}

	excludedPaths := make(map[string]struct{}, len(opts.ExcludePaths))
	for _, p := range opts.ExcludePaths {
		excludedPaths[filepath.Clean(string(p))] = struct{}{}
	}

	var matcher *ignore.GitIgnore
	if opts.Gitignore {
		matcher = loadGitignore(srcRoot)
	}

	var moduleFiles []string

	err := filepath.WalkDir(srcRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(srcRoot, path)
		if err != nil {
			return err
		}

		if rel == "." {
			return os.MkdirAll(dstRoot, 0o750)
		}

		if skipCopy(d, path, rel, excludedNames, excludedPaths, matcher) {
			if d.IsDir() {
				return filepath.SkipDir
			}

			return nil
		}

		target := filepath.Join(dstRoot, rel)

		info, err := d.Info()
		if err != nil {
			return err
		}

		switch {
		case info.Mode()&fs.ModeSymlink != 0:
			link, err := os.Readlink(path)
			if err != nil {
				return err
			}

			return os.Symlink(link, target)
		case d.IsDir():
			return os.MkdirAll(target, info.Mode().Perm()|0o700)
		}

		if err := a.copyFile(path, target, info.Mode()); err != nil {
			return err
		}

		if d.Name() == "go.mod" || d.Name() == "go.work" {
			moduleFiles = append(moduleFiles, target)
		}

		if opts.PreserveTimes {
			if err := os.Chtimes(target, info.ModTime(), info.ModTime()); err != nil {
				slog.Warn("Failed to preserve modification time", "path", target, "error", err)
			}
		}

		return nil
	})
	if err != nil {
		return err
	}

	if !opts.RelocateModules {
		return nil
	}

	for _, moduleFile := range moduleFiles {
		if err := relocateModuleFile(moduleFile, srcRoot, dstRoot); err != nil {
			return fmt.Errorf("failed to relocate %s: %w", moduleFile, err)
		}
	}

	return nil
}

func skipCopy(d fs.DirEntry, path, rel string, names, paths map[string]struct{}, matcher *ignore.GitIgnore) bool {
	if _, ok := paths[path]; ok {
		return true
	}

	if d.IsDir() {
		if _, ok := names[d.Name()]; ok {
			return true
		}
	}

	if matcher == nil {
		return false
	}

	slashRel := filepath.ToSlash(rel)
	if matcher.MatchesPath(slashRel) {
		return true
	}

	return d.IsDir() && matcher.MatchesPath(slashRel+"/")
}

// loadGitignore compiles the root .gitignore of a git checkout, nil otherwise.
func loadGitignore(root string) *ignore.GitIgnore {
	if _, err := os.Stat(filepath.Join(root, ".git")); err != nil {
		return nil
	}

	gi, err := ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore"))
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("Failed to read .gitignore", "root", root, "error", err)
		}

		return nil
	}

	return gi
}

// copyFile copies a single file.
func (a *LocalSourceFSAdapter) copyFile(src, dst string, mode os.FileMode) error {
	// #nosec G304 - src is internal project file path, not user input
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}

	defer func() { _ = sourceFile.Close() }()

	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return err
	}

	// #nosec G304 - dst is internal destination path, not user input
	destFile, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode.Perm())
	if err != nil {
		return err
	}

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		_ = destFile.Close()
		return err
	}

	return destFile.Close()
}

// RelPath returns the relative path from base to target.
func (a *LocalSourceFSAdapter) RelPath(base, target m.Path) (m.Path, error) {
	rel, err := filepath.Rel(string(base), string(target))
	if err != nil {
		return "", err
	}

	return m.Path(rel), nil
}

// JoinPath joins path elements into a single path.
func (a *LocalSourceFSAdapter) JoinPath(elem ...string) m.Path {
	return m.Path(filepath.Join(elem...))
}

// within reports whether target is root or below it.
func within(root, target string) bool {
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return false
	}

	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
