package domain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"gooze.dev/pkg/mutants/internal/adapter"
	m "gooze.dev/pkg/mutants/internal/model"
)

// cacheDirName is an in-tree build cache some projects keep; it is not copied by default.
const cacheDirName = ".gocache"

// ScratchOptions configures where scenarios are built.
type ScratchOptions struct {
	Root    m.Path
	InPlace bool
	// CopyCache copies an in-tree .gocache directory.
	CopyCache bool
	// IsolateCache gives each directory its own GOCACHE.
	IsolateCache bool
	Gitignore    bool
	LeakDirs     bool
	// ExcludePaths are absolute paths never copied, such as the output directory.
	ExcludePaths []m.Path
}

// ScratchManager owns the directories scenarios run in.
type ScratchManager interface {
	Prepare(ctx context.Context, n int) ([]m.ScratchDir, error)
	Apply(ctx context.Context, dir m.ScratchDir, mutant m.Mutant) (*Patch, error)
	Cleanup(ctx context.Context) error
}

// Patch is a mutant applied to one file of a scratch directory.
type Patch struct {
	Path     m.Path
	Original []byte
	Mutated  []byte

	fs      adapter.SourceFSAdapter
	perm    os.FileMode
	modTime time.Time
	once    sync.Once
	err     error
}

// Revert restores the file byte for byte and checks the result. It runs at
// most once.
func (p *Patch) Revert(ctx context.Context) error {
	p.once.Do(func() {
		p.err = p.revert(ctx)
	})

	return p.err
}

func (p *Patch) revert(ctx context.Context) error {
	if err := p.fs.WriteFile(ctx, p.Path, p.Original, p.perm); err != nil {
		slog.Error("Failed to restore mutated file", "path", p.Path, "error", err)
		return &RevertError{Path: string(p.Path), Err: err}
	}

	if err := p.fs.SetModTime(ctx, p.Path, p.modTime); err != nil {
		slog.Warn("Failed to restore modification time", "path", p.Path, "error", err)
	}

	current, err := p.fs.ReadFile(ctx, p.Path)
	if err != nil {
		return &RevertError{Path: string(p.Path), Err: err}
	}

	if !bytes.Equal(current, p.Original) {
		return &RevertError{Path: string(p.Path), Err: errors.New("content differs after restore")}
	}

	return nil
}

type scratchManager struct {
	adapter.SourceFSAdapter
	opts ScratchOptions

	mu      sync.Mutex
	created []m.Path
}

// NewScratchManager creates a ScratchManager over fs.
func NewScratchManager(fs adapter.SourceFSAdapter, opts ScratchOptions) ScratchManager {
	return &scratchManager{SourceFSAdapter: fs, opts: opts}
}

func (s *scratchManager) Prepare(ctx context.Context, n int) ([]m.ScratchDir, error) {
	if n <= 0 {
		n = 1
	}

	if s.opts.InPlace {
		if n != 1 {
			return nil, usageErrorf("--in-place requires a single job, got %d", n)
		}

		dir := m.ScratchDir{Index: 0, Path: s.opts.Root, InPlace: true}
		if err := s.attachCache(ctx, &dir); err != nil {
			return nil, err
		}

		return []m.ScratchDir{dir}, nil
	}

	dirs := make([]m.ScratchDir, n)
	g, gctx := errgroup.WithContext(ctx)

	for i := range dirs {
		g.Go(func() error {
			dir, err := s.copyTree(gctx, i)
			if err != nil {
				return err
			}

			dirs[i] = dir

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	slog.Info("Prepared scratch directories", "count", n)

	return dirs, nil
}

func (s *scratchManager) copyTree(ctx context.Context, index int) (m.ScratchDir, error) {
	path, err := s.CreateTempDir(ctx, "mutants-*.tmp")
	if err != nil {
		return m.ScratchDir{}, &CopyError{Dir: "temp", Err: err}
	}

	s.track(path)

	excludes := append([]m.Path(nil), s.opts.ExcludePaths...)
	if !s.opts.CopyCache {
		excludes = append(excludes, s.JoinPath(string(s.opts.Root), cacheDirName))
	}

	start := time.Now()

	err = s.CopyTree(ctx, s.opts.Root, path, adapter.CopyOptions{
		ExcludeNames:    adapter.DefaultExcludeNames,
		ExcludePaths:    excludes,
		Gitignore:       s.opts.Gitignore,
		PreserveTimes:   true,
		RelocateModules: true,
	})
	if err != nil {
		slog.Error("Failed to copy source tree", "src", s.opts.Root, "dst", path, "error", err)
		return m.ScratchDir{}, &CopyError{Dir: string(path), Err: err}
	}

	slog.Debug("Copied source tree", "dst", path, "elapsed", time.Since(start))

	dir := m.ScratchDir{Index: index, Path: path}
	if err := s.attachCache(ctx, &dir); err != nil {
		return m.ScratchDir{}, err
	}

	return dir, nil
}

func (s *scratchManager) attachCache(ctx context.Context, dir *m.ScratchDir) error {
	if !s.opts.IsolateCache {
		return nil
	}

	cache, err := s.CreateTempDir(ctx, fmt.Sprintf("mutants-cache-%d-*", dir.Index))
	if err != nil {
		return &CopyError{Dir: "cache", Err: err}
	}

	s.track(cache)
	dir.Cache = cache

	return nil
}

func (s *scratchManager) track(path m.Path) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.created = append(s.created, path)
}

func (s *scratchManager) Apply(ctx context.Context, dir m.ScratchDir, mutant m.Mutant) (*Patch, error) {
	path := s.JoinPath(string(dir.Path), filepath.FromSlash(string(mutant.File)))

	info, err := s.FileInfo(ctx, path)
	if err != nil {
		return nil, &PatchError{Mutant: mutant.Name(), Err: err}
	}

	original, err := s.ReadFile(ctx, path)
	if err != nil {
		return nil, &PatchError{Mutant: mutant.Name(), Err: err}
	}

	mutated, err := mutant.Apply(original)
	if err != nil {
		return nil, &PatchError{Mutant: mutant.Name(), Err: err}
	}

	patch := &Patch{
		Path:     path,
		Original: original,
		Mutated:  mutated,
		fs:       s.SourceFSAdapter,
		perm:     info.Mode().Perm(),
		modTime:  info.ModTime(),
	}

	if err := s.WriteFile(ctx, path, mutated, info.Mode().Perm()); err != nil {
		// A partial write must still be undone.
		if revertErr := patch.Revert(context.WithoutCancel(ctx)); revertErr != nil {
			return nil, revertErr
		}

		return nil, &PatchError{Mutant: mutant.Name(), Err: err}
	}

	return patch, nil
}

func (s *scratchManager) Cleanup(ctx context.Context) error {
	s.mu.Lock()
	created := s.created
	s.created = nil
	s.mu.Unlock()

	if s.opts.LeakDirs {
		for _, path := range created {
			slog.Info("Leaving scratch directory", "path", path)
		}

		return nil
	}

	var errs []error

	for _, path := range created {
		if err := s.RemoveAll(ctx, path); err != nil {
			slog.Warn("Failed to remove scratch directory", "path", path, "error", err)
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
