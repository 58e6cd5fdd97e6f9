package adapter

import (
	"context"
	"errors"
	"fmt"
	"go/build"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/tools/go/packages"
	m "gooze.dev/pkg/mutants/internal/model"
)

// PackageLister resolves go command package patterns into packages of the tree.
type PackageLister interface {
	List(ctx context.Context, root m.Path, patterns []string) ([]m.Package, error)
}

// GoPackagesLister asks the go command, through go/packages, which packages
// and files a pattern selects.
type GoPackagesLister struct {
	env []string
}

// NewGoPackagesLister constructs a lister; env is appended to the process environment.
func NewGoPackagesLister(env ...string) *GoPackagesLister {
	return &GoPackagesLister{env: env}
}

// List loads the packages matched by patterns relative to root.
func (l *GoPackagesLister) List(ctx context.Context, root m.Path, patterns []string) ([]m.Package, error) {
	rootDir := string(root)

	cfg := &packages.Config{
		Context: ctx,
		Dir:     rootDir,
		Mode:    packages.NeedName | packages.NeedFiles | packages.NeedModule,
	}
	if len(l.env) > 0 {
		cfg.Env = append(os.Environ(), l.env...)
	}

	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		slog.Error("Failed to load packages", "root", rootDir, "patterns", patterns, "error", err)
		return nil, fmt.Errorf("failed to load packages: %w", err)
	}

	var (
		result   []m.Package
		problems []error
	)

	for _, pkg := range pkgs {
		for _, pkgErr := range pkg.Errors {
			problems = append(problems, pkgErr)
		}

		if len(pkg.GoFiles) == 0 {
			continue
		}

		if pkg.Module != nil && !pkg.Module.Main {
			continue
		}

		listed, ok := relativePackage(rootDir, pkg.PkgPath, pkg.Name, pkg.GoFiles)
		if !ok {
			slog.Debug("Skipping package outside the tree", "package", pkg.PkgPath)
			continue
		}

		result = append(result, listed)
	}

	if len(result) == 0 && len(problems) > 0 {
		return nil, errors.Join(problems...)
	}

	for _, problem := range problems {
		slog.Warn("Package listing problem", "error", problem)
	}

	sortPackages(result)

	return result, nil
}

func relativePackage(root, importPath, name string, goFiles []string) (m.Package, bool) {
	dir := filepath.Dir(goFiles[0])

	rel, err := filepath.Rel(root, dir)
	if err != nil || !within(root, dir) {
		return m.Package{}, false
	}

	pkg := m.Package{ImportPath: importPath, Name: name, Dir: m.Path(filepath.ToSlash(rel))}

	for _, file := range goFiles {
		if filepath.Dir(file) != dir {
			continue
		}

		pkg.GoFiles = append(pkg.GoFiles, m.Path(path.Join(string(pkg.Dir), filepath.Base(file))))
	}

	return pkg, true
}

func sortPackages(pkgs []m.Package) {
	sort.Slice(pkgs, func(i, j int) bool { return pkgs[i].Dir < pkgs[j].Dir })
}

// WalkPackageLister resolves directory patterns by walking the tree, without
// invoking the go command. It understands "./...", "./dir/..." and "./dir".
type WalkPackageLister struct {
	fs           SourceFSAdapter
	buildContext build.Context
}

// NewWalkPackageLister constructs a lister over the given filesystem adapter.
func NewWalkPackageLister(fs SourceFSAdapter) *WalkPackageLister {
	return &WalkPackageLister{fs: fs, buildContext: build.Default}
}

// List walks the directories selected by patterns.
func (l *WalkPackageLister) List(ctx context.Context, root m.Path, patterns []string) ([]m.Package, error) {
	gomod, err := l.fs.ReadFile(ctx, l.fs.JoinPath(string(root), "go.mod"))
	if err != nil {
		return nil, fmt.Errorf("failed to read go.mod: %w", err)
	}

	modulePath := ModulePath(gomod)

	if len(patterns) == 0 {
		patterns = []string{"."}
	}

	byDir := make(map[m.Path]*m.Package)

	for _, pattern := range patterns {
		base, recursive := splitPattern(pattern)
		start := l.fs.JoinPath(string(root), filepath.FromSlash(base))

		if _, err := l.fs.FileInfo(ctx, start); err != nil {
			return nil, fmt.Errorf("pattern %q: %w", pattern, err)
		}

		err := l.fs.Walk(ctx, start, recursive, func(p string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}

			if info.IsDir() {
				if p != string(start) && ignoredDir(info.Name()) {
					return filepath.SkipDir
				}

				if p != string(start) && hasGoMod(p) {
					return filepath.SkipDir
				}

				return nil
			}

			return l.addFile(string(root), modulePath, p, byDir)
		})
		if err != nil {
			return nil, err
		}
	}

	result := make([]m.Package, 0, len(byDir))
	for _, pkg := range byDir {
		sort.Slice(pkg.GoFiles, func(i, j int) bool { return pkg.GoFiles[i] < pkg.GoFiles[j] })
		result = append(result, *pkg)
	}

	if len(result) == 0 {
		return nil, fmt.Errorf("patterns %v matched no packages", patterns)
	}

	sortPackages(result)

	return result, nil
}

func (l *WalkPackageLister) addFile(root, modulePath, file string, byDir map[m.Path]*m.Package) error {
	name := filepath.Base(file)
	if !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
		return nil
	}

	ok, err := l.buildContext.MatchFile(filepath.Dir(file), name)
	if err != nil || !ok {
		return nil //nolint:nilerr // unreadable or excluded files are not part of the build
	}

	rel, err := filepath.Rel(root, filepath.Dir(file))
	if err != nil {
		return err
	}

	dir := m.Path(filepath.ToSlash(rel))

	pkg, exists := byDir[dir]
	if !exists {
		importPath := modulePath
		if dir != "." {
			importPath = path.Join(modulePath, string(dir))
		}

		pkg = &m.Package{ImportPath: importPath, Dir: dir}
		byDir[dir] = pkg
	}

	for _, existing := range pkg.GoFiles {
		if existing == m.Path(path.Join(string(dir), name)) {
			return nil
		}
	}

	pkg.GoFiles = append(pkg.GoFiles, m.Path(path.Join(string(dir), name)))

	return nil
}

func splitPattern(pattern string) (string, bool) {
	p := strings.TrimPrefix(filepath.ToSlash(pattern), "./")

	switch {
	case p == "...":
		return ".", true
	case strings.HasSuffix(p, "/..."):
		return strings.TrimSuffix(p, "/..."), true
	case p == "":
		return ".", false
	}

	return p, false
}

// ignoredDir follows the go command: testdata, vendor, and names starting with . or _.
func ignoredDir(name string) bool {
	return name == "testdata" || name == "vendor" || strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")
}

func hasGoMod(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, "go.mod"))
	return err == nil
}
