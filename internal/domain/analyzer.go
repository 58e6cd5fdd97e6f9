package domain

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strings"

	"gooze.dev/pkg/mutants/internal/adapter"
	m "gooze.dev/pkg/mutants/internal/model"
)

// DiscoverOptions selects the code to mutate.
type DiscoverOptions struct {
	// Root is the absolute directory holding go.mod.
	Root     m.Path
	Patterns []string
	// ExamineGlobs and ExcludeGlobs filter source files by tree-relative path.
	ExamineGlobs []string
	ExcludeGlobs []string
	// FollowImports adds packages of the main module imported by selected code.
	FollowImports bool
	Generate      GenerateOptions
}

// Discovery is the ordered result of source analysis.
type Discovery struct {
	Files     []m.SourceFile
	Functions []m.Function
	Mutants   []m.Mutant
	Warnings  []string
}

// Analyzer finds the functions and mutants of a source tree.
type Analyzer interface {
	Discover(ctx context.Context, opts DiscoverOptions) (Discovery, error)
}

type analyzer struct {
	adapter.SourceFSAdapter
	adapter.GoFileAdapter
	lister  adapter.PackageLister
	mutagen Mutagen
}

// NewAnalyzer creates an Analyzer over the given adapters.
func NewAnalyzer(fs adapter.SourceFSAdapter, goFiles adapter.GoFileAdapter, lister adapter.PackageLister, mg Mutagen) Analyzer {
	return &analyzer{
		SourceFSAdapter: fs,
		GoFileAdapter:   goFiles,
		lister:          lister,
		mutagen:         mg,
	}
}

// moduleLayout maps import paths of the main module and of locally replaced
// modules onto tree-relative directories.
type moduleLayout struct {
	root     m.Path
	path     string
	replaces map[string]string
}

// dirFor returns the tree-relative directory for importPath. ok is false for
// imports outside the module; inTree is false for local replacements that
// leave the tree.
func (l moduleLayout) dirFor(importPath string) (dir string, ok, inTree bool) {
	if rest, found := cutModule(importPath, l.path); found {
		return path.Join(".", rest), true, true
	}

	for mod, target := range l.replaces {
		rest, found := cutModule(importPath, mod)
		if !found {
			continue
		}

		dir := path.Join(target, rest)
		if dir == ".." || strings.HasPrefix(dir, "../") {
			return dir, true, false
		}

		return dir, true, true
	}

	return "", false, false
}

func cutModule(importPath, module string) (string, bool) {
	if module == "" {
		return "", false
	}

	if importPath == module {
		return "", true
	}

	return strings.CutPrefix(importPath, module+"/")
}

func (a *analyzer) Discover(ctx context.Context, opts DiscoverOptions) (Discovery, error) {
	patterns := opts.Patterns
	if len(patterns) == 0 {
		patterns = []string{"./..."}
	}

	pkgs, err := a.lister.List(ctx, opts.Root, patterns)
	if err != nil {
		slog.Error("Failed to list packages", "root", opts.Root, "patterns", patterns, "error", err)
		return Discovery{}, &DiscoveryError{Path: string(opts.Root), Err: err}
	}

	layout, err := a.readLayout(ctx, opts.Root)
	if err != nil {
		return Discovery{}, err
	}

	filter := newFileFilter(opts.ExamineGlobs, opts.ExcludeGlobs)

	var (
		discovery Discovery
		queue     []m.Package
	)

	visited := make(map[m.Path]bool)

	for _, pkg := range pkgs {
		if !visited[pkg.Dir] {
			visited[pkg.Dir] = true
			queue = append(queue, pkg)
		}
	}

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return Discovery{}, err
		}

		pkg := queue[0]
		queue = queue[1:]

		imports, err := a.discoverPackage(ctx, opts, pkg, filter, &discovery)
		if err != nil {
			return Discovery{}, err
		}

		if !opts.FollowImports {
			continue
		}

		for _, imp := range imports {
			next, warning := a.follow(ctx, layout, imp, visited)
			if warning != "" {
				slog.Warn("Cannot follow import", "import", imp, "package", pkg.ImportPath, "reason", warning)
				discovery.Warnings = append(discovery.Warnings, fmt.Sprintf("%s: import %q: %s", pkg.Dir, imp, warning))
			}

			queue = append(queue, next...)
		}
	}

	sortDiscovery(&discovery)

	slog.Info("Discovered mutants", "files", len(discovery.Files), "functions", len(discovery.Functions), "mutants", len(discovery.Mutants))

	return discovery, nil
}

func (a *analyzer) readLayout(ctx context.Context, root m.Path) (moduleLayout, error) {
	gomod, err := a.ReadFile(ctx, a.JoinPath(string(root), "go.mod"))
	if err != nil {
		slog.Error("Failed to read go.mod", "root", root, "error", err)
		return moduleLayout{}, &DiscoveryError{Path: string(a.JoinPath(string(root), "go.mod")), Err: err}
	}

	return moduleLayout{
		root:     root,
		path:     adapter.ModulePath(gomod),
		replaces: adapter.LocalReplaces(gomod),
	}, nil
}

// discoverPackage generates mutants for the selected files of pkg and
// returns the imports of all its files.
func (a *analyzer) discoverPackage(ctx context.Context, opts DiscoverOptions, pkg m.Package, filter fileFilter, discovery *Discovery) ([]string, error) {
	var imports []string

	for _, rel := range pkg.GoFiles {
		full := a.JoinPath(string(opts.Root), string(rel))

		code, err := a.ReadFile(ctx, full)
		if err != nil {
			slog.Error("Failed to read source file", "path", full, "error", err)
			return nil, &DiscoveryError{Path: string(rel), Err: err}
		}

		if !filter.selects(string(rel)) {
			if opts.FollowImports {
				fileImports, err := a.ParseImports(ctx, string(rel), code)
				if err != nil {
					return nil, &DiscoveryError{Path: string(rel), Err: err}
				}

				imports = append(imports, fileImports...)
			}

			continue
		}

		source := m.SourceFile{
			RelPath:    rel,
			Package:    pkg.ImportPath,
			PackageDir: pkg.Dir,
			Code:       code,
		}

		found, err := a.mutagen.GenerateMutants(ctx, source, opts.Generate)
		if err != nil {
			slog.Error("Failed to generate mutants", "path", rel, "error", err)
			return nil, err
		}

		discovery.Files = append(discovery.Files, source)
		discovery.Functions = append(discovery.Functions, found.Functions...)
		discovery.Mutants = append(discovery.Mutants, found.Mutants...)
		imports = append(imports, found.Imports...)
	}

	return imports, nil
}

// follow resolves a local import to packages not yet visited. A non-empty
// warning explains why the import cannot be followed.
func (a *analyzer) follow(ctx context.Context, layout moduleLayout, importPath string, visited map[m.Path]bool) ([]m.Package, string) {
	dir, ok, inTree := layout.dirFor(importPath)
	if !ok {
		return nil, ""
	}

	if !inTree {
		return nil, fmt.Sprintf("replaced by %s outside the source tree", dir)
	}

	if visited[m.Path(dir)] {
		return nil, ""
	}

	visited[m.Path(dir)] = true

	info, err := a.FileInfo(ctx, a.JoinPath(string(layout.root), dir))
	if err != nil || !info.IsDir() {
		return nil, "no such directory in the source tree"
	}

	pattern := "."
	if dir != "." {
		pattern = "./" + dir
	}

	pkgs, err := a.lister.List(ctx, layout.root, []string{pattern})
	if err != nil {
		return nil, err.Error()
	}

	var next []m.Package

	for _, pkg := range pkgs {
		if pkg.Dir == m.Path(dir) {
			next = append(next, pkg)
		}
	}

	if len(next) == 0 {
		return nil, "not a package of the main module"
	}

	return next, ""
}

// sortDiscovery orders files by path and functions and mutants by position.
func sortDiscovery(d *Discovery) {
	sort.SliceStable(d.Files, func(i, j int) bool {
		return d.Files[i].RelPath < d.Files[j].RelPath
	})

	sort.SliceStable(d.Functions, func(i, j int) bool {
		return functionLess(d.Functions[i], d.Functions[j])
	})

	sort.SliceStable(d.Mutants, func(i, j int) bool {
		a, b := d.Mutants[i], d.Mutants[j]
		if a.File != b.File {
			return a.File < b.File
		}

		if a.Function != nil && b.Function != nil && a.Function != b.Function {
			return a.Function.Span.StartOffset < b.Function.Span.StartOffset
		}

		return false
	})
}

func functionLess(a, b m.Function) bool {
	if a.File != b.File {
		return a.File < b.File
	}

	if a.Span.StartOffset != b.Span.StartOffset {
		return a.Span.StartOffset < b.Span.StartOffset
	}

	return a.Name < b.Name
}
