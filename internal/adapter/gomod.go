package adapter

import (
	"os"
	"path/filepath"

	"golang.org/x/mod/modfile"
)

// ModulePath returns the module path declared by go.mod content, or "".
func ModulePath(gomod []byte) string {
	return modfile.ModulePath(gomod)
}

// LocalReplaces maps module paths replaced by a relative directory in go.mod
// to that directory, slash-separated and relative to the go.mod location.
func LocalReplaces(gomod []byte) map[string]string {
	f, err := modfile.Parse("go.mod", gomod, nil)
	if err != nil {
		return nil
	}

	replaces := make(map[string]string)

	for _, r := range f.Replace {
		if r.New.Version != "" || !modfile.IsDirectoryPath(r.New.Path) || filepath.IsAbs(r.New.Path) {
			continue
		}

		replaces[r.Old.Path] = filepath.ToSlash(filepath.Clean(r.New.Path))
	}

	return replaces
}

// relocateModuleFile rewrites relative replace and use paths of a copied
// go.mod or go.work that point outside the original tree, so they resolve to
// the same directories from the copy.
func relocateModuleFile(path, srcRoot, dstRoot string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	// #nosec G304 - path is a file inside the scratch copy
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	rel, err := filepath.Rel(dstRoot, filepath.Dir(path))
	if err != nil {
		return err
	}

	origDir := filepath.Join(srcRoot, rel)

	var (
		out     []byte
		changed bool
	)

	if filepath.Base(path) == "go.work" {
		out, changed, err = relocateWork(path, content, origDir, srcRoot)
	} else {
		out, changed, err = relocateMod(path, content, origDir, srcRoot)
	}

	if err != nil || !changed {
		return err
	}

	return writeFileMode(path, out, info.Mode().Perm())
}

// writeFileMode replaces the content of path and leaves it with mode perm.
func writeFileMode(path string, data []byte, perm os.FileMode) error {
	if err := os.WriteFile(path, data, perm); err != nil {
		return err
	}

	return os.Chmod(path, perm)
}

// outsideTarget resolves a relative directory reference and reports whether it
// leaves the tree. Absolute and module references are left alone.
func outsideTarget(ref, origDir, srcRoot string) (string, bool) {
	if !modfile.IsDirectoryPath(ref) || filepath.IsAbs(ref) {
		return "", false
	}

	target := filepath.Clean(filepath.Join(origDir, filepath.FromSlash(ref)))
	if within(srcRoot, target) {
		return "", false
	}

	return target, true
}

func relocateMod(name string, content []byte, origDir, srcRoot string) ([]byte, bool, error) {
	f, err := modfile.Parse(name, content, nil)
	if err != nil {
		return nil, false, err
	}

	changed := false

	replaces := append([]*modfile.Replace(nil), f.Replace...)
	for _, r := range replaces {
		if r.New.Version != "" {
			continue
		}

		target, ok := outsideTarget(r.New.Path, origDir, srcRoot)
		if !ok {
			continue
		}

		if err := f.AddReplace(r.Old.Path, r.Old.Version, target, ""); err != nil {
			return nil, false, err
		}

		changed = true
	}

	if !changed {
		return nil, false, nil
	}

	f.Cleanup()

	out, err := f.Format()

	return out, true, err
}

func relocateWork(name string, content []byte, origDir, srcRoot string) ([]byte, bool, error) {
	f, err := modfile.ParseWork(name, content, nil)
	if err != nil {
		return nil, false, err
	}

	changed := false

	uses := append([]*modfile.Use(nil), f.Use...)
	for _, u := range uses {
		target, ok := outsideTarget(u.Path, origDir, srcRoot)
		if !ok {
			continue
		}

		if err := f.DropUse(u.Path); err != nil {
			return nil, false, err
		}

		if err := f.AddUse(target, u.ModulePath); err != nil {
			return nil, false, err
		}

		changed = true
	}

	replaces := append([]*modfile.Replace(nil), f.Replace...)
	for _, r := range replaces {
		if r.New.Version != "" {
			continue
		}

		target, ok := outsideTarget(r.New.Path, origDir, srcRoot)
		if !ok {
			continue
		}

		if err := f.AddReplace(r.Old.Path, r.Old.Version, target, ""); err != nil {
			return nil, false, err
		}

		changed = true
	}

	if !changed {
		return nil, false, nil
	}

	f.Cleanup()

	return modfile.Format(f.Syntax), true, nil
}
