package model

import "strings"

// Path represents a file system path.
type Path string

// Package is a Go package of the tree under test.
type Package struct {
	ImportPath string `json:"import_path"`
	Name       string `json:"name"`
	// Dir is the tree-relative, slash-separated directory ("." for the root).
	Dir     Path   `json:"dir"`
	GoFiles []Path `json:"go_files"`
}

// Pattern returns the go command package pattern for the package directory.
func (p Package) Pattern() string {
	if p.Dir == "" || p.Dir == "." {
		return "."
	}

	return "./" + strings.TrimPrefix(string(p.Dir), "./")
}

// SourceFile is a Go source file selected for mutation.
type SourceFile struct {
	// RelPath is relative to the tree root, slash-separated.
	RelPath Path   `json:"path"`
	Package string `json:"package"`
	// PackageDir is the tree-relative directory of the owning package.
	PackageDir Path   `json:"package_dir"`
	Code       []byte `json:"-"`
}
