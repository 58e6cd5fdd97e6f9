package adapter

import (
	"context"
	"go/ast"
	"go/parser"
	"go/token"
	"strconv"
)

// GoFileAdapter encapsulates Go-specific parsing so the domain layer can focus
// on mutation rules while delegating syntax details to an infrastructure component.
type GoFileAdapter interface {
	// Parse builds an AST, with comments, using the provided file set and source bytes.
	Parse(ctx context.Context, fileSet *token.FileSet, filename string, src []byte) (*ast.File, error)

	// ParseImports returns the import paths of a file without parsing its bodies.
	ParseImports(ctx context.Context, filename string, src []byte) ([]string, error)
}

// LocalGoFileAdapter provides a concrete GoFileAdapter backed by go/parser.
type LocalGoFileAdapter struct{}

// NewLocalGoFileAdapter constructs a LocalGoFileAdapter.
func NewLocalGoFileAdapter() *LocalGoFileAdapter {
	return &LocalGoFileAdapter{}
}

// Parse builds an AST for the provided filename/source pair.
func (a *LocalGoFileAdapter) Parse(_ context.Context, fileSet *token.FileSet, filename string, src []byte) (*ast.File, error) {
	return parser.ParseFile(fileSet, filename, src, parser.ParseComments|parser.SkipObjectResolution)
}

// ParseImports returns the unquoted import paths of a file.
func (a *LocalGoFileAdapter) ParseImports(_ context.Context, filename string, src []byte) ([]string, error) {
	file, err := parser.ParseFile(token.NewFileSet(), filename, src, parser.ImportsOnly)
	if err != nil {
		return nil, err
	}

	return ImportPaths(file), nil
}

// ImportPaths lists the unquoted import paths of a parsed file.
func ImportPaths(file *ast.File) []string {
	paths := make([]string, 0, len(file.Imports))

	for _, spec := range file.Imports {
		path, err := strconv.Unquote(spec.Path.Value)
		if err != nil {
			continue
		}

		paths = append(paths, path)
	}

	return paths
}
