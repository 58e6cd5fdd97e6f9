// Package domain contains the core mutation testing workflow and logic.
package domain

import (
	"context"
	"go/ast"
	"go/scanner"
	"go/token"
	"go/types"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"gooze.dev/pkg/mutants/internal/adapter"
	"gooze.dev/pkg/mutants/internal/domain/mutagens"
	m "gooze.dev/pkg/mutants/internal/model"
)

// DefaultSkipCalls are calls whose arguments are not mutated unless disabled.
var DefaultSkipCalls = []string{"make"}

// GenerateOptions controls which mutants are produced for a file.
type GenerateOptions struct {
	// Operators enables binary and unary operator mutants.
	Operators  bool
	SkipUnsafe bool
	// SkipCalls lists callee names whose arguments are left alone.
	SkipCalls []string
	// ErrorValues are extra expressions returned in place of a nil error.
	ErrorValues []string
}

// FileMutants is what one source file contributes to the catalog.
type FileMutants struct {
	Functions []m.Function
	Mutants   []m.Mutant
	// Imports are the import paths of the file.
	Imports []string
}

// Mutagen defines the interface for mutation generation.
type Mutagen interface {
	GenerateMutants(ctx context.Context, source m.SourceFile, opts GenerateOptions) (FileMutants, error)
}

// mutagen handles pure mutation generation logic.
type mutagen struct {
	adapter.GoFileAdapter
}

// NewMutagen creates a new Mutagen instance.
func NewMutagen(goFileAdapter adapter.GoFileAdapter) Mutagen {
	return &mutagen{
		GoFileAdapter: goFileAdapter,
	}
}

func (mg *mutagen) GenerateMutants(ctx context.Context, source m.SourceFile, opts GenerateOptions) (FileMutants, error) {
	if err := ctx.Err(); err != nil {
		return FileMutants{}, err
	}

	fset := token.NewFileSet()

	file, err := mg.Parse(ctx, fset, string(source.RelPath), source.Code)
	if err != nil {
		return FileMutants{}, &DiscoveryError{Path: string(source.RelPath), Err: err}
	}

	skip := buildSkipIndex(file, fset)
	skipCalls := make(map[string]bool, len(opts.SkipCalls))

	for _, name := range opts.SkipCalls {
		skipCalls[name] = true
	}

	result := FileMutants{Imports: adapter.ImportPaths(file)}
	imports := importNames(file)

	for _, decl := range file.Decls {
		fd, ok := decl.(*ast.FuncDecl)
		if !ok {
			continue
		}

		fn, ok := newFunction(fd, fset, source.RelPath)
		if !ok {
			continue
		}

		fn.Skip = skipReason(fd, file, fset, skip, opts.SkipUnsafe)
		result.Functions = append(result.Functions, *fn)

		if fn.Skip != m.SkipNone {
			continue
		}

		guard := importGuard(file, fd, fset, source.Code, imports)
		result.Mutants = append(result.Mutants, fnValueMutants(fd, fset, source, fn, opts.ErrorValues, guard)...)

		if opts.Operators {
			result.Mutants = append(result.Mutants, operatorMutants(fd, fset, source, fn, skipCalls)...)
		}
	}

	// Every mutant stays inside the body it was generated for.
	result.Mutants = slices.DeleteFunc(result.Mutants, func(mutant m.Mutant) bool {
		return !mutant.Function.BodySpan.Contains(mutant.Span)
	})

	return result, nil
}

func newFunction(fd *ast.FuncDecl, fset *token.FileSet, file m.Path) (*m.Function, bool) {
	span, ok := mutagens.SpanOf(fset, fd.Pos(), fd.End())
	if !ok {
		return nil, false
	}

	shape := mutagens.ParseResults(fd.Type.Results)

	fn := &m.Function{
		Name:       fd.Name.Name,
		File:       file,
		ReturnType: shape.Text,
		Result:     shape,
		Span:       span,
	}

	if fd.Recv != nil && len(fd.Recv.List) > 0 {
		fn.Receiver = types.ExprString(fd.Recv.List[0].Type)
	}

	if fd.Body != nil {
		if body, ok := mutagens.SpanOf(fset, fd.Body.Lbrace, fd.Body.Rbrace+1); ok {
			fn.BodySpan = body
		}
	}

	return fn, true
}

// fnValueMutants replaces the whole body with a return of each candidate value.
// A non-empty guard is kept as the first statement of every replacement.
func fnValueMutants(fd *ast.FuncDecl, fset *token.FileSet, source m.SourceFile, fn *m.Function, errorValues []string, guard string) []m.Mutant {
	original, err := fn.BodySpan.Extract(source.Code)
	if err != nil {
		return nil
	}

	indent := lineIndent(source.Code, fset.Position(fd.Pos()).Offset)
	seen := make(map[string]bool)

	var mutants []m.Mutant

	for _, value := range mutagens.ReturnValues(fn.Result, errorValues) {
		var body strings.Builder

		if guard != "" {
			body.WriteString("\n" + indent + "\t" + guard)
		}

		if value != "" {
			body.WriteString("\n" + indent + "\treturn " + value)
		}

		replacement := "{}"
		if body.Len() > 0 {
			replacement = "{" + body.String() + "\n" + indent + "}"
		}

		if seen[replacement] || sameTokens(original, replacement) {
			continue
		}

		seen[replacement] = true

		mutants = append(mutants, m.Mutant{
			Genre:       m.GenreFnValue,
			File:        source.RelPath,
			Package:     source.Package,
			Function:    fn,
			Span:        fn.BodySpan,
			Original:    original,
			Replacement: replacement,
			Label:       value,
		})
	}

	return mutants
}

// importGuard returns a statement keeping alive the imports that only the body
// of fd uses, or "" when there are none. The statement assigns the original
// body, as a never-called function literal of the same signature, to the
// blank identifier.
func importGuard(file *ast.File, fd *ast.FuncDecl, fset *token.FileSet, code []byte, imports map[string]bool) string {
	if fd.Body == nil || len(imports) == 0 {
		return ""
	}

	inBody := packageRefs(fd.Body, nil, imports)
	if len(inBody) == 0 {
		return ""
	}

	elsewhere := packageRefs(file, fd.Body, imports)

	sole := false
	for name := range inBody {
		if !elsewhere[name] {
			sole = true
			break
		}
	}

	if !sole {
		return ""
	}

	text := func(from, to token.Pos) string {
		return string(code[fset.Position(from).Offset:fset.Position(to).Offset])
	}

	signature := text(fd.Type.Params.Pos(), fd.Type.Params.End())
	if fd.Type.Results != nil {
		signature += " " + text(fd.Type.Results.Pos(), fd.Type.Results.End())
	}

	return "_ = func" + signature + " " + text(fd.Body.Lbrace, fd.Body.Rbrace+1)
}

// packageRefs collects the import names used as the qualifier of a selector
// under root, not descending into skip.
func packageRefs(root, skip ast.Node, imports map[string]bool) map[string]bool {
	refs := make(map[string]bool)

	ast.Inspect(root, func(n ast.Node) bool {
		if n == nil {
			return false
		}

		if skip != nil && n == skip {
			return false
		}

		if sel, ok := n.(*ast.SelectorExpr); ok {
			if id, ok := sel.X.(*ast.Ident); ok && imports[id.Name] {
				refs[id.Name] = true
			}
		}

		return true
	})

	return refs
}

// importNames returns the names the file's imports are referred to by.
// Blank and dot imports are left out.
func importNames(file *ast.File) map[string]bool {
	names := make(map[string]bool, len(file.Imports))

	for _, spec := range file.Imports {
		if spec.Name != nil {
			if spec.Name.Name != "_" && spec.Name.Name != "." {
				names[spec.Name.Name] = true
			}

			continue
		}

		importPath, err := strconv.Unquote(spec.Path.Value)
		if err != nil {
			continue
		}

		names[assumedPackageName(importPath)] = true
	}

	return names
}

// assumedPackageName guesses the package name of an import path the way
// goimports does: the last element, skipping a major version suffix, without
// a go- prefix and cut at the first character not allowed in an identifier.
func assumedPackageName(importPath string) string {
	elems := strings.Split(importPath, "/")
	name := elems[len(elems)-1]

	if len(elems) > 1 && isMajorVersion(name) {
		name = elems[len(elems)-2]
	}

	name = strings.TrimPrefix(name, "go-")

	if i := strings.IndexFunc(name, func(r rune) bool {
		return r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}); i >= 0 {
		name = name[:i]
	}

	return name
}

func isMajorVersion(elem string) bool {
	if len(elem) < 2 || elem[0] != 'v' {
		return false
	}

	_, err := strconv.Atoi(elem[1:])

	return err == nil
}

// operatorMutants scans the body, including nested function literals, in
// source order.
func operatorMutants(fd *ast.FuncDecl, fset *token.FileSet, source m.SourceFile, fn *m.Function, skipCalls map[string]bool) []m.Mutant {
	var (
		mutants []m.Mutant
		visit   func(n ast.Node) bool
	)

	visit = func(n ast.Node) bool {
		if call, ok := n.(*ast.CallExpr); ok && skipCalls[calleeName(call.Fun)] {
			ast.Inspect(call.Fun, visit)
			return false
		}

		mutants = append(mutants, mutagens.GenerateOperatorMutants(n, fset, source.Code, source, fn)...)

		return true
	}

	ast.Inspect(fd.Body, visit)

	slices.SortStableFunc(mutants, func(a, b m.Mutant) int {
		return a.Span.StartOffset - b.Span.StartOffset
	})

	return mutants
}

func calleeName(fun ast.Expr) string {
	switch f := fun.(type) {
	case *ast.Ident:
		return f.Name
	case *ast.SelectorExpr:
		return f.Sel.Name
	case *ast.IndexExpr:
		return calleeName(f.X)
	case *ast.IndexListExpr:
		return calleeName(f.X)
	case *ast.ParenExpr:
		return calleeName(f.X)
	}

	return ""
}

// lineIndent returns the leading whitespace of the line holding offset.
func lineIndent(code []byte, offset int) string {
	if offset > len(code) {
		offset = len(code)
	}

	start := strings.LastIndexByte(string(code[:offset]), '\n') + 1
	end := start

	for end < len(code) && (code[end] == ' ' || code[end] == '\t') {
		end++
	}

	return string(code[start:end])
}

// sameTokens reports whether two code fragments are equal once whitespace,
// comments and implicit semicolons are ignored.
func sameTokens(a, b string) bool {
	return slices.Equal(tokenize(a), tokenize(b))
}

func tokenize(src string) []string {
	fset := token.NewFileSet()
	file := fset.AddFile("", fset.Base(), len(src))

	var (
		s      scanner.Scanner
		tokens []string
	)

	s.Init(file, []byte(src), nil, 0)

	for {
		_, tok, lit := s.Scan()
		if tok == token.EOF {
			return tokens
		}

		if tok == token.SEMICOLON {
			continue
		}

		tokens = append(tokens, tok.String()+lit)
	}
}
