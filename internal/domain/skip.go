package domain

import (
	"go/ast"
	"go/token"
	"strconv"
	"strings"

	m "gooze.dev/pkg/mutants/internal/model"
)

const skipDirective = "mutants:skip"

// compilerDirectives mark functions whose bodies the runtime or linker depends on.
var compilerDirectives = []string{
	"//go:linkname",
	"//go:nosplit",
	"//go:noescape",
	"//go:systemstack",
	"//go:uintptrescapes",
}

var testPrefixes = map[string]string{
	"Test":      "T",
	"Benchmark": "B",
	"Fuzz":      "F",
}

var divergentCalls = map[string]map[string]bool{
	"os":  {"Exit": true},
	"log": {"Fatal": true, "Fatalf": true, "Fatalln": true, "Panic": true, "Panicf": true, "Panicln": true},
}

// hasSkipDirective reports whether a comment carries the skip marker as one of
// its tokens, in any comment form.
func hasSkipDirective(text string) bool {
	for _, field := range strings.Fields(text) {
		field = strings.TrimLeft(field, "/*")
		field = strings.TrimRight(field, "*/,;")

		if field == skipDirective {
			return true
		}
	}

	return false
}

func groupHasSkip(group *ast.CommentGroup) bool {
	if group == nil {
		return false
	}

	for _, c := range group.List {
		if hasSkipDirective(c.Text) {
			return true
		}
	}

	return false
}

type skipIndex struct {
	file  bool
	types map[string]bool
	lines map[int]bool
}

func buildSkipIndex(file *ast.File, fset *token.FileSet) skipIndex {
	idx := skipIndex{types: make(map[string]bool), lines: make(map[int]bool)}

	for _, group := range file.Comments {
		if group.End() < file.Package {
			if groupHasSkip(group) {
				idx.file = true
			}

			continue
		}

		for _, c := range group.List {
			if hasSkipDirective(c.Text) {
				idx.lines[fset.Position(c.Slash).Line] = true
			}
		}
	}

	for _, decl := range file.Decls {
		gd, ok := decl.(*ast.GenDecl)
		if !ok || gd.Tok != token.TYPE {
			continue
		}

		for _, spec := range gd.Specs {
			ts, ok := spec.(*ast.TypeSpec)
			if !ok {
				continue
			}

			if groupHasSkip(ts.Doc) || groupHasSkip(ts.Comment) || (len(gd.Specs) == 1 && groupHasSkip(gd.Doc)) {
				idx.types[ts.Name.Name] = true
			}
		}
	}

	return idx
}

// skips reports whether fd carries the marker in its doc, on its signature
// lines, or on its receiver type.
func (idx skipIndex) skips(fd *ast.FuncDecl, fset *token.FileSet) bool {
	if idx.file || groupHasSkip(fd.Doc) {
		return true
	}

	if recv := receiverTypeName(fd); recv != "" && idx.types[recv] {
		return true
	}

	first := fset.Position(fd.Pos()).Line

	last := fset.Position(fd.Type.End()).Line
	if fd.Body != nil {
		last = fset.Position(fd.Body.Lbrace).Line
	}

	for line := first; line <= last; line++ {
		if idx.lines[line] {
			return true
		}
	}

	return false
}

func receiverTypeName(fd *ast.FuncDecl) string {
	if fd.Recv == nil || len(fd.Recv.List) == 0 {
		return ""
	}

	expr := fd.Recv.List[0].Type
	for {
		switch t := expr.(type) {
		case *ast.StarExpr:
			expr = t.X
		case *ast.ParenExpr:
			expr = t.X
		case *ast.IndexExpr:
			expr = t.X
		case *ast.IndexListExpr:
			expr = t.X
		case *ast.Ident:
			return t.Name
		default:
			return ""
		}
	}
}

// isTestFunc recognizes functions the testing package would run.
func isTestFunc(fd *ast.FuncDecl, testingName string) bool {
	if fd.Recv != nil {
		return false
	}

	name := fd.Name.Name
	if strings.HasPrefix(name, "Example") {
		return fd.Type.Params.NumFields() == 0 && fd.Type.Results.NumFields() == 0
	}

	if testingName == "" {
		return false
	}

	if name == "TestMain" {
		return takesTesting(fd, testingName, "M")
	}

	for prefix, kind := range testPrefixes {
		if strings.HasPrefix(name, prefix) && takesTesting(fd, testingName, kind) {
			return true
		}
	}

	return false
}

func takesTesting(fd *ast.FuncDecl, testingName, kind string) bool {
	if fd.Type.Params.NumFields() != 1 {
		return false
	}

	star, ok := fd.Type.Params.List[0].Type.(*ast.StarExpr)
	if !ok {
		return false
	}

	sel, ok := star.X.(*ast.SelectorExpr)
	if !ok {
		return false
	}

	pkg, ok := sel.X.(*ast.Ident)

	return ok && pkg.Name == testingName && sel.Sel.Name == kind
}

// importName returns the local name under which file imports path, or "".
func importName(file *ast.File, path string) string {
	for _, imp := range file.Imports {
		p, err := strconv.Unquote(imp.Path.Value)
		if err != nil || p != path {
			continue
		}

		if imp.Name != nil {
			return imp.Name.Name
		}

		return path[strings.LastIndex(path, "/")+1:]
	}

	return ""
}

// isDivergent recognizes functions without results that never return normally.
func isDivergent(fd *ast.FuncDecl, file *ast.File) bool {
	if fd.Type.Results.NumFields() != 0 || fd.Body == nil || len(fd.Body.List) != 1 {
		return false
	}

	switch stmt := fd.Body.List[0].(type) {
	case *ast.ExprStmt:
		call, ok := stmt.X.(*ast.CallExpr)
		if !ok {
			return false
		}

		return isDivergentCall(call, file)
	case *ast.ForStmt:
		return stmt.Cond == nil && !loopExits(stmt.Body)
	}

	return false
}

func isDivergentCall(call *ast.CallExpr, file *ast.File) bool {
	switch fn := call.Fun.(type) {
	case *ast.Ident:
		return fn.Name == "panic"
	case *ast.SelectorExpr:
		pkg, ok := fn.X.(*ast.Ident)
		if !ok {
			return false
		}

		for path, names := range divergentCalls {
			if names[fn.Sel.Name] && importName(file, path) == pkg.Name {
				return true
			}
		}
	}

	return false
}

// loopExits reports whether control can leave a loop body: a return, a goto,
// a labeled break, or an unlabeled break not captured by an inner statement.
func loopExits(body *ast.BlockStmt) bool {
	exits := false

	var visit func(root ast.Node, nested bool)

	visit = func(root ast.Node, nested bool) {
		ast.Inspect(root, func(n ast.Node) bool {
			if exits {
				return false
			}

			switch s := n.(type) {
			case *ast.FuncLit:
				return false
			case *ast.ReturnStmt:
				exits = true
			case *ast.BranchStmt:
				if s.Tok == token.GOTO || (s.Tok == token.BREAK && (s.Label != nil || !nested)) {
					exits = true
				}
			case *ast.ForStmt, *ast.RangeStmt, *ast.SwitchStmt, *ast.TypeSwitchStmt, *ast.SelectStmt:
				if n != root {
					visit(n, true)
					return false
				}
			}

			return true
		})
	}

	visit(body, false)

	return exits
}

// isUnsafe reports compiler directives in the doc comment or use of package unsafe.
func isUnsafe(fd *ast.FuncDecl, file *ast.File) bool {
	if fd.Doc != nil {
		for _, c := range fd.Doc.List {
			for _, directive := range compilerDirectives {
				if strings.HasPrefix(c.Text, directive) {
					return true
				}
			}
		}
	}

	name := importName(file, "unsafe")
	if name == "" || fd.Body == nil {
		return false
	}

	found := false

	ast.Inspect(fd.Body, func(n ast.Node) bool {
		if found {
			return false
		}

		if sel, ok := n.(*ast.SelectorExpr); ok {
			if pkg, ok := sel.X.(*ast.Ident); ok && pkg.Name == name {
				found = true
			}
		}

		return true
	})

	return found
}

// skipReason classifies why fd yields no mutants, SkipNone if it is eligible.
func skipReason(fd *ast.FuncDecl, file *ast.File, fset *token.FileSet, idx skipIndex, skipUnsafe bool) m.SkipReason {
	switch {
	case idx.skips(fd, fset):
		return m.SkipMarker
	case isTestFunc(fd, importName(file, "testing")):
		return m.SkipTest
	case fd.Body == nil || len(fd.Body.List) == 0:
		return m.SkipEmptyBody
	case isDivergent(fd, file):
		return m.SkipDivergent
	case skipUnsafe && isUnsafe(fd, file):
		return m.SkipUnsafe
	}

	return m.SkipNone
}
