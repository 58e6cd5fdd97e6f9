// Package mutagens provides the replacement tables used to generate mutants.
package mutagens

import (
	"go/ast"
	"go/token"

	m "gooze.dev/pkg/mutants/internal/model"
)

var binaryReplacements = map[token.Token][]token.Token{
	token.EQL:     {token.NEQ},
	token.NEQ:     {token.EQL},
	token.LSS:     {token.EQL, token.GTR, token.LEQ},
	token.LEQ:     {token.GTR, token.LSS},
	token.GTR:     {token.EQL, token.LSS, token.GEQ},
	token.GEQ:     {token.LSS, token.GTR},
	token.LAND:    {token.LOR},
	token.LOR:     {token.LAND},
	token.ADD:     {token.SUB, token.MUL},
	token.SUB:     {token.ADD, token.QUO},
	token.MUL:     {token.ADD, token.QUO},
	token.QUO:     {token.REM, token.MUL},
	token.REM:     {token.QUO, token.ADD},
	token.AND:     {token.OR, token.XOR},
	token.OR:      {token.AND, token.XOR},
	token.XOR:     {token.AND, token.OR},
	token.AND_NOT: {token.AND, token.OR},
	token.SHL:     {token.SHR},
	token.SHR:     {token.SHL},
}

var assignReplacements = map[token.Token][]token.Token{
	token.ADD_ASSIGN:     {token.SUB_ASSIGN, token.MUL_ASSIGN},
	token.SUB_ASSIGN:     {token.ADD_ASSIGN, token.QUO_ASSIGN},
	token.MUL_ASSIGN:     {token.ADD_ASSIGN, token.QUO_ASSIGN},
	token.QUO_ASSIGN:     {token.REM_ASSIGN, token.MUL_ASSIGN},
	token.REM_ASSIGN:     {token.QUO_ASSIGN, token.ADD_ASSIGN},
	token.AND_ASSIGN:     {token.OR_ASSIGN, token.XOR_ASSIGN},
	token.OR_ASSIGN:      {token.AND_ASSIGN, token.XOR_ASSIGN},
	token.XOR_ASSIGN:     {token.AND_ASSIGN, token.OR_ASSIGN},
	token.AND_NOT_ASSIGN: {token.AND_ASSIGN, token.OR_ASSIGN},
	token.SHL_ASSIGN:     {token.SHR_ASSIGN},
	token.SHR_ASSIGN:     {token.SHL_ASSIGN},
}

var deletableUnary = map[token.Token]bool{
	token.NOT: true,
	token.SUB: true,
	token.XOR: true,
}

// BinaryReplacements returns the operators a binary operator is swapped for.
func BinaryReplacements(op token.Token) []token.Token {
	return binaryReplacements[op]
}

// AssignReplacements returns the operators an op-assign token is swapped for.
func AssignReplacements(op token.Token) []token.Token {
	return assignReplacements[op]
}

// GenerateOperatorMutants returns the operator mutants rooted at node n.
// Nodes that are not operators yield nothing.
func GenerateOperatorMutants(n ast.Node, fset *token.FileSet, content []byte, source m.SourceFile, fn *m.Function) []m.Mutant {
	switch node := n.(type) {
	case *ast.BinaryExpr:
		return swapOperator(node.Op, node.OpPos, BinaryReplacements(node.Op), m.GenreBinaryOperator, fset, content, source, fn)
	case *ast.AssignStmt:
		return swapOperator(node.Tok, node.TokPos, AssignReplacements(node.Tok), m.GenreBinaryOperator, fset, content, source, fn)
	case *ast.UnaryExpr:
		if !deletableUnary[node.Op] {
			return nil
		}

		return deleteOperator(node.Op, node.OpPos, fset, content, source, fn)
	}

	return nil
}

func swapOperator(
	op token.Token,
	pos token.Pos,
	replacements []token.Token,
	genre m.Genre,
	fset *token.FileSet,
	content []byte,
	source m.SourceFile,
	fn *m.Function,
) []m.Mutant {
	if len(replacements) == 0 {
		return nil
	}

	span, ok := operatorSpan(op, pos, fset, content)
	if !ok {
		return nil
	}

	mutants := make([]m.Mutant, 0, len(replacements))
	for _, replacement := range replacements {
		mutants = append(mutants, m.Mutant{
			Genre:       genre,
			File:        source.RelPath,
			Package:     source.Package,
			Function:    fn,
			Span:        span,
			Original:    op.String(),
			Replacement: replacement.String(),
			Label:       replacement.String(),
		})
	}

	return mutants
}

func deleteOperator(op token.Token, pos token.Pos, fset *token.FileSet, content []byte, source m.SourceFile, fn *m.Function) []m.Mutant {
	span, ok := operatorSpan(op, pos, fset, content)
	if !ok {
		return nil
	}

	return []m.Mutant{{
		Genre:    m.GenreUnaryOperator,
		File:     source.RelPath,
		Package:  source.Package,
		Function: fn,
		Span:     span,
		Original: op.String(),
	}}
}

// operatorSpan locates the operator token and checks the source text agrees.
func operatorSpan(op token.Token, pos token.Pos, fset *token.FileSet, content []byte) (m.Span, bool) {
	text := op.String()

	span, ok := SpanOf(fset, pos, pos+token.Pos(len(text)))
	if !ok {
		return m.Span{}, false
	}

	if got, ok := textAt(content, span.StartOffset, span.EndOffset); !ok || got != text {
		return m.Span{}, false
	}

	return span, true
}
