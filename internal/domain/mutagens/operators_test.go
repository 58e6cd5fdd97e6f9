package mutagens

import (
	"go/ast"
	"go/parser"
	"go/token"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	m "gooze.dev/pkg/mutants/internal/model"
)

func collectOperatorMutants(t *testing.T, src string) ([]m.Mutant, []byte) {
	t.Helper()

	content := []byte(src)
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "ops.go", content, parser.ParseComments)
	require.NoError(t, err)

	source := m.SourceFile{RelPath: "ops.go", Package: "example.com/ops", Code: content}
	fn := &m.Function{Name: "f"}

	var mutants []m.Mutant
	ast.Inspect(file, func(n ast.Node) bool {
		mutants = append(mutants, GenerateOperatorMutants(n, fset, content, source, fn)...)
		return true
	})

	return mutants, content
}

func TestGenerateOperatorMutants_Comparison(t *testing.T) {
	mutants, content := collectOperatorMutants(t, "package ops\n\nfunc f(a, b int) bool { return a < b }\n")

	require.Len(t, mutants, 3)

	var labels []string
	for _, mu := range mutants {
		assert.Equal(t, m.GenreBinaryOperator, mu.Genre)
		assert.Equal(t, "<", mu.Original)
		assert.Equal(t, 3, mu.Span.Start.Line)
		assert.Equal(t, "<", string(content[mu.Span.StartOffset:mu.Span.EndOffset]))
		labels = append(labels, mu.Label)
	}

	assert.Equal(t, []string{"==", ">", "<="}, labels)
}

func TestGenerateOperatorMutants_Table(t *testing.T) {
	tests := []struct {
		name string
		expr string
		want []string
	}{
		{"equal", "a == b", []string{"!="}},
		{"not equal", "a != b", []string{"=="}},
		{"and", "x && y", []string{"||"}},
		{"or", "x || y", []string{"&&"}},
		{"add", "a + b", []string{"-", "*"}},
		{"sub", "a - b", []string{"+", "/"}},
		{"mul", "a * b", []string{"+", "/"}},
		{"quo", "a / b", []string{"%", "*"}},
		{"rem", "a % b", []string{"/", "+"}},
		{"and not", "a &^ b", []string{"&", "|"}},
		{"shift", "a << b", []string{">>"}},
		{"ge", "a >= b", []string{"<", ">"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := "package ops\n\nfunc f(a, b int, x, y bool) any { return " + tt.expr + " }\n"
			mutants, _ := collectOperatorMutants(t, src)

			var labels []string
			for _, mu := range mutants {
				labels = append(labels, mu.Label)
			}

			assert.Equal(t, tt.want, labels)
		})
	}
}

func TestGenerateOperatorMutants_AssignOp(t *testing.T) {
	mutants, content := collectOperatorMutants(t, "package ops\n\nfunc f(n int) int {\n\tn += 2\n\treturn n\n}\n")

	require.Len(t, mutants, 2)
	assert.Equal(t, "+=", mutants[0].Original)
	assert.Equal(t, "-=", mutants[0].Replacement)
	assert.Equal(t, "*=", mutants[1].Replacement)

	mutated, err := mutants[0].Apply(content)
	require.NoError(t, err)
	assert.Contains(t, string(mutated), "n -= 2")
}

func TestGenerateOperatorMutants_UnaryDeletion(t *testing.T) {
	mutants, content := collectOperatorMutants(t, "package ops\n\nfunc f(ok bool) bool { return !ok }\n")

	require.Len(t, mutants, 1)
	assert.Equal(t, m.GenreUnaryOperator, mutants[0].Genre)
	assert.Empty(t, mutants[0].Replacement)

	mutated, err := mutants[0].Apply(content)
	require.NoError(t, err)
	assert.Contains(t, string(mutated), "return ok }")
}

func TestGenerateOperatorMutants_IgnoresOtherUnary(t *testing.T) {
	mutants, _ := collectOperatorMutants(t, "package ops\n\nfunc f(v int, c chan int) (*int, int) { return &v, <-c }\n")

	assert.Empty(t, mutants)
}
