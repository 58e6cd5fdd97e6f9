package mutagens

import (
	"go/parser"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	m "gooze.dev/pkg/mutants/internal/model"
)

func shapeOf(t *testing.T, expr string) m.TypeShape {
	t.Helper()

	parsed, err := parser.ParseExpr(expr)
	require.NoError(t, err)

	return ParseType(parsed)
}

func TestReturnValues(t *testing.T) {
	tests := []struct {
		name        string
		typ         string
		errorValues []string
		want        []string
	}{
		{name: "bool", typ: "bool", want: []string{"true", "false"}},
		{name: "signed", typ: "int64", want: []string{"0", "1", "-1"}},
		{name: "rune", typ: "rune", want: []string{"0", "1", "-1"}},
		{name: "unsigned", typ: "uint", want: []string{"0", "1"}},
		{name: "byte", typ: "byte", want: []string{"0", "1"}},
		{name: "float", typ: "float32", want: []string{"0.0", "1.0", "-1.0"}},
		{name: "string", typ: "string", want: []string{`""`, `"xyzzy"`}},
		{name: "bytes", typ: "[]byte", want: []string{`[]byte("")`, `[]byte("xyzzy")`}},
		{name: "lone error", typ: "error", want: []string{"nil"}},
		{name: "lone error with configured values", typ: "error", errorValues: []string{"io.EOF"}, want: []string{"nil", "io.EOF"}},
		{name: "empty interface", typ: "interface{}", want: []string{"nil"}},
		{name: "any", typ: "any", want: []string{"nil"}},
		{name: "named", typ: "Config", want: []string{"*new(Config)"}},
		{name: "qualified", typ: "time.Duration", want: []string{"*new(time.Duration)"}},
		{name: "pointer to named", typ: "*Config", want: []string{"nil", "new(Config)"}},
		{name: "pointer to struct literal", typ: "*struct{}", want: []string{"nil", "&struct{}{}"}},
		{
			name: "pointer to basic",
			typ:  "*bool",
			want: []string{
				"nil",
				"func() *bool { v := bool(true); return &v }()",
				"func() *bool { v := bool(false); return &v }()",
			},
		},
		{name: "slice", typ: "[]string", want: []string{"nil", `[]string{""}`, `[]string{"xyzzy"}`}},
		{name: "slice of named", typ: "[]Item", want: []string{"nil", "[]Item{*new(Item)}"}},
		{
			name: "map",
			typ:  "map[string]bool",
			want: []string{"nil", `map[string]bool{"": true}`, `map[string]bool{"": false}`, `map[string]bool{"xyzzy": true}`, `map[string]bool{"xyzzy": false}`},
		},
		{name: "small array", typ: "[3]int", want: []string{"[3]int{0, 0, 0}", "[3]int{1, 1, 1}", "[3]int{-1, -1, -1}"}},
		{
			name: "large array",
			typ:  "[32]bool",
			want: []string{
				"func() (a [32]bool) { for i := range a { a[i] = true }; return }()",
				"func() (a [32]bool) { for i := range a { a[i] = false }; return }()",
			},
		},
		{name: "channel", typ: "<-chan int", want: []string{"func() <-chan int { c := make(chan int); close(c); return c }()"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ReturnValues(shapeOf(t, tt.typ), tt.errorValues)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReturnValues_Unit(t *testing.T) {
	assert.Equal(t, []string{""}, ReturnValues(ParseResults(nil), nil))
}

func TestReturnValues_ResultWithError(t *testing.T) {
	results := parseResults(t, "func f() (int, error)")

	got := ReturnValues(results, []string{`errors.New("injected")`})

	assert.Equal(t, []string{
		"0, nil",
		"1, nil",
		"-1, nil",
		`0, errors.New("injected")`,
	}, got)
}

func TestReturnValues_Tuple(t *testing.T) {
	results := parseResults(t, "func f() (ok bool, name string)")

	got := ReturnValues(results, nil)

	assert.Equal(t, []string{`true, ""`, `true, "xyzzy"`, `false, ""`, `false, "xyzzy"`}, got)
}

func TestReturnValues_TupleIsBounded(t *testing.T) {
	results := parseResults(t, "func f() (int, int, int, int, int)")

	got := ReturnValues(results, nil)

	assert.LessOrEqual(t, len(got), maxValues)
	assert.NotEmpty(t, got)
}

func TestZeroValue(t *testing.T) {
	assert.Equal(t, "false", ZeroValue(shapeOf(t, "bool")))
	assert.Equal(t, "0", ZeroValue(shapeOf(t, "float64")))
	assert.Equal(t, `""`, ZeroValue(shapeOf(t, "string")))
	assert.Equal(t, "nil", ZeroValue(shapeOf(t, "*T")))
	assert.Equal(t, "nil", ZeroValue(shapeOf(t, "map[int]int")))
	assert.Equal(t, "*new(T)", ZeroValue(shapeOf(t, "T")))
}
