package mutagens

import (
	"fmt"
	"strconv"
	"strings"

	m "gooze.dev/pkg/mutants/internal/model"
)

// maxValues bounds the Cartesian products built for tuples and maps.
const maxValues = 32

// arrayLiteralLimit is the largest array length spelled out element by element.
const arrayLiteralLimit = 16

// ReturnValues lists the expressions a function body can be replaced with.
//
// Each entry is the operand list of a return statement. A function without
// results yields a single empty entry, meaning the body becomes {}.
// errorValues are extra expressions returned in the error position.
func ReturnValues(shape m.TypeShape, errorValues []string) []string {
	switch shape.Kind {
	case m.KindUnit:
		return []string{""}
	case m.KindError:
		return dedupe(append([]string{"nil"}, errorValues...))
	case m.KindTuple:
		return tupleValues(shape.Items, errorValues)
	}

	return Values(shape)
}

func tupleValues(items []m.TypeShape, errorValues []string) []string {
	last := items[len(items)-1]
	if last.Kind != m.KindError {
		return joinAll(product(items))
	}

	heads := items[:len(items)-1]

	var out []string
	for _, combo := range product(heads) {
		out = append(out, strings.Join(append(combo, "nil"), ", "))
	}

	zeros := make([]string, 0, len(heads))
	for _, head := range heads {
		zeros = append(zeros, ZeroValue(head))
	}

	for _, errValue := range errorValues {
		out = append(out, strings.Join(append(append([]string{}, zeros...), errValue), ", "))
	}

	return dedupe(out)
}

// Values lists candidate values of a single type.
func Values(t m.TypeShape) []string {
	switch t.Kind {
	case m.KindBool:
		return []string{"true", "false"}
	case m.KindSigned:
		return []string{"0", "1", "-1"}
	case m.KindUnsigned:
		return []string{"0", "1"}
	case m.KindFloat:
		return []string{"0.0", "1.0", "-1.0"}
	case m.KindString:
		return []string{`""`, `"xyzzy"`}
	case m.KindBytes:
		return []string{t.Text + `("")`, t.Text + `("xyzzy")`}
	case m.KindError, m.KindAny:
		return []string{"nil"}
	case m.KindPointer:
		return pointerValues(t)
	case m.KindSlice:
		out := []string{"nil"}
		for _, v := range Values(*t.Elem) {
			out = append(out, fmt.Sprintf("%s{%s}", t.Text, v))
		}

		return out
	case m.KindMap:
		out := []string{"nil"}
		for _, pair := range product([]m.TypeShape{*t.Key, *t.Elem}) {
			out = append(out, fmt.Sprintf("%s{%s: %s}", t.Text, pair[0], pair[1]))
		}

		return capValues(out)
	case m.KindArray:
		return arrayValues(t)
	case m.KindChan:
		return []string{closedChannel(t)}
	}

	return []string{ZeroValue(t)}
}

func pointerValues(t m.TypeShape) []string {
	elem := *t.Elem
	out := []string{"nil"}

	switch elem.Kind {
	case m.KindBool, m.KindSigned, m.KindUnsigned, m.KindFloat, m.KindString:
		for _, v := range Values(elem) {
			out = append(out, fmt.Sprintf("func() %s { v := %s(%s); return &v }()", t.Text, elem.Text, v))
		}
	default:
		if elem.Composite {
			out = append(out, "&"+elem.Text+"{}")
		} else {
			out = append(out, "new("+elem.Text+")")
		}
	}

	return out
}

func arrayValues(t m.TypeShape) []string {
	n, err := strconv.Atoi(t.Len)
	literal := err == nil && n <= arrayLiteralLimit

	var out []string

	for _, v := range Values(*t.Elem) {
		if literal {
			elems := make([]string, n)
			for i := range elems {
				elems[i] = v
			}

			out = append(out, fmt.Sprintf("%s{%s}", t.Text, strings.Join(elems, ", ")))

			continue
		}

		out = append(out, fmt.Sprintf("func() (a %s) { for i := range a { a[i] = %s }; return }()", t.Text, v))
	}

	return out
}

func closedChannel(t m.TypeShape) string {
	return fmt.Sprintf("func() %s { c := make(chan %s); close(c); return c }()", t.Text, t.Elem.Text)
}

// ZeroValue is the literal zero value of t.
func ZeroValue(t m.TypeShape) string {
	switch t.Kind {
	case m.KindBool:
		return "false"
	case m.KindSigned, m.KindUnsigned, m.KindFloat:
		return "0"
	case m.KindString:
		return `""`
	case m.KindBytes, m.KindError, m.KindAny, m.KindPointer, m.KindSlice, m.KindMap, m.KindChan:
		return "nil"
	}

	return "*new(" + t.Text + ")"
}

func product(items []m.TypeShape) [][]string {
	combos := [][]string{{}}

	for _, item := range items {
		var next [][]string

		for _, combo := range combos {
			for _, v := range Values(item) {
				if len(next) >= maxValues {
					break
				}

				next = append(next, append(append([]string{}, combo...), v))
			}
		}

		combos = next
	}

	return combos
}

func joinAll(combos [][]string) []string {
	out := make([]string, 0, len(combos))
	for _, combo := range combos {
		out = append(out, strings.Join(combo, ", "))
	}

	return dedupe(out)
}

func capValues(values []string) []string {
	if len(values) > maxValues {
		return values[:maxValues]
	}

	return values
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := values[:0]

	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}

		seen[v] = struct{}{}
		out = append(out, v)
	}

	return out
}
