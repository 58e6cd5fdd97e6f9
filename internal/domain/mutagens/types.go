package mutagens

import (
	"go/ast"
	"go/types"
	"strings"

	m "gooze.dev/pkg/mutants/internal/model"
)

var basicKinds = map[string]m.TypeKind{
	"bool":    m.KindBool,
	"int":     m.KindSigned,
	"int8":    m.KindSigned,
	"int16":   m.KindSigned,
	"int32":   m.KindSigned,
	"int64":   m.KindSigned,
	"rune":    m.KindSigned,
	"uint":    m.KindUnsigned,
	"uint8":   m.KindUnsigned,
	"uint16":  m.KindUnsigned,
	"uint32":  m.KindUnsigned,
	"uint64":  m.KindUnsigned,
	"uintptr": m.KindUnsigned,
	"byte":    m.KindUnsigned,
	"float32": m.KindFloat,
	"float64": m.KindFloat,
	"string":  m.KindString,
	"error":   m.KindError,
	"any":     m.KindAny,
}

// ParseResults classifies a function's result list.
func ParseResults(results *ast.FieldList) m.TypeShape {
	if results == nil || len(results.List) == 0 {
		return m.TypeShape{Kind: m.KindUnit}
	}

	var items []m.TypeShape

	for _, field := range results.List {
		shape := ParseType(field.Type)

		n := max(len(field.Names), 1)
		for range n {
			items = append(items, shape)
		}
	}

	if len(items) == 1 {
		return items[0]
	}

	texts := make([]string, 0, len(items))
	for _, item := range items {
		texts = append(texts, item.Text)
	}

	return m.TypeShape{
		Kind:  m.KindTuple,
		Text:  "(" + strings.Join(texts, ", ") + ")",
		Items: items,
	}
}

// ParseType classifies a single type expression.
func ParseType(expr ast.Expr) m.TypeShape {
	text := types.ExprString(expr)

	switch t := expr.(type) {
	case *ast.ParenExpr:
		return ParseType(t.X)
	case *ast.Ident:
		if kind, ok := basicKinds[t.Name]; ok {
			return m.TypeShape{Kind: kind, Text: text}
		}
	case *ast.StarExpr:
		elem := ParseType(t.X)
		return m.TypeShape{Kind: m.KindPointer, Text: text, Elem: &elem}
	case *ast.ArrayType:
		elem := ParseType(t.Elt)
		if t.Len == nil {
			if isByte(t.Elt) {
				return m.TypeShape{Kind: m.KindBytes, Text: text, Composite: true}
			}

			return m.TypeShape{Kind: m.KindSlice, Text: text, Elem: &elem, Composite: true}
		}

		if _, ok := t.Len.(*ast.Ellipsis); ok {
			break
		}

		return m.TypeShape{Kind: m.KindArray, Text: text, Elem: &elem, Len: types.ExprString(t.Len), Composite: true}
	case *ast.MapType:
		key := ParseType(t.Key)
		value := ParseType(t.Value)

		return m.TypeShape{Kind: m.KindMap, Text: text, Key: &key, Elem: &value, Composite: true}
	case *ast.ChanType:
		elem := ParseType(t.Value)
		return m.TypeShape{Kind: m.KindChan, Text: text, Elem: &elem}
	case *ast.InterfaceType:
		if t.Methods == nil || len(t.Methods.List) == 0 {
			return m.TypeShape{Kind: m.KindAny, Text: text}
		}
	case *ast.StructType:
		return m.TypeShape{Kind: m.KindOther, Text: text, Composite: true}
	}

	return m.TypeShape{Kind: m.KindOther, Text: text}
}

func isByte(expr ast.Expr) bool {
	ident, ok := expr.(*ast.Ident)
	return ok && (ident.Name == "byte" || ident.Name == "uint8")
}
