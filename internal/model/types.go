package model

// TypeKind classifies a declared result type.
type TypeKind int

const (
	KindUnit TypeKind = iota
	KindBool
	KindSigned
	KindUnsigned
	KindFloat
	KindString
	KindBytes
	KindError
	KindAny
	KindPointer
	KindSlice
	KindMap
	KindArray
	KindChan
	KindTuple
	// KindOther covers named types, interfaces, funcs, generics and qualified types.
	KindOther
)

// TypeShape is the structured form of a function's result type.
type TypeShape struct {
	Kind TypeKind `json:"kind"`
	// Text is the type as written in source, without result names.
	Text string     `json:"text"`
	Elem *TypeShape `json:"elem,omitempty"`
	Key  *TypeShape `json:"key,omitempty"`
	// Len is the array length expression.
	Len   string      `json:"len,omitempty"`
	Items []TypeShape `json:"items,omitempty"`
	// Composite is set for pointees that accept a composite literal.
	Composite bool `json:"composite,omitempty"`
}

// IsUnit reports whether the function returns nothing.
func (t TypeShape) IsUnit() bool {
	return t.Kind == KindUnit
}
