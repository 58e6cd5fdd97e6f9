// Package model defines the data structures for mutation testing.
package model

import (
	"fmt"
	"hash/fnv"
	"regexp"
	"strings"
)

// Genre is the kind of rewrite a mutant applies.
type Genre string

const (
	// GenreFnValue replaces a whole function body with a return of a fixed value.
	GenreFnValue Genre = "FnValue"
	// GenreBinaryOperator swaps a binary or op-assign operator.
	GenreBinaryOperator Genre = "BinaryOperator"
	// GenreUnaryOperator deletes a unary operator.
	GenreUnaryOperator Genre = "UnaryOperator"
)

// SkipReason explains why a function produced no mutants.
type SkipReason string

const (
	SkipNone      SkipReason = ""
	SkipMarker    SkipReason = "skip marker"
	SkipTest      SkipReason = "test function"
	SkipEmptyBody SkipReason = "empty body"
	SkipDivergent SkipReason = "never returns"
	SkipUnsafe    SkipReason = "unsafe or compiler directive"
)

// Function is a function or method declaration considered for mutation.
type Function struct {
	Name string `json:"name"`
	File Path   `json:"file"`
	// Receiver is the receiver type as written, e.g. "*Server", empty for plain functions.
	Receiver   string     `json:"receiver,omitempty"`
	ReturnType string     `json:"return_type"`
	Result     TypeShape  `json:"-"`
	Span       Span       `json:"span"`
	BodySpan   Span       `json:"body_span"`
	Skip       SkipReason `json:"skip,omitempty"`
}

// QualifiedName renders the function as it is referred to in mutant names.
func (f Function) QualifiedName() string {
	if f.Receiver == "" {
		return f.Name
	}

	if strings.HasPrefix(f.Receiver, "*") {
		return "(" + f.Receiver + ")." + f.Name
	}

	return f.Receiver + "." + f.Name
}

// Mutant is one concrete rewrite of the source tree.
type Mutant struct {
	Genre    Genre     `json:"genre"`
	File     Path      `json:"file"`
	Package  string    `json:"package"`
	Function *Function `json:"function,omitempty"`
	Span     Span      `json:"span"`
	// Original is the text the span covers before mutation.
	Original string `json:"-"`
	// Replacement is the exact text substituted for the span.
	Replacement string `json:"replacement"`
	// Label is the short form of the replacement used in descriptions.
	Label string `json:"label"`
}

// Description is the human readable form of the mutation, without location.
func (mu Mutant) Description() string {
	fn := ""
	if mu.Function != nil {
		fn = mu.Function.QualifiedName()
	}

	switch mu.Genre {
	case GenreFnValue:
		if mu.Function == nil || mu.Function.Result.IsUnit() {
			return fmt.Sprintf("replace %s with {}", fn)
		}

		return fmt.Sprintf("replace %s -> %s with %s", fn, mu.Function.ReturnType, mu.Label)
	case GenreUnaryOperator:
		return fmt.Sprintf("delete %s in %s", mu.Original, fn)
	default:
		return fmt.Sprintf("replace %s with %s in %s", mu.Original, mu.Label, fn)
	}
}

// Name uniquely identifies the mutant within a catalog.
func (mu Mutant) Name() string {
	return fmt.Sprintf("%s:%d:%d: %s", mu.File, mu.Span.Start.Line, mu.Span.Start.Column, mu.Description())
}

var unsafeLogChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// LogName is a file-system safe name derived from Name. Operators are
// replaced along with other unsafe characters, so a hash of the full name
// keeps mutants at the same position apart.
func (mu Mutant) LogName() string {
	full := mu.Name()

	name := unsafeLogChars.ReplaceAllString(full, "_")
	if len(name) > 160 {
		name = name[:160]
	}

	h := fnv.New32a()
	_, _ = h.Write([]byte(full))

	return fmt.Sprintf("%s_%08x", strings.Trim(name, "_"), h.Sum32())
}

// Apply returns code with the mutation applied. The span must still cover Original.
func (mu Mutant) Apply(code []byte) ([]byte, error) {
	current, err := mu.Span.Extract(code)
	if err != nil {
		return nil, err
	}

	if current != mu.Original {
		return nil, fmt.Errorf("text at %s:%s does not match the analyzed source", mu.File, mu.Span)
	}

	return mu.Span.Replace(code, mu.Replacement), nil
}
