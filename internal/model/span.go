package model

import "fmt"

// LineColumn is a 1-based source position.
type LineColumn struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Span is a contiguous region of a source file.
// Offsets are byte offsets, End is exclusive.
type Span struct {
	Start       LineColumn `json:"start"`
	End         LineColumn `json:"end"`
	StartOffset int        `json:"-"`
	EndOffset   int        `json:"-"`
}

// Contains reports whether o lies entirely within s.
func (s Span) Contains(o Span) bool {
	return o.StartOffset >= s.StartOffset && o.EndOffset <= s.EndOffset
}

// OverlapsLines reports whether the lines covered by s intersect [first, last].
func (s Span) OverlapsLines(first, last int) bool {
	return s.Start.Line <= last && s.End.Line >= first
}

// Extract returns the text covered by the span.
func (s Span) Extract(code []byte) (string, error) {
	if s.StartOffset < 0 || s.EndOffset > len(code) || s.StartOffset > s.EndOffset {
		return "", fmt.Errorf("span %d..%d out of range for %d bytes", s.StartOffset, s.EndOffset, len(code))
	}

	return string(code[s.StartOffset:s.EndOffset]), nil
}

// Replace returns a copy of code with the span replaced by text.
func (s Span) Replace(code []byte, text string) []byte {
	out := make([]byte, 0, len(code)-(s.EndOffset-s.StartOffset)+len(text))
	out = append(out, code[:s.StartOffset]...)
	out = append(out, text...)
	out = append(out, code[s.EndOffset:]...)

	return out
}

func (s Span) String() string {
	return fmt.Sprintf("%d:%d", s.Start.Line, s.Start.Column)
}
