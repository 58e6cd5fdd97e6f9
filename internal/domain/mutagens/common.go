package mutagens

import (
	"go/token"

	m "gooze.dev/pkg/mutants/internal/model"
)

// SpanOf converts the token range [pos, end) into a model span.
func SpanOf(fset *token.FileSet, pos, end token.Pos) (m.Span, bool) {
	if !pos.IsValid() || !end.IsValid() || end < pos {
		return m.Span{}, false
	}

	start := fset.Position(pos)
	stop := fset.Position(end)

	return m.Span{
		Start:       m.LineColumn{Line: start.Line, Column: start.Column},
		End:         m.LineColumn{Line: stop.Line, Column: stop.Column},
		StartOffset: start.Offset,
		EndOffset:   stop.Offset,
	}, true
}

// textAt returns content[start:end] when the range is valid.
func textAt(content []byte, start, end int) (string, bool) {
	if start < 0 || end > len(content) || start > end {
		return "", false
	}

	return string(content[start:end]), true
}
