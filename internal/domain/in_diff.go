package domain

import (
	"log/slog"
	"strings"

	"gooze.dev/pkg/mutants/internal/adapter"
	m "gooze.dev/pkg/mutants/internal/model"
)

// InDiff keeps the mutants whose span touches a line added by the diff.
// Hunks of analyzed files must agree with the current tree.
func InDiff(content []byte, files []m.SourceFile, mutants []m.Mutant) ([]m.Mutant, error) {
	diffFiles, err := adapter.ParseUnifiedDiff(content)
	if err != nil {
		slog.Error("Failed to parse diff", "error", err)
		return nil, &InvalidDiffError{Err: err}
	}

	sources := make(map[m.Path][]byte, len(files))
	for _, f := range files {
		sources[f.RelPath] = f.Code
	}

	added := make(map[m.Path][]int)

	for _, df := range diffFiles {
		code, ok := sources[m.Path(df.Path)]
		if !ok {
			continue
		}

		if err := checkHunks(df, code); err != nil {
			return nil, err
		}

		for _, hunk := range df.Hunks {
			added[m.Path(df.Path)] = append(added[m.Path(df.Path)], hunk.Added...)
		}
	}

	out := make([]m.Mutant, 0, len(mutants))

	for _, mutant := range mutants {
		for _, line := range added[mutant.File] {
			if mutant.Span.OverlapsLines(line, line) {
				out = append(out, mutant)
				break
			}
		}
	}

	slog.Info("Filtered mutants by diff", "files", len(diffFiles), "before", len(mutants), "after", len(out))

	return out, nil
}

func checkHunks(df adapter.DiffFile, code []byte) error {
	lines := strings.Split(string(code), "\n")

	for _, hunk := range df.Hunks {
		for i, want := range hunk.NewLines {
			lineNo := hunk.NewStart + i
			if lineNo < 1 || lineNo > len(lines) {
				return &InDiffMismatchError{File: df.Path, Line: lineNo, Detail: "line is past the end of the file"}
			}

			got := strings.TrimSuffix(lines[lineNo-1], "\r")
			if got != strings.TrimSuffix(want, "\r") {
				return &InDiffMismatchError{File: df.Path, Line: lineNo, Detail: "text differs"}
			}
		}
	}

	return nil
}
