package domain

import (
	"log/slog"

	"github.com/pmezard/go-difflib/difflib"
	m "gooze.dev/pkg/mutants/internal/model"
)

const diffContext = 3

// unifiedDiff renders the change to one tree-relative file in git style.
func unifiedDiff(file string, before, after []byte) string {
	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(before)),
		B:        difflib.SplitLines(string(after)),
		FromFile: "a/" + file,
		ToFile:   "b/" + file,
		Context:  diffContext,
	})
	if err != nil {
		slog.Warn("Failed to render diff", "file", file, "error", err)
		return ""
	}

	return text
}

// MutantDiff renders the diff a mutant makes to its file.
func MutantDiff(mutant m.Mutant, code []byte) (string, error) {
	mutated, err := mutant.Apply(code)
	if err != nil {
		return "", err
	}

	return unifiedDiff(string(mutant.File), code, mutated), nil
}
