package domain

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	m "gooze.dev/pkg/mutants/internal/model"
)

const addIsPositiveDiff = "diff --git a/calc.go b/calc.go\n" +
	"--- a/calc.go\n" +
	"+++ b/calc.go\n" +
	"@@ -10,2 +10,7 @@ func Add(a, b int) int {\n" +
	" \n" +
	"+// IsPositive reports whether n is greater than zero.\n" +
	"+func IsPositive(n int) bool {\n" +
	"+\treturn n > 0\n" +
	"+}\n" +
	"+\n" +
	" // Greeting builds a greeting for name.\n"

func basicCatalog(t *testing.T) ([]m.SourceFile, []m.Mutant) {
	t.Helper()

	source := basicSource(t)

	found, err := newTestMutagen().GenerateMutants(context.Background(), source, EstimateArgs{}.generateOptions())
	require.NoError(t, err)

	return []m.SourceFile{source}, found.Mutants
}

func TestInDiff_AddedLines(t *testing.T) {
	files, mutants := basicCatalog(t)

	selected, err := InDiff([]byte(addIsPositiveDiff), files, mutants)
	require.NoError(t, err)

	require.Len(t, selected, 5)

	for _, mutant := range selected {
		assert.Equal(t, "IsPositive", mutant.Function.Name)
	}
}

func TestInDiff_EmptyDiff(t *testing.T) {
	files, mutants := basicCatalog(t)

	selected, err := InDiff(nil, files, mutants)
	require.NoError(t, err)
	assert.Empty(t, selected)
}

func TestInDiff_OtherFilesIgnored(t *testing.T) {
	files, mutants := basicCatalog(t)

	diff := "--- a/README.md\n+++ b/README.md\n@@ -1,1 +1,2 @@\n # basic\n+more\n"

	selected, err := InDiff([]byte(diff), files, mutants)
	require.NoError(t, err)
	assert.Empty(t, selected)
}

func TestInDiff_Mismatch(t *testing.T) {
	files, mutants := basicCatalog(t)

	t.Run("text differs", func(t *testing.T) {
		diff := "--- a/calc.go\n+++ b/calc.go\n@@ -12,2 +12,2 @@\n func IsPositive(n int) bool {\n-\treturn n > 0\n+\treturn n >= 0\n"

		_, err := InDiff([]byte(diff), files, mutants)

		var mismatch *InDiffMismatchError
		require.ErrorAs(t, err, &mismatch)
		assert.Equal(t, "calc.go", mismatch.File)
		assert.Equal(t, 13, mismatch.Line)
		assert.Equal(t, ExitInDiffMismatch, ExitCode(err))
	})

	t.Run("past the end", func(t *testing.T) {
		diff := "--- a/calc.go\n+++ b/calc.go\n@@ -40,1 +40,2 @@\n }\n+// trailing\n"

		_, err := InDiff([]byte(diff), files, mutants)

		var mismatch *InDiffMismatchError
		require.ErrorAs(t, err, &mismatch)
		assert.Equal(t, 40, mismatch.Line)
	})
}

func TestInDiff_Invalid(t *testing.T) {
	files, mutants := basicCatalog(t)

	diff := "--- a/calc.go\n+++ b/calc.go\n@@ -1,3 +1,3 @@\n+only one line\n"

	_, err := InDiff([]byte(diff), files, mutants)

	var invalid *InvalidDiffError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, ExitInvalidDiff, ExitCode(err))
}
