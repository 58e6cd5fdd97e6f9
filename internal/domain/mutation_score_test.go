package domain

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	m "gooze.dev/pkg/mutants/internal/model"
	pkg "gooze.dev/pkg/mutants/pkg"
)

type errSpill[T any] struct {
	err error
}

func (e errSpill[T]) Len() uint64                                    { return 0 }
func (e errSpill[T]) Path() string                                   { return "" }
func (e errSpill[T]) Append(_ T) error                               { return nil }
func (e errSpill[T]) Range(_ func(index uint64, item T) error) error { return e.err }
func (e errSpill[T]) Close() error                                   { return nil }

func newJournal(t *testing.T, summaries ...m.Summary) pkg.FileSpill[m.MutantOutcome] {
	t.Helper()

	journal, err := pkg.NewFileSpill[m.MutantOutcome](filepath.Join(t.TempDir(), "outcomes.journal"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = journal.Close() })

	for i, summary := range summaries {
		mutant := &m.Mutant{
			Genre: m.GenreBinaryOperator,
			File:  "calc.go",
			Span:  m.Span{Start: m.LineColumn{Line: i + 1, Column: 1}},
		}
		require.NoError(t, journal.Append(m.MutantOutcome{Scenario: m.Scenario{Mutant: mutant}, Summary: summary}))
	}

	return journal
}

func TestMutationScoreFromJournal(t *testing.T) {
	journal := newJournal(t, m.Caught, m.Missed, m.Unviable, m.Timeout, m.Caught)

	score, err := mutationScoreFromJournal(journal)
	require.NoError(t, err)

	require.InDelta(t, 66.666, score, 0.01)
}

func TestMutationScoreFromJournal_EmptyJournalIs100(t *testing.T) {
	score, err := mutationScoreFromJournal(newJournal(t))
	require.NoError(t, err)

	require.Equal(t, 100.0, score)
}

func TestMutationScoreFromJournal_OnlyUnviableAndTimeoutIs100(t *testing.T) {
	score, err := mutationScoreFromJournal(newJournal(t, m.Unviable, m.Timeout))
	require.NoError(t, err)

	require.Equal(t, 100.0, score)
}

func TestMutationScoreFromJournal_AllMissedIs0(t *testing.T) {
	score, err := mutationScoreFromJournal(newJournal(t, m.Missed, m.Missed))
	require.NoError(t, err)

	require.Equal(t, 0.0, score)
}

func TestMutationScoreFromJournal_IgnoresBaseline(t *testing.T) {
	journal := newJournal(t, m.Caught)
	require.NoError(t, journal.Append(m.MutantOutcome{Scenario: m.Scenario{Baseline: true}, Summary: m.Success}))

	score, err := mutationScoreFromJournal(journal)
	require.NoError(t, err)

	require.Equal(t, 100.0, score)
}

func TestMutationScoreFromJournal_RangeErrorPropagates(t *testing.T) {
	wantErr := errors.New("range failed")

	_, err := mutationScoreFromJournal(errSpill[m.MutantOutcome]{err: wantErr})
	require.Error(t, err)
	require.ErrorIs(t, err, wantErr)
}
