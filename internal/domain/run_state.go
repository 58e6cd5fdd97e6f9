package domain

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	m "gooze.dev/pkg/mutants/internal/model"
)

// RunState is what one mutation testing run owns: the catalog being tested,
// the locked output through the aggregator and the scratch directories.
// The workflow creates it and finalizes it exactly once, whether the run
// completes, is interrupted or fails.
type RunState struct {
	Args     TestArgs
	Root     m.Path
	Catalog  []m.Mutant
	Shard    Shard
	Dirs     []m.ScratchDir
	Baseline *m.MutantOutcome

	aggregator *Aggregator
	scratch    ScratchManager

	once    sync.Once
	summary m.RunSummary
	err     error
}

func newRunState(args TestArgs, root m.Path, catalog []m.Mutant, shard Shard, aggregator *Aggregator, scratch ScratchManager) *RunState {
	return &RunState{
		Args:       args,
		Root:       root,
		Catalog:    catalog,
		Shard:      shard,
		aggregator: aggregator,
		scratch:    scratch,
	}
}

// Finalize writes the final reports, removes the scratch directories and
// releases the output lock. runErr is the error the run stopped with, if any.
func (s *RunState) Finalize(ctx context.Context, runErr error) (m.RunSummary, error) {
	s.once.Do(func() {
		ctx = context.WithoutCancel(ctx)
		cancelled := errors.Is(runErr, ErrInterrupted) || errors.Is(runErr, context.Canceled)

		summary, finishErr := s.aggregator.Finish(ctx, cancelled)
		s.summary = summary

		var cleanupErr error
		if s.scratch != nil {
			cleanupErr = s.scratch.Cleanup(ctx)
		}

		closeErr := s.aggregator.Close()

		s.err = errors.Join(finishErr, cleanupErr, closeErr)
		if s.err != nil {
			slog.Error("Failed to finalize run", "error", s.err)
		}
	})

	return s.summary, s.err
}
