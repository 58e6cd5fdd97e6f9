package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
	"gooze.dev/pkg/mutants/internal/adapter"
	"gooze.dev/pkg/mutants/internal/controller"
	m "gooze.dev/pkg/mutants/internal/model"
)

// Scheduler runs the baseline and then every mutant across the scratch
// directories, one worker per directory.
type Scheduler interface {
	Baseline(ctx context.Context, dir m.ScratchDir, packages []string, opts ExecOptions) (m.MutantOutcome, error)
	Run(ctx context.Context, dirs []m.ScratchDir, mutants []m.Mutant, opts ExecOptions) error
}

type scheduler struct {
	controller.UI
	scenarioRunner
}

// NewScheduler constructs a Scheduler. All subprocesses share tokens.
func NewScheduler(
	testAdapter adapter.TestRunnerAdapter,
	scratch ScratchManager,
	tokens *TokenPool,
	recorder Recorder,
	ui controller.UI,
) Scheduler {
	return &scheduler{
		UI: ui,
		scenarioRunner: scenarioRunner{
			runner:   testAdapter,
			scratch:  scratch,
			tokens:   tokens,
			recorder: recorder,
		},
	}
}

// Baseline builds and tests the unmutated tree. A failing baseline is
// recorded and reported as ErrBaselineFailed.
func (s *scheduler) Baseline(ctx context.Context, dir m.ScratchDir, packages []string, opts ExecOptions) (m.MutantOutcome, error) {
	scenario := m.Scenario{Baseline: true}

	s.DisplayStartingTestInfo(ctx, scenario, dir.Index)

	outcome, err := s.run(ctx, dir, scenario, opts, packages)
	if err != nil {
		slog.Error("Baseline did not complete", "dir", dir.Path, "error", err)
		return outcome, err
	}

	if err := s.recorder.Record(ctx, outcome); err != nil {
		return outcome, err
	}

	s.DisplayCompletedTestInfo(ctx, outcome)

	if outcome.Summary != m.Success {
		slog.Error("Baseline failed", "summary", outcome.Summary, "log", outcome.LogPath)
		return outcome, fmt.Errorf("%w: %s (see %s)", ErrBaselineFailed, outcome.Summary, outcome.LogPath)
	}

	return outcome, nil
}

// Run dispatches mutants in order to the workers. It stops dispatching on
// the first error or cancellation and waits for running scenarios to revert.
func (s *scheduler) Run(ctx context.Context, dirs []m.ScratchDir, mutants []m.Mutant, opts ExecOptions) error {
	if len(dirs) == 0 {
		return errors.New("no scratch directories")
	}

	g, gctx := errgroup.WithContext(ctx)
	queue := make(chan *m.Mutant)

	g.Go(func() error {
		defer close(queue)

		for i := range mutants {
			select {
			case <-gctx.Done():
				return nil
			case queue <- &mutants[i]:
			}
		}

		return nil
	})

	for _, dir := range dirs {
		g.Go(func() error {
			return s.worker(gctx, dir, queue, opts)
		})
	}

	err := g.Wait()

	switch {
	case err != nil:
		return err
	case ctx.Err() != nil:
		return fmt.Errorf("%w: %w", ErrInterrupted, context.Cause(ctx))
	}

	return nil
}

func (s *scheduler) worker(ctx context.Context, dir m.ScratchDir, queue <-chan *m.Mutant, opts ExecOptions) error {
	for mutant := range queue {
		if ctx.Err() != nil {
			return nil
		}

		scenario := m.Scenario{Mutant: mutant}
		s.DisplayStartingTestInfo(ctx, scenario, dir.Index)

		outcome, err := s.run(ctx, dir, scenario, opts, nil)
		if err != nil {
			if errors.Is(err, ErrInterrupted) || errors.Is(err, context.Canceled) {
				slog.Info("Scenario interrupted", "mutant", scenario.Name())
				return errIfReverted(err)
			}

			slog.Error("Scenario failed", "mutant", scenario.Name(), "dir", dir.Path, "error", err)

			return err
		}

		// Record even when ctx is done so the outcome is never lost.
		if err := s.recorder.Record(context.WithoutCancel(ctx), outcome); err != nil {
			return err
		}

		s.DisplayCompletedTestInfo(ctx, outcome)
	}

	return nil
}

// errIfReverted keeps revert failures fatal when a scenario was interrupted.
func errIfReverted(err error) error {
	var revertErr *RevertError
	if errors.As(err, &revertErr) {
		return err
	}

	return nil
}
