package domain

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	"gooze.dev/pkg/mutants/internal/adapter"
	m "gooze.dev/pkg/mutants/internal/model"
)

// goTestBuildFailures mark go test output where a package did not compile.
var goTestBuildFailures = []string{"[build failed]", "[setup failed]"}

// ExecOptions are the build and test settings shared by all scenarios.
type ExecOptions struct {
	// Workspace tests every package instead of the mutant's own package.
	Workspace bool
	Failfast  bool
	TestArgs  []string
	// Env is appended to the inherited environment.
	Env          []string
	BuildTimeout time.Duration
	TestTimeout  time.Duration
}

// Recorder persists the artifacts and outcome of each scenario.
type Recorder interface {
	OpenLog(ctx context.Context, scenario m.Scenario) (io.WriteCloser, m.Path, error)
	// WriteDiff stores the diff next to the scenario's log, named after it.
	WriteDiff(ctx context.Context, logPath m.Path, diff string) (m.Path, error)
	Record(ctx context.Context, outcome m.MutantOutcome) error
}

// scenarioRunner drives one scenario through the state machine:
// pending, patched, building, testing, reverted.
type scenarioRunner struct {
	runner   adapter.TestRunnerAdapter
	scratch  ScratchManager
	tokens   *TokenPool
	recorder Recorder
}

// packagesUnderTest returns the go package patterns a scenario builds and tests.
func packagesUnderTest(mutant *m.Mutant, workspace bool, baseline []string) []string {
	if workspace {
		return []string{"./..."}
	}

	if mutant == nil {
		return baseline
	}

	return []string{m.Package{Dir: m.Path(path.Dir(string(mutant.File)))}.Pattern()}
}

// BaselinePackages is the union of the packages of all mutants, in catalog order.
func BaselinePackages(mutants []m.Mutant, workspace bool) []string {
	if workspace || len(mutants) == 0 {
		return []string{"./..."}
	}

	seen := make(map[string]bool)

	var out []string

	for i := range mutants {
		pattern := packagesUnderTest(&mutants[i], false, nil)[0]
		if !seen[pattern] {
			seen[pattern] = true
			out = append(out, pattern)
		}
	}

	return out
}

func buildArgv(tokens int, packages []string) []string {
	argv := []string{"go", "build", "-o", os.DevNull, "-p", strconv.Itoa(tokens)}

	return append(argv, packages...)
}

func testArgv(tokens int, packages []string, opts ExecOptions) []string {
	argv := []string{"go", "test", "-count=1", "-p", strconv.Itoa(tokens)}
	if opts.Failfast {
		argv = append(argv, "-failfast")
	}

	argv = append(argv, packages...)

	return append(argv, opts.TestArgs...)
}

func phaseEnv(dir m.ScratchDir, tokens int, extra []string) []string {
	env := []string{"GOMAXPROCS=" + strconv.Itoa(tokens)}
	if dir.Cache != "" {
		env = append(env, "GOCACHE="+string(dir.Cache))
	}

	return append(env, extra...)
}

// run executes one scenario in dir. Build and test failures are outcomes;
// the returned error is reserved for patch, revert, recording and
// cancellation problems.
func (r *scenarioRunner) run(ctx context.Context, dir m.ScratchDir, scenario m.Scenario, opts ExecOptions, baseline []string) (outcome m.MutantOutcome, err error) {
	outcome = m.MutantOutcome{Scenario: scenario}
	stage := m.StagePending

	defer func() { outcome.Stage = stage }()

	logFile, logPath, err := r.recorder.OpenLog(ctx, scenario)
	if err != nil {
		return outcome, fmt.Errorf("failed to open log for %s: %w", scenario.Name(), err)
	}

	defer func() {
		if closeErr := logFile.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	outcome.LogPath = logPath
	fmt.Fprintf(logFile, "*** %s\n", scenario.Name())

	if scenario.Mutant != nil {
		var patch *Patch

		if patch, err = r.scratch.Apply(ctx, dir, *scenario.Mutant); err != nil {
			slog.Error("Failed to apply mutant", "mutant", scenario.Name(), "dir", dir.Path, "error", err)
			return outcome, err
		}

		stage = m.StagePatched

		defer func() {
			if revertErr := patch.Revert(context.WithoutCancel(ctx)); revertErr != nil {
				err = errors.Join(err, revertErr)
				return
			}

			slog.Debug("Scenario reverted", "scenario", scenario.Name(), "after", stage)
		}()

		diff := unifiedDiff(string(scenario.Mutant.File), patch.Original, patch.Mutated)
		fmt.Fprintf(logFile, "*** mutation diff:\n%s", diff)

		if outcome.DiffPath, err = r.recorder.WriteDiff(ctx, logPath, diff); err != nil {
			return outcome, fmt.Errorf("failed to write diff for %s: %w", scenario.Name(), err)
		}
	}

	packages := packagesUnderTest(scenario.Mutant, opts.Workspace, baseline)

	stage = m.StageBuilding

	build, err := r.phase(ctx, dir, logFile, m.PhaseBuild, buildArgv(r.tokens.Share(), packages), opts.Env, opts.BuildTimeout)
	outcome.Phases = append(outcome.Phases, build.PhaseResult)

	if err != nil {
		return outcome, err
	}

	switch build.Status {
	case m.PhaseTimedOut:
		outcome.Summary = m.Timeout
		outcome.Tail = build.tail

		return outcome, nil
	case m.PhaseFailed:
		outcome.Summary = unviableOrFailure(scenario)
		outcome.Tail = build.tail

		return outcome, nil
	}

	stage = m.StageTesting

	test, err := r.phase(ctx, dir, logFile, m.PhaseTest, testArgv(r.tokens.Share(), packages, opts), opts.Env, opts.TestTimeout)
	outcome.Phases = append(outcome.Phases, test.PhaseResult)
	outcome.Tail = test.tail

	if err != nil {
		return outcome, err
	}

	outcome.Summary = classifyTest(scenario, test)

	return outcome, nil
}

type phaseRun struct {
	m.PhaseResult
	tail string
}

func (r *scenarioRunner) phase(ctx context.Context, dir m.ScratchDir, log io.Writer, phase m.Phase, argv, extraEnv []string, timeout time.Duration) (phaseRun, error) {
	run := phaseRun{PhaseResult: m.PhaseResult{Phase: phase, Argv: argv}}

	release, err := r.tokens.Acquire(ctx)
	if err != nil {
		run.Status = m.PhaseCancelled
		return run, err
	}
	defer release()

	fmt.Fprintf(log, "\n*** %s\n", strings.Join(argv, " "))

	result, err := r.runner.Run(ctx, adapter.CommandSpec{
		Dir:     string(dir.Path),
		Argv:    argv,
		Env:     phaseEnv(dir, r.tokens.Share(), extraEnv),
		Timeout: timeout,
		Output:  log,
	})
	if err != nil {
		slog.Error("Failed to start phase", "phase", phase, "argv", argv, "error", err)
		return run, fmt.Errorf("failed to run %s: %w", strings.Join(argv, " "), err)
	}

	run.Duration = result.Duration
	run.ExitCode = result.ExitCode
	run.tail = result.Tail

	switch {
	case result.Cancelled:
		run.Status = m.PhaseCancelled
	case result.TimedOut:
		run.Status = m.PhaseTimedOut
	case result.Success():
		run.Status = m.PhaseSucceeded
	default:
		run.Status = m.PhaseFailed
	}

	fmt.Fprintf(log, "\n*** %s %s: exit %d in %s\n", phase, run.Status, run.ExitCode, run.Duration.Round(time.Millisecond))

	if run.Status == m.PhaseCancelled {
		return run, ErrInterrupted
	}

	return run, nil
}

func unviableOrFailure(scenario m.Scenario) m.Summary {
	if scenario.Baseline {
		return m.Failure
	}

	return m.Unviable
}

func classifyTest(scenario m.Scenario, test phaseRun) m.Summary {
	switch test.Status {
	case m.PhaseTimedOut:
		return m.Timeout
	case m.PhaseSucceeded:
		if scenario.Baseline {
			return m.Success
		}

		return m.Missed
	}

	for _, marker := range goTestBuildFailures {
		if strings.Contains(test.tail, marker) {
			return unviableOrFailure(scenario)
		}
	}

	if scenario.Baseline {
		return m.Failure
	}

	return m.Caught
}
