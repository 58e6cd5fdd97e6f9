package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"gooze.dev/pkg/mutants/internal/adapter"
	"gooze.dev/pkg/mutants/internal/controller"
	m "gooze.dev/pkg/mutants/internal/model"
)

// Workflow drives the list and run commands.
type Workflow interface {
	// List prints the mutants that a run with the same arguments would test.
	List(ctx context.Context, args ListArgs) error
	// ListFiles prints the source files that would be mutated.
	ListFiles(ctx context.Context, args ListArgs) error
	// Test runs the baseline and every selected mutant.
	Test(ctx context.Context, args TestArgs) (m.RunSummary, error)
}

type workflow struct {
	adapter.SourceFSAdapter
	adapter.ReportStore
	controller.UI
	Analyzer
	runner adapter.TestRunnerAdapter
}

// NewWorkflow creates a new Workflow instance with the provided dependencies.
func NewWorkflow(
	fsAdapter adapter.SourceFSAdapter,
	reportStore adapter.ReportStore,
	ui controller.UI,
	analyzer Analyzer,
	testAdapter adapter.TestRunnerAdapter,
) Workflow {
	return &workflow{
		SourceFSAdapter: fsAdapter,
		ReportStore:     reportStore,
		UI:              ui,
		Analyzer:        analyzer,
		runner:          testAdapter,
	}
}

// selection is the catalog after filters and sharding.
type selection struct {
	discovery Discovery
	mutants   []m.Mutant
	shard     Shard
}

func (w *workflow) List(ctx context.Context, args ListArgs) error {
	if err := validateArgs(&args); err != nil {
		return err
	}

	if args.Format == "" {
		args.Format = controller.FormatText
	}

	root, err := w.projectRoot(ctx, args.Dir)
	if err != nil {
		return err
	}

	sel, err := w.selectMutants(ctx, root, args.EstimateArgs, nil)
	if err != nil {
		return err
	}

	w.DisplayWarnings(ctx, sel.discovery.Warnings)

	var diffs map[string]string
	if args.Diff {
		if diffs, err = mutantDiffs(sel.discovery.Files, sel.mutants); err != nil {
			return err
		}
	}

	return w.DisplayMutants(ctx, sel.mutants, diffs, args.Format)
}

func (w *workflow) ListFiles(ctx context.Context, args ListArgs) error {
	if err := validateArgs(&args); err != nil {
		return err
	}

	if args.Format == "" {
		args.Format = controller.FormatText
	}

	root, err := w.projectRoot(ctx, args.Dir)
	if err != nil {
		return err
	}

	sel, err := w.selectMutants(ctx, root, args.EstimateArgs, nil)
	if err != nil {
		return err
	}

	w.DisplayWarnings(ctx, sel.discovery.Warnings)

	return w.DisplayFiles(ctx, sel.discovery.Files, args.Format)
}

func (w *workflow) Test(ctx context.Context, args TestArgs) (m.RunSummary, error) {
	if err := validateArgs(&args); err != nil {
		return m.RunSummary{}, err
	}

	if args.InPlace && args.Jobs > 1 {
		return m.RunSummary{}, usageErrorf("--in-place requires a single job, got %d", args.Jobs)
	}

	root, err := w.projectRoot(ctx, args.Dir)
	if err != nil {
		return m.RunSummary{}, err
	}

	outputRoot, err := outputRootFor(root, args.Output)
	if err != nil {
		return m.RunSummary{}, err
	}

	var previous []string

	if args.Iterate {
		// Read before Open rotates the previous output away.
		if previous, err = w.ReadPrevious(ctx, outputRoot); err != nil {
			slog.Error("Failed to read previous outcomes", "output", outputRoot, "error", err)
			return m.RunSummary{}, fmt.Errorf("read previous outcomes: %w", err)
		}
	}

	sel, err := w.selectMutants(ctx, root, args.EstimateArgs, previous)
	if err != nil {
		return m.RunSummary{}, err
	}

	w.DisplayWarnings(ctx, sel.discovery.Warnings)

	out, err := w.Open(ctx, outputRoot)
	if err != nil {
		slog.Error("Failed to open output directory", "output", outputRoot, "error", err)

		if errors.Is(err, adapter.ErrLocked) {
			return m.RunSummary{}, &UsageError{Err: err}
		}

		return m.RunSummary{}, fmt.Errorf("open output directory: %w", err)
	}

	aggregator, err := NewAggregator(out, AggregatorOptions{
		Total:    len(sel.mutants),
		Version:  args.Version,
		Iterate:  args.Iterate,
		Previous: previous,
	})
	if err != nil {
		_ = out.Close()
		return m.RunSummary{}, err
	}

	scratch := NewScratchManager(w.SourceFSAdapter, ScratchOptions{
		Root:         root,
		InPlace:      args.InPlace,
		CopyCache:    args.CopyCache,
		IsolateCache: args.IsolateCache,
		Gitignore:    args.Gitignore,
		LeakDirs:     args.LeakDirs,
		ExcludePaths: []m.Path{
			w.JoinPath(string(outputRoot), adapter.OutputDirName),
			w.JoinPath(string(outputRoot), adapter.OldOutputDirName),
			w.JoinPath(string(outputRoot), adapter.GateFileName),
		},
	})

	state := newRunState(args, root, sel.mutants, sel.shard, aggregator, scratch)

	runErr := w.run(ctx, state)

	summary, finalizeErr := state.Finalize(ctx, runErr)

	w.DisplaySummary(context.WithoutCancel(ctx), summary)
	w.Close(ctx)
	w.Wait(context.WithoutCancel(ctx))

	switch {
	case runErr != nil:
		return summary, runErr
	case finalizeErr != nil:
		return summary, finalizeErr
	case summary.Missed > 0:
		return summary, fmt.Errorf("%w: %d of %d", ErrMutantsMissed, summary.Missed, summary.Tested())
	case summary.Timeout > 0:
		return summary, fmt.Errorf("%w: %d of %d", ErrMutantsTimedOut, summary.Timeout, summary.Tested())
	}

	return summary, nil
}

// run executes the baseline and the mutants of state.
func (w *workflow) run(ctx context.Context, state *RunState) error {
	args := state.Args

	if err := state.aggregator.WriteCatalog(ctx, state.Catalog); err != nil {
		slog.Error("Failed to write catalog", "error", err)
		return fmt.Errorf("write catalog: %w", err)
	}

	if len(state.Catalog) == 0 {
		slog.Info("No mutants to test")
		return nil
	}

	jobs, lowered := effectiveJobs(args.Jobs, len(state.Catalog))
	if lowered {
		slog.Warn("Lowered job count to the number of mutants", "requested", args.Jobs, "jobs", jobs)
		w.DisplayWarnings(ctx, []string{fmt.Sprintf("running %d jobs instead of %d: only %d mutants to test", jobs, args.Jobs, len(state.Catalog))})
	}

	tokens := NewTokenPool(args.JobserverTasks, jobs)
	scheduler := NewScheduler(w.runner, state.scratch, tokens, state.aggregator, w.UI)

	if err := w.Start(ctx, controller.WithRunMode()); err != nil {
		slog.Error("Failed to start run UI", "error", err)
		return err
	}

	w.DisplayConcurrencyInfo(ctx, jobs, tokens.Size(), state.Shard.String())
	w.DisplayUpcomingTestsInfo(ctx, len(state.Catalog))

	dirs, err := state.scratch.Prepare(ctx, jobs)
	if err != nil {
		return err
	}

	state.Dirs = dirs

	exec := ExecOptions{
		Workspace:    args.TestWorkspace,
		Failfast:     args.Failfast,
		TestArgs:     args.TestArgs,
		Env:          args.Env,
		BuildTimeout: args.Timeouts.Build,
		TestTimeout:  args.Timeouts.Test,
	}

	if args.Baseline != BaselineSkip {
		packages := BaselinePackages(state.Catalog, args.TestWorkspace)

		baseline, err := scheduler.Baseline(ctx, dirs[0], packages, exec)
		if err != nil {
			return err
		}

		state.Baseline = &baseline
	}

	exec.TestTimeout = args.Timeouts.TestTimeout(state.Baseline)
	exec.BuildTimeout = args.Timeouts.BuildTimeout(state.Baseline)

	slog.Info("Phase timeouts", "test", exec.TestTimeout, "build", exec.BuildTimeout)

	queue := slices.Clone(state.Catalog)
	if !args.NoShuffle {
		shuffle(queue, args.ShuffleSeed)
	}

	return scheduler.Run(ctx, dirs, queue, exec)
}

// shuffle reorders mutants; a zero seed picks one from the clock.
func shuffle(mutants []m.Mutant, seed uint64) {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	slog.Info("Shuffling mutants", "seed", seed)

	r := rand.New(rand.NewPCG(seed, seed))
	r.Shuffle(len(mutants), func(i, j int) {
		mutants[i], mutants[j] = mutants[j], mutants[i]
	})
}

func (w *workflow) projectRoot(ctx context.Context, dir m.Path) (m.Path, error) {
	if dir == "" {
		dir = "."
	}

	root, err := w.FindProjectRoot(ctx, dir)
	if err != nil {
		slog.Error("Failed to find project root", "dir", dir, "error", err)
		return "", usageErrorf("%s is not inside a Go module: %w", dir, err)
	}

	return root, nil
}

func outputRootFor(root, output m.Path) (m.Path, error) {
	if output == "" {
		return root, nil
	}

	abs, err := filepath.Abs(string(output))
	if err != nil {
		return "", usageErrorf("invalid output directory %s: %w", output, err)
	}

	return m.Path(abs), nil
}

// defaultPatterns scopes a run started below the tree root to that directory.
func (w *workflow) defaultPatterns(root, dir m.Path) []string {
	if dir == "" {
		return nil
	}

	abs, err := filepath.Abs(string(dir))
	if err != nil {
		return nil
	}

	rel, err := w.RelPath(root, m.Path(abs))
	if err != nil || rel == "." || strings.HasPrefix(string(rel), "..") {
		return nil
	}

	return []string{"./" + filepath.ToSlash(string(rel)) + "/..."}
}

func (w *workflow) selectMutants(ctx context.Context, root m.Path, args EstimateArgs, known []string) (selection, error) {
	shard, err := ParseShard(args.Shard)
	if err != nil {
		return selection{}, err
	}

	names, err := NewNameFilter(args.Re, args.ExcludeRe, known)
	if err != nil {
		return selection{}, err
	}

	patterns := args.Patterns
	if len(patterns) == 0 {
		patterns = w.defaultPatterns(root, args.Dir)
	}

	discovery, err := w.Discover(ctx, DiscoverOptions{
		Root:          root,
		Patterns:      patterns,
		ExamineGlobs:  args.Examine,
		ExcludeGlobs:  args.Exclude,
		FollowImports: args.FollowImports,
		Generate:      args.generateOptions(),
	})
	if err != nil {
		return selection{}, err
	}

	mutants := names.Apply(discovery.Mutants)

	if args.InDiff != "" {
		content, err := w.ReadFile(ctx, args.InDiff)
		if err != nil {
			return selection{}, usageErrorf("read diff %s: %w", args.InDiff, err)
		}

		if mutants, err = InDiff(content, discovery.Files, mutants); err != nil {
			return selection{}, err
		}
	}

	mutants = shard.Select(mutants)

	slog.Info("Selected mutants", "discovered", len(discovery.Mutants), "selected", len(mutants), "shard", shard)

	return selection{discovery: discovery, mutants: mutants, shard: shard}, nil
}

func mutantDiffs(files []m.SourceFile, mutants []m.Mutant) (map[string]string, error) {
	code := make(map[m.Path][]byte, len(files))
	for _, file := range files {
		code[file.RelPath] = file.Code
	}

	diffs := make(map[string]string, len(mutants))

	for _, mutant := range mutants {
		diff, err := MutantDiff(mutant, code[mutant.File])
		if err != nil {
			return nil, err
		}

		diffs[mutant.Name()] = diff
	}

	return diffs, nil
}

// effectiveJobs bounds the requested job count by the number of mutants and
// reports whether it had to be lowered.
func effectiveJobs(requested, mutants int) (int, bool) {
	jobs := min(max(1, requested), max(1, mutants))

	return jobs, jobs < requested
}
