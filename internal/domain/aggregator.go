package domain

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"slices"
	"strings"
	"sync"
	"time"

	"gooze.dev/pkg/mutants/internal/adapter"
	m "gooze.dev/pkg/mutants/internal/model"
	pkg "gooze.dev/pkg/mutants/pkg"
)

// AggregatorOptions describe the run being recorded.
type AggregatorOptions struct {
	Total   int
	Version string
	// Iterate writes previously_caught.txt at the end of the run.
	Iterate bool
	// Previous are the names already caught or unviable in earlier runs.
	Previous []string
}

// outcomesInterval bounds how often Record rewrites outcomes.json.
const outcomesInterval = time.Second

type outcomesDocument struct {
	Version string `json:"mutants_version"`
	m.RunSummary
	Outcomes []m.MutantOutcome `json:"outcomes"`
}

// Aggregator records outcomes into the output directory as they arrive.
// It is safe for concurrent use by the scheduler's workers.
type Aggregator struct {
	out     adapter.OutputDir
	journal pkg.FileSpill[m.MutantOutcome]
	opts    AggregatorOptions

	mu      sync.Mutex
	summary m.RunSummary
	known   []string

	// written is when outcomes.json was last rewritten.
	written  time.Time
	interval time.Duration
}

// NewAggregator opens the outcome journal inside out.
func NewAggregator(out adapter.OutputDir, opts AggregatorOptions) (*Aggregator, error) {
	journal, err := pkg.NewFileSpill[m.MutantOutcome](string(out.JournalPath()))
	if err != nil {
		return nil, fmt.Errorf("failed to open outcome journal: %w", err)
	}

	a := &Aggregator{
		out:     out,
		journal: journal,
		opts:    opts,
		summary:  m.RunSummary{Total: opts.Total, StartTime: time.Now()},
		interval: outcomesInterval,
	}

	return a, nil
}

// WriteCatalog stores the mutants selected for the run.
func (a *Aggregator) WriteCatalog(ctx context.Context, mutants []m.Mutant) error {
	return a.out.WriteCatalog(ctx, mutants)
}

// OpenLog creates the log file of a scenario.
func (a *Aggregator) OpenLog(ctx context.Context, scenario m.Scenario) (io.WriteCloser, m.Path, error) {
	return a.out.CreateLog(ctx, scenario.LogName())
}

// WriteDiff implements Recorder.
func (a *Aggregator) WriteDiff(ctx context.Context, logPath m.Path, diff string) (m.Path, error) {
	name := strings.TrimSuffix(path.Base(string(logPath)), ".log")

	return a.out.WriteDiff(ctx, name, diff)
}

// Record stores one outcome in the journal and the list files. outcomes.json
// is rewritten at most once per interval; Finish always writes it.
func (a *Aggregator) Record(ctx context.Context, outcome m.MutantOutcome) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.journal.Append(outcome); err != nil {
		slog.Error("Failed to journal outcome", "scenario", outcome.Scenario.Name(), "error", err)
		return fmt.Errorf("failed to journal outcome: %w", err)
	}

	a.count(outcome.Summary)

	if !outcome.Scenario.Baseline {
		name := outcome.Scenario.Name()
		if err := a.out.AppendName(ctx, outcome.Summary, name); err != nil {
			return fmt.Errorf("failed to record %s: %w", name, err)
		}

		if outcome.Summary == m.Caught || outcome.Summary == m.Unviable {
			a.known = append(a.known, name)
		}
	}

	if time.Since(a.written) < a.interval {
		return nil
	}

	return a.writeOutcomes(ctx)
}

func (a *Aggregator) count(summary m.Summary) {
	switch summary {
	case m.Caught:
		a.summary.Caught++
	case m.Missed:
		a.summary.Missed++
	case m.Unviable:
		a.summary.Unviable++
	case m.Timeout:
		a.summary.Timeout++
	case m.Success:
		a.summary.Success++
	case m.Failure:
		a.summary.Failure++
	}
}

// writeOutcomes rewrites outcomes.json from the journal. Callers hold mu.
func (a *Aggregator) writeOutcomes(ctx context.Context) error {
	doc := outcomesDocument{
		Version:    a.opts.Version,
		RunSummary: a.summary,
		Outcomes:   make([]m.MutantOutcome, 0, a.journal.Len()),
	}

	err := a.journal.Range(func(_ uint64, outcome m.MutantOutcome) error {
		doc.Outcomes = append(doc.Outcomes, outcome)
		return nil
	})
	if err != nil {
		return err
	}

	if err := a.out.WriteOutcomes(ctx, doc); err != nil {
		slog.Error("Failed to write outcomes", "error", err)
		return fmt.Errorf("failed to write outcomes: %w", err)
	}

	a.written = time.Now()

	return nil
}

// Finish completes the summary and writes the final reports.
func (a *Aggregator) Finish(ctx context.Context, cancelled bool) (m.RunSummary, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.summary.EndTime = time.Now()
	a.summary.Elapsed = a.summary.EndTime.Sub(a.summary.StartTime)
	a.summary.Cancelled = cancelled

	score, err := mutationScoreFromJournal(a.journal)
	if err != nil {
		return a.summary, fmt.Errorf("failed to compute mutation score: %w", err)
	}

	a.summary.Score = score

	if err := a.writeOutcomes(ctx); err != nil {
		return a.summary, err
	}

	if a.opts.Iterate {
		names := append(slices.Clone(a.opts.Previous), a.known...)
		slices.Sort(names)

		if err := a.out.WritePreviouslyCaught(ctx, slices.Compact(names)); err != nil {
			return a.summary, fmt.Errorf("failed to write previously caught mutants: %w", err)
		}
	}

	slog.Info("Run finished",
		"caught", a.summary.Caught,
		"missed", a.summary.Missed,
		"timeout", a.summary.Timeout,
		"unviable", a.summary.Unviable,
		"score", a.summary.Score,
		"elapsed", a.summary.Elapsed)

	return a.summary, nil
}

// Close closes the journal and releases the output directory lock.
func (a *Aggregator) Close() error {
	err := a.journal.Close()
	if closeErr := a.out.Close(); closeErr != nil && err == nil {
		err = closeErr
	}

	return err
}
