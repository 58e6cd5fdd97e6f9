package controller

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	m "gooze.dev/pkg/mutants/internal/model"
)

// tailLines is how much of a failing baseline's output is echoed.
const tailLines = 20

// SimpleUI implements UI using cobra Command's output streams.
type SimpleUI struct {
	cmd *cobra.Command
	mu  sync.Mutex
}

// NewSimpleUI creates a new SimpleUI.
func NewSimpleUI(cmd *cobra.Command) *SimpleUI {
	return &SimpleUI{cmd: cmd}
}

// Start initializes the UI.
func (s *SimpleUI) Start(ctx context.Context, _ ...StartOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return nil
}

// Close finalizes the UI.
func (s *SimpleUI) Close(_ context.Context) {}

// Wait blocks until the UI is closed (no-op for SimpleUI).
func (s *SimpleUI) Wait(_ context.Context) {}

// DisplayWarnings prints non-fatal problems found while analyzing the tree.
func (s *SimpleUI) DisplayWarnings(ctx context.Context, warnings []string) {
	if err := ctx.Err(); err != nil {
		return
	}

	for _, warning := range warnings {
		s.errorf("warning: %s\n", warning)
	}
}

// DisplayMutants prints the mutant catalog.
func (s *SimpleUI) DisplayMutants(ctx context.Context, mutants []m.Mutant, diffs map[string]string, format OutputFormat) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return renderMutants(s.cmd.OutOrStdout(), mutants, diffs, format)
}

// DisplayFiles prints the source files that would be mutated.
func (s *SimpleUI) DisplayFiles(ctx context.Context, files []m.SourceFile, format OutputFormat) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return renderFiles(s.cmd.OutOrStdout(), files, format)
}

// DisplayConcurrencyInfo shows concurrency settings.
func (s *SimpleUI) DisplayConcurrencyInfo(ctx context.Context, jobs int, tokens int, shard string) {
	if err := ctx.Err(); err != nil {
		return
	}

	s.printf("Testing with %d job(s), %d build token(s), shard %s\n", jobs, tokens, shard)
}

// DisplayUpcomingTestsInfo shows the number of upcoming mutants to be tested.
func (s *SimpleUI) DisplayUpcomingTestsInfo(ctx context.Context, i int) {
	if err := ctx.Err(); err != nil {
		return
	}

	s.printf("Found %d mutants to test\n", i)
}

// DisplayStartingTestInfo shows info about the scenario starting.
func (s *SimpleUI) DisplayStartingTestInfo(ctx context.Context, scenario m.Scenario, _ int) {
	if err := ctx.Err(); err != nil {
		return
	}

	if scenario.Baseline {
		s.printf("Unmutated baseline ...\n")
	}
}

// DisplayCompletedTestInfo shows info about the scenario completion.
func (s *SimpleUI) DisplayCompletedTestInfo(_ context.Context, outcome m.MutantOutcome) {
	if outcome.Scenario.Baseline {
		s.printf("Unmutated baseline ... %s\n", outcome.Summary)

		if outcome.Summary != m.Success && outcome.Tail != "" {
			s.printf("%s\n", lastLines(outcome.Tail, tailLines))
		}

		return
	}

	// Caught and unviable mutants are only interesting in the output files.
	switch outcome.Summary {
	case m.Missed, m.Timeout:
		s.printf("%s\n", outcomeLine(outcome))
	case m.Caught, m.Unviable, m.Success, m.Failure:
	}
}

// DisplaySummary prints the final counts and mutation score.
func (s *SimpleUI) DisplaySummary(_ context.Context, summary m.RunSummary) {
	s.printf("%s\n", summaryLine(summary))
	s.printf("\n%s", renderSummaryTable(summary))
}

func (s *SimpleUI) printf(format string, args ...interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = fmt.Fprintf(s.cmd.OutOrStdout(), format, args...)
}

func (s *SimpleUI) errorf(format string, args ...interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = fmt.Fprintf(s.cmd.ErrOrStderr(), format, args...)
}

func lastLines(text string, n int) string {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}

	return strings.Join(lines, "\n")
}
