package controller

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	m "gooze.dev/pkg/mutants/internal/model"
)

const maxProgressWidth = 60

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	faintStyle    = lipgloss.NewStyle().Faint(true)
	caughtStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	missedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	timeoutStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	unviableStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// TUI implements UI using Bubble Tea for interactive display of a run.
// Listings are printed the same way SimpleUI prints them.
type TUI struct {
	output io.Writer

	mu      sync.Mutex
	program *tea.Program
	done    chan struct{}
}

// NewTUI creates a new TUI.
func NewTUI(output io.Writer) *TUI {
	return &TUI{output: output}
}

// Start launches the progress view in run mode.
func (t *TUI) Start(ctx context.Context, options ...StartOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if newStartConfig(options).mode != ModeRun {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.program != nil {
		return nil
	}

	program := tea.NewProgram(newRunModel(),
		tea.WithOutput(t.output),
		tea.WithInput(nil),
		tea.WithoutSignalHandler())
	done := make(chan struct{})

	go func() {
		defer close(done)

		if _, err := program.Run(); err != nil {
			slog.Error("Progress view stopped", "error", err)
		}
	}()

	t.program = program
	t.done = done

	return nil
}

// Close stops the progress view.
func (t *TUI) Close(_ context.Context) {
	if program := t.running(); program != nil {
		program.Quit()
	}
}

// Wait blocks until the progress view has restored the terminal.
func (t *TUI) Wait(ctx context.Context) {
	t.mu.Lock()
	done := t.done
	t.mu.Unlock()

	if done == nil {
		return
	}

	select {
	case <-done:
	case <-ctx.Done():
	}
}

func (t *TUI) running() *tea.Program {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.program
}

func (t *TUI) send(msg tea.Msg) bool {
	program := t.running()
	if program == nil {
		return false
	}

	program.Send(msg)

	return true
}

// DisplayWarnings prints warnings above the progress view.
func (t *TUI) DisplayWarnings(ctx context.Context, warnings []string) {
	if err := ctx.Err(); err != nil {
		return
	}

	for _, warning := range warnings {
		line := timeoutStyle.Render("warning: ") + warning
		if program := t.running(); program != nil {
			program.Println(line)
			continue
		}

		_, _ = fmt.Fprintln(t.output, line)
	}
}

// DisplayMutants prints the mutant catalog.
func (t *TUI) DisplayMutants(ctx context.Context, mutants []m.Mutant, diffs map[string]string, format OutputFormat) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return renderMutants(t.output, mutants, diffs, format)
}

// DisplayFiles prints the source files that would be mutated.
func (t *TUI) DisplayFiles(ctx context.Context, files []m.SourceFile, format OutputFormat) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return renderFiles(t.output, files, format)
}

// DisplayConcurrencyInfo shows concurrency settings.
func (t *TUI) DisplayConcurrencyInfo(ctx context.Context, jobs int, tokens int, shard string) {
	if err := ctx.Err(); err != nil {
		return
	}

	t.send(concurrencyMsg{jobs: jobs, tokens: tokens, shard: shard})
}

// DisplayUpcomingTestsInfo sets the length of the progress bar.
func (t *TUI) DisplayUpcomingTestsInfo(ctx context.Context, i int) {
	if err := ctx.Err(); err != nil {
		return
	}

	t.send(upcomingMsg{total: i})
}

// DisplayStartingTestInfo shows the scenario a worker picked up.
func (t *TUI) DisplayStartingTestInfo(ctx context.Context, scenario m.Scenario, worker int) {
	if err := ctx.Err(); err != nil {
		return
	}

	t.send(startedMsg{worker: worker, name: scenario.Name()})
}

// DisplayCompletedTestInfo advances the progress bar.
func (t *TUI) DisplayCompletedTestInfo(_ context.Context, outcome m.MutantOutcome) {
	if t.send(completedMsg{outcome: outcome}) {
		return
	}

	if !outcome.Scenario.Baseline && outcome.Summary == m.Missed {
		_, _ = fmt.Fprintln(t.output, outcomeLine(outcome))
	}
}

// DisplaySummary renders the final counts and ends the progress view.
func (t *TUI) DisplaySummary(_ context.Context, summary m.RunSummary) {
	if t.send(summaryMsg{summary: summary}) {
		return
	}

	_, _ = fmt.Fprintf(t.output, "%s\n\n%s", summaryLine(summary), renderSummaryTable(summary))
}

type concurrencyMsg struct {
	jobs   int
	tokens int
	shard  string
}

type startedMsg struct {
	worker int
	name   string
}

type upcomingMsg struct{ total int }

type completedMsg struct{ outcome m.MutantOutcome }

type summaryMsg struct{ summary m.RunSummary }

// runModel is the Bubble Tea model of a run in progress.
type runModel struct {
	progress progress.Model
	spinner  spinner.Model

	jobs    int
	tokens  int
	shard   string
	total   int
	done    int
	counts  map[m.Summary]int
	workers map[int]string
	summary *m.RunSummary
}

func newRunModel() runModel {
	bar := progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage())
	bar.Width = maxProgressWidth

	return runModel{
		progress: bar,
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot)),
		counts:   make(map[m.Summary]int),
		workers:  make(map[int]string),
	}
}

func (rm runModel) Init() tea.Cmd {
	return rm.spinner.Tick
}

func (rm runModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		rm.progress.Width = min(maxProgressWidth, max(10, msg.Width-20))

		return rm, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		rm.spinner, cmd = rm.spinner.Update(msg)

		return rm, cmd

	case concurrencyMsg:
		rm.jobs, rm.tokens, rm.shard = msg.jobs, msg.tokens, msg.shard

		return rm, nil

	case upcomingMsg:
		rm.total = msg.total

		return rm, nil

	case startedMsg:
		rm.workers[msg.worker] = msg.name

		return rm, nil

	case completedMsg:
		return rm.complete(msg.outcome)

	case summaryMsg:
		rm.summary = &msg.summary
		clear(rm.workers)

		return rm, tea.Quit
	}

	return rm, nil
}

func (rm runModel) complete(outcome m.MutantOutcome) (tea.Model, tea.Cmd) {
	name := outcome.Scenario.Name()
	for worker, current := range rm.workers {
		if current == name {
			delete(rm.workers, worker)
		}
	}

	if outcome.Scenario.Baseline {
		return rm, tea.Println(faintStyle.Render("Unmutated baseline ... " + string(outcome.Summary)))
	}

	rm.done++
	rm.counts[outcome.Summary]++

	switch outcome.Summary {
	case m.Missed:
		return rm, tea.Println(missedStyle.Render(outcomeLine(outcome)))
	case m.Timeout:
		return rm, tea.Println(timeoutStyle.Render(outcomeLine(outcome)))
	case m.Caught, m.Unviable, m.Success, m.Failure:
	}

	return rm, nil
}

func (rm runModel) View() string {
	var b strings.Builder

	if rm.summary != nil {
		fmt.Fprintf(&b, "%s\n\n%s", titleStyle.Render(summaryLine(*rm.summary)), renderSummaryTable(*rm.summary))
		return b.String()
	}

	fmt.Fprintf(&b, "%s %s\n", titleStyle.Render("mutants"),
		faintStyle.Render(fmt.Sprintf("jobs %d, tokens %d, shard %s", rm.jobs, rm.tokens, rm.shard)))

	percent := 0.0
	if rm.total > 0 {
		percent = float64(rm.done) / float64(rm.total)
	}

	fmt.Fprintf(&b, "%s %d/%d\n", rm.progress.ViewAs(percent), rm.done, rm.total)
	fmt.Fprintf(&b, "%s  %s  %s  %s\n",
		caughtStyle.Render(fmt.Sprintf("%d caught", rm.counts[m.Caught])),
		missedStyle.Render(fmt.Sprintf("%d missed", rm.counts[m.Missed])),
		timeoutStyle.Render(fmt.Sprintf("%d timeout", rm.counts[m.Timeout])),
		unviableStyle.Render(fmt.Sprintf("%d unviable", rm.counts[m.Unviable])))

	workers := make([]int, 0, len(rm.workers))
	for worker := range rm.workers {
		workers = append(workers, worker)
	}

	slices.Sort(workers)

	for _, worker := range workers {
		fmt.Fprintf(&b, "%s %s\n", rm.spinner.View(), rm.workers[worker])
	}

	return b.String()
}
