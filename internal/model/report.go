package model

import "time"

// Summary is the classified result of one scenario.
type Summary string

const (
	// Success is the outcome of a passing baseline.
	Success Summary = "success"
	// Caught means the tests failed with the mutant applied.
	Caught Summary = "caught"
	// Missed means the tests passed with the mutant applied.
	Missed Summary = "missed"
	// Unviable means the mutated tree did not build.
	Unviable Summary = "unviable"
	// Timeout means a phase exceeded its deadline.
	Timeout Summary = "timeout"
	// Failure is the outcome of a failing baseline.
	Failure Summary = "failure"
)

// Phase is a step of the build and test cycle.
type Phase string

const (
	PhaseBuild Phase = "build"
	PhaseTest  Phase = "test"
)

// PhaseStatus is how a phase subprocess finished.
type PhaseStatus string

const (
	PhaseSucceeded PhaseStatus = "success"
	PhaseFailed    PhaseStatus = "failure"
	PhaseTimedOut  PhaseStatus = "timeout"
	PhaseCancelled PhaseStatus = "cancelled"
)

// PhaseResult records one subprocess invocation.
type PhaseResult struct {
	Phase    Phase         `json:"phase"`
	Duration time.Duration `json:"duration"`
	ExitCode int           `json:"exit_code"`
	Status   PhaseStatus   `json:"status"`
	Argv     []string      `json:"argv"`
}

// Scenario is either the baseline or a single mutant.
type Scenario struct {
	Baseline bool    `json:"baseline,omitempty"`
	Mutant   *Mutant `json:"mutant,omitempty"`
}

// Name identifies the scenario in logs and reports.
func (s Scenario) Name() string {
	if s.Baseline || s.Mutant == nil {
		return "baseline"
	}

	return s.Mutant.Name()
}

// LogName is the file-system safe form of Name.
func (s Scenario) LogName() string {
	if s.Baseline || s.Mutant == nil {
		return "baseline"
	}

	return s.Mutant.LogName()
}

// MutantOutcome is the result of running one scenario.
type MutantOutcome struct {
	Scenario Scenario      `json:"scenario"`
	Summary  Summary       `json:"summary"`
	Phases   []PhaseResult `json:"phases"`
	LogPath  Path          `json:"log_path,omitempty"`
	DiffPath Path          `json:"diff_path,omitempty"`
	// Stage is the last step the scenario reached.
	Stage Stage `json:"stage"`
	// Tail is the end of the last phase's output.
	Tail string `json:"-"`
}

// PhaseDuration returns the duration of the given phase, zero if it did not run.
func (o MutantOutcome) PhaseDuration(phase Phase) time.Duration {
	for _, p := range o.Phases {
		if p.Phase == phase {
			return p.Duration
		}
	}

	return 0
}

// Stage is a step of the per-scenario state machine.
type Stage string

const (
	StagePending  Stage = "pending"
	StagePatched  Stage = "patched"
	StageBuilding Stage = "building"
	StageTesting  Stage = "testing"
)

// ScratchDir is a directory where scenarios are built and tested.
type ScratchDir struct {
	Index   int  `json:"index"`
	Path    Path `json:"path"`
	InPlace bool `json:"in_place"`
	// Cache is the GOCACHE owned by this directory, empty when shared.
	Cache Path `json:"cache,omitempty"`
}

// RunSummary aggregates the counts of a run.
type RunSummary struct {
	Total     int           `json:"total_mutants"`
	Caught    int           `json:"caught"`
	Missed    int           `json:"missed"`
	Timeout   int           `json:"timeout"`
	Unviable  int           `json:"unviable"`
	Success   int           `json:"success"`
	Failure   int           `json:"failure"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time,omitempty"`
	Elapsed   time.Duration `json:"elapsed"`
	Score     float64       `json:"mutation_score"`
	Cancelled bool          `json:"cancelled,omitempty"`
}

// Tested is the number of mutants with a final outcome.
func (s RunSummary) Tested() int {
	return s.Caught + s.Missed + s.Timeout + s.Unviable
}
