// Package controller provides output adapters for displaying mutation testing results.
package controller

import (
	"context"
	"fmt"

	m "gooze.dev/pkg/mutants/internal/model"
)

// OutputFormat selects how catalogs and file lists are printed.
type OutputFormat string

// Available output formats.
const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
	FormatYAML OutputFormat = "yaml"
)

// ParseOutputFormat validates a --format value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON, FormatYAML:
		return OutputFormat(s), nil
	}

	return "", fmt.Errorf("unknown output format %q (want text, json or yaml)", s)
}

// StartMode defines the mode of operation for the UI.
type StartMode int

// Available StartMode values.
const (
	ModeList StartMode = iota
	ModeRun
)

// StartOption is a functional option for Start method.
type StartOption func(*StartConfig)

// StartConfig holds configuration for starting the UI.
type StartConfig struct {
	mode StartMode
}

// WithListMode sets the UI to print catalogs only.
func WithListMode() StartOption {
	return func(c *StartConfig) {
		c.mode = ModeList
	}
}

// WithRunMode sets the UI to follow a mutation testing run.
func WithRunMode() StartOption {
	return func(c *StartConfig) {
		c.mode = ModeRun
	}
}

func newStartConfig(options []StartOption) StartConfig {
	cfg := StartConfig{mode: ModeList}
	for _, opt := range options {
		opt(&cfg)
	}

	return cfg
}

// UI displays the progress and results of a run.
// Implementations must be safe for concurrent use by the scheduler's workers.
type UI interface {
	Start(ctx context.Context, options ...StartOption) error
	Close(ctx context.Context)
	Wait(ctx context.Context)
	DisplayWarnings(ctx context.Context, warnings []string)
	DisplayMutants(ctx context.Context, mutants []m.Mutant, diffs map[string]string, format OutputFormat) error
	DisplayFiles(ctx context.Context, files []m.SourceFile, format OutputFormat) error
	DisplayConcurrencyInfo(ctx context.Context, jobs int, tokens int, shard string)
	DisplayUpcomingTestsInfo(ctx context.Context, i int)
	DisplayStartingTestInfo(ctx context.Context, scenario m.Scenario, worker int)
	DisplayCompletedTestInfo(ctx context.Context, outcome m.MutantOutcome)
	DisplaySummary(ctx context.Context, summary m.RunSummary)
}
