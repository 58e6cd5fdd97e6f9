package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrBaselineFailed is returned when the unmutated tree does not build or its tests fail.
	ErrBaselineFailed = errors.New("baseline build or tests failed in an unmutated tree")
	// ErrInterrupted is returned when the run was stopped by a signal.
	ErrInterrupted = errors.New("interrupted")
	// ErrMutantsMissed is returned when at least one mutant survived the tests.
	ErrMutantsMissed = errors.New("some mutants were missed")
	// ErrMutantsTimedOut is returned when no mutant was missed but some timed out.
	ErrMutantsTimedOut = errors.New("some mutants timed out")
)

// UsageError reports options or arguments that cannot be acted on.
type UsageError struct {
	Err error
}

func (e *UsageError) Error() string {
	return e.Err.Error()
}

func (e *UsageError) Unwrap() error {
	return e.Err
}

func usageErrorf(format string, args ...any) error {
	return &UsageError{Err: fmt.Errorf(format, args...)}
}

// DiscoveryError is a failure to read or parse the source tree.
type DiscoveryError struct {
	Path string
	Err  error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("failed to analyze %s: %v", e.Path, e.Err)
}

func (e *DiscoveryError) Unwrap() error {
	return e.Err
}

// CopyError is a failure to create a scratch copy of the tree.
type CopyError struct {
	Dir string
	Err error
}

func (e *CopyError) Error() string {
	return fmt.Sprintf("failed to copy tree to %s: %v", e.Dir, e.Err)
}

func (e *CopyError) Unwrap() error {
	return e.Err
}

// PatchError is a failure to apply a mutant to a scratch directory.
type PatchError struct {
	Mutant string
	Err    error
}

func (e *PatchError) Error() string {
	return fmt.Sprintf("failed to apply %s: %v", e.Mutant, e.Err)
}

func (e *PatchError) Unwrap() error {
	return e.Err
}

// RevertError means a mutated file could not be restored. The tree may be
// left modified, so the run stops.
type RevertError struct {
	Path string
	Err  error
}

func (e *RevertError) Error() string {
	return fmt.Sprintf("failed to restore %s: %v", e.Path, e.Err)
}

func (e *RevertError) Unwrap() error {
	return e.Err
}

// InDiffMismatchError means the --in-diff file does not describe the current tree.
type InDiffMismatchError struct {
	File   string
	Line   int
	Detail string
}

func (e *InDiffMismatchError) Error() string {
	return fmt.Sprintf("diff does not match the source tree at %s:%d: %s", e.File, e.Line, e.Detail)
}

// InvalidDiffError means the --in-diff file could not be parsed.
type InvalidDiffError struct {
	Err error
}

func (e *InvalidDiffError) Error() string {
	return fmt.Sprintf("invalid diff: %v", e.Err)
}

func (e *InvalidDiffError) Unwrap() error {
	return e.Err
}
