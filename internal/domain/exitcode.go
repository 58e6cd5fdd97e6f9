package domain

import (
	"context"
	"errors"

	"gooze.dev/pkg/mutants/internal/adapter"
)

// Process exit codes.
const (
	ExitSuccess        = 0
	ExitUsage          = 1
	ExitMissed         = 2
	ExitTimeout        = 3
	ExitBaselineFailed = 4
	ExitInDiffMismatch = 5
	ExitInvalidDiff    = 6
	ExitSoftware       = 70
	ExitInterrupted    = 130
)

// ExitCode maps the error returned by a command to the process exit code.
func ExitCode(err error) int {
	var (
		usage    *UsageError
		mismatch *InDiffMismatchError
		invalid  *InvalidDiffError
	)

	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, ErrInterrupted), errors.Is(err, context.Canceled):
		return ExitInterrupted
	case errors.As(err, &mismatch):
		return ExitInDiffMismatch
	case errors.As(err, &invalid):
		return ExitInvalidDiff
	case errors.As(err, &usage), errors.Is(err, adapter.ErrLocked):
		return ExitUsage
	case errors.Is(err, ErrBaselineFailed):
		return ExitBaselineFailed
	case errors.Is(err, ErrMutantsMissed):
		return ExitMissed
	case errors.Is(err, ErrMutantsTimedOut):
		return ExitTimeout
	}

	return ExitSoftware
}
