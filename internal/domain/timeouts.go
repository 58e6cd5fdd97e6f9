package domain

import (
	"time"

	m "gooze.dev/pkg/mutants/internal/model"
)

const (
	// DefaultMinimumTestTimeout is the floor of the derived test timeout.
	DefaultMinimumTestTimeout = 20 * time.Second
	// DefaultTimeoutMultiplier scales the baseline test duration.
	DefaultTimeoutMultiplier = 5.0
	// SkippedBaselineTestTimeout is used when no baseline duration is known.
	SkippedBaselineTestTimeout = 300 * time.Second
)

// TimeoutOptions are the user settings that shape phase deadlines.
type TimeoutOptions struct {
	// Test is an explicit test timeout; zero derives one from the baseline.
	Test           time.Duration `validate:"gte=0"`
	TestMultiplier float64       `validate:"gte=0"`
	Cap            time.Duration `validate:"gte=0"`
	Minimum        time.Duration `validate:"gte=0"`
	// Build is an explicit build timeout; zero with no multiplier means none.
	Build           time.Duration `validate:"gte=0"`
	BuildMultiplier float64       `validate:"gte=0"`
}

// TestTimeout derives the per-mutant test deadline. baseline is nil when the
// baseline was skipped.
func (o TimeoutOptions) TestTimeout(baseline *m.MutantOutcome) time.Duration {
	if o.Test > 0 {
		return o.Test
	}

	var timeout time.Duration

	if baseline == nil {
		timeout = SkippedBaselineTestTimeout
	} else {
		timeout = o.scaled(baseline.PhaseDuration(m.PhaseTest), o.TestMultiplier, DefaultTimeoutMultiplier)
	}

	if o.Cap > 0 && timeout > o.Cap {
		timeout = o.Cap
	}

	return timeout
}

// BuildTimeout is zero, meaning no deadline, unless explicitly configured.
func (o TimeoutOptions) BuildTimeout(baseline *m.MutantOutcome) time.Duration {
	if o.Build > 0 {
		return o.Build
	}

	if o.BuildMultiplier <= 0 || baseline == nil {
		return 0
	}

	return o.scaled(baseline.PhaseDuration(m.PhaseBuild), o.BuildMultiplier, o.BuildMultiplier)
}

func (o TimeoutOptions) scaled(d time.Duration, multiplier, fallback float64) time.Duration {
	if multiplier <= 0 {
		multiplier = fallback
	}

	minimum := o.Minimum
	if minimum <= 0 {
		minimum = DefaultMinimumTestTimeout
	}

	return max(minimum, time.Duration(float64(d)*multiplier))
}
