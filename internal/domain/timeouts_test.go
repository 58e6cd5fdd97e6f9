package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	m "gooze.dev/pkg/mutants/internal/model"
)

func baselineOutcome(build, test time.Duration) *m.MutantOutcome {
	return &m.MutantOutcome{
		Scenario: m.Scenario{Baseline: true},
		Summary:  m.Success,
		Phases: []m.PhaseResult{
			{Phase: m.PhaseBuild, Duration: build},
			{Phase: m.PhaseTest, Duration: test},
		},
	}
}

func TestTimeoutOptions_TestTimeout(t *testing.T) {
	tests := []struct {
		name     string
		opts     TimeoutOptions
		baseline *m.MutantOutcome
		want     time.Duration
	}{
		{"fast baseline uses the floor", TimeoutOptions{}, baselineOutcome(time.Second, time.Second), 20 * time.Second},
		{"slow baseline is scaled", TimeoutOptions{}, baselineOutcome(time.Second, 10*time.Second), 50 * time.Second},
		{"custom multiplier", TimeoutOptions{TestMultiplier: 2}, baselineOutcome(0, 30*time.Second), 60 * time.Second},
		{"custom minimum", TimeoutOptions{Minimum: time.Minute}, baselineOutcome(0, time.Second), time.Minute},
		{"cap", TimeoutOptions{Cap: 30 * time.Second}, baselineOutcome(0, time.Minute), 30 * time.Second},
		{"skipped baseline", TimeoutOptions{}, nil, 300 * time.Second},
		{"skipped baseline with cap", TimeoutOptions{Cap: time.Minute}, nil, time.Minute},
		{"explicit", TimeoutOptions{Test: 7 * time.Second, Cap: time.Second}, baselineOutcome(0, time.Hour), 7 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.opts.TestTimeout(tt.baseline))
		})
	}
}

func TestTimeoutOptions_BuildTimeout(t *testing.T) {
	baseline := baselineOutcome(10*time.Second, time.Second)

	assert.Zero(t, TimeoutOptions{}.BuildTimeout(baseline))
	assert.Equal(t, 5*time.Second, TimeoutOptions{Build: 5 * time.Second}.BuildTimeout(nil))
	assert.Equal(t, 30*time.Second, TimeoutOptions{BuildMultiplier: 3}.BuildTimeout(baseline))
	assert.Equal(t, 20*time.Second, TimeoutOptions{BuildMultiplier: 1.5}.BuildTimeout(baseline))
	assert.Zero(t, TimeoutOptions{BuildMultiplier: 3}.BuildTimeout(nil))
}
