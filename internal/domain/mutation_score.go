package domain

import (
	m "gooze.dev/pkg/mutants/internal/model"
	pkg "gooze.dev/pkg/mutants/pkg"
)

// mutationScoreFromJournal is the percentage of tested mutants the tests
// caught. Unviable and timed out mutants are excluded from the denominator.
func mutationScoreFromJournal(journal pkg.FileSpill[m.MutantOutcome]) (float64, error) {
	caught := 0
	total := 0

	err := journal.Range(func(_ uint64, outcome m.MutantOutcome) error {
		if outcome.Scenario.Baseline {
			return nil
		}

		switch outcome.Summary {
		case m.Caught:
			caught++
			total++
		case m.Missed:
			total++
		case m.Unviable, m.Timeout, m.Success, m.Failure:
			// Not a verdict on the tests.
		}

		return nil
	})
	if err != nil {
		return 0.0, err
	}

	if total == 0 {
		return 100.0, nil
	}

	return 100 * float64(caught) / float64(total), nil
}
