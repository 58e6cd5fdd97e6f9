package domain

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	m "gooze.dev/pkg/mutants/internal/model"
)

// Shard selects one of Count disjoint slices of the catalog.
type Shard struct {
	Index int
	Count int
}

// ParseShard parses "k/n" with 0 <= k < n. The empty string selects everything.
func ParseShard(s string) (Shard, error) {
	if s == "" {
		return Shard{Index: 0, Count: 1}, nil
	}

	k, n, ok := strings.Cut(s, "/")
	if !ok {
		return Shard{}, usageErrorf("invalid shard %q: expected k/n", s)
	}

	index, err := strconv.Atoi(strings.TrimSpace(k))
	if err != nil {
		return Shard{}, usageErrorf("invalid shard index %q: %w", k, err)
	}

	count, err := strconv.Atoi(strings.TrimSpace(n))
	if err != nil {
		return Shard{}, usageErrorf("invalid shard count %q: %w", n, err)
	}

	if count <= 0 || index < 0 || index >= count {
		return Shard{}, usageErrorf("invalid shard %q: need 0 <= k < n", s)
	}

	return Shard{Index: index, Count: count}, nil
}

func (s Shard) String() string {
	return fmt.Sprintf("%d/%d", s.Index, s.Count)
}

// Select keeps the mutants at positions congruent to Index modulo Count.
func (s Shard) Select(mutants []m.Mutant) []m.Mutant {
	if s.Count <= 1 {
		return mutants
	}

	out := make([]m.Mutant, 0, len(mutants)/s.Count+1)

	for i, mutant := range mutants {
		if i%s.Count == s.Index {
			out = append(out, mutant)
		}
	}

	slog.Debug("Selected shard", "shard", s.String(), "total", len(mutants), "selected", len(out))

	return out
}
