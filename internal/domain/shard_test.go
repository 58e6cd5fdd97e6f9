package domain

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	m "gooze.dev/pkg/mutants/internal/model"
)

func numberedMutants(n int) []m.Mutant {
	mutants := make([]m.Mutant, n)
	for i := range mutants {
		mutants[i] = m.Mutant{File: m.Path(fmt.Sprintf("f%02d.go", i)), Span: m.Span{Start: m.LineColumn{Line: 1, Column: 1}}}
	}

	return mutants
}

func TestParseShard(t *testing.T) {
	shard, err := ParseShard("")
	require.NoError(t, err)
	assert.Equal(t, Shard{Index: 0, Count: 1}, shard)

	shard, err = ParseShard("2/5")
	require.NoError(t, err)
	assert.Equal(t, Shard{Index: 2, Count: 5}, shard)
	assert.Equal(t, "2/5", shard.String())

	for _, bad := range []string{"5/5", "-1/3", "1/0", "a/3", "1", "1/b"} {
		t.Run(bad, func(t *testing.T) {
			_, err := ParseShard(bad)

			var usage *UsageError
			require.ErrorAs(t, err, &usage)
		})
	}
}

func TestShard_SelectPartitions(t *testing.T) {
	mutants := numberedMutants(17)

	for n := 1; n <= 7; n++ {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			seen := make(map[string]int)
			total := 0

			for k := range n {
				selected := Shard{Index: k, Count: n}.Select(mutants)
				total += len(selected)

				for _, mutant := range selected {
					seen[mutant.Name()]++
				}
			}

			assert.Equal(t, len(mutants), total)
			assert.Len(t, seen, len(mutants))

			for name, count := range seen {
				assert.Equal(t, 1, count, name)
			}
		})
	}
}

func TestShard_SelectKeepsOrder(t *testing.T) {
	mutants := numberedMutants(7)

	selected := Shard{Index: 1, Count: 3}.Select(mutants)
	assert.Equal(t, []string{mutants[1].Name(), mutants[4].Name()}, mutantNames(selected))
}
