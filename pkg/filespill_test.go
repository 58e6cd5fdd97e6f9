package pkg

import (
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestSpill[T any](tb testing.TB) FileSpill[T] {
	tb.Helper()

	spill, err := NewFileSpill[T](filepath.Join(tb.TempDir(), "spill.gob"))
	require.NoError(tb, err)

	return spill
}

func collect[T any](t *testing.T, spill FileSpill[T]) []T {
	t.Helper()

	var items []T

	err := spill.Range(func(_ uint64, item T) error {
		items = append(items, item)
		return nil
	})
	require.NoError(t, err)

	return items
}

func TestFileSpill(t *testing.T) {
	t.Run("NewFileSpill creates the file at path", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "outcomes.journal")

		spill, err := NewFileSpill[int](path)
		require.NoError(t, err)
		defer spill.Close()

		require.Equal(t, path, spill.Path())
		require.FileExists(t, path)
	})

	t.Run("NewFileSpill truncates an existing journal", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "spill.gob")

		first, err := NewFileSpill[string](path)
		require.NoError(t, err)
		require.NoError(t, first.Append("stale"))
		require.NoError(t, first.Close())

		second, err := NewFileSpill[string](path)
		require.NoError(t, err)
		defer second.Close()

		require.Equal(t, uint64(0), second.Len())
		require.Empty(t, collect(t, second))
	})

	t.Run("Len returns correct count", func(t *testing.T) {
		spill := newTestSpill[int](t)
		defer spill.Close()

		require.Equal(t, uint64(0), spill.Len())

		require.NoError(t, spill.Append(1))
		require.Equal(t, uint64(1), spill.Len())

		require.NoError(t, spill.Append(2))
		require.NoError(t, spill.Append(3))
		require.Equal(t, uint64(3), spill.Len())
	})

	t.Run("Range iterates all items in order", func(t *testing.T) {
		spill := newTestSpill[int](t)
		defer spill.Close()

		expected := []int{100, 200, 300}
		for _, v := range expected {
			require.NoError(t, spill.Append(v))
		}

		require.Equal(t, expected, collect(t, spill))
	})

	t.Run("Range callback error stops iteration", func(t *testing.T) {
		spill := newTestSpill[int](t)
		defer spill.Close()

		for _, v := range []int{1, 2, 3} {
			require.NoError(t, spill.Append(v))
		}

		count := 0
		rangeErr := spill.Range(func(index uint64, _ int) error {
			count++
			if index == 1 {
				return errors.New("stop at index 1")
			}

			return nil
		})

		require.Error(t, rangeErr)
		require.Equal(t, 2, count)
	})

	t.Run("Close keeps data readable and rejects appends", func(t *testing.T) {
		spill := newTestSpill[int](t)

		require.NoError(t, spill.Append(1))
		require.NoError(t, spill.Close())
		require.NoError(t, spill.Close())

		require.Equal(t, []int{1}, collect(t, spill))
		require.Error(t, spill.Append(2))
	})

	t.Run("zero valued fields do not inherit from previous items", func(t *testing.T) {
		type record struct {
			Name string
			Diff string
			Tags []string
		}

		spill := newTestSpill[record](t)
		defer spill.Close()

		require.NoError(t, spill.Append(record{Name: "a", Diff: "d", Tags: []string{"x"}}))
		require.NoError(t, spill.Append(record{Name: "b"}))

		got := collect(t, spill)
		require.Len(t, got, 2)
		require.Equal(t, record{Name: "b"}, got[1])
	})

	t.Run("Generic types work with different types", func(t *testing.T) {
		spillFloat := newTestSpill[float64](t)
		defer spillFloat.Close()

		require.NoError(t, spillFloat.Append(3.14))
		require.NoError(t, spillFloat.Append(math.MaxFloat64))

		floats := collect(t, spillFloat)
		require.InDelta(t, 3.14, floats[0], 0.001)
		require.Equal(t, math.MaxFloat64, floats[1])

		type Point struct {
			X, Y int
		}

		type Node struct {
			Value int
			Next  *Node
		}

		spillPoint := newTestSpill[Point](t)
		defer spillPoint.Close()

		require.NoError(t, spillPoint.Append(Point{X: 10, Y: 20}))
		require.Equal(t, []Point{{X: 10, Y: 20}}, collect(t, spillPoint))

		spillNode := newTestSpill[Node](t)
		defer spillNode.Close()

		require.NoError(t, spillNode.Append(Node{Value: 1, Next: &Node{Value: 2}}))

		nodes := collect(t, spillNode)
		require.Equal(t, 2, nodes[0].Next.Value)
	})
}

func TestEdgeCases(t *testing.T) {
	t.Run("empty filespill range returns no items", func(t *testing.T) {
		spill := newTestSpill[int](t)
		defer spill.Close()

		require.Empty(t, collect(t, spill))
	})

	t.Run("append empty string", func(t *testing.T) {
		spill := newTestSpill[string](t)
		defer spill.Close()

		require.NoError(t, spill.Append(""))
		require.Equal(t, []string{""}, collect(t, spill))
	})

	t.Run("append negative and large numbers", func(t *testing.T) {
		spill := newTestSpill[int64](t)
		defer spill.Close()

		require.NoError(t, spill.Append(-999999))
		require.NoError(t, spill.Append(math.MaxInt64))
		require.Equal(t, []int64{-999999, math.MaxInt64}, collect(t, spill))
	})

	t.Run("range after many appends", func(t *testing.T) {
		spill := newTestSpill[int](t)
		defer spill.Close()

		for i := range 500 {
			require.NoError(t, spill.Append(i))
		}

		items := collect(t, spill)
		require.Len(t, items, 500)
		require.Equal(t, 499, items[499])
	})
}

// BenchmarkAppend measures the performance of appending items.
func BenchmarkAppend(b *testing.B) {
	spill := newTestSpill[int](b)
	defer spill.Close()

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_ = spill.Append(i)
	}
}

// BenchmarkRange measures iterating a pre-populated spill.
func BenchmarkRange(b *testing.B) {
	spill := newTestSpill[int](b)
	defer spill.Close()

	for i := 0; i < 1000; i++ {
		_ = spill.Append(i)
	}

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_ = spill.Range(func(_ uint64, _ int) error { return nil })
	}
}

// FuzzStringAppend fuzzes string append operations.
func FuzzStringAppend(f *testing.F) {
	f.Add("")
	f.Add("hello")
	f.Add("x")

	f.Fuzz(func(t *testing.T, data string) {
		spill, err := NewFileSpill[string](filepath.Join(t.TempDir(), "spill.gob"))
		if err != nil {
			t.Skipf("setup failed: %v", err)
		}
		defer spill.Close()

		if err := spill.Append(data); err != nil {
			t.Fatalf("append failed: %v", err)
		}

		got := collect(t, spill)
		if len(got) != 1 || got[0] != data {
			t.Fatalf("value mismatch: expected %q, got %q", data, got)
		}
	})
}
