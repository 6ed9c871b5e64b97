package striped

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestScheduleOrdersByStripeThenHash(t *testing.T) {
	c := NewWithHasher[int, int](identityHash, nil, WithBuckets(16), WithStripes(4))
	keys := []int{13, 4, 1, 8, 6, 4, 2, 5, 0}
	items, groups := c.schedule(len(keys), func(i int) int { return keys[i] })

	require.Len(t, items, len(keys))
	for i := 1; i < len(items); i++ {
		a, b := items[i-1], items[i]
		require.LessOrEqual(t, uint64(a.stripe), uint64(b.stripe))
		if a.stripe == b.stripe {
			require.LessOrEqual(t, uint64(a.hash), uint64(b.hash))
			if a.hash == b.hash {
				require.Less(t, a.idx, b.idx, "duplicates keep caller order")
			}
		}
	}

	// stripes: 0 -> {0,4,4,8}, 1 -> {1,5,13}, 2 -> {2,6}
	require.Equal(t, []stripeGroup{
		{stripe: 0, start: 0, end: 4},
		{stripe: 1, start: 4, end: 7},
		{stripe: 2, start: 7, end: 9},
	}, groups)
	require.Equal(t, []int{8, 1, 5, 3}, []int{items[0].idx, items[1].idx, items[2].idx, items[3].idx})
}

func TestInsertBulkMatchesSingleInserts(t *testing.T) {
	entries := make([]Entry[int, int], 0, 500)
	for i := 0; i < 500; i++ {
		entries = append(entries, Entry[int, int]{Key: i % 300, Value: i})
	}

	for _, m := range []Multiplicity{InsertUnique, InsertAlways} {
		bulk := New[int, int]()
		single := New[int, int]()
		added := bulk.InsertBulk(entries, m)
		want := 0
		for _, e := range entries {
			want += single.Insert(e.Key, e.Value, m)
		}
		require.Equal(t, want, added)
		require.Equal(t, single.Size(), bulk.Size())
		for k := 0; k < 300; k++ {
			require.ElementsMatch(t, single.GetValues(k), bulk.GetValues(k), "key %d", k)
		}
		requireConsistent(t, bulk)
	}
}

func TestInsertBulkUniqueLastValueWins(t *testing.T) {
	c := New[string, int]()
	n := c.InsertBulkUnique([]Entry[string, int]{
		{Key: "a", Value: 1},
		{Key: "b", Value: 2},
		{Key: "a", Value: 3},
		{Key: "a", Value: 4},
	})
	require.Equal(t, 2, n)
	require.Equal(t, []int{4}, c.GetValues("a"))
	require.Equal(t, []int{2}, c.GetValues("b"))

	require.Zero(t, c.InsertBulkUnique([]Entry[string, int]{{Key: "b", Value: 5}}))
	require.Equal(t, []int{5}, c.GetValues("b"))
	require.Zero(t, c.InsertBulkUnique(nil))
}

func TestInsertBulkGrowsOnce(t *testing.T) {
	c := New[int, int]()
	entries := make([]Entry[int, int], 1000)
	for i := range entries {
		entries[i] = Entry[int, int]{Key: i, Value: i}
	}
	require.Equal(t, 1000, c.InsertBulkAlways(entries))
	require.Equal(t, uint32(1), c.growths.Load())
	require.Equal(t, 1024, c.BucketCount())
	requireConsistent(t, c)
}

func TestEraseBulkScopes(t *testing.T) {
	c := New[int, int]()
	for i := 0; i < 10; i++ {
		for j := 0; j < 3; j++ {
			c.InsertAlways(i, j)
		}
	}

	require.Equal(t, 4, c.EraseBulkFirst([]int{0, 1, 1, 42, 2}))
	require.Len(t, c.GetValues(0), 2)
	require.Len(t, c.GetValues(1), 1)
	require.Len(t, c.GetValues(2), 2)
	require.Equal(t, 26, c.Size())

	require.Equal(t, 5, c.EraseBulkAll([]int{0, 1, 2, 1, 42}))
	require.False(t, c.HasKey(0))
	require.False(t, c.HasKey(1))
	require.False(t, c.HasKey(2))
	require.Equal(t, 21, c.Size())
	require.Zero(t, c.EraseBulk(nil, ScopeAll))
	requireConsistent(t, c)
}

func TestParallelBulkMatchesSerial(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	parallel := New[int, int](
		WithStripes(16),
		WithParallelBulk(64),
		WithLogger(zap.New(core)),
	)
	serial := New[int, int](WithStripes(16))

	entries := make([]Entry[int, int], 0, 4096)
	for i := 0; i < 4096; i++ {
		entries = append(entries, Entry[int, int]{Key: i % 3000, Value: i})
	}
	require.Equal(t, serial.InsertBulkUnique(entries), parallel.InsertBulkUnique(entries))
	require.Equal(t, serial.Size(), parallel.Size())
	for k := 0; k < 3000; k++ {
		want, _ := serial.GetValue(k)
		got, ok := parallel.GetValue(k)
		require.True(t, ok)
		require.Equal(t, want, got)
	}
	require.GreaterOrEqual(t, logs.FilterMessage("parallel bulk").Len(), 1)

	keys := make([]int, 0, 2000)
	for k := 0; k < 2000; k++ {
		keys = append(keys, k)
	}
	require.Equal(t, serial.EraseBulkAll(keys), parallel.EraseBulkAll(keys))
	require.Equal(t, 1000, parallel.Size())
	requireConsistent(t, parallel)
}

func TestParallelBulkBelowThresholdIsSerial(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	c := New[int, int](WithParallelBulk(100), WithLogger(zap.New(core)))
	entries := []Entry[int, int]{{Key: 1, Value: 1}, {Key: 2, Value: 2}}
	require.Equal(t, 2, c.InsertBulkAlways(entries))
	require.Zero(t, logs.FilterMessage("parallel bulk").Len())
}
