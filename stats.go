package striped

import (
	"fmt"
	"iter"
	"math"
	"strings"
)

// Stats returns statistics for the Container. Just like other container
// methods, this one is thread-safe. Yet it's an O(N) operation,
// so it should be used only for diagnostics or debugging purposes.
//
// Stripes are read-locked one at a time, so under concurrent writes the
// figures of different stripes may stem from different moments.
func (c *Container[K, V]) Stats() *MapStats {
	stats := &MapStats{
		Stripes:       len(c.locks),
		StripeSizes:   make([]int, len(c.locks)),
		Counter:       c.Size(),
		MaxLoadFactor: c.MaxLoadFactor(),
		TotalGrowths:  c.growths.Load(),
		RehashEnabled: c.IsRehashEnabled(),
		MinEntries:    math.MaxInt,
	}
	step := len(c.locks)
	for i := range c.locks {
		l := &c.locks[i]
		l.RLock()
		stats.Buckets = len(c.buckets)
		for j := i; j < len(c.buckets); j += step {
			n := c.buckets[j].Len()
			stats.StripeSizes[i] += n
			if n == 0 {
				stats.EmptyBuckets++
			}
			stats.MinEntries = min(stats.MinEntries, n)
			stats.MaxEntries = max(stats.MaxEntries, n)
		}
		l.RUnlock()
		stats.Size += stats.StripeSizes[i]
	}
	if stats.Buckets > 0 {
		stats.LoadFactor = float64(stats.Size) / float64(stats.Buckets)
	}
	return stats
}

// MapStats is Container statistics.
//
// Warning: statistics are intented to be used for diagnostic
// purposes, not for production code. This means that breaking changes
// may be introduced into this struct even between minor releases.
type MapStats struct {
	// Buckets is the number of buckets in the hash table.
	Buckets int
	// EmptyBuckets is the number of buckets that hold no entries.
	EmptyBuckets int
	// Stripes is the number of stripe locks.
	Stripes int
	// StripeSizes holds the number of entries guarded by each stripe.
	StripeSizes []int
	// Size is the exact number of entries found in the buckets.
	Size int
	// Counter is the number of entries according to the internal atomic
	// counter. In case of concurrent modifications this number may be
	// different from Size.
	Counter int
	// MinEntries is the minimum number of entries in a bucket.
	MinEntries int
	// MaxEntries is the maximum number of entries in a bucket.
	MaxEntries int
	// LoadFactor is Size / Buckets.
	LoadFactor float64
	// MaxLoadFactor is the configured growth threshold.
	MaxLoadFactor float64
	// TotalGrowths is the number of times the hash table grew.
	TotalGrowths uint32
	// RehashEnabled reports whether rehash was enabled.
	RehashEnabled bool
}

// ToString returns string representation of map stats.
func (s *MapStats) ToString() string {
	var sb strings.Builder
	sb.WriteString("MapStats{\n")
	sb.WriteString(fmt.Sprintf("Buckets:       %d\n", s.Buckets))
	sb.WriteString(fmt.Sprintf("EmptyBuckets:  %d\n", s.EmptyBuckets))
	sb.WriteString(fmt.Sprintf("Stripes:       %d\n", s.Stripes))
	sb.WriteString(fmt.Sprintf("StripeSizes:   %v\n", s.StripeSizes))
	sb.WriteString(fmt.Sprintf("Size:          %d\n", s.Size))
	sb.WriteString(fmt.Sprintf("Counter:       %d\n", s.Counter))
	sb.WriteString(fmt.Sprintf("MinEntries:    %d\n", s.MinEntries))
	sb.WriteString(fmt.Sprintf("MaxEntries:    %d\n", s.MaxEntries))
	sb.WriteString(fmt.Sprintf("LoadFactor:    %.3f\n", s.LoadFactor))
	sb.WriteString(fmt.Sprintf("MaxLoadFactor: %.3f\n", s.MaxLoadFactor))
	sb.WriteString(fmt.Sprintf("TotalGrowths:  %d\n", s.TotalGrowths))
	sb.WriteString(fmt.Sprintf("RehashEnabled: %t\n", s.RehashEnabled))
	sb.WriteString("}\n")
	return sb.String()
}

// All returns an iterator over every element. Each stripe is copied under
// its read lock and yielded after the lock is released, so the loop body
// may call back into the container. Elements changed after their stripe
// was copied are not reflected.
func (c *Container[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		var snapshot []Entry[K, V]
		for i := range c.locks {
			snapshot = c.appendStripe(snapshot[:0], i)
			for _, e := range snapshot {
				if !yield(e.Key, e.Value) {
					return
				}
			}
		}
	}
}

// Keys is the iterator version for iterating over all keys.
func (c *Container[K, V]) Keys() iter.Seq[K] {
	return func(yield func(K) bool) {
		for k := range c.All() {
			if !yield(k) {
				return
			}
		}
	}
}

// Values is the iterator version for iterating over all values.
func (c *Container[K, V]) Values() iter.Seq[V] {
	return func(yield func(V) bool) {
		for _, v := range c.All() {
			if !yield(v) {
				return
			}
		}
	}
}

func (c *Container[K, V]) appendStripe(dst []Entry[K, V], stripe int) []Entry[K, V] {
	l := &c.locks[stripe]
	l.RLock()
	defer l.RUnlock()
	step := len(c.locks)
	for j := stripe; j < len(c.buckets); j += step {
		for n := c.buckets[j].head; n != nil; n = n.next {
			dst = append(dst, Entry[K, V]{Key: n.key, Value: n.value})
		}
	}
	return dst
}
