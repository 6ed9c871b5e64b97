package striped

import "iter"

// shared carries the query, rehash-control and traversal surface common to
// Map and MultiMap.
type shared[K comparable, V any] struct {
	c *Container[K, V]
}

// Container returns the underlying container.
func (s shared[K, V]) Container() *Container[K, V] { return s.c }

// Size returns the number of elements.
func (s shared[K, V]) Size() int { return s.c.Size() }

// Empty reports whether there is no element.
func (s shared[K, V]) Empty() bool { return s.c.Empty() }

// HasKey reports whether an element with key exists.
func (s shared[K, V]) HasKey(key K) bool { return s.c.HasKey(key) }

// BucketCount returns the current number of buckets.
func (s shared[K, V]) BucketCount() int { return s.c.BucketCount() }

// BucketIndex returns the index of the bucket key currently maps to.
func (s shared[K, V]) BucketIndex(key K) int { return s.c.BucketIndex(key) }

// BucketSize returns the number of elements in bucket index.
func (s shared[K, V]) BucketSize(index int) int { return s.c.BucketSize(index) }

// LoadFactor returns Size() / BucketCount().
func (s shared[K, V]) LoadFactor() float64 { return s.c.LoadFactor() }

// MaxLoadFactor returns the load factor above which the table grows.
func (s shared[K, V]) MaxLoadFactor() float64 { return s.c.MaxLoadFactor() }

// SetMaxLoadFactor changes the growth threshold, growing right away if needed.
func (s shared[K, V]) SetMaxLoadFactor(f float64) { s.c.SetMaxLoadFactor(f) }

// NumStripes returns the number of stripes.
func (s shared[K, V]) NumStripes() int { return s.c.NumStripes() }

// IsRehashEnabled reports whether rehash is allowed.
func (s shared[K, V]) IsRehashEnabled() bool { return s.c.IsRehashEnabled() }

// CanRehash reports whether rehash is enabled and none is in progress.
func (s shared[K, V]) CanRehash() bool { return s.c.CanRehash() }

// EnableRehash re-allows rehash.
func (s shared[K, V]) EnableRehash() { s.c.EnableRehash() }

// DisableRehash suppresses rehash.
func (s shared[K, V]) DisableRehash() { s.c.DisableRehash() }

// Rehash grows the table to at least numBuckets buckets.
func (s shared[K, V]) Rehash(numBuckets int) { s.c.Rehash(numBuckets) }

// Clear removes every element.
func (s shared[K, V]) Clear() { s.c.Clear() }

// Visit calls visitor on every element, one stripe at a time.
// The visitor must not call back into the map.
func (s shared[K, V]) Visit(visitor VisitorFunc[K, V]) int { return s.c.Visit(visitor) }

// All returns an iterator over every element.
func (s shared[K, V]) All() iter.Seq2[K, V] { return s.c.All() }

// Keys returns an iterator over every key.
func (s shared[K, V]) Keys() iter.Seq[K] { return s.c.Keys() }

// Values returns an iterator over every value.
func (s shared[K, V]) Values() iter.Seq[V] { return s.c.Values() }

// HashFunction returns the key hash function.
func (s shared[K, V]) HashFunction() HashFunc[K] { return s.c.HashFunction() }

// EqualFunction returns the key equality function.
func (s shared[K, V]) EqualFunction() EqualFunc[K] { return s.c.EqualFunction() }

// Allocator returns the allocator backing buckets and nodes.
func (s shared[K, V]) Allocator() Allocator[K, V] { return s.c.Allocator() }

// Stats returns diagnostic statistics.
func (s shared[K, V]) Stats() *MapStats { return s.c.Stats() }
