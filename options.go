package striped

import "go.uber.org/zap"

const (
	// DefaultBuckets is the initial bucket count when none is configured.
	DefaultBuckets = 16
	// DefaultStripes is the stripe (lock) count when none is configured.
	DefaultStripes = 4
	// DefaultMaxLoadFactor is the load factor above which the table grows.
	DefaultMaxLoadFactor = 1.0
)

// HashFunc hashes a key. It must be pure and safe for concurrent use.
// The seed is the per-container random seed and may be ignored.
type HashFunc[K comparable] func(key K, seed uintptr) uintptr

// EqualFunc reports whether two keys are equal. It must be pure, safe for
// concurrent use and consistent with the HashFunc it is paired with.
type EqualFunc[K comparable] func(a, b K) bool

// Config defines configurable Container options.
type Config struct {
	buckets       int
	stripes       int
	maxLoadFactor float64
	parallelBulk  int
	hasher        any
	equal         any
	allocator     any
	logger        *zap.Logger
}

// WithBuckets configures the initial number of buckets. The value is
// rounded up to a power of two no less than the stripe count and 2.
func WithBuckets(n int) func(*Config) {
	return func(c *Config) {
		c.buckets = n
	}
}

// WithStripes configures the number of stripes, i.e. independent locks.
// The value is rounded up to a power of two and is fixed for the
// container's lifetime.
func WithStripes(n int) func(*Config) {
	return func(c *Config) {
		c.stripes = n
	}
}

// WithMaxLoadFactor configures the load factor above which the table
// grows. It must be positive.
func WithMaxLoadFactor(f float64) func(*Config) {
	return func(c *Config) {
		c.maxLoadFactor = f
	}
}

// WithHasher configures the key hash and equality functions. A nil hash
// keeps the built-in hasher, a nil equal keeps ==.
func WithHasher[K comparable](hash HashFunc[K], equal EqualFunc[K]) func(*Config) {
	return func(c *Config) {
		if hash != nil {
			c.hasher = hash
		}
		if equal != nil {
			c.equal = equal
		}
	}
}

// WithAllocator configures the Allocator used for buckets and nodes.
func WithAllocator[K comparable, V any](a Allocator[K, V]) func(*Config) {
	return func(c *Config) {
		c.allocator = a
	}
}

// WithLogger configures the logger receiving rehash and bulk diagnostics.
// By default nothing is logged.
func WithLogger(l *zap.Logger) func(*Config) {
	return func(c *Config) {
		c.logger = l
	}
}

// WithParallelBulk lets bulk operations of at least minItems items apply
// distinct stripes from concurrent goroutines. Each goroutine still holds a
// single stripe lock at a time. Zero or negative disables it (the default).
func WithParallelBulk(minItems int) func(*Config) {
	return func(c *Config) {
		c.parallelBulk = minItems
	}
}

// Allocator specifies an interface for allocating and releasing the memory
// used by a Container. The default allocator uses make() and new() and lets
// the GC reclaim memory.
//
// Allocation failure is not recoverable: an Allocator must either return
// usable memory or terminate the program.
type Allocator[K comparable, V any] interface {
	// AllocBuckets should return a slice equivalent to make([]Bucket[K, V], n).
	AllocBuckets(n int) []Bucket[K, V]

	// FreeBuckets releases a bucket array that no longer holds any node.
	FreeBuckets(b []Bucket[K, V])

	// AllocNode should return a zeroed node, equivalent to new(Node[K, V]).
	AllocNode() *Node[K, V]

	// FreeNode releases a node that has been unlinked and zeroed.
	FreeNode(n *Node[K, V])
}

type defaultAllocator[K comparable, V any] struct{}

func (defaultAllocator[K, V]) AllocBuckets(n int) []Bucket[K, V] {
	return make([]Bucket[K, V], n)
}

func (defaultAllocator[K, V]) FreeBuckets([]Bucket[K, V]) {
}

func (defaultAllocator[K, V]) AllocNode() *Node[K, V] {
	return new(Node[K, V])
}

func (defaultAllocator[K, V]) FreeNode(*Node[K, V]) {
}
