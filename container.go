package striped

import (
	"math"
	"math/rand/v2"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sys/cpu"
)

// Multiplicity selects insert-or-update semantics (map-like) versus
// always-append semantics (multimap-like).
type Multiplicity int

const (
	// InsertUnique overwrites the value of an existing equal key, if any.
	InsertUnique Multiplicity = iota
	// InsertAlways appends a new element even if equal keys exist.
	InsertAlways
)

// Scope selects whether an operation affects only the first element with a
// matching key or every one of them. Which duplicate is "first" is
// unspecified and may change between calls.
type Scope int

const (
	// ScopeFirst affects only the first element with a matching key.
	ScopeFirst Scope = iota
	// ScopeAll affects every element with a matching key.
	ScopeAll
)

// VisitorFunc is invoked with a pointer to an element's value and its key
// while the element's stripe is write-locked. It may modify *value in
// place and returns false to stop the traversal.
//
// A VisitorFunc must not call any method of the container it is visiting:
// stripe locks are not reentrant and doing so deadlocks.
type VisitorFunc[K comparable, V any] func(value *V, key K) bool

// Entry is a key-value pair used by bulk operations.
type Entry[K comparable, V any] struct {
	Key   K
	Value V
}

// Container is a hash table split into a fixed number of stripes, each
// guarded by its own reader-writer lock. Operations on keys that fall in
// different stripes run in parallel; operations on the same stripe are
// serialized. The table grows online when the load factor exceeds the
// configured maximum, and never shrinks.
//
// Container holds both unique and duplicate keys; Map and MultiMap wrap it
// with the corresponding semantics.
//
// Bucket i belongs to stripe i & (NumStripes()-1). Since both counts are
// powers of two and the stripe count never changes, a key stays in the
// same stripe across rehashes.
//
// A Container must be created with New or NewWithHasher; the zero value
// is not usable. It must not be copied after first use.
type Container[K comparable, V any] struct {
	_ noCopy

	locks      []stripeLock
	buckets    []Bucket[K, V] // replaced only while every stripe is write-locked
	stripeMask uintptr
	seed       uintptr
	hash       HashFunc[K]
	equal      EqualFunc[K]
	allocator  Allocator[K, V]
	logger     *zap.Logger
	bulkMin    int

	_          cpu.CacheLinePad
	numBuckets atomic.Uintptr // mirrors len(buckets) for lock-free readers
	maxLoad    atomic.Uint64  // math.Float64bits of the max load factor
	state      atomicRehashState
	growths    atomic.Uint32

	_    cpu.CacheLinePad
	size atomic.Int64
	_    cpu.CacheLinePad
}

// New creates a Container.
//
// Parameters:
//   - WithBuckets, WithStripes: initial bucket count and stripe count
//     (defaults DefaultBuckets and DefaultStripes)
//   - WithMaxLoadFactor: growth threshold (default DefaultMaxLoadFactor)
//   - WithHasher, WithAllocator, WithLogger, WithParallelBulk
func New[K comparable, V any](options ...func(*Config)) *Container[K, V] {
	c := &Container[K, V]{}
	c.init(options...)
	return c
}

// NewWithHasher creates a Container with custom hash and equality functions.
// A nil hash or equal keeps the built-in one.
func NewWithHasher[K comparable, V any](
	hash HashFunc[K],
	equal EqualFunc[K],
	options ...func(*Config),
) *Container[K, V] {
	return New[K, V](append(options[:len(options):len(options)], WithHasher(hash, equal))...)
}

func (c *Container[K, V]) init(options ...func(*Config)) {
	cfg := &Config{
		buckets:       DefaultBuckets,
		stripes:       DefaultStripes,
		maxLoadFactor: DefaultMaxLoadFactor,
	}
	for _, o := range options {
		o(cfg)
	}
	if !(cfg.maxLoadFactor > 0) {
		panic("striped: max load factor must be positive")
	}
	if cfg.buckets <= 0 {
		cfg.buckets = DefaultBuckets
	}
	if cfg.stripes <= 0 {
		cfg.stripes = DefaultStripes
	}

	stripes := nextPowOf2(max(cfg.stripes, 2))
	numBuckets := adjustBuckets(cfg.buckets, stripes)

	c.hash = defaultHasher[K]()
	if cfg.hasher != nil {
		h, ok := cfg.hasher.(HashFunc[K])
		if !ok {
			panic("striped: WithHasher key type does not match the container")
		}
		c.hash = h
	}
	c.equal = defaultEqual[K]
	if cfg.equal != nil {
		eq, ok := cfg.equal.(EqualFunc[K])
		if !ok {
			panic("striped: WithHasher key type does not match the container")
		}
		c.equal = eq
	}
	c.allocator = defaultAllocator[K, V]{}
	if cfg.allocator != nil {
		a, ok := cfg.allocator.(Allocator[K, V])
		if !ok {
			panic("striped: WithAllocator types do not match the container")
		}
		c.allocator = a
	}
	c.logger = cfg.logger
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	c.bulkMin = cfg.parallelBulk

	c.seed = uintptr(rand.Uint64())
	c.stripeMask = uintptr(stripes - 1)
	c.locks = newStripeLocks(stripes)
	c.buckets = c.allocator.AllocBuckets(numBuckets)
	c.numBuckets.Store(uintptr(numBuckets))
	c.maxLoad.Store(math.Float64bits(cfg.maxLoadFactor))
	c.state.init(rehashEnabled)
}

func (c *Container[K, V]) hashKey(key K) uintptr {
	return c.hash(key, c.seed)
}

func (c *Container[K, V]) bucketToStripe(bucketIdx uintptr) uintptr {
	return bucketIdx & c.stripeMask
}

// lockWrite write-locks the stripe owning hash and returns the lock and the
// bucket, with the bucket index recomputed against the post-lock table.
func (c *Container[K, V]) lockWrite(hash uintptr) (*stripeLock, *Bucket[K, V]) {
	for {
		stripe := c.bucketToStripe(hash & (c.numBuckets.Load() - 1))
		l := &c.locks[stripe]
		l.Lock()
		bidx := hash & uintptr(len(c.buckets)-1)
		if c.bucketToStripe(bidx) == stripe {
			return l, &c.buckets[bidx]
		}
		l.Unlock()
	}
}

// lockRead is lockWrite with the stripe held in shared mode.
func (c *Container[K, V]) lockRead(hash uintptr) (*stripeLock, *Bucket[K, V]) {
	for {
		stripe := c.bucketToStripe(hash & (c.numBuckets.Load() - 1))
		l := &c.locks[stripe]
		l.RLock()
		bidx := hash & uintptr(len(c.buckets)-1)
		if c.bucketToStripe(bidx) == stripe {
			return l, &c.buckets[bidx]
		}
		l.RUnlock()
	}
}

// Insert adds (key, value) according to m and returns the number of
// elements added: with InsertUnique an existing equal key has its value
// overwritten and 0 is returned.
func (c *Container[K, V]) Insert(key K, value V, m Multiplicity) int {
	hash := c.hashKey(key)
	l, b := c.lockWrite(hash)
	if m == InsertAlways {
		b.addNode(newNode(c.allocator, hash, key, value))
	} else if b.setValue(c.allocator, c.equal, hash, key, value, false) != 0 {
		l.Unlock()
		return 0
	}
	l.Unlock()
	c.size.Add(1)
	c.checkRehash()
	return 1
}

// InsertUnique inserts (key, value), or overwrites the value of the first
// element with an equal key. Returns 1 if inserted, 0 if updated.
func (c *Container[K, V]) InsertUnique(key K, value V) int {
	return c.Insert(key, value, InsertUnique)
}

// InsertAlways appends (key, value) regardless of existing equal keys.
func (c *Container[K, V]) InsertAlways(key K, value V) {
	c.Insert(key, value, InsertAlways)
}

// Erase removes the first (or every) element with key and returns the
// number removed.
func (c *Container[K, V]) Erase(key K, scope Scope) int {
	hash := c.hashKey(key)
	l, b := c.lockWrite(hash)
	n := b.erase(c.allocator, c.equal, hash, key, scope == ScopeAll)
	l.Unlock()
	if n > 0 {
		c.size.Add(-int64(n))
	}
	return n
}

// EraseFirst removes the first element with key, returning 1 or 0.
func (c *Container[K, V]) EraseFirst(key K) int {
	return c.Erase(key, ScopeFirst)
}

// EraseAll removes every element with key and returns how many there were.
func (c *Container[K, V]) EraseAll(key K) int {
	return c.Erase(key, ScopeAll)
}

// GetValue returns the value of the first element with key.
func (c *Container[K, V]) GetValue(key K) (value V, ok bool) {
	hash := c.hashKey(key)
	l, b := c.lockRead(hash)
	if n := b.find(c.equal, hash, key); n != nil {
		value, ok = n.value, true
	}
	l.RUnlock()
	return
}

// GetValues returns the values of every element with key, in no
// particular order. The result is nil if there is none.
func (c *Container[K, V]) GetValues(key K) []V {
	hash := c.hashKey(key)
	l, b := c.lockRead(hash)
	var values []V
	for n := b.head; n != nil; n = n.next {
		if n.hash == hash && c.equal(n.key, key) {
			values = append(values, n.value)
		}
	}
	l.RUnlock()
	return values
}

// HasKey reports whether an element with key exists.
func (c *Container[K, V]) HasKey(key K) bool {
	_, ok := c.GetValue(key)
	return ok
}

// SetValue assigns value to the first (or every) element with key. If
// there is none, (key, value) is inserted. Returns the number of existing
// elements found, so 0 means an insertion took place.
func (c *Container[K, V]) SetValue(key K, value V, scope Scope) int {
	hash := c.hashKey(key)
	l, b := c.lockWrite(hash)
	n := b.setValue(c.allocator, c.equal, hash, key, value, scope == ScopeAll)
	l.Unlock()
	if n == 0 {
		c.size.Add(1)
		c.checkRehash()
	}
	return n
}

// SetValueFirst is SetValue with ScopeFirst.
func (c *Container[K, V]) SetValueFirst(key K, value V) int {
	return c.SetValue(key, value, ScopeFirst)
}

// SetValueAll is SetValue with ScopeAll.
func (c *Container[K, V]) SetValueAll(key K, value V) int {
	return c.SetValue(key, value, ScopeAll)
}

// SetComputedValue invokes visitor on the first (or every) element with
// key while its stripe is write-locked. If there is none, an element with
// the zero value is inserted and visited, and 0 is returned (the visitor's
// result is ignored in that case). Otherwise it returns the number of
// elements visited, negated if the visitor stopped the traversal.
//
// The visitor must not call back into the container.
func (c *Container[K, V]) SetComputedValue(key K, visitor VisitorFunc[K, V], scope Scope) int {
	if visitor == nil {
		panic("striped: nil visitor")
	}
	n, inserted := c.setComputedValue(key, visitor, scope == ScopeAll)
	if inserted {
		c.size.Add(1)
		c.checkRehash()
	}
	return n
}

func (c *Container[K, V]) setComputedValue(
	key K,
	visitor VisitorFunc[K, V],
	all bool,
) (count int, inserted bool) {
	hash := c.hashKey(key)
	l, b := c.lockWrite(hash)
	defer l.Unlock()

	for n := b.head; n != nil; n = n.next {
		if n.hash != hash || !c.equal(n.key, key) {
			continue
		}
		count++
		if !visitor(&n.value, key) {
			return -count, false
		}
		if !all {
			return count, false
		}
	}
	if count > 0 {
		return count, false
	}

	var zero V
	n := newNode(c.allocator, hash, key, zero)
	visitor(&n.value, key)
	b.addNode(n)
	return 0, true
}

// SetComputedValueFirst is SetComputedValue with ScopeFirst.
func (c *Container[K, V]) SetComputedValueFirst(key K, visitor VisitorFunc[K, V]) int {
	return c.SetComputedValue(key, visitor, ScopeFirst)
}

// SetComputedValueAll is SetComputedValue with ScopeAll.
func (c *Container[K, V]) SetComputedValueAll(key K, visitor VisitorFunc[K, V]) int {
	return c.SetComputedValue(key, visitor, ScopeAll)
}

// Update invokes visitor on every element with key while its stripe is
// write-locked, and never inserts. Returns the number of elements visited,
// negated if the visitor stopped the traversal.
//
// The visitor must not call back into the container.
func (c *Container[K, V]) Update(key K, visitor VisitorFunc[K, V]) int {
	if visitor == nil {
		panic("striped: nil visitor")
	}
	hash := c.hashKey(key)
	l, b := c.lockWrite(hash)
	defer l.Unlock()

	count := 0
	for n := b.head; n != nil; n = n.next {
		if n.hash != hash || !c.equal(n.key, key) {
			continue
		}
		count++
		if !visitor(&n.value, key) {
			return -count
		}
	}
	return count
}

// Visit calls visitor on every element, one stripe at a time under that
// stripe's write lock. Elements inserted during the visit may or may not
// be seen; elements removed before being reached are skipped. Returns the
// number of elements visited, negated if the visitor stopped the traversal.
//
// The visitor must not call back into the container.
func (c *Container[K, V]) Visit(visitor VisitorFunc[K, V]) int {
	if visitor == nil {
		panic("striped: nil visitor")
	}
	count := 0
	for i := range c.locks {
		n, stopped := c.visitStripe(i, visitor)
		count += n
		if stopped {
			return -count
		}
	}
	return count
}

func (c *Container[K, V]) visitStripe(stripe int, visitor VisitorFunc[K, V]) (count int, stopped bool) {
	l := &c.locks[stripe]
	l.Lock()
	defer l.Unlock()

	step := len(c.locks)
	for j := stripe; j < len(c.buckets); j += step {
		for n := c.buckets[j].head; n != nil; n = n.next {
			count++
			if !visitor(&n.value, n.key) {
				return count, true
			}
		}
	}
	return count, false
}

// Clear removes every element. It blocks until an in-flight rehash has
// completed. The bucket count is left unchanged.
func (c *Container[K, V]) Clear() {
	removed := 0
	lockAll(c.locks)
	for i := range c.buckets {
		removed += c.buckets[i].Len()
		c.buckets[i].clear(c.allocator)
	}
	unlockAll(c.locks)
	// Writers account for their nodes after unlocking, so subtract what was
	// unlinked rather than resetting the counter.
	c.size.Add(-int64(removed))
}

// Size returns the number of elements. Writers update the counter after
// releasing their stripe, so while a Clear races with inserts the value
// may briefly lag; it is never reported below zero.
func (c *Container[K, V]) Size() int {
	return int(max(c.size.Load(), 0))
}

// Empty reports whether the container holds no element.
func (c *Container[K, V]) Empty() bool {
	return c.size.Load() <= 0
}

// BucketCount returns the current number of buckets.
func (c *Container[K, V]) BucketCount() int {
	return int(c.numBuckets.Load())
}

// BucketIndex returns the index of the bucket key currently maps to.
func (c *Container[K, V]) BucketIndex(key K) int {
	return int(c.hashKey(key) & (c.numBuckets.Load() - 1))
}

// BucketSize returns the number of elements in bucket index. It panics if
// index is not below BucketCount().
func (c *Container[K, V]) BucketSize(index int) int {
	if index < 0 {
		panic("striped: bucket index out of range")
	}
	l := &c.locks[c.bucketToStripe(uintptr(index))]
	l.RLock()
	defer l.RUnlock()
	if index >= len(c.buckets) {
		panic("striped: bucket index out of range")
	}
	return c.buckets[index].Len()
}

// LoadFactor returns Size() / BucketCount().
func (c *Container[K, V]) LoadFactor() float64 {
	return float64(c.Size()) / float64(c.numBuckets.Load())
}

// MaxLoadFactor returns the load factor above which the table grows.
func (c *Container[K, V]) MaxLoadFactor() float64 {
	return math.Float64frombits(c.maxLoad.Load())
}

// SetMaxLoadFactor changes the growth threshold and grows the table right
// away if the current load factor exceeds it. f must be positive.
func (c *Container[K, V]) SetMaxLoadFactor(f float64) {
	if !(f > 0) {
		panic("striped: max load factor must be positive")
	}
	c.maxLoad.Store(math.Float64bits(f))
	c.checkRehash()
}

// NumStripes returns the number of stripes (locks).
func (c *Container[K, V]) NumStripes() int {
	return len(c.locks)
}

// IsRehashEnabled reports whether automatic and explicit rehash are allowed.
func (c *Container[K, V]) IsRehashEnabled() bool {
	return c.state.load().enabled()
}

// CanRehash reports whether rehash is enabled and none is in progress.
func (c *Container[K, V]) CanRehash() bool {
	return c.state.load().canRehash()
}

// EnableRehash re-allows rehash. The next growing write re-evaluates the
// load factor.
func (c *Container[K, V]) EnableRehash() {
	c.state.enable()
}

// DisableRehash suppresses rehash. A rehash already in flight completes.
func (c *Container[K, V]) DisableRehash() {
	c.state.disable()
}

// HashFunction returns the key hash function.
func (c *Container[K, V]) HashFunction() HashFunc[K] {
	return c.hash
}

// EqualFunction returns the key equality function.
func (c *Container[K, V]) EqualFunction() EqualFunc[K] {
	return c.equal
}

// Allocator returns the allocator backing buckets and nodes.
func (c *Container[K, V]) Allocator() Allocator[K, V] {
	return c.allocator
}

// noCopy may be added to structs which must not be copied
// after the first use. See go vet's copylocks checker.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}
