package striped

import (
	"cmp"
	"runtime"
	"slices"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// bulkItem locates one input of a bulk call: its hash, the stripe owning
// it, and its position in the caller's slice.
type bulkItem struct {
	stripe uintptr
	hash   uintptr
	idx    int
}

// stripeGroup is the half-open range of sorted bulk items that fall in one
// stripe.
type stripeGroup struct {
	stripe     uintptr
	start, end int
}

// schedule hashes n inputs and orders them by (stripe, hash, input index),
// then cuts the result into one group per stripe in ascending stripe order.
// The input index tie-break keeps duplicate keys of one call in caller
// order, so a bulk call behaves like the equivalent sequence of single
// calls.
func (c *Container[K, V]) schedule(n int, keyAt func(i int) K) ([]bulkItem, []stripeGroup) {
	items := make([]bulkItem, n)
	for i := range items {
		h := c.hashKey(keyAt(i))
		items[i] = bulkItem{
			stripe: c.bucketToStripe(h),
			hash:   h,
			idx:    i,
		}
	}
	slices.SortFunc(items, func(a, b bulkItem) int {
		if r := cmp.Compare(a.stripe, b.stripe); r != 0 {
			return r
		}
		if r := cmp.Compare(a.hash, b.hash); r != 0 {
			return r
		}
		return cmp.Compare(a.idx, b.idx)
	})

	groups := make([]stripeGroup, 0, min(n, len(c.locks)))
	for start := 0; start < n; {
		end := start + 1
		for end < n && items[end].stripe == items[start].stripe {
			end++
		}
		groups = append(groups, stripeGroup{stripe: items[start].stripe, start: start, end: end})
		start = end
	}
	return items, groups
}

// runBulk write-locks each group's stripe exactly once and applies fn to
// every item of the group while the lock is held. fn returns the element
// count delta of the item and the number it reports to the caller.
//
// Serially, groups are processed in ascending stripe order. With parallel
// bulk enabled and enough items, groups are spread over goroutines; each
// goroutine holds one stripe lock at a time, which keeps the ascending
// acquisition rule intact.
func (c *Container[K, V]) runBulk(
	items []bulkItem,
	groups []stripeGroup,
	fn func(b *Bucket[K, V], it bulkItem) (delta, reported int),
) int {
	apply := func(g stripeGroup) (delta, reported int) {
		l := &c.locks[g.stripe]
		l.Lock()
		buckets := c.buckets
		mask := uintptr(len(buckets) - 1)
		for _, it := range items[g.start:g.end] {
			d, r := fn(&buckets[it.hash&mask], it)
			delta += d
			reported += r
		}
		l.Unlock()
		if delta != 0 {
			c.size.Add(int64(delta))
		}
		return delta, reported
	}

	if c.bulkMin <= 0 || len(items) < c.bulkMin || len(groups) < 2 {
		total := 0
		for _, g := range groups {
			_, r := apply(g)
			total += r
		}
		return total
	}

	workers := min(runtime.GOMAXPROCS(0), len(groups))
	c.logger.Debug("parallel bulk",
		zap.Int("items", len(items)),
		zap.Int("stripes", len(groups)),
		zap.Int("workers", workers))

	reported := make([]int, len(groups))
	var eg errgroup.Group
	eg.SetLimit(workers)
	for gi, g := range groups {
		eg.Go(func() error {
			_, reported[gi] = apply(g)
			return nil
		})
	}
	eg.Wait()

	total := 0
	for _, r := range reported {
		total += r
	}
	return total
}

// InsertBulk inserts every entry according to m, acquiring each stripe lock
// at most once. Returns the number of elements added.
func (c *Container[K, V]) InsertBulk(entries []Entry[K, V], m Multiplicity) int {
	if len(entries) == 0 {
		return 0
	}
	items, groups := c.schedule(len(entries), func(i int) K { return entries[i].Key })
	all := m == InsertAlways
	n := c.runBulk(items, groups, func(b *Bucket[K, V], it bulkItem) (int, int) {
		e := &entries[it.idx]
		if all {
			b.addNode(newNode(c.allocator, it.hash, e.Key, e.Value))
			return 1, 1
		}
		if b.setValue(c.allocator, c.equal, it.hash, e.Key, e.Value, false) == 0 {
			return 1, 1
		}
		return 0, 0
	})
	c.checkRehash()
	return n
}

// InsertBulkAlways appends every entry regardless of existing equal keys.
func (c *Container[K, V]) InsertBulkAlways(entries []Entry[K, V]) int {
	return c.InsertBulk(entries, InsertAlways)
}

// InsertBulkUnique inserts every entry, overwriting the value of existing
// equal keys. Returns the number of elements added.
func (c *Container[K, V]) InsertBulkUnique(entries []Entry[K, V]) int {
	return c.InsertBulk(entries, InsertUnique)
}

// EraseBulk removes, for every key, the first (or every) element with that
// key, acquiring each stripe lock at most once. Returns the number removed.
func (c *Container[K, V]) EraseBulk(keys []K, scope Scope) int {
	if len(keys) == 0 {
		return 0
	}
	items, groups := c.schedule(len(keys), func(i int) K { return keys[i] })
	all := scope == ScopeAll
	return c.runBulk(items, groups, func(b *Bucket[K, V], it bulkItem) (int, int) {
		n := b.erase(c.allocator, c.equal, it.hash, keys[it.idx], all)
		return -n, n
	})
}

// EraseBulkFirst is EraseBulk with ScopeFirst.
func (c *Container[K, V]) EraseBulkFirst(keys []K) int {
	return c.EraseBulk(keys, ScopeFirst)
}

// EraseBulkAll is EraseBulk with ScopeAll.
func (c *Container[K, V]) EraseBulkAll(keys []K) int {
	return c.EraseBulk(keys, ScopeAll)
}
