package striped

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

// countingAllocator tracks allocations so tests can check that every node
// handed out is eventually freed or still linked.
type countingAllocator[K comparable, V any] struct {
	nodesAllocated   atomic.Int64
	nodesFreed       atomic.Int64
	bucketsAllocated atomic.Int64
	bucketsFreed     atomic.Int64
}

func (a *countingAllocator[K, V]) AllocBuckets(n int) []Bucket[K, V] {
	a.bucketsAllocated.Add(1)
	return make([]Bucket[K, V], n)
}

func (a *countingAllocator[K, V]) FreeBuckets(b []Bucket[K, V]) {
	for i := range b {
		if b[i].head != nil || b[i].Len() != 0 {
			panic("freeing a non-empty bucket array")
		}
	}
	a.bucketsFreed.Add(1)
}

func (a *countingAllocator[K, V]) AllocNode() *Node[K, V] {
	a.nodesAllocated.Add(1)
	return new(Node[K, V])
}

func (a *countingAllocator[K, V]) FreeNode(n *Node[K, V]) {
	if n.next != nil || n.hash != 0 {
		panic("freeing a node that was not reset")
	}
	a.nodesFreed.Add(1)
}

func (a *countingAllocator[K, V]) liveNodes() int64 {
	return a.nodesAllocated.Load() - a.nodesFreed.Load()
}

// identityHash maps integer keys onto themselves so tests can place keys
// in chosen buckets and stripes.
func identityHash(key int, _ uintptr) uintptr {
	return uintptr(key)
}

// requireConsistent checks the container-wide invariants: the element
// counter equals the sum of bucket sizes and the bucket count is a power
// of two no smaller than the stripe count and 2.
func requireConsistent[K comparable, V any](t *testing.T, c *Container[K, V]) {
	t.Helper()
	n := c.BucketCount()
	require.GreaterOrEqual(t, n, max(c.NumStripes(), 2))
	require.Zero(t, n&(n-1), "bucket count %d is not a power of two", n)
	sum := 0
	for i := 0; i < n; i++ {
		sum += c.BucketSize(i)
	}
	require.Equal(t, c.Size(), sum)
	require.Equal(t, c.Size() == 0, c.Empty())
}
