package striped

// Node is a single entry of a bucket chain. A Node is owned by exactly one
// Bucket; it is only reachable through that bucket's chain.
type Node[K comparable, V any] struct {
	next  *Node[K, V]
	hash  uintptr
	key   K
	value V
}

// Key returns the key held by the node.
func (n *Node[K, V]) Key() K {
	return n.key
}

// Value returns the value held by the node.
func (n *Node[K, V]) Value() V {
	return n.value
}

// Bucket is the chain of nodes whose keys map to the same slot.
// Invariant: size equals the chain length and tail.next is nil.
type Bucket[K comparable, V any] struct {
	head *Node[K, V]
	tail *Node[K, V]
	size int
}

// Len returns the number of nodes in the bucket.
func (b *Bucket[K, V]) Len() int {
	return b.size
}

// addNode appends n, whose next pointer must be nil, to the chain.
func (b *Bucket[K, V]) addNode(n *Node[K, V]) {
	if b.head == nil {
		b.head = n
	} else {
		b.tail.next = n
	}
	b.tail = n
	b.size++
}

// clear releases every node of the chain to alloc and empties the bucket.
func (b *Bucket[K, V]) clear(alloc Allocator[K, V]) {
	for n := b.head; n != nil; {
		next := n.next
		freeNode(alloc, n)
		n = next
	}
	*b = Bucket[K, V]{}
}

// detach empties the bucket without releasing its nodes and returns the
// former head, leaving the caller as the owner of the chain.
func (b *Bucket[K, V]) detach() *Node[K, V] {
	head := b.head
	*b = Bucket[K, V]{}
	return head
}

// setValue assigns value to the first (or every, when all is set) node
// matching key. Returns the number of matching nodes; when it is zero a new
// node holding (key, value) has been appended.
func (b *Bucket[K, V]) setValue(
	alloc Allocator[K, V],
	equal EqualFunc[K],
	hash uintptr,
	key K,
	value V,
	all bool,
) int {
	count := 0
	for n := b.head; n != nil; n = n.next {
		if n.hash == hash && equal(n.key, key) {
			n.value = value
			count++
			if !all {
				return count
			}
		}
	}
	if count > 0 {
		return count
	}
	b.addNode(newNode(alloc, hash, key, value))
	return 0
}

// erase unlinks the first (or every, when all is set) node matching key
// and returns the number removed.
func (b *Bucket[K, V]) erase(
	alloc Allocator[K, V],
	equal EqualFunc[K],
	hash uintptr,
	key K,
	all bool,
) int {
	count := 0
	var prev *Node[K, V]
	for n := b.head; n != nil; {
		next := n.next
		if n.hash != hash || !equal(n.key, key) {
			prev = n
			n = next
			continue
		}
		if prev == nil {
			b.head = next
		} else {
			prev.next = next
		}
		if b.tail == n {
			b.tail = prev
		}
		b.size--
		freeNode(alloc, n)
		count++
		if !all {
			return count
		}
		n = next
	}
	return count
}

// find returns the first node matching key, or nil.
func (b *Bucket[K, V]) find(equal EqualFunc[K], hash uintptr, key K) *Node[K, V] {
	for n := b.head; n != nil; n = n.next {
		if n.hash == hash && equal(n.key, key) {
			return n
		}
	}
	return nil
}

func newNode[K comparable, V any](alloc Allocator[K, V], hash uintptr, key K, value V) *Node[K, V] {
	n := alloc.AllocNode()
	n.next = nil
	n.hash = hash
	n.key = key
	n.value = value
	return n
}

// freeNode zeroes n so a recycling allocator never retains the entry,
// then hands it back.
func freeNode[K comparable, V any](alloc Allocator[K, V], n *Node[K, V]) {
	*n = Node[K, V]{}
	alloc.FreeNode(n)
}
