package striped

import (
	"math"
	"time"

	"go.uber.org/zap"
)

// checkRehash grows the table when the load factor exceeds the maximum.
// The growth factor is the smallest power of two, at least 2, covering
// loadFactor/maxLoadFactor, so one rehash restores the bound even after a
// large bulk insert.
func (c *Container[K, V]) checkRehash() {
	lf, mlf := c.LoadFactor(), c.MaxLoadFactor()
	if lf <= mlf || !c.CanRehash() {
		return
	}
	ratio := int(math.Ceil(lf / mlf))
	growth := 2
	for growth < ratio {
		growth <<= 1
	}
	c.rehash(c.BucketCount()*growth, false)
}

// Rehash grows the table to at least numBuckets buckets, rounded up to a
// power of two no less than the stripe count and 2. It is a no-op when the
// result does not exceed BucketCount() or CanRehash() is false.
//
// Every stripe is write-locked, in ascending order, for the duration of the
// rebuild. Nodes are relinked into the new buckets, never copied.
func (c *Container[K, V]) Rehash(numBuckets int) {
	c.rehash(numBuckets, true)
}

func (c *Container[K, V]) rehash(numBuckets int, explicit bool) {
	numBuckets = adjustBuckets(numBuckets, len(c.locks))
	if numBuckets <= c.BucketCount() {
		return
	}
	if !c.state.tryBegin() {
		if explicit {
			c.logger.Debug("rehash skipped",
				zap.String("state", c.state.load().String()),
				zap.Int("buckets", c.BucketCount()),
				zap.Int("requested", numBuckets))
		}
		return
	}
	defer c.state.finish()
	if numBuckets <= c.BucketCount() {
		// A rehash that finished between the check above and tryBegin
		// already grew the table far enough.
		return
	}

	start := time.Now()
	newBuckets := c.allocator.AllocBuckets(numBuckets)
	mask := uintptr(numBuckets - 1)
	step := len(c.locks)

	// Stripe i owns buckets i, i+step, i+2*step... in both the old and the
	// new array, so each stripe is relinked as soon as it is locked.
	for i := range c.locks {
		c.locks[i].Lock()
		for j := i; j < len(c.buckets); j += step {
			for n := c.buckets[j].detach(); n != nil; {
				next := n.next
				n.next = nil
				newBuckets[n.hash&mask].addNode(n)
				n = next
			}
		}
	}

	oldBuckets := c.buckets
	c.buckets = newBuckets
	c.numBuckets.Store(uintptr(numBuckets))
	unlockAll(c.locks)

	c.allocator.FreeBuckets(oldBuckets)
	c.growths.Add(1)
	c.logger.Debug("rehash completed",
		zap.Int("oldBuckets", len(oldBuckets)),
		zap.Int("newBuckets", numBuckets),
		zap.Int("size", c.Size()),
		zap.Duration("elapsed", time.Since(start)))
}
