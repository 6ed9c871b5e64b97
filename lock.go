package striped

import (
	"sync"
	"unsafe"
)

// stripeLock is the reader-writer lock guarding one stripe of buckets.
// Each lock occupies whole cache lines so that stripes hammered by
// different goroutines do not invalidate each other's lock word.
type stripeLock struct {
	sync.RWMutex

	//lint:ignore U1000 prevents false sharing
	pad [(CacheLineSize - unsafe.Sizeof(sync.RWMutex{})%CacheLineSize) % CacheLineSize]byte
}

func newStripeLocks(n int) []stripeLock {
	return make([]stripeLock, n)
}

// lockAll write-locks every stripe in ascending index order.
// Every path holding more than one stripe lock must go through here.
func lockAll(locks []stripeLock) {
	for i := range locks {
		locks[i].Lock()
	}
}

// unlockAll releases every stripe in descending index order.
func unlockAll(locks []stripeLock) {
	for i := len(locks) - 1; i >= 0; i-- {
		locks[i].Unlock()
	}
}
