package striped

import (
	"hash/maphash"
	"math/bits"
	"unsafe"
)

// defaultHasher returns the built-in hash for K. Integer keys hash to
// themselves, which spreads sequential keys evenly over buckets and stripes;
// every other comparable type goes through maphash.
func defaultHasher[K comparable]() HashFunc[K] {
	switch any(*new(K)).(type) {
	case uint, int, uintptr:
		return func(key K, _ uintptr) uintptr {
			return *(*uintptr)(unsafe.Pointer(&key))
		}
	case uint64, int64:
		if bits.UintSize == 32 {
			return func(key K, _ uintptr) uintptr {
				v := *(*uint64)(unsafe.Pointer(&key))
				return uintptr(v) ^ uintptr(v>>32)
			}
		}
		return func(key K, _ uintptr) uintptr {
			return uintptr(*(*uint64)(unsafe.Pointer(&key)))
		}
	case uint32, int32:
		return func(key K, _ uintptr) uintptr {
			return uintptr(*(*uint32)(unsafe.Pointer(&key)))
		}
	case uint16, int16:
		return func(key K, _ uintptr) uintptr {
			return uintptr(*(*uint16)(unsafe.Pointer(&key)))
		}
	case uint8, int8:
		return func(key K, _ uintptr) uintptr {
			return uintptr(*(*uint8)(unsafe.Pointer(&key)))
		}
	default:
		seed := maphash.MakeSeed()
		return func(key K, _ uintptr) uintptr {
			return uintptr(maphash.Comparable(seed, key))
		}
	}
}

func defaultEqual[K comparable](a, b K) bool {
	return a == b
}

// nextPowOf2 calculates the smallest power of 2 that is greater than or equal to n.
// Compatible with both 32-bit and 64-bit systems.
func nextPowOf2(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(n-1))
}

// adjustBuckets normalizes a requested bucket count: at least 2, at least
// the stripe count so no stripe is left without buckets, and a power of 2.
func adjustBuckets(n, stripes int) int {
	n = max(n, 2, stripes)
	return nextPowOf2(n)
}
