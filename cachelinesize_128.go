//go:build striped_opt_cachelinesize_128

package striped

// CacheLineSize is fixed to 128 bytes by the striped_opt_cachelinesize_128 build tag.
const CacheLineSize uintptr = 128
