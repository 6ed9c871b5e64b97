//go:build striped_opt_cachelinesize_32

package striped

// CacheLineSize is fixed to 32 bytes by the striped_opt_cachelinesize_32 build tag.
const CacheLineSize uintptr = 32
