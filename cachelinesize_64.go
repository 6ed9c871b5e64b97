//go:build striped_opt_cachelinesize_64

package striped

// CacheLineSize is fixed to 64 bytes by the striped_opt_cachelinesize_64 build tag.
const CacheLineSize uintptr = 64
