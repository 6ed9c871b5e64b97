//go:build striped_opt_cachelinesize_256

package striped

// CacheLineSize is fixed to 256 bytes by the striped_opt_cachelinesize_256 build tag.
const CacheLineSize uintptr = 256
