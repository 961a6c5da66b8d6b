package cache

// Key identifies one fixed-size block of a named blob.
type Key struct {
	Blob  string
	Block int64
}

// BlockCache is a byte-oriented cache for immutable blocks.
// Returned slices must be treated as read-only.
type BlockCache interface {
	// Get returns a cached block. ok=false if missing.
	Get(key Key) (b []byte, ok bool)
	// Set caches a block. The cache retains b; callers must not modify it.
	Set(key Key, b []byte)
	// Invalidate removes every block of blob.
	Invalidate(blob string)
	// Stats returns hit and miss counts.
	Stats() (hits, misses int64)
}
