package testutil

import (
	"fmt"
	"math/rand"
	"sync"

	"github.com/hupe1980/lowcard/column"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Uint64 returns a pseudo-random uint64.
func (r *RNG) Uint64() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Uint64()
}

// Key returns the i-th key of the generated key pool.
func Key(i int) string {
	return fmt.Sprintf("key-%04d", i)
}

// Strings returns n values drawn uniformly from distinct keys.
func (r *RNG) Strings(n, distinct int) []any {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]any, n)
	for i := range out {
		out[i] = Key(r.rand.Intn(distinct))
	}
	return out
}

// SkewedStrings returns n values from distinct keys with a Zipf distribution,
// so a few keys dominate.
func (r *RNG) SkewedStrings(n, distinct int) []any {
	r.mu.Lock()
	defer r.mu.Unlock()
	if distinct < 2 {
		distinct = 2
	}
	zipf := rand.NewZipf(r.rand, 1.2, 1, uint64(distinct-1))
	out := make([]any, n)
	for i := range out {
		out[i] = Key(int(zipf.Uint64()))
	}
	return out
}

// WithNulls replaces roughly ratio of values with nil, in place.
func (r *RNG) WithNulls(values []any, ratio float64) []any {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range values {
		if r.rand.Float64() < ratio {
			values[i] = nil
		}
	}
	return values
}

// Splits returns random positive sizes summing to total, each at most maxSize.
func (r *RNG) Splits(total, maxSize int) []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []int
	for total > 0 {
		n := 1 + r.rand.Intn(maxSize)
		if n > total {
			n = total
		}
		out = append(out, n)
		total -= n
	}
	return out
}

// StringColumn builds a dictionary-encoded string column from values.
// nil values are NULL and require nullable.
func StringColumn(values []any, nullable bool) *column.LowCardinality {
	col := column.NewLowCardinality(column.NewUnique[string](column.NewString(), nullable))
	for _, v := range values {
		if err := col.Insert(v); err != nil {
			panic(err)
		}
	}
	return col
}
