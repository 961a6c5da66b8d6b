package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRNG_Deterministic(t *testing.T) {
	a := NewRNG(7).Strings(100, 10)
	b := NewRNG(7).Strings(100, 10)
	assert.Equal(t, a, b)

	rng := NewRNG(7)
	first := rng.Uint64()
	rng.Reset()
	assert.Equal(t, first, rng.Uint64())
	assert.Equal(t, int64(7), rng.Seed())
}

func TestRNG_Strings(t *testing.T) {
	values := NewRNG(1).Strings(1000, 5)
	distinct := map[any]struct{}{}
	for _, v := range values {
		distinct[v] = struct{}{}
	}
	assert.LessOrEqual(t, len(distinct), 5)

	skewed := NewRNG(1).SkewedStrings(1000, 5)
	assert.Len(t, skewed, 1000)
}

func TestRNG_Splits(t *testing.T) {
	sizes := NewRNG(3).Splits(1000, 64)
	sum := 0
	for _, n := range sizes {
		require.Positive(t, n)
		require.LessOrEqual(t, n, 64)
		sum += n
	}
	assert.Equal(t, 1000, sum)
}

func TestStringColumn(t *testing.T) {
	values := NewRNG(5).WithNulls(NewRNG(5).Strings(50, 3), 0.3)
	col := StringColumn(values, true)
	assert.Equal(t, values, col.Values())
	assert.Panics(t, func() { StringColumn([]any{nil}, false) })
}
