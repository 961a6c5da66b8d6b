// Package testutil provides testing utilities for the codec packages.
//
// This package is intended for use in tests and benchmarks only.
// It provides a seeded, thread-safe RNG and generators for low-cardinality
// data: values drawn from a small key pool, optionally skewed and with NULLs.
//
//	rng := testutil.NewRNG(seed)
//	values := rng.Strings(10_000, 50)            // 50 distinct keys
//	col := testutil.StringColumn(values, false)  // *column.LowCardinality
//	sizes := rng.Splits(len(values), 300)        // random chunk sizes
package testutil
