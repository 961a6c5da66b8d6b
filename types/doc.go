// Package types implements the logical value types that the dictionary codec
// wraps: their names, column constructors and bulk binary encodings.
//
// All fixed-width values are little-endian. String is a uvarint length
// followed by the bytes; FixedString(N) is exactly N bytes. Nullable(T) writes
// a one-byte-per-row null map followed by the nested values.
//
// Type declarations are parsed by Parse, e.g.
//
//	t, err := types.Parse("Nullable(FixedString(16))")
//
// Additional type families (such as LowCardinality) register themselves with
// Register.
package types
