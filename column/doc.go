// Package column provides the in-memory column structures consumed by the
// dictionary-encoding codec.
//
// # Layout
//
//   - Vector[T]: a plain column of comparable values (numbers, Date as uint16,
//     DateTime as uint32, strings, UUIDs as [16]byte).
//   - FixedString: strings padded to a fixed byte width.
//   - Nullable: a nested column plus a null map.
//   - Indexes: unsigned index arrays in one of four widths (8/16/32/64 bits).
//     Appending a value that does not fit widens the array.
//   - Dictionary / Unique[T]: an ordered, deduplicated set of keys. Nullable
//     dictionaries reserve position 0 for NULL; the nested key column holds a
//     zero-value placeholder at that row.
//   - LowCardinality: a dictionary-encoded column, i.e. one index per row into
//     a dictionary that may be shared with other columns.
//
// # Sharing
//
// A dictionary attached with SetSharedDictionary (or produced by Index) is
// treated as an immutable snapshot. The first insertion that needs a new key
// copies it, so other holders keep their view unchanged.
package column
