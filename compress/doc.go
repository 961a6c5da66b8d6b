// Package compress frames a byte stream into independently compressed blocks.
//
// Each block is written as
//
//	[method u8][uncompressed size u32][stored size u32][crc32c u32][payload]
//
// where the checksum covers the uncompressed bytes. A block that does not
// shrink is stored with MethodNone, so readers never need to know the method
// the writer was configured with.
package compress
