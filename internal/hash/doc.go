// Package hash provides hardware-accelerated checksums for data integrity.
//
// # CRC32-Castagnoli (CRC32C)
//
// All checksums in lowcard use CRC32-Castagnoli (CRC32C): compressed
// substream blocks carry one per block, and data parts record one per
// substream blob in their manifest.
//
// For one-shot checksums:
//
//	checksum := hash.CRC32C(data)
//
// For streaming checksums:
//
//	w := hash.NewWriter(dst)
//	w.Write(chunk)
//	checksum := w.Sum32()
package hash
