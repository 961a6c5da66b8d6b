// Package part stores a set of dictionary-encoded columns as a data part.
//
// Every column gets one encoder session writing its two substreams to the
// blobs <part>/<column>.dict.bin (dictionary keys) and <part>/<column>.bin
// (chunk headers, additional keys and indexes). Each substream is checksummed
// over its raw bytes, block-compressed and buffered on its way to the store.
// The column is encoded in granules of a fixed number of rows, one chunk per
// granule. A manifest written last, at <part>/manifest, makes the part
// visible:
//
//	[uvarint codec name length][codec name][codec payload]
//
// Readers decode a column in calls of a row budget and verify both checksums
// once the substreams are drained.
package part
