// Package blobstore provides storage abstraction for the substreams and
// manifests of stored parts.
//
// BlobStore is the interface for reading and writing data blobs.
// Implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - MemoryStore: in-memory, for tests and tools
//   - LocalStore: local filesystem with atomic publish on close
//   - minio.Store: MinIO and S3-compatible storage
//   - s3.Store: Amazon S3 with range reads and multipart uploads
//   - bolt.Store: a single bbolt database file
//
// # Custom Implementations
//
// Implement the BlobStore interface to support custom storage backends:
//
//	type BlobStore interface {
//	    Open(ctx, name) (Blob, error)            // Open for reading
//	    Create(ctx, name) (WritableBlob, error)  // Create for writing
//	    Put(ctx, name, data) error               // Atomic write
//	    Delete(ctx, name) error
//	    List(ctx, prefix) ([]string, error)
//	}
package blobstore
