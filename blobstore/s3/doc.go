// Package s3 provides an S3 implementation of the blobstore.BlobStore interface.
//
// # Usage
//
//	cfg, err := config.LoadDefaultConfig(ctx)
//	store := s3.NewStore(awss3.NewFromConfig(cfg), "my-bucket", "parts/")
//	m, err := part.Write(ctx, store, "events-0001", columns)
//
// # Features
//
//   - Range reads for efficient partial fetches
//   - Multipart uploads for large substreams
//   - Conditional writes so a published manifest is never overwritten
//   - Automatic pagination for listing
//   - Configurable prefix for multi-tenant isolation
package s3
