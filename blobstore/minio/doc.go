// Package minio stores parts in a MinIO or other S3-compatible bucket using
// the MinIO Go client.
//
//	client, err := minio.New("localhost:9000", &minio.Options{
//	    Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
//	    Secure: false,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	store := minioblob.NewStore(client, "my-bucket", "parts/", minioblob.WithPartSize(32<<20))
//	m, err := part.Write(ctx, store, "events-0001", columns)
//
// Substream blobs are written with streaming multipart uploads of
// WithPartSize chunks and become visible when the writer is closed.
// Manifests go through Put, which also records the CRC32C of the payload in
// the ChecksumMetadata user metadata field. Blob reads are ranged GETs, so a
// blobstore.CachingStore in front of the store saves round trips for
// repeated reads.
//
// The store does not implement blobstore.ConditionalStore, so part.Write
// cannot detect a concurrent writer publishing the same part name.
package minio
