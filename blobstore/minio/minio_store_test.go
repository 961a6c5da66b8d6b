package minio

import (
	"context"
	"errors"
	"io"
	"os"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/lowcard/blobstore"
)

func TestStore_Keys(t *testing.T) {
	s := NewStore(nil, "b", "/parts/")
	assert.Equal(t, "parts/p1/c.bin", s.key("p1/c.bin"))
	assert.Equal(t, "p1/c.bin", s.name("parts/p1/c.bin"))

	assert.Equal(t, "parts/p1/", s.listPrefix("p1/"))
	assert.Equal(t, uint64(DefaultPartSize), s.partSize)

	bare := NewStore(nil, "b", "", WithPartSize(5<<20))
	assert.Equal(t, "p1/manifest", bare.key("p1/manifest"))
	assert.Equal(t, "p1/manifest", bare.name("p1/manifest"))
	assert.Equal(t, "p1/", bare.listPrefix("p1/"))
	assert.Equal(t, uint64(5<<20), bare.partSize)
}

func TestStore_PutOptions(t *testing.T) {
	s := NewStore(nil, "b", "")
	streaming := s.putOptions(nil)
	assert.Equal(t, ContentType, streaming.ContentType)
	assert.Empty(t, streaming.UserMetadata)

	sum := uint32(0xe3069283)
	put := s.putOptions(&sum)
	assert.Equal(t, map[string]string{ChecksumMetadata: "e3069283"}, put.UserMetadata)
}

func TestUpload_AbortThenClose(t *testing.T) {
	pr, pw := io.Pipe()
	u := &upload{pw: pw, done: make(chan error, 1)}
	require.NoError(t, u.Abort())
	_, err := io.ReadAll(pr)
	assert.ErrorIs(t, err, errUploadAborted)
	// The first finisher wins; Close reports the abort.
	assert.ErrorIs(t, u.Close(), errUploadAborted)
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, isNotFound(minio.ErrorResponse{Code: "NoSuchKey"}))
	assert.True(t, isNotFound(minio.ErrorResponse{Code: "NotFound"}))
	assert.False(t, isNotFound(minio.ErrorResponse{Code: "AccessDenied"}))
	assert.False(t, isNotFound(errors.New("boom")))
}

// TestMinioStore_Integration requires a running MinIO instance at
// LOWCARD_MINIO_ENDPOINT (credentials minioadmin/minioadmin).
func TestMinioStore_Integration(t *testing.T) {
	endpoint := os.Getenv("LOWCARD_MINIO_ENDPOINT")
	if endpoint == "" {
		t.Skip("LOWCARD_MINIO_ENDPOINT not set")
	}
	bucket := "test-lowcard"

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
		Secure: false,
	})
	require.NoError(t, err)

	ctx := context.Background()
	exists, err := client.BucketExists(ctx, bucket)
	require.NoError(t, err)
	if !exists {
		require.NoError(t, client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}))
	}

	store := NewStore(client, bucket, "test-prefix/")

	data := []byte("hello minio world")
	require.NoError(t, store.Put(ctx, "test.txt", data))

	blob, err := store.Open(ctx, "test.txt")
	require.NoError(t, err)
	require.Equal(t, int64(len(data)), blob.Size())

	buf := make([]byte, len(data))
	n, err := blob.ReadAt(ctx, buf, 0)
	require.NoError(t, err)
	require.Equal(t, len(data), n)
	require.Equal(t, data, buf)

	got, err := blobstore.ReadAll(ctx, store, "test.txt")
	require.NoError(t, err)
	assert.Equal(t, data, got)
	require.NoError(t, blob.Close())

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Contains(t, names, "test.txt")

	require.NoError(t, store.Delete(ctx, "test.txt"))
	_, err = store.Open(ctx, "test.txt")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)

	wb, err := store.Create(ctx, "stream.txt")
	require.NoError(t, err)
	_, err = wb.Write([]byte("streamed data"))
	require.NoError(t, err)
	require.NoError(t, wb.Close())

	blob3, err := store.Open(ctx, "stream.txt")
	require.NoError(t, err)
	assert.Equal(t, int64(13), blob3.Size())
	require.NoError(t, blob3.Close())

	_ = store.Delete(ctx, "stream.txt")
}
