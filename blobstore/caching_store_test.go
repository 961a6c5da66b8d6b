package blobstore

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// onlyStore hides the ConditionalStore methods of a store.
type onlyStore struct{ BlobStore }

func TestCachingStore(t *testing.T) {
	testStoreLifecycle(t, NewCachingStore(NewMemoryStore(), 1<<20, 4))
}

func TestCachingStore_ReadsThroughCache(t *testing.T) {
	ctx := context.Background()
	data := bytes.Repeat([]byte("0123456789"), 100)
	inner := NewMemoryStore()
	require.NoError(t, inner.Put(ctx, "b", data))
	store := NewCachingStore(inner, 1<<20, 64)

	read := func() []byte {
		got, err := ReadAll(ctx, store, "b")
		require.NoError(t, err)
		return got
	}
	assert.Equal(t, data, read())
	hits, misses := store.Stats()
	assert.Positive(t, misses)

	assert.Equal(t, data, read())
	hits2, misses2 := store.Stats()
	assert.Greater(t, hits2, hits)
	assert.Equal(t, misses, misses2)

	blob, err := store.Open(ctx, "b")
	require.NoError(t, err)
	defer blob.Close()
	buf := make([]byte, 100)
	n, err := blob.ReadAt(ctx, buf, 60)
	require.NoError(t, err)
	assert.Equal(t, data[60:160], buf[:n])

	_, err = blob.ReadAt(ctx, buf, int64(len(data)))
	assert.ErrorIs(t, err, io.EOF)
}

func TestCachingStore_Invalidation(t *testing.T) {
	ctx := context.Background()
	store := NewCachingStore(NewMemoryStore(), 1<<20, 4)

	require.NoError(t, store.Put(ctx, "b", []byte("first")))
	got, err := ReadAll(ctx, store, "b")
	require.NoError(t, err)
	assert.Equal(t, []byte("first"), got)

	require.NoError(t, store.Put(ctx, "b", []byte("second")))
	got, err = ReadAll(ctx, store, "b")
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), got)

	require.NoError(t, store.Delete(ctx, "b"))
	_, err = store.Open(ctx, "b")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCachingStore_SmallCache(t *testing.T) {
	ctx := context.Background()
	data := bytes.Repeat([]byte("abcdefgh"), 512)
	inner := NewMemoryStore()
	require.NoError(t, inner.Put(ctx, "b", data))

	// Each shard holds a single byte, so no block is retained.
	store := NewCachingStore(inner, 1, 16)
	got, err := ReadAll(ctx, store, "b")
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestCachingStore_PutIfNotExistsFallback(t *testing.T) {
	ctx := context.Background()
	store := NewCachingStore(onlyStore{NewMemoryStore()}, 1<<20, 0)

	require.NoError(t, store.PutIfNotExists(ctx, "m", []byte("v1")))
	assert.ErrorIs(t, store.PutIfNotExists(ctx, "m", []byte("v2")), ErrExists)
}
