package blobstore

import (
	"context"
	"errors"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/lowcard/internal/cache"
)

// DefaultCacheBlockSize is the block size of a CachingStore when none is given.
const DefaultCacheBlockSize = 64 << 10

// CachingStore wraps a BlobStore and caches fixed-size blocks of the blobs
// read through it. Part blobs are immutable, so writes only invalidate the
// blocks of the overwritten or deleted name.
type CachingStore struct {
	inner     BlobStore
	cache     cache.BlockCache
	blockSize int64
}

var (
	_ BlobStore        = (*CachingStore)(nil)
	_ ConditionalStore = (*CachingStore)(nil)
)

// NewCachingStore creates a CachingStore holding up to capacity bytes of
// blocks. blockSize defaults to DefaultCacheBlockSize if <= 0.
func NewCachingStore(inner BlobStore, capacity, blockSize int64) *CachingStore {
	if blockSize <= 0 {
		blockSize = DefaultCacheBlockSize
	}
	return &CachingStore{
		inner:     inner,
		cache:     cache.NewShardedLRU(capacity),
		blockSize: blockSize,
	}
}

// Stats returns the block cache hit and miss counts.
func (s *CachingStore) Stats() (hits, misses int64) {
	return s.cache.Stats()
}

func (s *CachingStore) Open(ctx context.Context, name string) (Blob, error) {
	b, err := s.inner.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	return &cachingBlob{store: s, inner: b, name: name}, nil
}

func (s *CachingStore) Create(ctx context.Context, name string) (WritableBlob, error) {
	s.cache.Invalidate(name)
	return s.inner.Create(ctx, name)
}

func (s *CachingStore) Put(ctx context.Context, name string, data []byte) error {
	s.cache.Invalidate(name)
	return s.inner.Put(ctx, name, data)
}

// PutIfNotExists delegates to the wrapped store. Stores without conditional
// writes get an Open check followed by Put, which is not atomic.
func (s *CachingStore) PutIfNotExists(ctx context.Context, name string, data []byte) error {
	if cs, ok := s.inner.(ConditionalStore); ok {
		return cs.PutIfNotExists(ctx, name, data)
	}
	b, err := s.inner.Open(ctx, name)
	if err == nil {
		_ = b.Close()
		return ErrExists
	}
	if !errors.Is(err, ErrNotFound) {
		return err
	}
	return s.Put(ctx, name, data)
}

func (s *CachingStore) Delete(ctx context.Context, name string) error {
	s.cache.Invalidate(name)
	return s.inner.Delete(ctx, name)
}

func (s *CachingStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.inner.List(ctx, prefix)
}

type cachingBlob struct {
	store *CachingStore
	inner Blob
	name  string
}

func (b *cachingBlob) Close() error { return b.inner.Close() }

func (b *cachingBlob) Size() int64 { return b.inner.Size() }

func (b *cachingBlob) key(blk int64) cache.Key {
	return cache.Key{Blob: b.name, Block: blk}
}

func (b *cachingBlob) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, errors.New("blobstore: negative offset")
	}
	size := b.Size()
	if off >= size {
		if len(p) == 0 {
			return 0, nil
		}
		return 0, io.EOF
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	end := min(off+int64(len(p)), size)
	bs := b.store.blockSize
	firstBlock, lastBlock := off/bs, (end-1)/bs
	if err := b.fill(ctx, firstBlock, lastBlock); err != nil {
		return 0, err
	}

	n := 0
	for blk := firstBlock; blk <= lastBlock; blk++ {
		data, err := b.block(ctx, blk)
		if err != nil {
			return n, err
		}
		start := max(blk*bs, off) - blk*bs
		stop := min((blk+1)*bs, end) - blk*bs
		n += copy(p[n:], data[start:stop])
	}
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// fill loads the missing blocks in [first, last] with one inner read per
// contiguous run of misses.
func (b *cachingBlob) fill(ctx context.Context, first, last int64) error {
	type run struct{ start, count int64 }
	var runs []run
	for blk := first; blk <= last; blk++ {
		if _, ok := b.store.cache.Get(b.key(blk)); ok {
			continue
		}
		if n := len(runs); n > 0 && runs[n-1].start+runs[n-1].count == blk {
			runs[n-1].count++
		} else {
			runs = append(runs, run{blk, 1})
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(16)
	for _, r := range runs {
		g.Go(func() error {
			return b.load(gctx, r.start, r.count)
		})
	}
	return g.Wait()
}

func (b *cachingBlob) load(ctx context.Context, start, count int64) error {
	bs := b.store.blockSize
	off := start * bs
	length := min(count*bs, b.Size()-off)
	buf := make([]byte, length)
	n, err := b.inner.ReadAt(ctx, buf, off)
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	if int64(n) != length {
		return io.ErrUnexpectedEOF
	}
	for i := int64(0); i < count; i++ {
		lo := i * bs
		hi := min(lo+bs, length)
		// Each block gets its own copy so a cached block does not pin buf.
		b.store.cache.Set(b.key(start+i), append([]byte(nil), buf[lo:hi]...))
	}
	return nil
}

// block returns a cached block, reading it again if it was evicted after fill.
func (b *cachingBlob) block(ctx context.Context, blk int64) ([]byte, error) {
	if data, ok := b.store.cache.Get(b.key(blk)); ok {
		return data, nil
	}
	bs := b.store.blockSize
	data := make([]byte, min(bs, b.Size()-blk*bs))
	n, err := b.inner.ReadAt(ctx, data, blk*bs)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if n != len(data) {
		return nil, io.ErrUnexpectedEOF
	}
	b.store.cache.Set(b.key(blk), data)
	return data, nil
}

func (b *cachingBlob) ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error) {
	if off < 0 || length < 0 {
		return nil, errors.New("blobstore: negative range")
	}
	return io.NopCloser(&sectionReader{ctx: ctx, blob: b, off: off, limit: min(off+length, b.Size())}), nil
}

// sectionReader reads [off, limit) of a blob through ReadAt.
type sectionReader struct {
	ctx   context.Context
	blob  Blob
	off   int64
	limit int64
}

func (r *sectionReader) Read(p []byte) (int, error) {
	if r.off >= r.limit {
		return 0, io.EOF
	}
	if remaining := r.limit - r.off; int64(len(p)) > remaining {
		p = p[:remaining]
	}
	n, err := r.blob.ReadAt(r.ctx, p, r.off)
	r.off += int64(n)
	if errors.Is(err, io.EOF) && n > 0 {
		err = nil
	}
	return n, err
}
