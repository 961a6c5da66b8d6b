// Package bolt provides a BlobStore backed by a single bbolt database file.
//
// It suits tools and tests that want a whole set of parts in one file. Every
// blob is a key in one bucket; reads copy the value out of the transaction.
package bolt

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.etcd.io/bbolt"

	"github.com/hupe1980/lowcard/blobstore"
)

// DefaultBucket is the bucket used when Options.Bucket is empty.
const DefaultBucket = "blobs"

// Options configures Open.
type Options struct {
	// Bucket holds the blobs. Defaults to DefaultBucket.
	Bucket string
	// NoSync skips fsync after each commit. Use for tests only.
	NoSync bool
	// Timeout bounds waiting for the file lock. Defaults to 10s.
	Timeout time.Duration
}

// Store implements blobstore.BlobStore on a bbolt bucket.
type Store struct {
	db     *bbolt.DB
	bucket []byte
	owned  bool
}

var (
	_ blobstore.BlobStore        = (*Store)(nil)
	_ blobstore.ConditionalStore = (*Store)(nil)
)

// Open opens (or creates) the database at path.
func Open(path string, opt Options) (*Store, error) {
	bopt := *bbolt.DefaultOptions
	bopt.Timeout = 10 * time.Second
	if opt.Timeout > 0 {
		bopt.Timeout = opt.Timeout
	}
	bopt.NoSync = opt.NoSync

	db, err := bbolt.Open(path, 0o666, &bopt)
	if err != nil {
		return nil, fmt.Errorf("bolt: %w", err)
	}
	s, err := NewStore(db, opt.Bucket)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	s.owned = true
	return s, nil
}

// NewStore uses an already open database. The bucket is created if missing.
func NewStore(db *bbolt.DB, bucket string) (*Store, error) {
	if bucket == "" {
		bucket = DefaultBucket
	}
	s := &Store{db: db, bucket: []byte(bucket)}
	err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(s.bucket)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("bolt: create bucket %q: %w", bucket, err)
	}
	return s, nil
}

// Close closes the database if Open created it.
func (s *Store) Close() error {
	if !s.owned {
		return nil
	}
	return s.db.Close()
}

// Open copies the blob out of a read transaction.
func (s *Store) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var data []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(s.bucket).Get([]byte(name))
		if v == nil {
			return blobstore.ErrNotFound
		}
		data = bytes.Clone(v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &blob{data: data}, nil
}

// Create buffers writes and commits the blob on Close.
func (s *Store) Create(_ context.Context, name string) (blobstore.WritableBlob, error) {
	return &writableBlob{store: s, name: name}, nil
}

// Put writes a blob in one transaction.
func (s *Store) Put(_ context.Context, name string, data []byte) error {
	return s.db.Batch(func(tx *bbolt.Tx) error {
		return tx.Bucket(s.bucket).Put([]byte(name), nonNil(data))
	})
}

// PutIfNotExists writes a blob unless name is taken.
func (s *Store) PutIfNotExists(_ context.Context, name string, data []byte) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if b.Get([]byte(name)) != nil {
			return blobstore.ErrExists
		}
		return b.Put([]byte(name), nonNil(data))
	})
}

// Delete removes a blob.
func (s *Store) Delete(_ context.Context, name string) error {
	return s.db.Batch(func(tx *bbolt.Tx) error {
		return tx.Bucket(s.bucket).Delete([]byte(name))
	})
}

// List returns the blobs with the given prefix in key order.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	var names []string
	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(s.bucket).Cursor()
		p := []byte(prefix)
		for k, _ := c.Seek(p); k != nil && bytes.HasPrefix(k, p); k, _ = c.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			names = append(names, string(k))
		}
		return nil
	})
	return names, err
}

// nonNil substitutes an empty slice for nil data so Get reports the key.
func nonNil(data []byte) []byte {
	if data == nil {
		return []byte{}
	}
	return data
}

type blob struct {
	data []byte
}

func (b *blob) Close() error { return nil }

func (b *blob) Size() int64 { return int64(len(b.data)) }

func (b *blob) ReadAt(_ context.Context, p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, errors.New("bolt: negative offset")
	}
	return bytes.NewReader(b.data).ReadAt(p, off)
}

func (b *blob) ReadRange(_ context.Context, off, length int64) (io.ReadCloser, error) {
	if off < 0 || length < 0 {
		return nil, errors.New("bolt: negative range")
	}
	off = min(off, int64(len(b.data)))
	end := min(off+length, int64(len(b.data)))
	return io.NopCloser(bytes.NewReader(b.data[off:end])), nil
}

type writableBlob struct {
	store  *Store
	name   string
	buf    bytes.Buffer
	closed bool
}

func (w *writableBlob) Write(p []byte) (int, error) {
	if w.closed {
		return 0, io.ErrClosedPipe
	}
	return w.buf.Write(p)
}

func (w *writableBlob) Sync() error { return nil }

// Abort drops the buffered data.
func (w *writableBlob) Abort() error {
	w.closed = true
	w.buf.Reset()
	return nil
}

func (w *writableBlob) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.store.Put(context.Background(), w.name, w.buf.Bytes())
}
