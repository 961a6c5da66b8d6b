package minio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"

	"github.com/hupe1980/lowcard/blobstore"
	"github.com/hupe1980/lowcard/internal/hash"
)

const (
	// ContentType is set on every object the store writes.
	ContentType = "application/octet-stream"
	// ChecksumMetadata is the user metadata key holding the CRC32C of blobs
	// written with Put.
	ChecksumMetadata = "Lowcard-Crc32c"
	// DefaultPartSize is the multipart chunk size of streaming uploads.
	DefaultPartSize = 16 << 20
)

var errUploadAborted = errors.New("minio: upload aborted")

// Option configures a Store.
type Option func(*Store)

// WithPartSize sets the multipart chunk size of streaming uploads.
func WithPartSize(n uint64) Option {
	return func(s *Store) {
		if n > 0 {
			s.partSize = n
		}
	}
}

// Store is a blobstore.BlobStore over a MinIO or S3-compatible bucket. Blob
// names map to object keys below a root prefix.
type Store struct {
	client   *minio.Client
	bucket   string
	prefix   string
	partSize uint64
}

var _ blobstore.BlobStore = (*Store)(nil)

// NewStore creates a store writing below rootPrefix (e.g. "parts/") in bucket.
func NewStore(client *minio.Client, bucket, rootPrefix string, optFns ...Option) *Store {
	s := &Store{
		client:   client,
		bucket:   bucket,
		prefix:   strings.Trim(rootPrefix, "/"),
		partSize: DefaultPartSize,
	}
	for _, fn := range optFns {
		fn(s)
	}
	return s
}

func (s *Store) key(name string) string {
	return path.Join(s.prefix, name)
}

// name converts an object key back to a blob name.
func (s *Store) name(key string) string {
	if s.prefix == "" {
		return key
	}
	return strings.TrimPrefix(strings.TrimPrefix(key, s.prefix), "/")
}

// listPrefix returns the object key prefix for a blob name prefix. Unlike key
// it keeps a trailing slash.
func (s *Store) listPrefix(prefix string) string {
	if s.prefix == "" {
		return prefix
	}
	return s.prefix + "/" + prefix
}

func (s *Store) putOptions(checksum *uint32) minio.PutObjectOptions {
	opts := minio.PutObjectOptions{
		ContentType: ContentType,
		PartSize:    s.partSize,
	}
	if checksum != nil {
		opts.UserMetadata = map[string]string{ChecksumMetadata: strconv.FormatUint(uint64(*checksum), 16)}
	}
	return opts
}

func isNotFound(err error) bool {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NotFound":
		return true
	default:
		return false
	}
}

func (s *Store) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	key := s.key(name)
	info, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", blobstore.ErrNotFound, name)
		}
		return nil, fmt.Errorf("minio: stat %s: %w", key, err)
	}
	return &object{store: s, key: key, size: info.Size}, nil
}

// Put uploads data in one request and records its CRC32C as user metadata.
func (s *Store) Put(ctx context.Context, name string, data []byte) error {
	sum := hash.CRC32C(data)
	_, err := s.client.PutObject(ctx, s.bucket, s.key(name), bytes.NewReader(data), int64(len(data)), s.putOptions(&sum))
	if err != nil {
		return fmt.Errorf("minio: put %s: %w", name, err)
	}
	return nil
}

// Create starts a streaming multipart upload. The object is committed on
// Close; Abort drops it.
func (s *Store) Create(ctx context.Context, name string) (blobstore.WritableBlob, error) {
	pr, pw := io.Pipe()
	u := &upload{pw: pw, done: make(chan error, 1)}
	go func() {
		_, err := s.client.PutObject(ctx, s.bucket, s.key(name), pr, -1, s.putOptions(nil))
		_ = pr.CloseWithError(err)
		u.done <- err
	}()
	return u, nil
}

func (s *Store) Delete(ctx context.Context, name string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, s.key(name), minio.RemoveObjectOptions{}); err != nil && !isNotFound(err) {
		return fmt.Errorf("minio: delete %s: %w", name, err)
	}
	return nil
}

func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	var names []string
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    s.listPrefix(prefix),
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("minio: list %s: %w", prefix, obj.Err)
		}
		if name := s.name(obj.Key); name != "" {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names, nil
}

// object is an open blob. Every read is a ranged GET.
type object struct {
	store *Store
	key   string
	size  int64
}

func (o *object) Size() int64 { return o.size }

func (o *object) Close() error { return nil }

func (o *object) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if off >= o.size {
		return 0, io.EOF
	}
	if len(p) == 0 {
		return 0, nil
	}
	want := min(int64(len(p)), o.size-off)
	rc, err := o.ReadRange(ctx, off, want)
	if err != nil {
		return 0, err
	}
	defer func() { _ = rc.Close() }()

	n, err := io.ReadFull(rc, p[:want])
	if err == nil && want < int64(len(p)) {
		err = io.EOF
	}
	return n, err
}

func (o *object) ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error) {
	if off >= o.size || length <= 0 {
		return io.NopCloser(bytes.NewReader(nil)), nil
	}
	var opts minio.GetObjectOptions
	if err := opts.SetRange(off, min(off+length, o.size)-1); err != nil {
		return nil, err
	}
	obj, err := o.store.client.GetObject(ctx, o.store.bucket, o.key, opts)
	if err != nil {
		return nil, fmt.Errorf("minio: get %s: %w", o.key, err)
	}
	return obj, nil
}

// upload feeds a background PutObject through a pipe.
type upload struct {
	pw   *io.PipeWriter
	done chan error
	once sync.Once
	err  error
}

func (u *upload) Write(p []byte) (int, error) { return u.pw.Write(p) }

// Sync is a no-op; data is durable once Close returns.
func (u *upload) Sync() error { return nil }

func (u *upload) Close() error {
	u.once.Do(func() {
		if u.err = u.pw.Close(); u.err == nil {
			u.err = <-u.done
		}
	})
	return u.err
}

// Abort cancels the upload; nothing is committed.
func (u *upload) Abort() error {
	u.once.Do(func() {
		_ = u.pw.CloseWithError(errUploadAborted)
		u.err = errUploadAborted
	})
	return nil
}
