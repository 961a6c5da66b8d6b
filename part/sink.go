package part

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/hupe1980/lowcard"
	"github.com/hupe1980/lowcard/blobstore"
	"github.com/hupe1980/lowcard/compress"
	"github.com/hupe1980/lowcard/internal/hash"
)

func blobName(part string, p lowcard.Path) string {
	return part + "/" + p.String() + ".bin"
}

func manifestName(part string) string {
	return part + "/manifest"
}

// sink is the write side of one substream: checksum, then compression, then
// buffering in front of the blob.
type sink struct {
	path string
	blob blobstore.WritableBlob
	buf  *bufio.Writer
	comp *compress.Writer
	sum  *hash.Writer
	name string
}

func newSink(ctx context.Context, store blobstore.BlobStore, part string, p lowcard.Path, opts options) (*sink, error) {
	name := blobName(part, p)
	blob, err := store.Create(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", name, err)
	}
	buf := bufio.NewWriter(blob)
	comp := compress.NewWriter(buf, opts.compression, opts.blockSize)
	return &sink{
		path: p.String(),
		blob: blob,
		buf:  buf,
		comp: comp,
		sum:  hash.NewWriter(comp),
		name: name,
	}, nil
}

func (s *sink) Write(p []byte) (int, error) { return s.sum.Write(p) }

// finish flushes every layer and publishes the blob.
func (s *sink) finish() (StreamInfo, error) {
	if err := s.comp.Close(); err != nil {
		return StreamInfo{}, err
	}
	if err := s.buf.Flush(); err != nil {
		return StreamInfo{}, err
	}
	if err := s.blob.Sync(); err != nil {
		return StreamInfo{}, err
	}
	if err := s.blob.Close(); err != nil {
		return StreamInfo{}, fmt.Errorf("publish %s: %w", s.name, err)
	}
	return StreamInfo{
		Path:       s.path,
		Blob:       s.name,
		RawSize:    s.sum.Size(),
		Checksum:   s.sum.Sum32(),
		StoredSize: s.comp.Written(),
		Blocks:     s.comp.Blocks(),
	}, nil
}

func (s *sink) abort() {
	_ = blobstore.Abort(s.blob)
}

// source is the read side of one substream. It mirrors sink in reverse.
type source struct {
	info StreamInfo
	blob blobstore.Blob
	sum  *hash.Reader
	in   lowcard.InputStream
}

func newSource(ctx context.Context, store blobstore.BlobStore, info StreamInfo) (*source, error) {
	blob, err := store.Open(ctx, info.Blob)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", info.Blob, err)
	}
	if blob.Size() != info.StoredSize {
		_ = blob.Close()
		return nil, fmt.Errorf("%w: %s is %d bytes, manifest says %d", ErrCorruptPart, info.Blob, blob.Size(), info.StoredSize)
	}
	raw := blobstore.NewReader(ctx, blob)
	sum := hash.NewReader(compress.NewReader(bufio.NewReader(raw)))
	return &source{
		info: info,
		blob: blob,
		sum:  sum,
		in:   lowcard.NewInputStream(sum),
	}, nil
}

// verify drains what the decoder left unread and checks size and checksum.
func (s *source) verify() error {
	if _, err := io.Copy(io.Discard, s.in); err != nil {
		return fmt.Errorf("%w: drain %s: %w", ErrCorruptPart, s.info.Blob, err)
	}
	if s.sum.Size() != s.info.RawSize {
		return fmt.Errorf("%w: %s has %d raw bytes, manifest says %d", ErrCorruptPart, s.info.Blob, s.sum.Size(), s.info.RawSize)
	}
	if err := s.sum.Verify(s.info.Checksum); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrCorruptPart, s.info.Blob, err)
	}
	return nil
}

func (s *source) close() error {
	return s.blob.Close()
}
