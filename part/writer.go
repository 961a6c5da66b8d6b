package part

import (
	"context"
	"errors"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/lowcard"
	"github.com/hupe1980/lowcard/blobstore"
	"github.com/hupe1980/lowcard/column"
)

// Column is one named column to store.
type Column struct {
	Name string
	Type *lowcard.Type
	Data *column.LowCardinality
}

// Write stores cols as the part name and returns its manifest. Columns are
// encoded concurrently, each in its own encoder session. The manifest is
// written last; on failure the blobs written so far are removed.
func Write(ctx context.Context, store blobstore.BlobStore, name string, cols []Column, optFns ...Option) (*Manifest, error) {
	opts := applyOptions(optFns)
	rows, err := validate(cols)
	if err != nil {
		return nil, err
	}
	if err := checkAbsent(ctx, store, name); err != nil {
		return nil, err
	}

	m := &Manifest{
		FormatVersion:              FormatVersion,
		Compression:                opts.compression.String(),
		GranuleRows:                opts.granuleRows,
		MaxDictionarySize:          opts.maxDictionarySize,
		RotateDictionaryOnOverflow: opts.rotate,
		Rows:                       rows,
		Columns:                    make([]ColumnInfo, len(cols)),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.concurrency)
	for i, col := range cols {
		g.Go(func() error {
			info, err := writeColumn(gctx, store, name, col, opts)
			if err != nil {
				return fmt.Errorf("column %s: %w", col.Name, err)
			}
			m.Columns[i] = info
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		cleanup(store, name, m)
		return nil, err
	}

	data, err := EncodeManifest(m, opts.codec)
	if err != nil {
		cleanup(store, name, m)
		return nil, err
	}
	if err := putManifest(ctx, store, name, data); err != nil {
		if !errors.Is(err, ErrPartExists) {
			cleanup(store, name, m)
		}
		return nil, err
	}
	return m, nil
}

func validate(cols []Column) (int, error) {
	if len(cols) == 0 {
		return 0, ErrNoColumns
	}
	seen := make(map[string]struct{}, len(cols))
	rows := -1
	for _, col := range cols {
		if col.Name == "" || col.Type == nil || col.Data == nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidColumn, col.Name)
		}
		if _, ok := seen[col.Name]; ok {
			return 0, fmt.Errorf("%w: %q", ErrDuplicateColumn, col.Name)
		}
		seen[col.Name] = struct{}{}
		if rows >= 0 && col.Data.Len() != rows {
			return 0, fmt.Errorf("%w: %q has %d rows, expected %d", ErrRowCountMismatch, col.Name, col.Data.Len(), rows)
		}
		rows = col.Data.Len()
	}
	return rows, nil
}

// checkAbsent fails early when the part is already published so its blobs
// are not overwritten. putManifest still decides races between writers.
func checkAbsent(ctx context.Context, store blobstore.BlobStore, name string) error {
	b, err := store.Open(ctx, manifestName(name))
	if err == nil {
		_ = b.Close()
		return fmt.Errorf("%w: %s", ErrPartExists, name)
	}
	if errors.Is(err, blobstore.ErrNotFound) {
		return nil
	}
	return err
}

func putManifest(ctx context.Context, store blobstore.BlobStore, name string, data []byte) error {
	cs, ok := store.(blobstore.ConditionalStore)
	if !ok {
		return store.Put(ctx, manifestName(name), data)
	}
	if err := cs.PutIfNotExists(ctx, manifestName(name), data); err != nil {
		if errors.Is(err, blobstore.ErrExists) {
			return fmt.Errorf("%w: %s", ErrPartExists, name)
		}
		return err
	}
	return nil
}

// cleanup removes the substream blobs of a failed write. It uses a fresh
// context so cancellation of the write does not stop it.
func cleanup(store blobstore.BlobStore, name string, m *Manifest) {
	ctx := context.Background()
	for _, c := range m.Columns {
		for _, s := range c.Streams {
			_ = store.Delete(ctx, s.Blob)
		}
	}
}

func writeColumn(ctx context.Context, store blobstore.BlobStore, name string, col Column, opts options) (ColumnInfo, error) {
	info := ColumnInfo{Name: col.Name, Type: col.Type.Name(), Rows: col.Data.Len()}

	var (
		sinks []*sink
		err   error
	)
	bySubstream := make(map[lowcard.Substream]*sink, 2)
	col.Type.EnumerateStreams(col.Name, func(p lowcard.Path) {
		if err != nil {
			return
		}
		var s *sink
		if s, err = newSink(ctx, store, name, p, opts); err == nil {
			sinks = append(sinks, s)
			bySubstream[p.Substream] = s
		}
	})
	published := false
	defer func() {
		if !published {
			for _, s := range sinks {
				s.abort()
			}
		}
	}()
	if err != nil {
		return info, err
	}

	enc, err := col.Type.NewEncoder(lowcard.SerializeSettings{
		Streams: func(p lowcard.Path) io.Writer {
			if s, ok := bySubstream[p.Substream]; ok {
				return s
			}
			return nil
		},
		Column:                     col.Name,
		MaxDictionarySize:          opts.maxDictionarySize,
		RotateDictionaryOnOverflow: opts.rotate,
	})
	if err != nil {
		return info, err
	}

	for offset := 0; offset < col.Data.Len(); offset += opts.granuleRows {
		if err := ctx.Err(); err != nil {
			return info, err
		}
		if err := enc.Encode(col.Data, offset, opts.granuleRows); err != nil {
			return info, err
		}
		info.Granules++
	}
	if err := enc.Close(); err != nil {
		return info, err
	}

	published = true
	for i, s := range sinks {
		stream, err := s.finish()
		if err != nil {
			for _, rest := range sinks[i:] {
				rest.abort()
			}
			for _, done := range info.Streams {
				_ = store.Delete(context.WithoutCancel(ctx), done.Blob)
			}
			return ColumnInfo{}, err
		}
		info.Streams = append(info.Streams, stream)
	}
	return info, nil
}
