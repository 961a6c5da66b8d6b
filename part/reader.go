package part

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/lowcard"
	"github.com/hupe1980/lowcard/blobstore"
	"github.com/hupe1980/lowcard/codec"
	"github.com/hupe1980/lowcard/column"
	"github.com/hupe1980/lowcard/types"
)

// Reader reads the columns of a stored part.
type Reader struct {
	store    blobstore.BlobStore
	name     string
	manifest *Manifest
	codec    codec.Codec
	types    map[string]*lowcard.Type
	opts     options
}

// Open loads the manifest of part name and resolves its column types.
func Open(ctx context.Context, store blobstore.BlobStore, name string, optFns ...Option) (*Reader, error) {
	opts := applyOptions(optFns)

	data, err := blobstore.ReadAll(ctx, store, manifestName(name))
	if err != nil {
		return nil, fmt.Errorf("read manifest of %s: %w", name, err)
	}
	m, c, err := DecodeManifest(data)
	if err != nil {
		return nil, err
	}

	r := &Reader{
		store:    store,
		name:     name,
		manifest: m,
		codec:    c,
		types:    make(map[string]*lowcard.Type, len(m.Columns)),
		opts:     opts,
	}
	for _, info := range m.Columns {
		t, err := resolveType(info.Type, opts.typeOptions)
		if err != nil {
			return nil, fmt.Errorf("%w: column %s: %w", ErrCorruptPart, info.Name, err)
		}
		r.types[info.Name] = t
	}
	return r, nil
}

func resolveType(decl string, opts []lowcard.Option) (*lowcard.Type, error) {
	parsed, err := types.Parse(decl)
	if err != nil {
		return nil, err
	}
	t, ok := parsed.(*lowcard.Type)
	if !ok {
		return nil, fmt.Errorf("%s is not dictionary encoded", decl)
	}
	if len(opts) == 0 {
		return t, nil
	}
	return lowcard.NewType(t.KeyType(), opts...)
}

// Manifest returns the part manifest.
func (r *Reader) Manifest() *Manifest { return r.manifest }

// Codec returns the codec the manifest was stored with.
func (r *Reader) Codec() codec.Codec { return r.codec }

// Columns returns the column names in storage order.
func (r *Reader) Columns() []string {
	names := make([]string, len(r.manifest.Columns))
	for i, c := range r.manifest.Columns {
		names[i] = c.Name
	}
	return names
}

// Type returns the type of column name.
func (r *Reader) Type(name string) (*lowcard.Type, bool) {
	t, ok := r.types[name]
	return t, ok
}

// ReadColumn decodes column name. Each Decode call is limited to budget
// rows; 0 decodes in one call. observer, if set, sees every chunk read.
func (r *Reader) ReadColumn(ctx context.Context, name string, budget int, observer func(lowcard.ChunkInfo)) (*column.LowCardinality, error) {
	info, ok := r.manifest.Column(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownColumn, name)
	}
	t := r.types[name]

	sources := make(map[lowcard.Substream]*source, 2)
	defer func() {
		for _, s := range sources {
			_ = s.close()
		}
	}()
	var err error
	t.EnumerateStreams(name, func(p lowcard.Path) {
		if err != nil {
			return
		}
		stream, ok := info.Stream(p.String())
		if !ok {
			err = fmt.Errorf("%w: column %s has no %s stream", ErrCorruptPart, name, p.Substream)
			return
		}
		var s *source
		if s, err = newSource(ctx, r.store, stream); err == nil {
			sources[p.Substream] = s
		}
	})
	if err != nil {
		return nil, err
	}

	dec, err := t.NewDecoder(lowcard.DeserializeSettings{
		Streams: func(p lowcard.Path) lowcard.InputStream {
			if s, ok := sources[p.Substream]; ok {
				return s.in
			}
			return nil
		},
		Column:   name,
		Observer: observer,
	})
	if err != nil {
		return nil, err
	}

	out := column.NewLowCardinality(t.NewDictionary())
	limit := budget
	if limit <= 0 {
		limit = info.Rows
	}
	for out.Len() < info.Rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, err := dec.Decode(out, min(limit, info.Rows-out.Len()))
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", name, err)
		}
		if n == 0 {
			break
		}
	}
	if out.Len() != info.Rows {
		return nil, fmt.Errorf("%w: column %s decoded %d rows, manifest says %d", ErrCorruptPart, name, out.Len(), info.Rows)
	}
	if dec.PendingRows() != 0 {
		return nil, fmt.Errorf("%w: column %s has %d undecoded rows", ErrCorruptPart, name, dec.PendingRows())
	}

	var errs []error
	for _, s := range sources {
		errs = append(errs, s.verify())
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return out, nil
}

// ReadColumns decodes every column concurrently and returns them keyed by name.
func (r *Reader) ReadColumns(ctx context.Context, budget int) (map[string]*column.LowCardinality, error) {
	cols := make([]*column.LowCardinality, len(r.manifest.Columns))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.concurrency)
	for i, info := range r.manifest.Columns {
		g.Go(func() error {
			col, err := r.ReadColumn(gctx, info.Name, budget, nil)
			if err != nil {
				return err
			}
			cols[i] = col
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string]*column.LowCardinality, len(cols))
	for i, info := range r.manifest.Columns {
		out[info.Name] = cols[i]
	}
	return out, nil
}
