package lowcard

import (
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/hupe1980/lowcard/column"
)

// DeserializeSettings configures one decoder session.
type DeserializeSettings struct {
	// Streams resolves the keys and indexes substreams. Required.
	Streams InputStreamGetter
	// Column is the column name used to build substream paths.
	Column string
	// Observer, if set, is called after each chunk header (and the
	// dictionary or additional keys it requests) has been read.
	Observer func(ChunkInfo)
}

// Decoder is one column's deserialization session.
type Decoder struct {
	typ      *Type
	settings DeserializeSettings
	logger   *Logger
	metrics  MetricsCollector

	version Version
	// global is materialized on the first chunk that needs it and replaced
	// after a rotation.
	global column.Dictionary
	header Header
	// additional holds the current chunk's keys, nil when it has none.
	additional column.Column
	// additionalView is additional as a dictionary view (NULL at row 0 for
	// nullable keys), used by chunks without a global dictionary.
	additionalView column.Column
	// pending counts rows of the current chunk not yet returned.
	pending uint64
	chunks  int
}

// NewDecoder starts a session by reading and validating the version from the
// keys substream.
func (t *Type) NewDecoder(settings DeserializeSettings) (*Decoder, error) {
	if settings.Streams == nil {
		return nil, ErrNoStreamGetter
	}
	path := Path{Column: settings.Column, Substream: DictionaryKeys}
	keys := settings.Streams(path)
	if keys == nil {
		return nil, missingStream(path)
	}
	version, err := readVersion(keys)
	if err != nil {
		return nil, err
	}
	return &Decoder{
		typ:      t,
		settings: settings,
		logger:   t.opts.logger,
		metrics:  t.opts.metricsCollector,
		version:  version,
	}, nil
}

// Version returns the version read at session start.
func (d *Decoder) Version() Version { return d.version }

// PendingRows returns the rows of the current chunk not yet decoded.
func (d *Decoder) PendingRows() uint64 { return d.pending }

func (d *Decoder) streams() (InputStream, InputStream, error) {
	keysPath := Path{Column: d.settings.Column, Substream: DictionaryKeys}
	indexesPath := Path{Column: d.settings.Column, Substream: DictionaryIndexes}
	keys, indexes := d.settings.Streams(keysPath), d.settings.Streams(indexesPath)
	switch {
	case keys == nil && indexes == nil:
		return nil, nil, nil
	case keys == nil:
		return nil, nil, missingStream(keysPath)
	case indexes == nil:
		return nil, nil, missingStream(indexesPath)
	}
	return keys, indexes, nil
}

// Decode appends up to limit rows to col and returns how many were appended.
// limit 0 means until the indexes substream ends. Rows of a chunk larger than
// limit are carried over to the next call.
func (d *Decoder) Decode(col column.Column, limit int) (int, error) {
	lc, err := d.typ.lowCardinality(col)
	if err != nil {
		return 0, err
	}
	keys, indexes, err := d.streams()
	if err != nil || keys == nil {
		return 0, err
	}

	start := time.Now()
	n, err := d.decode(lc, keys, indexes, limit)
	if err != nil {
		err = fmt.Errorf("decode chunk %d of %s: %w", d.chunks, d.settings.Column, err)
	}
	d.metrics.RecordChunkDecoded(n, time.Since(start), err)
	return n, err
}

func (d *Decoder) decode(lc *column.LowCardinality, keys, indexes InputStream, limit int) (int, error) {
	read := 0
	for limit == 0 || read < limit {
		if d.pending == 0 {
			if _, err := indexes.Peek(1); err != nil {
				if errors.Is(err, io.EOF) {
					break
				}
				return read, err
			}
			if err := d.readChunkPrefix(keys, indexes); err != nil {
				return read, err
			}
			continue
		}

		n := d.pending
		if limit > 0 {
			n = min(n, uint64(limit-read))
		}
		rows, err := wordToInt(n)
		if err != nil {
			return read, err
		}
		positions, err := readIndexes(indexes, d.header.Width, rows)
		if err != nil {
			return read, err
		}
		if err := d.appendRows(lc, positions); err != nil {
			return read, err
		}
		read += rows
		d.pending -= n
	}
	return read, nil
}

// readChunkPrefix reads everything of a chunk that precedes its index array.
func (d *Decoder) readChunkPrefix(keys, indexes InputStream) error {
	info := ChunkInfo{Column: d.settings.Column, Sequence: d.chunks}

	header, err := readHeader(indexes)
	if err != nil {
		d.logger.LogChunkDecoded(info, err)
		return err
	}
	d.header = header
	info.Header = header

	if header.NeedGlobalDictionary && (d.global == nil || header.NeedUpdateDictionary) {
		if err := d.readDictionary(keys); err != nil {
			d.logger.LogChunkDecoded(info, err)
			return err
		}
		info.DictionaryBlock = true
	}

	d.additional, d.additionalView = nil, nil
	if header.HasAdditionalKeys {
		if d.additional, err = d.typ.variant.readKeys(indexes); err != nil {
			err = fmt.Errorf("read additional keys: %w", err)
			d.logger.LogChunkDecoded(info, err)
			return err
		}
		info.AdditionalKeys = d.additional.Len()
		if !header.NeedGlobalDictionary {
			dict, err := d.typ.variant.seeded(d.additional)
			if err != nil {
				d.logger.LogChunkDecoded(info, err)
				return err
			}
			d.additionalView = dict.Nested()
		}
	}

	if d.pending, err = readWord(indexes); err != nil {
		err = fmt.Errorf("read row count: %w", err)
		d.logger.LogChunkDecoded(info, err)
		return err
	}
	info.Rows = int(min(d.pending, math.MaxInt))
	if d.global != nil && header.NeedGlobalDictionary {
		info.DictionarySize = d.global.Len()
	}

	d.chunks++
	d.logger.LogChunkDecoded(info, nil)
	if d.settings.Observer != nil {
		d.settings.Observer(info)
	}
	return nil
}

func (d *Decoder) readDictionary(keys InputStream) error {
	raw, err := d.typ.variant.readKeys(keys)
	if err != nil {
		return fmt.Errorf("read dictionary: %w", err)
	}
	dict, err := d.typ.variant.seeded(raw)
	if err != nil {
		return fmt.Errorf("read dictionary: %w", err)
	}
	d.global = dict
	d.logger.LogDictionaryLoaded(d.settings.Column, dict.Len())
	return nil
}

// appendRows reconstructs rows from one run of positions of the current chunk.
func (d *Decoder) appendRows(lc *column.LowCardinality, positions column.Indexes) error {
	n := positions.Len()
	if n == 0 {
		return nil
	}
	h := d.header

	switch {
	case !h.NeedGlobalDictionary && !h.HasAdditionalKeys:
		return fmt.Errorf("%w: %d rows without keys", ErrCorruptStream, n)

	case h.NeedGlobalDictionary && !h.HasAdditionalKeys && (lc.Len() == 0 || lc.Dictionary() == d.global):
		// Positions already address the global dictionary.
		if lc.Dictionary() != d.global {
			if err := lc.SetSharedDictionary(d.global); err != nil {
				return err
			}
		}
		local, err := column.NewLowCardinalityWithIndexes(d.global, positions)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrCorruptStream, err)
		}
		return lc.InsertRangeFrom(local, 0, n)

	case !h.NeedGlobalDictionary:
		if err := lc.InsertRangeFromDictionaryEncoded(d.additionalView, positions); err != nil {
			return fmt.Errorf("%w: %w", ErrCorruptStream, err)
		}
		return nil

	default:
		compact, err := MapIndexWithOverflow(positions, uint64(d.global.Len()))
		if err != nil {
			return err
		}
		keys, err := d.global.Nested().Index(compact)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrCorruptStream, err)
		}
		if d.additional != nil {
			if err := keys.InsertRangeFrom(d.additional, 0, d.additional.Len()); err != nil {
				return err
			}
		}
		if err := lc.InsertRangeFromDictionaryEncoded(keys, positions); err != nil {
			return fmt.Errorf("%w: %w", ErrCorruptStream, err)
		}
		return nil
	}
}
