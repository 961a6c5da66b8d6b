package lowcard

import (
	"fmt"
	"io"
	"time"

	"github.com/hupe1980/lowcard/column"
)

// SerializeSettings configures one encoder session.
type SerializeSettings struct {
	// Streams resolves the keys and indexes substreams. Required.
	Streams OutputStreamGetter
	// Column is the column name used to build substream paths.
	Column string
	// MaxDictionarySize bounds the global dictionary. 0 disables it and every
	// chunk carries its own keys.
	MaxDictionarySize uint64
	// RotateDictionaryOnOverflow flushes a full global dictionary and starts
	// a fresh one. Otherwise a full dictionary stays in use and new keys are
	// written per chunk.
	RotateDictionaryOnOverflow bool
	// Observer, if set, is called after each chunk is written.
	Observer func(ChunkInfo)
}

// ChunkInfo describes one chunk as written or read.
type ChunkInfo struct {
	Column string
	// Sequence is the 0-based chunk ordinal within the session.
	Sequence int
	Header   Header
	// AdditionalKeys is the number of chunk-local keys.
	AdditionalKeys int
	Rows           int
	// DictionarySize is the global dictionary size the chunk references.
	DictionarySize int
	// DictionaryBlock is true when a dictionary block was written (encoder)
	// or read (decoder) on the keys substream for this chunk.
	DictionaryBlock bool
}

// Encoder is one column's serialization session.
type Encoder struct {
	typ      *Type
	settings SerializeSettings
	logger   *Logger
	metrics  MetricsCollector

	// global accumulates keys until it is flushed.
	global column.Dictionary
	// pendingUpdate marks that the next chunk must tell readers to replace
	// their dictionary.
	pendingUpdate bool
	// requested is true when a chunk since the last flush used the global
	// dictionary, so one more block must be written at Close.
	requested bool
	chunks    int
	closed    bool
}

// NewEncoder starts a session: it writes the version to the keys substream
// and allocates an empty global dictionary.
func (t *Type) NewEncoder(settings SerializeSettings) (*Encoder, error) {
	if settings.Streams == nil {
		return nil, ErrNoStreamGetter
	}
	path := Path{Column: settings.Column, Substream: DictionaryKeys}
	keys := settings.Streams(path)
	if keys == nil {
		return nil, missingStream(path)
	}
	if err := writeVersion(keys); err != nil {
		return nil, fmt.Errorf("write version: %w", err)
	}
	return &Encoder{
		typ:      t,
		settings: settings,
		logger:   t.opts.logger,
		metrics:  t.opts.metricsCollector,
		global:   t.variant.empty(),
	}, nil
}

// DictionarySize returns the current size of the global dictionary.
func (e *Encoder) DictionarySize() int { return e.global.Len() }

func (e *Encoder) streams() (io.Writer, io.Writer, error) {
	keysPath := Path{Column: e.settings.Column, Substream: DictionaryKeys}
	indexesPath := Path{Column: e.settings.Column, Substream: DictionaryIndexes}
	keys, indexes := e.settings.Streams(keysPath), e.settings.Streams(indexesPath)
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

// Encode writes rows [offset, offset+limit) of col as one chunk. limit 0
// means to the end of col, and a limit past the end is cut to it. Only an
// offset beyond the end of col is out of range. When neither substream resolves, Encode does
// nothing.
func (e *Encoder) Encode(col column.Column, offset, limit int) error {
	if e.closed {
		return fmt.Errorf("%w: encoder is closed", ErrInvalidState)
	}
	lc, err := e.typ.lowCardinality(col)
	if err != nil {
		return err
	}
	keys, indexes, err := e.streams()
	if err != nil || keys == nil {
		return err
	}

	start := time.Now()
	info, err := e.encodeChunk(lc, keys, indexes, offset, limit)
	if err != nil {
		err = fmt.Errorf("encode chunk %d of %s: %w", info.Sequence, e.settings.Column, err)
	}
	e.metrics.RecordChunkEncoded(info.Rows, info.AdditionalKeys, time.Since(start), err)
	e.logger.LogChunkEncoded(info, err)
	if err != nil {
		return err
	}
	e.chunks++
	if e.settings.Observer != nil {
		e.settings.Observer(info)
	}
	return nil
}

func (e *Encoder) encodeChunk(lc *column.LowCardinality, keysOut, indexesOut io.Writer, offset, limit int) (ChunkInfo, error) {
	info := ChunkInfo{Column: e.settings.Column, Sequence: e.chunks}

	// A chunk running past the end of the column stops at the end.
	if rest := lc.Len() - offset; offset >= 0 && rest >= 0 && (limit == 0 || limit > rest) {
		limit = rest
	}
	sub, err := lc.CutAndCompact(offset, limit)
	if err != nil {
		return info, err
	}
	positions := sub.Indexes()
	local := sub.Dictionary()
	// Keys are serialized without the Nullable wrapper; nullness is carried by
	// position 0.
	keys := local.Keys()

	capacity := e.settings.MaxDictionarySize
	if capacity > 0 {
		mapping, overflow, err := e.global.InsertRangeWithOverflow(local.Nested(), 0, local.Len(), capacity)
		if err != nil {
			return info, err
		}
		if positions, err = mapping.Gather(positions); err != nil {
			return info, err
		}
		keys = overflow
	}

	needGlobal := capacity > 0
	flush := needGlobal && e.settings.RotateDictionaryOnOverflow && uint64(e.global.Len()) >= capacity

	info.Header = headerFor(positions, needGlobal, keys.Len() > 0, e.pendingUpdate)
	info.AdditionalKeys = keys.Len()
	info.Rows = positions.Len()
	if needGlobal {
		info.DictionarySize = e.global.Len()
	}

	if err := info.Header.write(indexesOut); err != nil {
		return info, fmt.Errorf("write header: %w", err)
	}
	e.pendingUpdate = false
	if needGlobal {
		e.requested = true
	}

	if flush {
		if err := e.flush(keysOut, false); err != nil {
			return info, err
		}
		e.global = e.typ.variant.empty()
		e.pendingUpdate = true
		info.DictionaryBlock = true
	}

	if info.Header.HasAdditionalKeys {
		if err := e.typ.variant.writeKeys(indexesOut, keys); err != nil {
			return info, fmt.Errorf("write additional keys: %w", err)
		}
	}
	if err := writeWord(indexesOut, uint64(positions.Len())); err != nil {
		return info, fmt.Errorf("write row count: %w", err)
	}
	if err := writeIndexes(indexesOut, positions); err != nil {
		return info, fmt.Errorf("write indexes: %w", err)
	}
	return info, nil
}

func (e *Encoder) flush(keysOut io.Writer, final bool) error {
	keys := e.global.Keys()
	if err := e.typ.variant.writeKeys(keysOut, keys); err != nil {
		return fmt.Errorf("write dictionary: %w", err)
	}
	e.requested = false
	e.metrics.RecordDictionaryFlush(keys.Len())
	e.logger.LogDictionaryFlush(e.settings.Column, keys.Len(), final)
	return nil
}

// Close ends the session. With a global dictionary in use it writes the
// current dictionary to the keys substream once more, even if an identical
// block was flushed mid-stream. Close is idempotent.
func (e *Encoder) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true
	if e.settings.MaxDictionarySize == 0 {
		return nil
	}
	if e.global.Len() == 0 && !e.requested {
		return nil
	}
	path := Path{Column: e.settings.Column, Substream: DictionaryKeys}
	keys := e.settings.Streams(path)
	if keys == nil {
		return missingStream(path)
	}
	return e.flush(keys, true)
}
