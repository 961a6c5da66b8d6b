package lowcard

import (
	"bufio"
	"fmt"
	"io"

	"github.com/hupe1980/lowcard/internal/conv"
)

// Substream tags one of the two byte channels of a dictionary-encoded column.
type Substream uint8

const (
	// DictionaryKeys carries the version and the global dictionary blocks.
	DictionaryKeys Substream = iota
	// DictionaryIndexes carries chunk headers, additional keys and indexes.
	DictionaryIndexes
)

func (s Substream) String() string {
	switch s {
	case DictionaryKeys:
		return "DictionaryKeys"
	case DictionaryIndexes:
		return "DictionaryIndexes"
	default:
		return fmt.Sprintf("Substream(%d)", uint8(s))
	}
}

// Path names one substream of one column.
type Path struct {
	Column    string
	Substream Substream
}

// String returns the stream name: "<column>.dict" for keys and "<column>"
// for indexes.
func (p Path) String() string {
	if p.Substream == DictionaryKeys {
		return p.Column + ".dict"
	}
	return p.Column
}

// OutputStreamGetter resolves a substream for writing. It returns nil when the
// stream is not available.
type OutputStreamGetter func(Path) io.Writer

// InputStream is a readable substream that can detect its end without
// consuming data. *bufio.Reader implements it.
type InputStream interface {
	io.Reader
	io.ByteReader
	Peek(n int) ([]byte, error)
}

// InputStreamGetter resolves a substream for reading. It returns nil when the
// stream is not available.
type InputStreamGetter func(Path) InputStream

// NewInputStream wraps r as an InputStream, reusing it if it already is one.
func NewInputStream(r io.Reader) InputStream {
	if in, ok := r.(InputStream); ok {
		return in
	}
	return bufio.NewReader(r)
}

// WriterStreams returns a getter that resolves every column to the given writers.
// A nil writer leaves that substream unresolved.
func WriterStreams(keys, indexes io.Writer) OutputStreamGetter {
	return func(p Path) io.Writer {
		if p.Substream == DictionaryKeys {
			return keys
		}
		return indexes
	}
}

// ReaderStreams returns a getter that resolves every column to the given readers.
// A nil reader leaves that substream unresolved.
func ReaderStreams(keys, indexes io.Reader) InputStreamGetter {
	var k, i InputStream
	if keys != nil {
		k = NewInputStream(keys)
	}
	if indexes != nil {
		i = NewInputStream(indexes)
	}
	return func(p Path) InputStream {
		if p.Substream == DictionaryKeys {
			return k
		}
		return i
	}
}

// EnumerateStreams calls fn for both substream paths of column, keys first.
func EnumerateStreams(column string, fn func(Path)) {
	fn(Path{Column: column, Substream: DictionaryKeys})
	fn(Path{Column: column, Substream: DictionaryIndexes})
}

func wordToInt(word uint64) (int, error) {
	n, err := conv.Uint64ToInt(word)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrCorruptStream, err)
	}
	return n, nil
}
