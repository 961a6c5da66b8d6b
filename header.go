package lowcard

import (
	"fmt"
	"io"

	"github.com/hupe1980/lowcard/column"
	"github.com/hupe1980/lowcard/types"
)

// Chunk header flag bits. The low byte holds the index width tag.
const (
	NeedGlobalDictionaryBit uint64 = 1 << 8
	HasAdditionalKeysBit    uint64 = 1 << 9
	// NeedUpdateDictionaryBit marks the first chunk after a rotation flush:
	// the reader must replace its global dictionary with the next block.
	NeedUpdateDictionaryBit uint64 = 1 << 10

	flagBits = NeedGlobalDictionaryBit | HasAdditionalKeysBit | NeedUpdateDictionaryBit
)

// Header is the decoded per-chunk header word.
type Header struct {
	Width                column.Width
	NeedGlobalDictionary bool
	HasAdditionalKeys    bool
	NeedUpdateDictionary bool
}

// headerFor derives the width from the index array that will be written,
// so header and payload cannot disagree.
func headerFor(positions column.Indexes, needGlobal, hasAdditional, needUpdate bool) Header {
	return Header{
		Width:                positions.Width(),
		NeedGlobalDictionary: needGlobal,
		HasAdditionalKeys:    hasAdditional,
		NeedUpdateDictionary: needUpdate,
	}
}

// Encode returns the header word.
func (h Header) Encode() uint64 {
	word := uint64(h.Width)
	if h.NeedGlobalDictionary {
		word |= NeedGlobalDictionaryBit
	}
	if h.HasAdditionalKeys {
		word |= HasAdditionalKeysBit
	}
	if h.NeedUpdateDictionary {
		word |= NeedUpdateDictionaryBit
	}
	return word
}

// DecodeHeader parses a header word. Any value left after removing the flag
// bits must be a known width tag. Bit 10 (NeedUpdateDictionaryBit) is
// accepted alongside bits 8 and 9; any other high bit is rejected.
func DecodeHeader(word uint64) (Header, error) {
	tag := word &^ flagBits
	if tag > uint64(column.WidthUInt64) {
		return Header{}, fmt.Errorf("%w: %d", ErrInvalidIndexWidth, tag)
	}
	return Header{
		Width:                column.Width(tag),
		NeedGlobalDictionary: word&NeedGlobalDictionaryBit != 0,
		HasAdditionalKeys:    word&HasAdditionalKeysBit != 0,
		NeedUpdateDictionary: word&NeedUpdateDictionaryBit != 0,
	}, nil
}

func (h Header) write(w io.Writer) error {
	return writeWord(w, h.Encode())
}

func readHeader(r io.Reader) (Header, error) {
	word, err := readWord(r)
	if err != nil {
		return Header{}, fmt.Errorf("read chunk header: %w", err)
	}
	return DecodeHeader(word)
}

// indexType returns the unsigned type that serializes index arrays of width w.
func indexType(w column.Width) types.Type {
	switch w {
	case column.WidthUInt8:
		return types.UInt8()
	case column.WidthUInt16:
		return types.UInt16()
	case column.WidthUInt32:
		return types.UInt32()
	default:
		return types.UInt64()
	}
}

func writeIndexes(w io.Writer, positions column.Indexes) error {
	col, ok := positions.(column.Column)
	if !ok {
		return fmt.Errorf("%w: %T", ErrInvalidIndexWidth, positions)
	}
	return indexType(positions.Width()).SerializeBinaryBulk(w, col, 0, positions.Len())
}

// indexPrealloc bounds the capacity reserved from a row count read off the
// stream. Larger arrays grow as their payload arrives.
const indexPrealloc = 1 << 16

func readIndexes(r io.Reader, width column.Width, n int) (column.Indexes, error) {
	positions := column.NewIndexes(width, min(n, indexPrealloc))
	if err := indexType(width).DeserializeBinaryBulk(r, positions.(column.Column), n); err != nil {
		return nil, fmt.Errorf("read %d %s indexes: %w", n, width, err)
	}
	return positions, nil
}
