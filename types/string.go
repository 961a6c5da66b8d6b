package types

import (
	"encoding/binary"
	"fmt"
	"io"
	"strconv"

	"github.com/hupe1980/lowcard/column"
)

// maxStringSize rejects corrupt length prefixes before allocating.
const maxStringSize = 1 << 30

// StringType is a variable-length byte string.
type StringType struct{}

var _ Type = StringType{}

// String returns the variable-length string type.
func String() StringType { return StringType{} }

func (StringType) Name() string { return "String" }

func (StringType) Kind() Kind { return KindString }

func (StringType) CreateColumn() column.Column { return column.NewString() }

func (t StringType) SerializeBinaryBulk(w io.Writer, col column.Column, offset, limit int) error {
	typed, ok := col.(column.Typed[string])
	if !ok {
		return columnType(t, col)
	}
	if err := checkBulkRange(col, offset, limit); err != nil {
		return err
	}
	var buf []byte
	for _, s := range typed.Data()[offset : offset+limit] {
		buf = binary.AppendUvarint(buf, uint64(len(s)))
		buf = append(buf, s...)
		if len(buf) >= 64<<10 {
			if _, err := w.Write(buf); err != nil {
				return err
			}
			buf = buf[:0]
		}
	}
	if len(buf) > 0 {
		_, err := w.Write(buf)
		return err
	}
	return nil
}

func (t StringType) DeserializeBinaryBulk(r io.Reader, col column.Column, limit int) error {
	typed, ok := col.(column.Typed[string])
	if !ok {
		return columnType(t, col)
	}
	br := byteReader(r)
	for i := 0; i < limit; i++ {
		size, err := binary.ReadUvarint(br)
		if err != nil {
			if err == io.EOF {
				return io.ErrUnexpectedEOF
			}
			return err
		}
		if size > maxStringSize {
			return fmt.Errorf("%w: string of %d bytes", ErrInvalidArgument, size)
		}
		b := make([]byte, size)
		if err := readFull(r, b); err != nil {
			return err
		}
		typed.Append(string(b))
	}
	return nil
}

type singleByteReader struct {
	r   io.Reader
	buf [1]byte
}

func (b *singleByteReader) ReadByte() (byte, error) {
	if _, err := io.ReadFull(b.r, b.buf[:]); err != nil {
		return 0, err
	}
	return b.buf[0], nil
}

// byteReader never buffers ahead, so r stays positioned after each value.
func byteReader(r io.Reader) io.ByteReader {
	if br, ok := r.(io.ByteReader); ok {
		return br
	}
	return &singleByteReader{r: r}
}

// FixedStringType is a string of exactly N bytes.
type FixedStringType struct {
	n int
}

var _ Type = (*FixedStringType)(nil)

// FixedString returns the FixedString(n) type.
func FixedString(n int) (*FixedStringType, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: FixedString size must be positive, got %d", ErrInvalidArgument, n)
	}
	return &FixedStringType{n: n}, nil
}

// Size returns N.
func (t *FixedStringType) Size() int { return t.n }

func (t *FixedStringType) Name() string { return "FixedString(" + strconv.Itoa(t.n) + ")" }

func (t *FixedStringType) Kind() Kind { return KindFixedString }

func (t *FixedStringType) CreateColumn() column.Column { return column.NewFixedString(t.n) }

func (t *FixedStringType) SerializeBinaryBulk(w io.Writer, col column.Column, offset, limit int) error {
	typed, ok := col.(*column.FixedString)
	if !ok || typed.Width() != t.n {
		return columnType(t, col)
	}
	if err := checkBulkRange(col, offset, limit); err != nil {
		return err
	}
	buf := make([]byte, 0, t.n*limit)
	for _, s := range typed.Data()[offset : offset+limit] {
		buf = append(buf, s...)
	}
	_, err := w.Write(buf)
	return err
}

func (t *FixedStringType) DeserializeBinaryBulk(r io.Reader, col column.Column, limit int) error {
	typed, ok := col.(*column.FixedString)
	if !ok || typed.Width() != t.n {
		return columnType(t, col)
	}
	batch := max(1, readBatch/t.n)
	buf := make([]byte, t.n*min(limit, batch))
	for limit > 0 {
		rows := min(limit, batch)
		chunk := buf[:rows*t.n]
		if err := readFull(r, chunk); err != nil {
			return err
		}
		for i := 0; i < rows; i++ {
			typed.Append(string(chunk[i*t.n : (i+1)*t.n]))
		}
		limit -= rows
	}
	return nil
}
