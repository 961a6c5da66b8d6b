package types

import (
	"encoding/binary"
	"io"

	"github.com/hupe1980/lowcard/column"
)

// Fixed is the set of Go types stored as fixed-width little-endian values.
type Fixed interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~int8 | ~int16 | ~int32 | ~int64 |
		~float32 | ~float64 | ~[16]byte
}

// readBatch bounds the allocation made for a single bulk read.
const readBatch = 1 << 16

// Scalar is a fixed-width value type backed by a Vector[T].
type Scalar[T Fixed] struct {
	name string
	kind Kind
}

var _ Type = (*Scalar[uint8])(nil)

func newScalar[T Fixed](name string, kind Kind) *Scalar[T] {
	return &Scalar[T]{name: name, kind: kind}
}

func UInt8() *Scalar[uint8] { return newScalar[uint8]("UInt8", KindUInt8) }
func UInt16() *Scalar[uint16] { return newScalar[uint16]("UInt16", KindUInt16) }
func UInt32() *Scalar[uint32] { return newScalar[uint32]("UInt32", KindUInt32) }
func UInt64() *Scalar[uint64] { return newScalar[uint64]("UInt64", KindUInt64) }
func Int8() *Scalar[int8] { return newScalar[int8]("Int8", KindInt8) }
func Int16() *Scalar[int16] { return newScalar[int16]("Int16", KindInt16) }
func Int32() *Scalar[int32] { return newScalar[int32]("Int32", KindInt32) }
func Int64() *Scalar[int64] { return newScalar[int64]("Int64", KindInt64) }
func Float32() *Scalar[float32] { return newScalar[float32]("Float32", KindFloat32) }
func Float64() *Scalar[float64] { return newScalar[float64]("Float64", KindFloat64) }

// Date stores days since the Unix epoch as uint16.
func Date() *Scalar[uint16] { return newScalar[uint16]("Date", KindDate) }

// DateTime stores seconds since the Unix epoch as uint32.
func DateTime() *Scalar[uint32] { return newScalar[uint32]("DateTime", KindDateTime) }

// UUID stores 16 raw bytes.
func UUID() *Scalar[[16]byte] { return newScalar[[16]byte]("UUID", KindUUID) }

func (s *Scalar[T]) Name() string { return s.name }

func (s *Scalar[T]) Kind() Kind { return s.kind }

func (s *Scalar[T]) CreateColumn() column.Column { return column.NewVector[T]() }

func (s *Scalar[T]) SerializeBinaryBulk(w io.Writer, col column.Column, offset, limit int) error {
	typed, ok := col.(column.Typed[T])
	if !ok {
		return columnType(s, col)
	}
	if err := checkBulkRange(col, offset, limit); err != nil {
		return err
	}
	if limit == 0 {
		return nil
	}
	return binary.Write(w, binary.LittleEndian, typed.Data()[offset:offset+limit])
}

func (s *Scalar[T]) DeserializeBinaryBulk(r io.Reader, col column.Column, limit int) error {
	typed, ok := col.(column.Typed[T])
	if !ok {
		return columnType(s, col)
	}
	buf := make([]T, min(limit, readBatch))
	for limit > 0 {
		n := min(limit, len(buf))
		if err := binary.Read(r, binary.LittleEndian, buf[:n]); err != nil {
			if err == io.EOF {
				return io.ErrUnexpectedEOF
			}
			return err
		}
		typed.Append(buf[:n]...)
		limit -= n
	}
	return nil
}
