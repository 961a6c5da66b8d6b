package types

import (
	"errors"
	"fmt"
	"io"

	"github.com/hupe1980/lowcard/column"
)

// Kind identifies the category of a Type.
type Kind uint8

const (
	KindUInt8 Kind = iota
	KindUInt16
	KindUInt32
	KindUInt64
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindFloat32
	KindFloat64
	KindString
	KindFixedString
	KindDate
	KindDateTime
	KindUUID
	KindNullable
	KindLowCardinality
)

var kindNames = [...]string{
	KindUInt8:          "UInt8",
	KindUInt16:         "UInt16",
	KindUInt32:         "UInt32",
	KindUInt64:         "UInt64",
	KindInt8:           "Int8",
	KindInt16:          "Int16",
	KindInt32:          "Int32",
	KindInt64:          "Int64",
	KindFloat32:        "Float32",
	KindFloat64:        "Float64",
	KindString:         "String",
	KindFixedString:    "FixedString",
	KindDate:           "Date",
	KindDateTime:       "DateTime",
	KindUUID:           "UUID",
	KindNullable:       "Nullable",
	KindLowCardinality: "LowCardinality",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// IsNumeric reports whether k is an integer or floating point kind.
func (k Kind) IsNumeric() bool { return k <= KindFloat64 }

// Type is a logical value type.
type Type interface {
	// Name returns the declaration, e.g. "FixedString(8)".
	Name() string
	Kind() Kind
	// CreateColumn returns an empty column for values of this type.
	CreateColumn() column.Column
	// SerializeBinaryBulk writes rows [offset, offset+limit) of col.
	SerializeBinaryBulk(w io.Writer, col column.Column, offset, limit int) error
	// DeserializeBinaryBulk reads exactly limit rows and appends them to col.
	DeserializeBinaryBulk(r io.Reader, col column.Column, limit int) error
}

var (
	// ErrUnknownType is returned by Parse for an unregistered family name.
	ErrUnknownType = errors.New("unknown type")

	// ErrSyntax is returned by Parse for a malformed declaration.
	ErrSyntax = errors.New("invalid type declaration")

	// ErrColumnType is returned when a column does not match the type.
	ErrColumnType = errors.New("column does not match type")

	// ErrInvalidArgument is returned for a well-counted but invalid argument.
	ErrInvalidArgument = errors.New("invalid type argument")
)

// ArgumentCountError is returned when a type family receives the wrong number of arguments.
type ArgumentCountError struct {
	Family string
	Want   int
	Got    int
}

func (e *ArgumentCountError) Error() string {
	return fmt.Sprintf("type %s takes %d argument(s), got %d", e.Family, e.Want, e.Got)
}

func columnType(t Type, col column.Column) error {
	return fmt.Errorf("%w: %s cannot use %T", ErrColumnType, t.Name(), col)
}

// Unwrap returns the nested type of a Nullable, or t itself.
func Unwrap(t Type) Type {
	if n, ok := t.(*Nullable); ok {
		return n.nested
	}
	return t
}

func checkBulkRange(col column.Column, offset, limit int) error {
	if offset < 0 || limit < 0 || offset > col.Len() || limit > col.Len()-offset {
		return fmt.Errorf("%w: rows [%d, %d) of %d", column.ErrOutOfRange, offset, offset+limit, col.Len())
	}
	return nil
}

func readFull(r io.Reader, buf []byte) error {
	if _, err := io.ReadFull(r, buf); err != nil {
		if errors.Is(err, io.EOF) {
			return io.ErrUnexpectedEOF
		}
		return err
	}
	return nil
}
