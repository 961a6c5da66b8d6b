package types

import (
	"fmt"
	"io"

	"github.com/hupe1980/lowcard/column"
)

// Nullable wraps a type with a per-row null map.
type Nullable struct {
	nested Type
}

var _ Type = (*Nullable)(nil)

// NewNullable returns Nullable(nested).
func NewNullable(nested Type) (*Nullable, error) {
	switch nested.Kind() {
	case KindNullable, KindLowCardinality:
		return nil, fmt.Errorf("%w: Nullable(%s)", ErrInvalidArgument, nested.Name())
	}
	return &Nullable{nested: nested}, nil
}

// Nested returns the wrapped type.
func (t *Nullable) Nested() Type { return t.nested }

func (t *Nullable) Name() string { return "Nullable(" + t.nested.Name() + ")" }

func (t *Nullable) Kind() Kind { return KindNullable }

func (t *Nullable) CreateColumn() column.Column { return column.NewNullable(t.nested.CreateColumn()) }

func (t *Nullable) SerializeBinaryBulk(w io.Writer, col column.Column, offset, limit int) error {
	n, ok := col.(*column.Nullable)
	if !ok {
		return columnType(t, col)
	}
	if err := checkBulkRange(col, offset, limit); err != nil {
		return err
	}
	nulls := make([]byte, limit)
	for i, isNull := range n.NullMap()[offset : offset+limit] {
		if isNull {
			nulls[i] = 1
		}
	}
	if _, err := w.Write(nulls); err != nil {
		return err
	}
	return t.nested.SerializeBinaryBulk(w, n.Nested(), offset, limit)
}

func (t *Nullable) DeserializeBinaryBulk(r io.Reader, col column.Column, limit int) error {
	n, ok := col.(*column.Nullable)
	if !ok {
		return columnType(t, col)
	}
	raw := make([]byte, limit)
	if err := readFull(r, raw); err != nil {
		return err
	}
	nested := n.Nested().CloneEmpty()
	if err := t.nested.DeserializeBinaryBulk(r, nested, limit); err != nil {
		return err
	}
	nulls := make([]bool, limit)
	for i, b := range raw {
		nulls[i] = b != 0
	}
	tmp, err := column.NullableFrom(nested, nulls)
	if err != nil {
		return err
	}
	return n.InsertRangeFrom(tmp, 0, limit)
}
