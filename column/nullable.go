package column

import "fmt"

// Nullable wraps a nested column with a null map.
// Null rows hold the nested column's default value.
type Nullable struct {
	nested Column
	nulls  []bool
}

var _ Column = (*Nullable)(nil)

// NewNullable creates an empty nullable column over an empty nested column.
func NewNullable(nested Column) *Nullable {
	return &Nullable{nested: nested}
}

// NullableFrom wraps nested with the given null map.
func NullableFrom(nested Column, nulls []bool) (*Nullable, error) {
	if len(nulls) != nested.Len() {
		return nil, fmt.Errorf("%w: null map has %d rows, nested column %d", ErrTypeMismatch, len(nulls), nested.Len())
	}
	return &Nullable{nested: nested, nulls: nulls}, nil
}

// StripNullable returns the nested column of a Nullable, or col itself.
func StripNullable(col Column) Column {
	if n, ok := col.(*Nullable); ok {
		return n.nested
	}
	return col
}

// Nested returns the nested column.
func (c *Nullable) Nested() Column { return c.nested }

// NullMap returns the null map. Callers must not modify it.
func (c *Nullable) NullMap() []bool { return c.nulls }

// IsNull reports whether row is NULL.
func (c *Nullable) IsNull(row int) bool { return c.nulls[row] }

func (c *Nullable) Len() int { return len(c.nulls) }

func (c *Nullable) CloneEmpty() Column { return NewNullable(c.nested.CloneEmpty()) }

func (c *Nullable) Insert(v any) error {
	if v == nil {
		c.InsertDefault()
		return nil
	}
	if err := c.nested.Insert(v); err != nil {
		return err
	}
	c.nulls = append(c.nulls, false)
	return nil
}

func (c *Nullable) InsertDefault() {
	c.nested.InsertDefault()
	c.nulls = append(c.nulls, true)
}

func (c *Nullable) InsertFrom(src Column, row int) error {
	return c.InsertRangeFrom(src, row, 1)
}

// InsertRangeFrom accepts a Nullable source or a source of the nested kind,
// whose rows are all non-null.
func (c *Nullable) InsertRangeFrom(src Column, offset, limit int) error {
	if s, ok := src.(*Nullable); ok {
		if err := c.nested.InsertRangeFrom(s.nested, offset, limit); err != nil {
			return err
		}
		c.nulls = append(c.nulls, s.nulls[offset:offset+limit]...)
		return nil
	}
	if err := c.nested.InsertRangeFrom(src, offset, limit); err != nil {
		return err
	}
	c.nulls = append(c.nulls, make([]bool, limit)...)
	return nil
}

func (c *Nullable) Index(positions Indexes) (Column, error) {
	nested, err := c.nested.Index(positions)
	if err != nil {
		return nil, err
	}
	nulls, err := gather(c.nulls, positions)
	if err != nil {
		return nil, err
	}
	return &Nullable{nested: nested, nulls: nulls}, nil
}

func (c *Nullable) Value(row int) any {
	if c.nulls[row] {
		return nil
	}
	return c.nested.Value(row)
}
