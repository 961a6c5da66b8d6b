package column

import "fmt"

// FixedString is a column of strings padded with zero bytes to exactly n bytes.
type FixedString struct {
	n    int
	data []string
}

var _ Typed[string] = (*FixedString)(nil)

// NewFixedString creates an empty fixed-width string column.
func NewFixedString(n int) *FixedString {
	return &FixedString{n: n}
}

// Width returns the byte width of every value.
func (c *FixedString) Width() int { return c.n }

func (c *FixedString) Len() int { return len(c.data) }

func (c *FixedString) Data() []string { return c.data }

// Append pads or truncates each value to the column width.
func (c *FixedString) Append(values ...string) {
	for _, s := range values {
		c.data = append(c.data, c.fit(s))
	}
}

func (c *FixedString) fit(s string) string {
	switch {
	case len(s) == c.n:
		return s
	case len(s) > c.n:
		return s[:c.n]
	default:
		b := make([]byte, c.n)
		copy(b, s)
		return string(b)
	}
}

func (c *FixedString) CloneEmpty() Column { return NewFixedString(c.n) }

func (c *FixedString) Insert(x any) error {
	var s string
	switch v := x.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return typeMismatch("string", x)
	}
	if len(s) > c.n {
		return fmt.Errorf("%w: value of %d bytes exceeds FixedString(%d)", ErrTypeMismatch, len(s), c.n)
	}
	c.data = append(c.data, c.fit(s))
	return nil
}

func (c *FixedString) InsertDefault() { c.data = append(c.data, c.fit("")) }

func (c *FixedString) InsertFrom(src Column, row int) error {
	return c.InsertRangeFrom(src, row, 1)
}

func (c *FixedString) InsertRangeFrom(src Column, offset, limit int) error {
	s, ok := src.(Typed[string])
	if !ok {
		return typeMismatch("string column", src)
	}
	if err := checkRange(offset, limit, s.Len()); err != nil {
		return err
	}
	c.Append(s.Data()[offset : offset+limit]...)
	return nil
}

func (c *FixedString) Index(positions Indexes) (Column, error) {
	data, err := gather(c.data, positions)
	if err != nil {
		return nil, err
	}
	return &FixedString{n: c.n, data: data}, nil
}

func (c *FixedString) Value(row int) any { return c.data[row] }
