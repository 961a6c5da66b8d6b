package column

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
)

// LowCardinality is a dictionary-encoded column: one position per row into a
// Dictionary.
type LowCardinality struct {
	dict   Dictionary
	idx    Indexes
	shared bool
}

var _ Column = (*LowCardinality)(nil)

// NewLowCardinality creates an empty column owning dict.
func NewLowCardinality(dict Dictionary) *LowCardinality {
	return &LowCardinality{dict: dict, idx: NewIndexes(WidthUInt8, 0)}
}

// NewLowCardinalityWithIndexes creates a column referencing dict as a shared
// snapshot. positions must be valid positions of dict.
func NewLowCardinalityWithIndexes(dict Dictionary, positions Indexes) (*LowCardinality, error) {
	if positions.Len() > 0 && positions.Max() >= uint64(dict.Len()) {
		return nil, fmt.Errorf("%w: position %d of dictionary size %d", ErrOutOfRange, positions.Max(), dict.Len())
	}
	return &LowCardinality{dict: dict, idx: positions, shared: true}, nil
}

// Dictionary returns the dictionary. Callers must not modify a shared one.
func (c *LowCardinality) Dictionary() Dictionary { return c.dict }

// Indexes returns the per-row positions.
func (c *LowCardinality) Indexes() Indexes { return c.idx }

// IsShared reports whether the dictionary is referenced by other holders.
func (c *LowCardinality) IsShared() bool { return c.shared }

// SetSharedDictionary attaches dict as a shared snapshot. The column must be empty.
func (c *LowCardinality) SetSharedDictionary(dict Dictionary) error {
	if c.Len() > 0 {
		return ErrNotEmpty
	}
	c.dict = dict
	c.shared = true
	return nil
}

// own copies a shared dictionary before the first mutation.
func (c *LowCardinality) own() {
	if c.shared {
		c.dict = c.dict.Clone()
		c.shared = false
	}
}

func (c *LowCardinality) Len() int { return c.idx.Len() }

func (c *LowCardinality) CloneEmpty() Column {
	return NewLowCardinality(c.dict.CloneEmpty())
}

func (c *LowCardinality) Insert(v any) error {
	if v == nil {
		if !c.dict.Nullable() {
			return ErrNullNotAllowed
		}
		c.idx = c.idx.AppendIndex(0)
		return nil
	}
	tmp := c.dict.Keys().CloneEmpty()
	if err := tmp.Insert(v); err != nil {
		return err
	}
	return c.insertRow(tmp, 0)
}

// InsertDefault appends NULL for nullable dictionaries and the zero key otherwise.
func (c *LowCardinality) InsertDefault() {
	if c.dict.Nullable() {
		c.idx = c.idx.AppendIndex(0)
		return
	}
	tmp := c.dict.Keys().CloneEmpty()
	tmp.InsertDefault()
	if err := c.insertRow(tmp, 0); err != nil {
		panic(err)
	}
}

func (c *LowCardinality) InsertFrom(src Column, row int) error {
	return c.InsertRangeFrom(src, row, 1)
}

// InsertRangeFrom appends rows of another LowCardinality column or of a plain
// column of the key kind. Rows from a column sharing this dictionary are
// copied as positions.
func (c *LowCardinality) InsertRangeFrom(src Column, offset, limit int) error {
	if err := checkRange(offset, limit, src.Len()); err != nil {
		return err
	}
	if s, ok := src.(*LowCardinality); ok {
		if s.dict == c.dict {
			for i := 0; i < limit; i++ {
				c.idx = c.idx.AppendIndex(s.idx.At(offset + i))
			}
			return nil
		}
		return c.InsertRangeFromDictionaryEncoded(s.dict.Nested(), s.idx.Slice(offset, limit))
	}
	for i := 0; i < limit; i++ {
		if err := c.insertRow(src, offset+i); err != nil {
			return err
		}
	}
	return nil
}

func (c *LowCardinality) insertRow(src Column, row int) error {
	pos, err := c.position(src, row)
	if err != nil {
		return err
	}
	c.idx = c.idx.AppendIndex(pos)
	return nil
}

// position resolves row of src to a dictionary position, inserting the key
// when missing. A shared dictionary is copied only when a key is added.
func (c *LowCardinality) position(src Column, row int) (uint64, error) {
	if c.shared {
		pos, ok, err := c.dict.Lookup(src, row)
		if err != nil || ok {
			return pos, err
		}
		c.own()
	}
	return c.dict.Insert(src, row)
}

// InsertRangeFromDictionaryEncoded appends one row per position, where each
// position addresses a row of keys. Each distinct position is resolved once.
func (c *LowCardinality) InsertRangeFromDictionaryEncoded(keys Column, positions Indexes) error {
	mapped := make(map[uint64]uint64)
	for i := 0; i < positions.Len(); i++ {
		p := positions.At(i)
		if p >= uint64(keys.Len()) {
			return fmt.Errorf("%w: key position %d of %d", ErrOutOfRange, p, keys.Len())
		}
		pos, ok := mapped[p]
		if !ok {
			var err error
			if pos, err = c.position(keys, int(p)); err != nil {
				return err
			}
			mapped[p] = pos
		}
		c.idx = c.idx.AppendIndex(pos)
	}
	return nil
}

// Index returns a column sharing this dictionary with the rows at positions.
func (c *LowCardinality) Index(positions Indexes) (Column, error) {
	idx, err := c.idx.Gather(positions)
	if err != nil {
		return nil, err
	}
	c.shared = true
	return &LowCardinality{dict: c.dict, idx: idx, shared: true}, nil
}

func (c *LowCardinality) Value(row int) any {
	return c.dict.Value(c.idx.At(row))
}

// Values returns every row as a Go value.
func (c *LowCardinality) Values() []any {
	out := make([]any, c.Len())
	for i := range out {
		out[i] = c.Value(i)
	}
	return out
}

// Materialize expands the column into a plain (or Nullable) column.
func (c *LowCardinality) Materialize() (Column, error) {
	return c.dict.Nested().Index(c.idx)
}

// CutAndCompact returns rows [offset, offset+limit) with a dictionary reduced
// to the keys those rows use, in the original dictionary order, and indexes in
// the narrowest width. limit 0 means to the end of the column. The NULL slot
// of a nullable dictionary is always kept.
func (c *LowCardinality) CutAndCompact(offset, limit int) (*LowCardinality, error) {
	if limit == 0 && offset <= c.Len() {
		limit = c.Len() - offset
	}
	if err := checkRange(offset, limit, c.Len()); err != nil {
		return nil, err
	}

	used := roaring64.New()
	if c.dict.Nullable() {
		used.Add(0)
	}
	for i := 0; i < limit; i++ {
		used.Add(c.idx.At(offset + i))
	}

	dict, err := c.dict.Subset(IndexesFor(used.ToArray()))
	if err != nil {
		return nil, err
	}

	remapped := make([]uint64, limit)
	for i := range remapped {
		remapped[i] = used.Rank(c.idx.At(offset+i)) - 1
	}
	return &LowCardinality{dict: dict, idx: IndexesFor(remapped)}, nil
}
