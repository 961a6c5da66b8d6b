package column

import (
	"fmt"
	"maps"
)

// Dictionary is an ordered set of distinct keys addressed by position.
// When Nullable is true, position 0 is reserved for NULL.
type Dictionary interface {
	// Len returns the number of positions, including the NULL slot.
	Len() int
	Nullable() bool
	// Nested returns a view of the keys where row i is the key at position i.
	// For nullable dictionaries the view is a Nullable column whose row 0 is NULL.
	Nested() Column
	// Keys returns the key column without the null wrapper.
	Keys() Column
	// Value returns the key at pos (nil for the NULL slot).
	Value(pos uint64) any
	// Lookup returns the position of row of src if present.
	Lookup(src Column, row int) (uint64, bool, error)
	// Insert adds row of src unless present and returns its position.
	Insert(src Column, row int) (uint64, error)
	// InsertValue adds a Go value unless present and returns its position.
	InsertValue(v any) (uint64, error)
	// InsertRangeWithOverflow inserts rows [offset, offset+limit) of src while
	// Len() < capacity. Keys that do not fit are collected, in first-seen
	// order without duplicates, into the returned overflow column; their
	// mapping entries are Len() (after insertion) plus the overflow ordinal.
	InsertRangeWithOverflow(src Column, offset, limit int, capacity uint64) (Indexes, Column, error)
	// Subset builds a dictionary from the keys at the ascending, distinct
	// positions. Nullable dictionaries require positions[0] == 0.
	Subset(positions Indexes) (Dictionary, error)
	Clone() Dictionary
	CloneEmpty() Dictionary
}

// Unique is a hash-indexed Dictionary over a Typed[T] key column.
type Unique[T comparable] struct {
	keys     Typed[T]
	index    map[T]uint64
	nullable bool
}

var _ Dictionary = (*Unique[string])(nil)

// NewUnique creates an empty dictionary over the empty key column keys.
func NewUnique[T comparable](keys Typed[T], nullable bool) *Unique[T] {
	u := &Unique[T]{keys: keys, index: make(map[T]uint64), nullable: nullable}
	if nullable {
		keys.InsertDefault()
	}
	return u
}

// NewUniqueFrom creates a dictionary whose positions are the rows of keys.
// Nullable dictionaries treat row 0 as the NULL placeholder.
func NewUniqueFrom[T comparable](keys Typed[T], nullable bool) (*Unique[T], error) {
	u := &Unique[T]{keys: keys, index: make(map[T]uint64, keys.Len()), nullable: nullable}
	data := keys.Data()
	start := 0
	if nullable {
		if len(data) == 0 {
			return nil, fmt.Errorf("%w: nullable dictionary without placeholder row", ErrInvalidDictionary)
		}
		start = 1
	}
	for i := start; i < len(data); i++ {
		if _, dup := u.index[data[i]]; dup {
			return nil, fmt.Errorf("%w: %v at position %d", ErrDuplicateKey, data[i], i)
		}
		u.index[data[i]] = uint64(i)
	}
	return u, nil
}

func (u *Unique[T]) Len() int { return u.keys.Len() }

func (u *Unique[T]) Nullable() bool { return u.nullable }

func (u *Unique[T]) Keys() Column { return u.keys }

func (u *Unique[T]) Nested() Column {
	if !u.nullable {
		return u.keys
	}
	nulls := make([]bool, u.keys.Len())
	nulls[0] = true
	return &Nullable{nested: u.keys, nulls: nulls}
}

func (u *Unique[T]) Value(pos uint64) any {
	if u.nullable && pos == 0 {
		return nil
	}
	return u.keys.Value(int(pos))
}

// source resolves src into key values and an optional null map.
func (u *Unique[T]) source(src Column) ([]T, []bool, error) {
	switch s := src.(type) {
	case *Nullable:
		nested, ok := s.nested.(Typed[T])
		if !ok {
			return nil, nil, typeMismatch(fmt.Sprintf("%T", u.keys), s.nested)
		}
		return nested.Data(), s.nulls, nil
	case Typed[T]:
		return s.Data(), nil, nil
	default:
		return nil, nil, typeMismatch(fmt.Sprintf("%T", u.keys), src)
	}
}

func (u *Unique[T]) Lookup(src Column, row int) (uint64, bool, error) {
	values, nulls, err := u.source(src)
	if err != nil {
		return 0, false, err
	}
	if row < 0 || row >= len(values) {
		return 0, false, outOfRange(row, 1, len(values))
	}
	if nulls != nil && nulls[row] {
		if !u.nullable {
			return 0, false, ErrNullNotAllowed
		}
		return 0, true, nil
	}
	pos, ok := u.index[values[row]]
	return pos, ok, nil
}

func (u *Unique[T]) Insert(src Column, row int) (uint64, error) {
	values, nulls, err := u.source(src)
	if err != nil {
		return 0, err
	}
	if row < 0 || row >= len(values) {
		return 0, outOfRange(row, 1, len(values))
	}
	if nulls != nil && nulls[row] {
		if !u.nullable {
			return 0, ErrNullNotAllowed
		}
		return 0, nil
	}
	return u.insert(values[row]), nil
}

func (u *Unique[T]) InsertValue(v any) (uint64, error) {
	if v == nil {
		if !u.nullable {
			return 0, ErrNullNotAllowed
		}
		return 0, nil
	}
	// Route through the key column so FixedString padding applies.
	tmp := u.keys.CloneEmpty()
	if err := tmp.Insert(v); err != nil {
		return 0, err
	}
	return u.Insert(tmp, 0)
}

func (u *Unique[T]) insert(v T) uint64 {
	if pos, ok := u.index[v]; ok {
		return pos
	}
	pos := uint64(u.keys.Len())
	u.keys.Append(v)
	u.index[v] = pos
	return pos
}

func (u *Unique[T]) InsertRangeWithOverflow(src Column, offset, limit int, capacity uint64) (Indexes, Column, error) {
	values, nulls, err := u.source(src)
	if err != nil {
		return nil, nil, err
	}
	if err := checkRange(offset, limit, len(values)); err != nil {
		return nil, nil, err
	}

	overflow, ok := u.keys.CloneEmpty().(Typed[T])
	if !ok {
		return nil, nil, typeMismatch(fmt.Sprintf("%T", u.keys), u.keys.CloneEmpty())
	}
	overflowPos := make(map[T]uint64)

	// Overflow entries are stored as ordinals and shifted once the final
	// dictionary size is known.
	mapping := make([]uint64, limit)
	isOverflow := make([]bool, limit)
	for i := 0; i < limit; i++ {
		row := offset + i
		if nulls != nil && nulls[row] {
			if !u.nullable {
				return nil, nil, ErrNullNotAllowed
			}
			continue
		}
		v := values[row]
		if pos, ok := u.index[v]; ok {
			mapping[i] = pos
			continue
		}
		if uint64(u.keys.Len()) < capacity {
			mapping[i] = u.insert(v)
			continue
		}
		ord, ok := overflowPos[v]
		if !ok {
			ord = uint64(overflow.Len())
			overflow.Append(v)
			overflowPos[v] = ord
		}
		mapping[i] = ord
		isOverflow[i] = true
	}

	base := uint64(u.keys.Len())
	for i := range mapping {
		if isOverflow[i] {
			mapping[i] += base
		}
	}
	return IndexesFor(mapping), overflow, nil
}

func (u *Unique[T]) Subset(positions Indexes) (Dictionary, error) {
	if u.nullable && (positions.Len() == 0 || positions.At(0) != 0) {
		return nil, fmt.Errorf("%w: subset of a nullable dictionary must keep position 0", ErrInvalidDictionary)
	}
	picked, err := u.keys.Index(positions)
	if err != nil {
		return nil, err
	}
	keys, ok := picked.(Typed[T])
	if !ok {
		return nil, typeMismatch(fmt.Sprintf("%T", u.keys), picked)
	}
	return NewUniqueFrom(keys, u.nullable)
}

func (u *Unique[T]) Clone() Dictionary {
	keys := u.keys.CloneEmpty().(Typed[T])
	keys.Append(u.keys.Data()...)
	return &Unique[T]{keys: keys, index: maps.Clone(u.index), nullable: u.nullable}
}

func (u *Unique[T]) CloneEmpty() Dictionary {
	return NewUnique(u.keys.CloneEmpty().(Typed[T]), u.nullable)
}
