package column

import "fmt"

// Column is the minimal column interface shared by all column kinds.
type Column interface {
	// Len returns the number of rows.
	Len() int
	// CloneEmpty returns an empty column of the same kind.
	CloneEmpty() Column
	// Insert appends a Go value. nil means NULL for nullable columns.
	Insert(v any) error
	// InsertDefault appends the default value (NULL for nullable columns).
	InsertDefault()
	// InsertFrom appends row of src.
	InsertFrom(src Column, row int) error
	// InsertRangeFrom appends rows [offset, offset+limit) of src.
	InsertRangeFrom(src Column, offset, limit int) error
	// Index returns a new column with the rows at positions, in order.
	Index(positions Indexes) (Column, error)
	// Value returns the Go value of row (nil for NULL).
	Value(row int) any
}

// Typed is a column whose rows are stored as a slice of T.
type Typed[T comparable] interface {
	Column
	Data() []T
	Append(values ...T)
}

// Vector is a plain column of comparable values.
type Vector[T comparable] struct {
	data []T
}

var _ Typed[uint64] = (*Vector[uint64])(nil)

// NewVector creates a vector holding values.
func NewVector[T comparable](values ...T) *Vector[T] {
	v := &Vector[T]{}
	v.Append(values...)
	return v
}

// NewString creates a string column holding values.
func NewString(values ...string) *Vector[string] {
	return NewVector(values...)
}

func (v *Vector[T]) Len() int { return len(v.data) }

// Data returns the backing slice. Callers must not modify it.
func (v *Vector[T]) Data() []T { return v.data }

func (v *Vector[T]) Append(values ...T) { v.data = append(v.data, values...) }

func (v *Vector[T]) CloneEmpty() Column { return &Vector[T]{} }

func (v *Vector[T]) Insert(x any) error {
	t, ok := x.(T)
	if !ok {
		var zero T
		return typeMismatch(fmt.Sprintf("%T", zero), x)
	}
	v.data = append(v.data, t)
	return nil
}

func (v *Vector[T]) InsertDefault() {
	var zero T
	v.data = append(v.data, zero)
}

func (v *Vector[T]) InsertFrom(src Column, row int) error {
	return v.InsertRangeFrom(src, row, 1)
}

func (v *Vector[T]) InsertRangeFrom(src Column, offset, limit int) error {
	s, ok := src.(Typed[T])
	if !ok {
		return typeMismatch(fmt.Sprintf("%T", v), src)
	}
	if err := checkRange(offset, limit, s.Len()); err != nil {
		return err
	}
	v.data = append(v.data, s.Data()[offset:offset+limit]...)
	return nil
}

func (v *Vector[T]) Index(positions Indexes) (Column, error) {
	data, err := gather(v.data, positions)
	if err != nil {
		return nil, err
	}
	return &Vector[T]{data: data}, nil
}

func (v *Vector[T]) Value(row int) any { return v.data[row] }

func gather[T any](data []T, positions Indexes) ([]T, error) {
	out := make([]T, positions.Len())
	for i := range out {
		p := positions.At(i)
		if p >= uint64(len(data)) {
			return nil, fmt.Errorf("%w: position %d of %d", ErrOutOfRange, p, len(data))
		}
		out[i] = data[p]
	}
	return out, nil
}
