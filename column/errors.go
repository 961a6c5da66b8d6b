package column

import (
	"errors"
	"fmt"
)

var (
	// ErrTypeMismatch is returned when a source column or value has a
	// different concrete type than the destination.
	ErrTypeMismatch = errors.New("column type mismatch")

	// ErrOutOfRange is returned when a row or position is outside a column.
	ErrOutOfRange = errors.New("position out of range")

	// ErrNullNotAllowed is returned when a NULL is inserted into a
	// non-nullable column or dictionary.
	ErrNullNotAllowed = errors.New("null value in non-nullable column")

	// ErrDuplicateKey is returned when a pre-seeded dictionary contains the
	// same key twice.
	ErrDuplicateKey = errors.New("duplicate dictionary key")

	// ErrInvalidDictionary is returned for dictionaries that violate their
	// layout (e.g. a nullable dictionary without its placeholder row).
	ErrInvalidDictionary = errors.New("invalid dictionary")

	// ErrNotEmpty is returned by SetSharedDictionary on a non-empty column.
	ErrNotEmpty = errors.New("column is not empty")
)

func typeMismatch(want string, got any) error {
	return fmt.Errorf("%w: want %s, got %T", ErrTypeMismatch, want, got)
}

func outOfRange(offset, limit, size int) error {
	return fmt.Errorf("%w: [%d, %d) of %d", ErrOutOfRange, offset, offset+limit, size)
}

func checkRange(offset, limit, size int) error {
	if offset < 0 || limit < 0 || offset > size || limit > size-offset {
		return outOfRange(offset, limit, size)
	}
	return nil
}
