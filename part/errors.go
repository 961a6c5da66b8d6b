package part

import "errors"

var (
	// ErrNoColumns is returned when Write is called without columns.
	ErrNoColumns = errors.New("part: no columns")
	// ErrDuplicateColumn is returned when two columns share a name.
	ErrDuplicateColumn = errors.New("part: duplicate column")
	// ErrRowCountMismatch is returned when columns differ in length.
	ErrRowCountMismatch = errors.New("part: columns differ in row count")
	// ErrInvalidColumn is returned for a column without name, type or data.
	ErrInvalidColumn = errors.New("part: invalid column")
	// ErrPartExists is returned when a manifest already exists under the name.
	ErrPartExists = errors.New("part: already exists")
	// ErrUnknownColumn is returned when reading a column the part lacks.
	ErrUnknownColumn = errors.New("part: unknown column")
	// ErrUnknownCodec is returned when the manifest names an unknown codec.
	ErrUnknownCodec = errors.New("part: unknown manifest codec")
	// ErrCorruptPart is returned when stored data contradicts the manifest.
	ErrCorruptPart = errors.New("part: corrupt part")
)
