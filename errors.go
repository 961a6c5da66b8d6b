package lowcard

import (
	"errors"
	"fmt"

	"github.com/hupe1980/lowcard/types"
)

var (
	// ErrInvalidVersion is returned when the keys substream starts with an
	// unsupported serialization version.
	ErrInvalidVersion = errors.New("unsupported dictionary serialization version")

	// ErrInvalidIndexWidth is returned for a chunk header with an unknown width tag.
	ErrInvalidIndexWidth = errors.New("invalid index width")

	// ErrMissingStream is returned when one substream is resolved and the other is not.
	ErrMissingStream = errors.New("missing substream")

	// ErrInvalidState is returned when a session is used after Close or
	// reaches a chunk its state cannot serve.
	ErrInvalidState = errors.New("invalid session state")

	// ErrNoStreamGetter is returned when settings carry no stream getter.
	ErrNoStreamGetter = errors.New("stream getter is not set")

	// ErrColumnMismatch is returned when a column is not a dictionary-encoded
	// column of the session's key type.
	ErrColumnMismatch = errors.New("column does not match type")

	// ErrCorruptStream is returned when chunk contents contradict the header.
	ErrCorruptStream = errors.New("corrupt dictionary-encoded stream")

	// ErrUnsupportedKeyType is the cause of every UnsupportedKeyTypeError.
	ErrUnsupportedKeyType = errors.New("unsupported dictionary key type")
)

// UnsupportedKeyTypeError indicates a key type that cannot be dictionary encoded.
//
// The original underlying error can be accessed via errors.Unwrap.
type UnsupportedKeyTypeError struct {
	Type  string
	Kind  types.Kind
	cause error
}

func (e *UnsupportedKeyTypeError) Error() string {
	return fmt.Sprintf("dictionary encoding is not supported for %s (kind %s)", e.Type, e.Kind)
}

func (e *UnsupportedKeyTypeError) Unwrap() error { return e.cause }

func unsupportedKeyType(t types.Type) error {
	return &UnsupportedKeyTypeError{Type: t.Name(), Kind: t.Kind(), cause: ErrUnsupportedKeyType}
}

// MissingStreamError indicates a substream the getter did not resolve.
type MissingStreamError struct {
	Path  Path
	cause error
}

func (e *MissingStreamError) Error() string {
	return fmt.Sprintf("got empty stream for %s (%s)", e.Path, e.Path.Substream)
}

func (e *MissingStreamError) Unwrap() error { return e.cause }

func missingStream(p Path) error {
	return &MissingStreamError{Path: p, cause: ErrMissingStream}
}
