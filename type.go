package lowcard

import (
	"fmt"
	"io"

	"github.com/hupe1980/lowcard/column"
	"github.com/hupe1980/lowcard/types"
)

// Type is the dictionary-encoded wrapper around a key type.
// It implements types.Type with the single-stream encoding of its materialized
// values, and creates Encoder and Decoder sessions for the two-substream form.
type Type struct {
	declared types.Type
	variant  keyVariant
	opts     options
}

var _ types.Type = (*Type)(nil)

// NewType wraps keyType. It returns an *UnsupportedKeyTypeError unless keyType
// is String, FixedString, Date, DateTime or numeric, optionally Nullable.
func NewType(keyType types.Type, optFns ...Option) (*Type, error) {
	variant, err := variantFor(keyType)
	if err != nil {
		return nil, err
	}
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Type{declared: keyType, variant: variant, opts: opts}, nil
}

// KeyType returns the wrapped type as declared.
func (t *Type) KeyType() types.Type { return t.declared }

// DictionaryType returns the key type without its Nullable wrapper, i.e. the
// type dictionary keys are serialized with.
func (t *Type) DictionaryType() types.Type { return t.variant.keyType }

// Nullable reports whether the key type is Nullable.
func (t *Type) Nullable() bool { return t.variant.nullable }

func (t *Type) Name() string { return "LowCardinality(" + t.declared.Name() + ")" }

func (t *Type) Kind() types.Kind { return types.KindLowCardinality }

// CreateColumn returns an empty *column.LowCardinality with its own dictionary.
func (t *Type) CreateColumn() column.Column {
	return column.NewLowCardinality(t.variant.empty())
}

// NewDictionary returns an empty dictionary for the key type.
func (t *Type) NewDictionary() column.Dictionary { return t.variant.empty() }

// EnumerateStreams calls fn for the keys and indexes paths of col.
func (t *Type) EnumerateStreams(col string, fn func(Path)) {
	EnumerateStreams(col, fn)
}

func (t *Type) lowCardinality(col column.Column) (*column.LowCardinality, error) {
	lc, ok := col.(*column.LowCardinality)
	if !ok {
		return nil, fmt.Errorf("%w: %s cannot use %T", ErrColumnMismatch, t.Name(), col)
	}
	if lc.Dictionary().Nullable() != t.variant.nullable {
		return nil, fmt.Errorf("%w: %s with nullable=%t dictionary", ErrColumnMismatch, t.Name(), lc.Dictionary().Nullable())
	}
	return lc, nil
}

// SerializeBinaryBulk writes rows [offset, offset+limit) as plain key values.
func (t *Type) SerializeBinaryBulk(w io.Writer, col column.Column, offset, limit int) error {
	lc, err := t.lowCardinality(col)
	if err != nil {
		return err
	}
	if offset < 0 || limit < 0 || offset > lc.Len() || limit > lc.Len()-offset {
		return fmt.Errorf("%w: rows [%d, %d) of %d", column.ErrOutOfRange, offset, offset+limit, lc.Len())
	}
	values, err := lc.Dictionary().Nested().Index(lc.Indexes().Slice(offset, limit))
	if err != nil {
		return err
	}
	return t.declared.SerializeBinaryBulk(w, values, 0, limit)
}

// DeserializeBinaryBulk reads limit plain key values and appends them.
func (t *Type) DeserializeBinaryBulk(r io.Reader, col column.Column, limit int) error {
	lc, err := t.lowCardinality(col)
	if err != nil {
		return err
	}
	values := t.declared.CreateColumn()
	if err := t.declared.DeserializeBinaryBulk(r, values, limit); err != nil {
		return err
	}
	return lc.InsertRangeFrom(values, 0, limit)
}

func init() {
	for _, family := range []string{"LowCardinality", "WithDictionary"} {
		types.Register(family, types.Unary(family, func(keyType types.Type) (types.Type, error) {
			t, err := NewType(keyType)
			if err != nil {
				return nil, err
			}
			return t, nil
		}))
	}
}
