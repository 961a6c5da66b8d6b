package lowcard

import (
	"fmt"
	"io"

	"github.com/hupe1980/lowcard/column"
	"github.com/hupe1980/lowcard/types"
)

// keyVariant is the dictionary construction strategy for one key category.
// It is selected once when the Type is built.
type keyVariant struct {
	// keyType is the declared key type without its Nullable wrapper.
	keyType  types.Type
	nullable bool

	newKeys func() column.Column
	empty   func() column.Dictionary
	seeded  func(keys column.Column) (column.Dictionary, error)
}

func variantFor(declared types.Type) (keyVariant, error) {
	keyType := types.Unwrap(declared)
	nullable := keyType != declared

	switch keyType.Kind() {
	case types.KindString, types.KindFixedString:
		return typedVariant[string](keyType, nullable)
	case types.KindDate, types.KindUInt16:
		return typedVariant[uint16](keyType, nullable)
	case types.KindDateTime, types.KindUInt32:
		return typedVariant[uint32](keyType, nullable)
	case types.KindUInt8:
		return typedVariant[uint8](keyType, nullable)
	case types.KindUInt64:
		return typedVariant[uint64](keyType, nullable)
	case types.KindInt8:
		return typedVariant[int8](keyType, nullable)
	case types.KindInt16:
		return typedVariant[int16](keyType, nullable)
	case types.KindInt32:
		return typedVariant[int32](keyType, nullable)
	case types.KindInt64:
		return typedVariant[int64](keyType, nullable)
	case types.KindFloat32:
		return typedVariant[float32](keyType, nullable)
	case types.KindFloat64:
		return typedVariant[float64](keyType, nullable)
	default:
		return keyVariant{}, unsupportedKeyType(declared)
	}
}

func typedVariant[T comparable](keyType types.Type, nullable bool) (keyVariant, error) {
	if _, ok := keyType.CreateColumn().(column.Typed[T]); !ok {
		return keyVariant{}, unsupportedKeyType(keyType)
	}
	newKeys := func() column.Typed[T] {
		return keyType.CreateColumn().(column.Typed[T])
	}
	return keyVariant{
		keyType:  keyType,
		nullable: nullable,
		newKeys:  func() column.Column { return newKeys() },
		empty: func() column.Dictionary {
			return column.NewUnique(newKeys(), nullable)
		},
		seeded: func(keys column.Column) (column.Dictionary, error) {
			typed, ok := keys.(column.Typed[T])
			if !ok {
				return nil, fmt.Errorf("%w: %s dictionary from %T", ErrColumnMismatch, keyType.Name(), keys)
			}
			dict, err := column.NewUniqueFrom(typed, nullable)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", ErrCorruptStream, err)
			}
			return dict, nil
		},
	}, nil
}

// readKeys reads a key count followed by that many keys.
func (v keyVariant) readKeys(r InputStream) (column.Column, error) {
	word, err := readWord(r)
	if err != nil {
		return nil, err
	}
	n, err := wordToInt(word)
	if err != nil {
		return nil, err
	}
	keys := v.newKeys()
	if err := v.keyType.DeserializeBinaryBulk(r, keys, n); err != nil {
		return nil, err
	}
	return keys, nil
}

// writeKeys writes the key count followed by the keys.
func (v keyVariant) writeKeys(w io.Writer, keys column.Column) error {
	if err := writeWord(w, uint64(keys.Len())); err != nil {
		return err
	}
	return v.keyType.SerializeBinaryBulk(w, keys, 0, keys.Len())
}
