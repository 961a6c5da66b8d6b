package lowcard

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/lowcard/column"
	"github.com/hupe1980/lowcard/types"
)

func TestNewType_SupportedKeys(t *testing.T) {
	for _, decl := range []string{
		"String", "FixedString(4)", "Date", "DateTime",
		"UInt8", "UInt16", "UInt32", "UInt64",
		"Int8", "Int16", "Int32", "Int64", "Float32", "Float64",
		"Nullable(String)", "Nullable(Date)", "Nullable(Int32)",
	} {
		t.Run(decl, func(t *testing.T) {
			typ, err := NewType(types.MustParse(decl))
			require.NoError(t, err)
			assert.Equal(t, "LowCardinality("+decl+")", typ.Name())
			assert.Equal(t, types.KindLowCardinality, typ.Kind())
			assert.Equal(t, types.Unwrap(typ.KeyType()), typ.DictionaryType())

			col, ok := typ.CreateColumn().(*column.LowCardinality)
			require.True(t, ok)
			assert.Equal(t, typ.Nullable(), col.Dictionary().Nullable())
		})
	}
}

func TestNewType_UnsupportedKeys(t *testing.T) {
	inner, err := NewType(types.String())
	require.NoError(t, err)

	for _, keyType := range []types.Type{types.UUID(), types.MustParse("Nullable(UUID)"), inner} {
		_, err := NewType(keyType)
		var unsupported *UnsupportedKeyTypeError
		require.ErrorAs(t, err, &unsupported, keyType.Name())
		assert.ErrorIs(t, err, ErrUnsupportedKeyType)
		assert.Equal(t, keyType.Name(), unsupported.Type)
	}
}

func TestRegisteredFamilies(t *testing.T) {
	typ, err := types.Parse("LowCardinality(Nullable(String))")
	require.NoError(t, err)
	lc, ok := typ.(*Type)
	require.True(t, ok)
	assert.True(t, lc.Nullable())

	typ, err = types.Parse("WithDictionary(UInt16)")
	require.NoError(t, err)
	assert.Equal(t, "LowCardinality(UInt16)", typ.Name())

	_, err = types.Parse("LowCardinality(String, String)")
	var countErr *types.ArgumentCountError
	require.ErrorAs(t, err, &countErr)
	assert.Equal(t, 1, countErr.Want)

	_, err = types.Parse("LowCardinality(UUID)")
	assert.ErrorIs(t, err, ErrUnsupportedKeyType)

	_, err = types.Parse("Nullable(LowCardinality(String))")
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
}

func TestType_SingleStreamBulk(t *testing.T) {
	typ, err := NewType(types.MustParse("Nullable(String)"))
	require.NoError(t, err)

	src := typ.CreateColumn()
	for _, v := range []any{"x", nil, "y", "x"} {
		require.NoError(t, src.Insert(v))
	}

	var buf bytes.Buffer
	require.NoError(t, typ.SerializeBinaryBulk(&buf, src, 1, 3))

	// Same bytes as the plain key type.
	var plain bytes.Buffer
	n := typ.KeyType().CreateColumn()
	for _, v := range []any{nil, "y", "x"} {
		require.NoError(t, n.Insert(v))
	}
	require.NoError(t, typ.KeyType().SerializeBinaryBulk(&plain, n, 0, 3))
	assert.Equal(t, plain.Bytes(), buf.Bytes())

	dst := typ.CreateColumn()
	require.NoError(t, typ.DeserializeBinaryBulk(&buf, dst, 3))
	assert.Equal(t, []any{nil, "y", "x"}, dst.(*column.LowCardinality).Values())

	assert.ErrorIs(t, typ.SerializeBinaryBulk(&buf, src, 3, 2), column.ErrOutOfRange)
	assert.ErrorIs(t, typ.SerializeBinaryBulk(&buf, column.NewString(), 0, 0), ErrColumnMismatch)
}

func TestType_EnumerateStreams(t *testing.T) {
	typ, err := NewType(types.String())
	require.NoError(t, err)

	var paths []string
	typ.EnumerateStreams("city", func(p Path) { paths = append(paths, p.String()) })
	assert.Equal(t, []string{"city.dict", "city"}, paths)
	assert.Equal(t, "DictionaryIndexes", DictionaryIndexes.String())
}
