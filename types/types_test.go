package types

import (
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/lowcard/column"
)

func roundTrip(t *testing.T, typ Type, src column.Column) column.Column {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, typ.SerializeBinaryBulk(&buf, src, 0, src.Len()))
	dst := typ.CreateColumn()
	require.NoError(t, typ.DeserializeBinaryBulk(&buf, dst, src.Len()))
	assert.Equal(t, 0, buf.Len(), "all bytes consumed")
	return dst
}

func TestScalar_RoundTrip(t *testing.T) {
	t.Run("uint32", func(t *testing.T) {
		src := column.NewVector[uint32](1, 70000, 0)
		dst := roundTrip(t, UInt32(), src)
		assert.Equal(t, src.Data(), dst.(*column.Vector[uint32]).Data())
	})
	t.Run("float64", func(t *testing.T) {
		src := column.NewVector(1.5, -2.25)
		dst := roundTrip(t, Float64(), src)
		assert.Equal(t, src.Data(), dst.(*column.Vector[float64]).Data())
	})
	t.Run("uuid", func(t *testing.T) {
		src := column.NewVector([16]byte{1, 2, 3}, [16]byte{15: 9})
		dst := roundTrip(t, UUID(), src)
		assert.Equal(t, src.Data(), dst.(*column.Vector[[16]byte]).Data())
	})
}

func TestScalar_LittleEndian(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, UInt16().SerializeBinaryBulk(&buf, column.NewVector[uint16](0x0102, 0x0304), 1, 1))
	assert.Equal(t, []byte{0x04, 0x03}, buf.Bytes())
}

func TestScalar_Errors(t *testing.T) {
	var buf bytes.Buffer
	err := UInt8().SerializeBinaryBulk(&buf, column.NewString("x"), 0, 1)
	assert.ErrorIs(t, err, ErrColumnType)

	err = UInt8().SerializeBinaryBulk(&buf, column.NewVector[uint8](1), 0, 2)
	assert.ErrorIs(t, err, column.ErrOutOfRange)

	err = UInt32().DeserializeBinaryBulk(bytes.NewReader([]byte{1, 2}), column.NewVector[uint32](), 1)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)

	err = UInt32().DeserializeBinaryBulk(bytes.NewReader(nil), column.NewVector[uint32](), 1)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestScalar_ReadsIntoIndexVector(t *testing.T) {
	dst := column.NewIndexVector[uint16]()
	require.NoError(t, UInt16().DeserializeBinaryBulk(bytes.NewReader([]byte{1, 0, 0, 1}), dst, 2))
	assert.Equal(t, []uint16{1, 256}, dst.Data())
}

func TestString_RoundTrip(t *testing.T) {
	src := column.NewString("", "hello", string(make([]byte, 300)))
	dst := roundTrip(t, String(), src)
	assert.Equal(t, src.Data(), dst.(*column.Vector[string]).Data())
}

func TestString_DoesNotReadAhead(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, String().SerializeBinaryBulk(&buf, column.NewString("ab"), 0, 1))
	buf.WriteString("tail")

	r := io.MultiReader(&buf) // hides io.ByteReader
	dst := column.NewString()
	require.NoError(t, String().DeserializeBinaryBulk(r, dst, 1))
	rest, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "tail", string(rest))
}

func TestFixedString(t *testing.T) {
	typ, err := FixedString(4)
	require.NoError(t, err)
	assert.Equal(t, "FixedString(4)", typ.Name())

	src := column.NewFixedString(4)
	src.Append("ab", "wxyz")
	dst := roundTrip(t, typ, src)
	assert.Equal(t, []string{"ab\x00\x00", "wxyz"}, dst.(*column.FixedString).Data())

	err = typ.SerializeBinaryBulk(io.Discard, column.NewFixedString(3), 0, 0)
	assert.ErrorIs(t, err, ErrColumnType)

	_, err = FixedString(0)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestNullable_RoundTrip(t *testing.T) {
	typ, err := NewNullable(String())
	require.NoError(t, err)

	src := typ.CreateColumn()
	require.NoError(t, src.Insert("a"))
	require.NoError(t, src.Insert(nil))
	require.NoError(t, src.Insert("c"))

	dst := roundTrip(t, typ, src)
	assert.Equal(t, []bool{false, true, false}, dst.(*column.Nullable).NullMap())
	assert.Equal(t, "c", dst.Value(2))

	_, err = NewNullable(typ)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Equal(t, Type(String()), Unwrap(typ))
}

func TestDateHelpers(t *testing.T) {
	day := time.Date(2024, 3, 1, 15, 4, 5, 0, time.UTC)
	d := DateValue(day)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), DateOf(d))

	v := DateTimeValue(day)
	assert.True(t, day.Equal(TimeOf(v)))
}

func TestKind(t *testing.T) {
	assert.Equal(t, "FixedString", KindFixedString.String())
	assert.Equal(t, "Kind(99)", Kind(99).String())
	assert.True(t, KindFloat32.IsNumeric())
	assert.False(t, KindDate.IsNumeric())
}
