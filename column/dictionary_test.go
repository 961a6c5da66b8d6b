package column

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnique_Insert(t *testing.T) {
	d := NewUnique[string](NewString(), false)

	src := NewString("a", "b", "a", "c")
	var got []uint64
	for i := 0; i < src.Len(); i++ {
		pos, err := d.Insert(src, i)
		require.NoError(t, err)
		got = append(got, pos)
	}
	assert.Equal(t, []uint64{0, 1, 0, 2}, got)
	assert.Equal(t, 3, d.Len())
	assert.Equal(t, "c", d.Value(2))

	_, err := d.Insert(src, 9)
	assert.ErrorIs(t, err, ErrOutOfRange)

	nulls, err := NullableFrom(NewString("z"), []bool{true})
	require.NoError(t, err)
	_, err = d.Insert(nulls, 0)
	assert.ErrorIs(t, err, ErrNullNotAllowed)
}

func TestUnique_Nullable(t *testing.T) {
	d := NewUnique[string](NewString(), true)
	require.Equal(t, 1, d.Len())

	pos, err := d.InsertValue(nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), pos)

	pos, err = d.InsertValue("")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), pos, "empty string is a key distinct from NULL")

	nested := d.Nested()
	assert.Nil(t, nested.Value(0))
	assert.Equal(t, "", nested.Value(1))
	assert.Nil(t, d.Value(0))
	assert.Equal(t, 2, d.Keys().Len())
}

func TestNewUniqueFrom(t *testing.T) {
	d, err := NewUniqueFrom[string](NewString("x", "y"), false)
	require.NoError(t, err)
	pos, err := d.InsertValue("y")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), pos)

	_, err = NewUniqueFrom[string](NewString("x", "x"), false)
	assert.ErrorIs(t, err, ErrDuplicateKey)

	_, err = NewUniqueFrom[string](NewString(), true)
	assert.ErrorIs(t, err, ErrInvalidDictionary)

	n, err := NewUniqueFrom[string](NewString("", "a"), true)
	require.NoError(t, err)
	pos, err = n.InsertValue("")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), pos, "placeholder row is not an addressable key")
}

func TestUnique_InsertRangeWithOverflow(t *testing.T) {
	d := NewUnique[string](NewString(), false)
	_, err := d.InsertValue("a")
	require.NoError(t, err)

	src := NewString("b", "c", "a", "d", "c", "b")
	mapping, overflow, err := d.InsertRangeWithOverflow(src, 0, src.Len(), 2)
	require.NoError(t, err)

	// "b" fills the dictionary, "c" and "d" overflow in first-seen order.
	assert.Equal(t, 2, d.Len())
	assert.Equal(t, []string{"c", "d"}, overflow.(*Vector[string]).Data())
	assert.Equal(t, []uint64{1, 2, 0, 3, 2, 1}, IndexValues(mapping))
}

func TestUnique_InsertRangeWithOverflow_Nullable(t *testing.T) {
	d := NewUnique[string](NewString(), true)
	src, err := NullableFrom(NewString("", "a", "b"), []bool{true, false, false})
	require.NoError(t, err)

	mapping, overflow, err := d.InsertRangeWithOverflow(src, 0, 3, 2)
	require.NoError(t, err)
	assert.Equal(t, []uint64{0, 1, 2}, IndexValues(mapping))
	assert.Equal(t, []string{"b"}, overflow.(*Vector[string]).Data())
}

func TestUnique_Subset(t *testing.T) {
	d, err := NewUniqueFrom[string](NewString("", "a", "b", "c"), true)
	require.NoError(t, err)

	sub, err := d.Subset(NewIndexVector[uint8](0, 2, 3))
	require.NoError(t, err)
	assert.Equal(t, 3, sub.Len())
	assert.Equal(t, "b", sub.Value(1))
	assert.Nil(t, sub.Value(0))

	_, err = d.Subset(NewIndexVector[uint8](1, 2))
	assert.ErrorIs(t, err, ErrInvalidDictionary)
}

func TestUnique_Clone(t *testing.T) {
	d := NewUnique[uint16](NewVector[uint16](), false)
	_, err := d.InsertValue(uint16(7))
	require.NoError(t, err)

	c := d.Clone()
	_, err = c.InsertValue(uint16(8))
	require.NoError(t, err)

	assert.Equal(t, 1, d.Len())
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, 0, d.CloneEmpty().Len())
}
