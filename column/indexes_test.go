package column

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWidthFor(t *testing.T) {
	tests := []struct {
		maxVal uint64
		want   Width
	}{
		{0, WidthUInt8},
		{255, WidthUInt8},
		{256, WidthUInt16},
		{math.MaxUint16, WidthUInt16},
		{math.MaxUint16 + 1, WidthUInt32},
		{math.MaxUint32, WidthUInt32},
		{math.MaxUint32 + 1, WidthUInt64},
		{math.MaxUint64, WidthUInt64},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, WidthFor(tt.maxVal), "maxVal=%d", tt.maxVal)
	}
}

func TestWidth_String(t *testing.T) {
	assert.Equal(t, "UInt8", WidthUInt8.String())
	assert.Equal(t, "UInt64", WidthUInt64.String())
	assert.Equal(t, "Width(7)", Width(7).String())
	assert.False(t, Width(4).Valid())
	assert.Equal(t, 4, WidthUInt32.Bytes())
}

func TestIndexes_AppendWidens(t *testing.T) {
	var idx Indexes = NewIndexVector[uint8](1, 2, 3)
	require.Equal(t, WidthUInt8, idx.Width())

	idx = idx.AppendIndex(300)
	assert.Equal(t, WidthUInt16, idx.Width())
	assert.Equal(t, []uint64{1, 2, 3, 300}, IndexValues(idx))

	idx = idx.AppendIndex(math.MaxUint32 + 1)
	assert.Equal(t, WidthUInt64, idx.Width())
	assert.Equal(t, uint64(math.MaxUint32+1), idx.Max())
	assert.Equal(t, 5, idx.Len())
}

func TestIndexesFor(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		idx := IndexesFor(nil)
		assert.Equal(t, WidthUInt8, idx.Width())
		assert.Equal(t, 0, idx.Len())
		assert.Equal(t, uint64(0), idx.Max())
	})
	t.Run("narrowest", func(t *testing.T) {
		idx := IndexesFor([]uint64{7, 70000, 3})
		assert.Equal(t, WidthUInt32, idx.Width())
		assert.Equal(t, []uint64{7, 70000, 3}, IndexValues(idx))
	})
}

func TestIndexes_SliceAndGather(t *testing.T) {
	idx := NewIndexVector[uint16](10, 20, 30, 40)

	s := idx.Slice(1, 2)
	assert.Equal(t, []uint64{20, 30}, IndexValues(s))
	assert.Equal(t, WidthUInt16, s.Width())

	g, err := idx.Gather(NewIndexVector[uint8](3, 0, 3))
	require.NoError(t, err)
	assert.Equal(t, []uint64{40, 10, 40}, IndexValues(g))
	assert.Equal(t, WidthUInt16, g.Width())

	_, err = idx.Gather(NewIndexVector[uint8](4))
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestIndexVector_IsTypedColumn(t *testing.T) {
	var col Typed[uint32] = NewIndexVector[uint32]()
	col.Append(5, 6)
	assert.Equal(t, []uint32{5, 6}, col.Data())
	assert.Equal(t, 0, col.CloneEmpty().Len())
	_, ok := col.CloneEmpty().(*IndexVector[uint32])
	assert.True(t, ok)
}
