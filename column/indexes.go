package column

import (
	"fmt"
	"math"
	"unsafe"
)

// Width is the element width of an index array.
// Its numeric value is the width tag stored on the wire.
type Width uint8

const (
	WidthUInt8 Width = iota
	WidthUInt16
	WidthUInt32
	WidthUInt64
)

func (w Width) String() string {
	switch w {
	case WidthUInt8:
		return "UInt8"
	case WidthUInt16:
		return "UInt16"
	case WidthUInt32:
		return "UInt32"
	case WidthUInt64:
		return "UInt64"
	default:
		return fmt.Sprintf("Width(%d)", uint8(w))
	}
}

// Valid reports whether w is one of the four known widths.
func (w Width) Valid() bool { return w <= WidthUInt64 }

// Max returns the largest value representable in width w.
func (w Width) Max() uint64 {
	switch w {
	case WidthUInt8:
		return math.MaxUint8
	case WidthUInt16:
		return math.MaxUint16
	case WidthUInt32:
		return math.MaxUint32
	default:
		return math.MaxUint64
	}
}

// Bytes returns the element size in bytes.
func (w Width) Bytes() int { return 1 << w }

// WidthFor returns the narrowest width that can hold maxVal.
func WidthFor(maxVal uint64) Width {
	switch {
	case maxVal <= math.MaxUint8:
		return WidthUInt8
	case maxVal <= math.MaxUint16:
		return WidthUInt16
	case maxVal <= math.MaxUint32:
		return WidthUInt32
	default:
		return WidthUInt64
	}
}

// Unsigned is the set of index element types.
type Unsigned interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64
}

// Indexes is an array of dictionary positions in one of the four widths.
type Indexes interface {
	Width() Width
	Len() int
	At(i int) uint64
	// Max returns the largest stored value, 0 when empty.
	Max() uint64
	// AppendIndex appends x, widening when it does not fit. The returned
	// Indexes must replace the receiver.
	AppendIndex(x uint64) Indexes
	// Slice copies [offset, offset+limit).
	Slice(offset, limit int) Indexes
	// Gather returns r where r[i] = receiver[positions[i]], in the receiver's width.
	Gather(positions Indexes) (Indexes, error)
}

// IndexVector is an Indexes backed by a slice of T. It is also a Typed[T]
// column, so it can be serialized like any unsigned column.
type IndexVector[T Unsigned] struct {
	Vector[T]
}

var (
	_ Indexes       = (*IndexVector[uint8])(nil)
	_ Typed[uint16] = (*IndexVector[uint16])(nil)
	_ Indexes       = (*IndexVector[uint64])(nil)
)

// NewIndexVector creates an index array holding values.
func NewIndexVector[T Unsigned](values ...T) *IndexVector[T] {
	v := &IndexVector[T]{}
	v.Append(values...)
	return v
}

// NewIndexes creates an empty index array of width w.
func NewIndexes(w Width, capacity int) Indexes {
	switch w {
	case WidthUInt8:
		return &IndexVector[uint8]{Vector[uint8]{data: make([]uint8, 0, capacity)}}
	case WidthUInt16:
		return &IndexVector[uint16]{Vector[uint16]{data: make([]uint16, 0, capacity)}}
	case WidthUInt32:
		return &IndexVector[uint32]{Vector[uint32]{data: make([]uint32, 0, capacity)}}
	default:
		return &IndexVector[uint64]{Vector[uint64]{data: make([]uint64, 0, capacity)}}
	}
}

// IndexesFor returns values in the narrowest width that holds all of them.
func IndexesFor(values []uint64) Indexes {
	var maxVal uint64
	for _, v := range values {
		maxVal = maxOf(maxVal, v)
	}
	out := NewIndexes(WidthFor(maxVal), len(values))
	for _, v := range values {
		out = out.AppendIndex(v)
	}
	return out
}

// IndexValues copies idx into a []uint64.
func IndexValues(idx Indexes) []uint64 {
	out := make([]uint64, idx.Len())
	for i := range out {
		out[i] = idx.At(i)
	}
	return out
}

func maxOf(a, b uint64) uint64 {
	if a > b {
		return a
	}
	return b
}

func (v *IndexVector[T]) Width() Width {
	var zero T
	switch unsafe.Sizeof(zero) {
	case 1:
		return WidthUInt8
	case 2:
		return WidthUInt16
	case 4:
		return WidthUInt32
	default:
		return WidthUInt64
	}
}

func (v *IndexVector[T]) At(i int) uint64 { return uint64(v.data[i]) }

func (v *IndexVector[T]) Max() uint64 {
	var maxVal T
	for _, x := range v.data {
		if x > maxVal {
			maxVal = x
		}
	}
	return uint64(maxVal)
}

func (v *IndexVector[T]) AppendIndex(x uint64) Indexes {
	if x <= v.Width().Max() {
		v.data = append(v.data, T(x))
		return v
	}
	wide := NewIndexes(WidthFor(x), len(v.data)+1)
	for _, e := range v.data {
		wide = wide.AppendIndex(uint64(e))
	}
	return wide.AppendIndex(x)
}

func (v *IndexVector[T]) Slice(offset, limit int) Indexes {
	data := make([]T, limit)
	copy(data, v.data[offset:offset+limit])
	return &IndexVector[T]{Vector[T]{data: data}}
}

func (v *IndexVector[T]) Gather(positions Indexes) (Indexes, error) {
	data, err := gather(v.data, positions)
	if err != nil {
		return nil, err
	}
	return &IndexVector[T]{Vector[T]{data: data}}, nil
}

// CloneEmpty keeps the index width.
func (v *IndexVector[T]) CloneEmpty() Column { return &IndexVector[T]{} }

func (v *IndexVector[T]) String() string {
	return fmt.Sprintf("%s%v", v.Width(), v.data)
}
