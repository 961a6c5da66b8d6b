package lowcard

import (
	"fmt"

	"github.com/hupe1980/lowcard/column"
)

// MapIndexWithOverflow rewrites positions in place for a mixed chunk whose
// values below maxVal reference the global dictionary and whose values from
// maxVal on reference additional keys (offset by maxVal).
//
// It returns the distinct values below maxVal in order of first appearance.
// Each value v < maxVal is replaced by its ordinal in that list; every other v
// becomes v - maxVal + len(list). The returned array has the width of positions.
func MapIndexWithOverflow(positions column.Indexes, maxVal uint64) (column.Indexes, error) {
	switch idx := positions.(type) {
	case *column.IndexVector[uint8]:
		return column.NewIndexVector(mapIndexWithOverflow(idx.Data(), maxVal)...), nil
	case *column.IndexVector[uint16]:
		return column.NewIndexVector(mapIndexWithOverflow(idx.Data(), maxVal)...), nil
	case *column.IndexVector[uint32]:
		return column.NewIndexVector(mapIndexWithOverflow(idx.Data(), maxVal)...), nil
	case *column.IndexVector[uint64]:
		return column.NewIndexVector(mapIndexWithOverflow(idx.Data(), maxVal)...), nil
	default:
		return nil, fmt.Errorf("%w: cannot remap %T", ErrInvalidIndexWidth, positions)
	}
}

func mapIndexWithOverflow[T column.Unsigned](data []T, maxVal uint64) []T {
	ranks := make(map[T]T)
	var referenced []T
	for _, v := range data {
		if uint64(v) >= maxVal {
			continue
		}
		if _, ok := ranks[v]; !ok {
			ranks[v] = T(len(referenced))
			referenced = append(referenced, v)
		}
	}

	// distinct <= maxVal, so shifted overflow values never exceed v.
	distinct := uint64(len(referenced))
	for i, v := range data {
		if uint64(v) < maxVal {
			data[i] = ranks[v]
		} else {
			data[i] = T(uint64(v) - maxVal + distinct)
		}
	}
	return referenced
}
