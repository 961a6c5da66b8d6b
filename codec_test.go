package lowcard

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/lowcard/column"
	"github.com/hupe1980/lowcard/testutil"
	"github.com/hupe1980/lowcard/types"
)

type streams struct {
	keys    bytes.Buffer
	indexes bytes.Buffer
}

type encodeConfig struct {
	capacity uint64
	rotate   bool
	// chunks are the encoder chunk sizes; nil encodes the column at once.
	chunks []int
}

func newStringType(t *testing.T, nullable bool, opts ...Option) *Type {
	t.Helper()
	var keyType types.Type = types.String()
	if nullable {
		n, err := types.NewNullable(keyType)
		require.NoError(t, err)
		keyType = n
	}
	typ, err := NewType(keyType, opts...)
	require.NoError(t, err)
	return typ
}

func encodeColumn(t *testing.T, typ *Type, col column.Column, cfg encodeConfig) (*streams, []ChunkInfo) {
	t.Helper()
	s := &streams{}
	var infos []ChunkInfo
	enc, err := typ.NewEncoder(SerializeSettings{
		Streams:                    WriterStreams(&s.keys, &s.indexes),
		Column:                     "c",
		MaxDictionarySize:          cfg.capacity,
		RotateDictionaryOnOverflow: cfg.rotate,
		Observer:                   func(info ChunkInfo) { infos = append(infos, info) },
	})
	require.NoError(t, err)

	if cfg.chunks == nil {
		require.NoError(t, enc.Encode(col, 0, 0))
	} else {
		offset := 0
		for _, n := range cfg.chunks {
			require.NoError(t, enc.Encode(col, offset, n))
			offset += n
		}
	}
	require.NoError(t, enc.Close())
	return s, infos
}

func decodeColumn(t *testing.T, typ *Type, s *streams, budget int) (*column.LowCardinality, []ChunkInfo) {
	t.Helper()
	var infos []ChunkInfo
	dec, err := typ.NewDecoder(DeserializeSettings{
		Streams:  ReaderStreams(bytes.NewReader(s.keys.Bytes()), bytes.NewReader(s.indexes.Bytes())),
		Column:   "c",
		Observer: func(info ChunkInfo) { infos = append(infos, info) },
	})
	require.NoError(t, err)

	out := typ.CreateColumn().(*column.LowCardinality)
	for {
		n, err := dec.Decode(out, budget)
		require.NoError(t, err)
		if budget > 0 {
			require.LessOrEqual(t, n, budget)
		}
		if n == 0 {
			break
		}
		if budget == 0 {
			n, err = dec.Decode(out, 0)
			require.NoError(t, err)
			require.Zero(t, n)
			break
		}
	}
	return out, infos
}

func TestRoundTrip(t *testing.T) {
	rng := testutil.NewRNG(1)
	values := rng.SkewedStrings(2000, 120)

	for _, nullable := range []bool{false, true} {
		input := append([]any(nil), values...)
		if nullable {
			input = rng.WithNulls(input, 0.1)
		}
		col := testutil.StringColumn(input, nullable)
		typ := newStringType(t, nullable)

		for _, capacity := range []uint64{0, 1, 16, 64, 10000} {
			for _, rotate := range []bool{false, true} {
				for _, chunks := range [][]int{nil, rng.Splits(len(input), 300), rng.Splits(len(input), 7)} {
					s, _ := encodeColumn(t, typ, col, encodeConfig{capacity: capacity, rotate: rotate, chunks: chunks})
					for _, budget := range []int{0, 1, 13, 500, 5000} {
						name := fmt.Sprintf("nullable=%t/capacity=%d/rotate=%t/chunks=%d/budget=%d",
							nullable, capacity, rotate, len(chunks), budget)
						t.Run(name, func(t *testing.T) {
							out, _ := decodeColumn(t, typ, s, budget)
							assert.Equal(t, input, out.Values())
						})
					}
				}
			}
		}
	}
}

func TestRoundTrip_KeyTypes(t *testing.T) {
	tests := []struct {
		decl   string
		values []any
	}{
		{"FixedString(3)", []any{"ab\x00", "xyz", "ab\x00", "q\x00\x00"}},
		{"Date", []any{uint16(19000), uint16(19001), uint16(19000)}},
		{"DateTime", []any{uint32(1700000000), uint32(1700000000), uint32(5)}},
		{"Int64", []any{int64(-1), int64(1 << 40), int64(-1)}},
		{"Float64", []any{1.5, 2.5, 1.5, 0.0}},
		{"UInt8", []any{uint8(0), uint8(255), uint8(0)}},
		{"Nullable(Int16)", []any{int16(3), nil, int16(0), int16(3), nil}},
		{"Nullable(FixedString(2))", []any{"ab", nil, "ab"}},
	}
	for _, tt := range tests {
		t.Run(tt.decl, func(t *testing.T) {
			typ, err := NewType(types.MustParse(tt.decl))
			require.NoError(t, err)
			col := typ.CreateColumn()
			for _, v := range tt.values {
				require.NoError(t, col.Insert(v))
			}

			for _, capacity := range []uint64{0, 2, 100} {
				s, _ := encodeColumn(t, typ, col, encodeConfig{capacity: capacity, chunks: []int{1, len(tt.values) - 1}})
				out, _ := decodeColumn(t, typ, s, 2)
				assert.Equal(t, tt.values, out.Values(), "capacity=%d", capacity)
			}
		})
	}
}

func word(v uint64) []byte {
	return binary.LittleEndian.AppendUint64(nil, v)
}

func concat(parts ...[]byte) []byte {
	return bytes.Join(parts, nil)
}

func TestWireFormat_GlobalDictionary(t *testing.T) {
	typ := newStringType(t, false)
	col := testutil.StringColumn([]any{"a", "b", "a"}, false)
	s, _ := encodeColumn(t, typ, col, encodeConfig{capacity: 10})

	assert.Equal(t, concat(word(1), word(2), []byte("\x01a\x01b")), s.keys.Bytes())
	assert.Equal(t, concat(word(NeedGlobalDictionaryBit), word(3), []byte{0, 1, 0}), s.indexes.Bytes())
}

func TestWireFormat_NoGlobalDictionary(t *testing.T) {
	typ := newStringType(t, false)
	col := testutil.StringColumn([]any{"a", "b", "a"}, false)
	s, _ := encodeColumn(t, typ, col, encodeConfig{capacity: 0})

	assert.Equal(t, word(1), s.keys.Bytes())
	assert.Equal(t, concat(
		word(HasAdditionalKeysBit), word(2), []byte("\x01a\x01b"),
		word(3), []byte{0, 1, 0},
	), s.indexes.Bytes())
}

func TestWireFormat_NullableReservesPositionZero(t *testing.T) {
	typ := newStringType(t, true)
	col := testutil.StringColumn([]any{nil, "a", nil}, true)
	s, _ := encodeColumn(t, typ, col, encodeConfig{capacity: 0})

	// The placeholder row precedes the real key.
	assert.Equal(t, concat(
		word(HasAdditionalKeysBit), word(2), []byte("\x00\x01a"),
		word(3), []byte{0, 1, 0},
	), s.indexes.Bytes())
}

func TestScenario_CapacityDisabled(t *testing.T) {
	typ := newStringType(t, false)
	col := testutil.StringColumn(testutil.NewRNG(2).Strings(500, 20), false)
	s, encoded := encodeColumn(t, typ, col, encodeConfig{capacity: 0, chunks: []int{100, 100, 300}})

	require.Len(t, encoded, 3)
	for _, info := range encoded {
		assert.False(t, info.Header.NeedGlobalDictionary)
		assert.True(t, info.Header.HasAdditionalKeys)
		assert.False(t, info.DictionaryBlock)
	}
	assert.Equal(t, 8, s.keys.Len(), "keys substream holds only the version")

	out, decoded := decodeColumn(t, typ, s, 64)
	assert.Equal(t, col.Values(), out.Values())
	require.Len(t, decoded, 3)
	for _, info := range decoded {
		assert.False(t, info.DictionaryBlock)
		assert.Zero(t, info.DictionarySize)
	}
	assert.False(t, out.IsShared())
}

func TestScenario_AmpleCapacity(t *testing.T) {
	typ := newStringType(t, false)
	keys := []any{"k0", "k1", "k2", "k3", "k4"}
	col := testutil.StringColumn(append(append([]any{}, keys...), keys...), false)

	s, encoded := encodeColumn(t, typ, col, encodeConfig{capacity: 5, chunks: []int{5, 5}})
	require.Len(t, encoded, 2)
	for _, info := range encoded {
		assert.True(t, info.Header.NeedGlobalDictionary)
		assert.False(t, info.Header.HasAdditionalKeys, "chunk %d", info.Sequence)
		assert.Equal(t, 5, info.DictionarySize)
	}

	out, decoded := decodeColumn(t, typ, s, 0)
	assert.Equal(t, col.Values(), out.Values())
	assert.True(t, decoded[0].DictionaryBlock)
	assert.False(t, decoded[1].DictionaryBlock)
	assert.True(t, out.IsShared(), "rows address the global dictionary directly")
}

func TestScenario_InsufficientCapacity(t *testing.T) {
	typ := newStringType(t, false)
	col := testutil.StringColumn([]any{"a", "b", "c", "d", "a", "e", "b"}, false)

	s, encoded := encodeColumn(t, typ, col, encodeConfig{capacity: 2, chunks: []int{4, 3}})
	require.Len(t, encoded, 2)

	assert.True(t, encoded[0].Header.HasAdditionalKeys)
	assert.Equal(t, 2, encoded[0].AdditionalKeys)
	assert.Equal(t, 2, encoded[0].DictionarySize)

	// "a" and "b" are in the full dictionary, "e" overflows.
	assert.True(t, encoded[1].Header.HasAdditionalKeys)
	assert.Equal(t, 1, encoded[1].AdditionalKeys)

	out, _ := decodeColumn(t, typ, s, 3)
	assert.Equal(t, col.Values(), out.Values())
}

func TestCapacityNeverExceeded(t *testing.T) {
	typ := newStringType(t, false)
	rng := testutil.NewRNG(9)
	col := testutil.StringColumn(rng.Strings(3000, 400), false)

	for _, rotate := range []bool{false, true} {
		_, encoded := encodeColumn(t, typ, col, encodeConfig{capacity: 50, rotate: rotate, chunks: rng.Splits(3000, 200)})
		for _, info := range encoded {
			assert.LessOrEqual(t, info.DictionarySize, 50)
		}
	}
}

func TestRotation(t *testing.T) {
	typ := newStringType(t, false)
	col := testutil.StringColumn([]any{"a", "b", "c", "d", "a"}, false)

	s, encoded := encodeColumn(t, typ, col, encodeConfig{capacity: 2, rotate: true, chunks: []int{2, 2, 1}})
	require.Len(t, encoded, 3)
	assert.True(t, encoded[0].DictionaryBlock)
	assert.False(t, encoded[0].Header.NeedUpdateDictionary)
	assert.True(t, encoded[1].DictionaryBlock)
	assert.True(t, encoded[1].Header.NeedUpdateDictionary)
	assert.False(t, encoded[2].DictionaryBlock)
	assert.True(t, encoded[2].Header.NeedUpdateDictionary)
	for _, info := range encoded {
		assert.False(t, info.Header.HasAdditionalKeys)
	}

	// Two rotation flushes plus the final dictionary.
	assert.Equal(t, concat(
		word(1),
		word(2), []byte("\x01a\x01b"),
		word(2), []byte("\x01c\x01d"),
		word(1), []byte("\x01a"),
	), s.keys.Bytes())

	out, decoded := decodeColumn(t, typ, s, 0)
	assert.Equal(t, col.Values(), out.Values())
	require.Len(t, decoded, 3)
	for _, info := range decoded {
		assert.True(t, info.DictionaryBlock, "chunk %d reloads", info.Sequence)
	}
}

func TestRotation_LastChunkFillsDictionary(t *testing.T) {
	typ := newStringType(t, false)
	col := testutil.StringColumn([]any{"a", "b", "c"}, false)

	metrics := &BasicMetricsCollector{}
	typ.opts.metricsCollector = metrics
	s, _ := encodeColumn(t, typ, col, encodeConfig{capacity: 3, rotate: true})

	// No chunk uses the fresh dictionary, so Close writes nothing more.
	assert.Equal(t, int64(1), metrics.GetStats().DictionaryFlushes)
	out, _ := decodeColumn(t, typ, s, 0)
	assert.Equal(t, col.Values(), out.Values())

	// Without rotation the same dictionary is written once at Close.
	s2, _ := encodeColumn(t, typ, col, encodeConfig{capacity: 3})
	assert.Equal(t, s.keys.Bytes(), s2.keys.Bytes())
}

func TestEmptyChunks(t *testing.T) {
	typ := newStringType(t, false)
	col := testutil.StringColumn([]any{"x", "y"}, false)

	for _, capacity := range []uint64{0, 4} {
		s := &streams{}
		enc, err := typ.NewEncoder(SerializeSettings{
			Streams:           WriterStreams(&s.keys, &s.indexes),
			Column:            "c",
			MaxDictionarySize: capacity,
		})
		require.NoError(t, err)
		require.NoError(t, enc.Encode(col, 2, 0))
		require.NoError(t, enc.Encode(col, 0, 2))
		require.NoError(t, enc.Encode(col, 2, 0))
		require.NoError(t, enc.Close())

		out, decoded := decodeColumn(t, typ, s, 1)
		assert.Equal(t, []any{"x", "y"}, out.Values())
		assert.Len(t, decoded, 3)
	}

	t.Run("only empty chunk", func(t *testing.T) {
		empty := testutil.StringColumn(nil, false)
		s, encoded := encodeColumn(t, typ, empty, encodeConfig{capacity: 4})
		require.Len(t, encoded, 1)
		assert.Equal(t, concat(word(1), word(0)), s.keys.Bytes())

		out, _ := decodeColumn(t, typ, s, 0)
		assert.Equal(t, 0, out.Len())
	})
}

func TestIndexWidthFollowsPayload(t *testing.T) {
	typ := newStringType(t, false)
	values := make([]any, 300)
	for i := range values {
		values[i] = testutil.Key(i)
	}
	col := testutil.StringColumn(values, false)

	_, encoded := encodeColumn(t, typ, col, encodeConfig{capacity: 0, chunks: []int{200, 100}})
	assert.Equal(t, column.WidthUInt8, encoded[0].Header.Width)
	assert.Equal(t, column.WidthUInt8, encoded[1].Header.Width, "chunk-local compaction narrows indexes")

	s, encoded := encodeColumn(t, typ, col, encodeConfig{capacity: 1000})
	assert.Equal(t, column.WidthUInt16, encoded[0].Header.Width)
	out, _ := decodeColumn(t, typ, s, 77)
	assert.Equal(t, values, out.Values())
}

func TestDecoder_BudgetCarriesPendingRows(t *testing.T) {
	typ := newStringType(t, false)
	col := testutil.StringColumn([]any{"a", "b", "c", "a", "b"}, false)
	s, _ := encodeColumn(t, typ, col, encodeConfig{capacity: 8})

	dec, err := typ.NewDecoder(DeserializeSettings{
		Streams: ReaderStreams(&s.keys, &s.indexes),
		Column:  "c",
	})
	require.NoError(t, err)
	assert.Equal(t, CurrentVersion, dec.Version())

	out := typ.CreateColumn().(*column.LowCardinality)
	n, err := dec.Decode(out, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, uint64(3), dec.PendingRows())

	n, err = dec.Decode(out, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = dec.Decode(out, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = dec.Decode(out, 2)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, col.Values(), out.Values())
}

func TestDecoder_SeparateOutputColumns(t *testing.T) {
	typ := newStringType(t, true)
	col := testutil.StringColumn([]any{"a", nil, "b", "a", "c", nil}, true)
	s, _ := encodeColumn(t, typ, col, encodeConfig{capacity: 2, chunks: []int{3, 3}})

	dec, err := typ.NewDecoder(DeserializeSettings{
		Streams: ReaderStreams(&s.keys, &s.indexes),
		Column:  "c",
	})
	require.NoError(t, err)

	var got []any
	for {
		out := typ.CreateColumn().(*column.LowCardinality)
		n, err := dec.Decode(out, 2)
		require.NoError(t, err)
		if n == 0 {
			break
		}
		got = append(got, out.Values()...)
	}
	assert.Equal(t, col.Values(), got)
}

func TestDecoder_VersionGate(t *testing.T) {
	typ := newStringType(t, false)
	for _, v := range []uint64{0, 2, 1 << 32} {
		_, err := typ.NewDecoder(DeserializeSettings{
			Streams: ReaderStreams(bytes.NewReader(word(v)), bytes.NewReader(nil)),
		})
		assert.ErrorIs(t, err, ErrInvalidVersion, "version %d", v)
	}

	_, err := typ.NewDecoder(DeserializeSettings{
		Streams: ReaderStreams(bytes.NewReader(nil), bytes.NewReader(nil)),
	})
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestDecoder_MalformedChunks(t *testing.T) {
	typ := newStringType(t, false)
	tests := []struct {
		name    string
		indexes []byte
		want    error
	}{
		{"unknown width", word(4), ErrInvalidIndexWidth},
		{"rows without keys", concat(word(0), word(2), []byte{0, 0}), ErrCorruptStream},
		{"position past additional keys", concat(word(HasAdditionalKeysBit), word(1), []byte("\x01a"), word(1), []byte{3}), ErrCorruptStream},
		{"truncated indexes", concat(word(HasAdditionalKeysBit), word(1), []byte("\x01a"), word(4), []byte{0}), io.ErrUnexpectedEOF},
		{"truncated header", []byte{1, 2, 3}, io.ErrUnexpectedEOF},
		{"huge row count", concat(word(HasAdditionalKeysBit), word(1), []byte("\x01a"), word(1<<50), []byte{0}), io.ErrUnexpectedEOF},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dec, err := typ.NewDecoder(DeserializeSettings{
				Streams: ReaderStreams(bytes.NewReader(word(1)), bytes.NewReader(tt.indexes)),
			})
			require.NoError(t, err)
			_, err = dec.Decode(typ.CreateColumn(), 0)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	t.Run("duplicate dictionary keys", func(t *testing.T) {
		dec, err := typ.NewDecoder(DeserializeSettings{
			Streams: ReaderStreams(
				bytes.NewReader(concat(word(1), word(2), []byte("\x01a\x01a"))),
				bytes.NewReader(concat(word(NeedGlobalDictionaryBit), word(1), []byte{0}))),
		})
		require.NoError(t, err)
		_, err = dec.Decode(typ.CreateColumn(), 0)
		assert.ErrorIs(t, err, ErrCorruptStream)
		assert.ErrorIs(t, err, column.ErrDuplicateKey)
	})
}

func TestStreams_Resolution(t *testing.T) {
	typ := newStringType(t, false)
	col := testutil.StringColumn([]any{"a"}, false)

	_, err := typ.NewEncoder(SerializeSettings{})
	assert.ErrorIs(t, err, ErrNoStreamGetter)
	_, err = typ.NewDecoder(DeserializeSettings{})
	assert.ErrorIs(t, err, ErrNoStreamGetter)

	_, err = typ.NewEncoder(SerializeSettings{Streams: WriterStreams(nil, io.Discard), Column: "x"})
	var missing *MissingStreamError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "x.dict", missing.Path.String())

	var keys bytes.Buffer
	available := true
	enc, err := typ.NewEncoder(SerializeSettings{
		Column: "x",
		Streams: func(p Path) io.Writer {
			switch {
			case !available:
				return nil
			case p.Substream == DictionaryKeys:
				return &keys
			default:
				return nil
			}
		},
	})
	require.NoError(t, err)
	assert.ErrorIs(t, enc.Encode(col, 0, 0), ErrMissingStream)

	available = false
	assert.NoError(t, enc.Encode(col, 0, 0), "no streams is a no-op")

	dec, err := typ.NewDecoder(DeserializeSettings{Streams: ReaderStreams(bytes.NewReader(word(1)), nil)})
	require.NoError(t, err)
	_, err = dec.Decode(typ.CreateColumn(), 0)
	assert.ErrorIs(t, err, ErrMissingStream)
}

func TestEncoder_StateErrors(t *testing.T) {
	typ := newStringType(t, false)
	s := &streams{}
	enc, err := typ.NewEncoder(SerializeSettings{Streams: WriterStreams(&s.keys, &s.indexes)})
	require.NoError(t, err)

	assert.ErrorIs(t, enc.Encode(column.NewString("a"), 0, 0), ErrColumnMismatch)
	nullable := testutil.StringColumn([]any{nil}, true)
	assert.ErrorIs(t, enc.Encode(nullable, 0, 0), ErrColumnMismatch)
	assert.ErrorIs(t, enc.Encode(testutil.StringColumn([]any{"a"}, false), 2, 1), column.ErrOutOfRange)

	require.NoError(t, enc.Close())
	require.NoError(t, enc.Close())
	assert.ErrorIs(t, enc.Encode(testutil.StringColumn(nil, false), 0, 0), ErrInvalidState)
}

func TestEncoder_LimitPastEnd(t *testing.T) {
	typ := newStringType(t, false)
	values := []any{"a", "b", "c", "a", "b", "d", "e", "a", "f", "b"}
	col := testutil.StringColumn(values, false)

	for _, capacity := range []uint64{0, 3, 100} {
		s, infos := encodeColumn(t, typ, col, encodeConfig{capacity: capacity, chunks: []int{5, 100}})
		require.Len(t, infos, 2)
		assert.Equal(t, 5, infos[1].Rows)

		out, _ := decodeColumn(t, typ, s, 0)
		assert.Equal(t, values, out.Values(), "capacity=%d", capacity)
	}
}

func TestMetricsAndLogging(t *testing.T) {
	var logs bytes.Buffer
	metrics := &BasicMetricsCollector{}
	typ := newStringType(t, false,
		WithMetricsCollector(metrics),
		WithLogger(NewLogger(slog.NewJSONHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))),
	)
	col := testutil.StringColumn([]any{"a", "b", "c"}, false)
	s, _ := encodeColumn(t, typ, col, encodeConfig{capacity: 2, chunks: []int{1, 2}})
	decodeColumn(t, typ, s, 0)

	stats := metrics.GetStats()
	assert.Equal(t, int64(2), stats.EncodedChunks)
	assert.Equal(t, int64(3), stats.EncodedRows)
	assert.Equal(t, int64(1), stats.AdditionalKeys)
	assert.Equal(t, int64(1), stats.DictionaryFlushes)
	assert.Equal(t, int64(2), stats.DictionaryKeys)
	assert.Equal(t, int64(3), stats.DecodedRows)
	assert.Zero(t, stats.EncodeErrors)

	assert.Contains(t, logs.String(), `"msg":"chunk encoded"`)
	assert.Contains(t, logs.String(), `"msg":"dictionary loaded"`)
	assert.Contains(t, logs.String(), `"column":"c"`)
}
