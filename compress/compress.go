package compress

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/hupe1980/lowcard/internal/hash"
)

// Method is a block compression algorithm.
type Method uint8

const (
	// MethodNone stores blocks as is.
	MethodNone Method = 0
	// MethodLZ4 uses LZ4 block compression (fast, good for hot data).
	MethodLZ4 Method = 1
	// MethodZSTD uses ZSTD block compression (better ratio, good for cold data).
	MethodZSTD Method = 2
)

var (
	// ErrUnknownMethod is returned for an unrecognized method byte or name.
	ErrUnknownMethod = errors.New("compress: unknown method")
	// ErrCorruptBlock is returned when a block frame is malformed.
	ErrCorruptBlock = errors.New("compress: corrupt block")
)

func (m Method) String() string {
	switch m {
	case MethodNone:
		return "none"
	case MethodLZ4:
		return "lz4"
	case MethodZSTD:
		return "zstd"
	default:
		return fmt.Sprintf("Method(%d)", uint8(m))
	}
}

// Valid reports whether m is a known method.
func (m Method) Valid() bool { return m <= MethodZSTD }

// ParseMethod resolves a method by its String name.
func ParseMethod(name string) (Method, error) {
	switch strings.ToLower(name) {
	case "", "none":
		return MethodNone, nil
	case "lz4":
		return MethodLZ4, nil
	case "zstd":
		return MethodZSTD, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownMethod, name)
	}
}

// ZSTD encoder/decoder pools for efficiency
var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	return dec
}

const (
	// HeaderSize is the size of a block frame header.
	HeaderSize = 13
	// DefaultBlockSize is the uncompressed block size used when none is given.
	DefaultBlockSize = 256 * 1024
	// MaxBlockSize bounds the uncompressed size a reader accepts.
	MaxBlockSize = 64 << 20
)

// BlockHeader is the fixed prefix of a block frame.
type BlockHeader struct {
	Method           Method
	UncompressedSize uint32
	StoredSize       uint32
	Checksum         uint32
}

func (h BlockHeader) put(dst []byte) {
	dst[0] = byte(h.Method)
	binary.LittleEndian.PutUint32(dst[1:], h.UncompressedSize)
	binary.LittleEndian.PutUint32(dst[5:], h.StoredSize)
	binary.LittleEndian.PutUint32(dst[9:], h.Checksum)
}

// ParseBlockHeader decodes and validates a frame header.
func ParseBlockHeader(src []byte) (BlockHeader, error) {
	if len(src) < HeaderSize {
		return BlockHeader{}, fmt.Errorf("%w: header of %d bytes", ErrCorruptBlock, len(src))
	}
	h := BlockHeader{
		Method:           Method(src[0]),
		UncompressedSize: binary.LittleEndian.Uint32(src[1:]),
		StoredSize:       binary.LittleEndian.Uint32(src[5:]),
		Checksum:         binary.LittleEndian.Uint32(src[9:]),
	}
	switch {
	case !h.Method.Valid():
		return h, fmt.Errorf("%w: %d", ErrUnknownMethod, src[0])
	case h.UncompressedSize > MaxBlockSize || h.StoredSize > MaxBlockSize:
		return h, fmt.Errorf("%w: block of %d bytes exceeds limit", ErrCorruptBlock, max(h.UncompressedSize, h.StoredSize))
	case h.Method == MethodNone && h.StoredSize != h.UncompressedSize:
		return h, fmt.Errorf("%w: stored block size %d != %d", ErrCorruptBlock, h.StoredSize, h.UncompressedSize)
	}
	return h, nil
}

// AppendBlock compresses data with method and appends the framed block to dst.
// If compression doesn't help (ratio > 0.9), the block is stored uncompressed.
func AppendBlock(dst, data []byte, method Method) ([]byte, error) {
	if len(data) > MaxBlockSize {
		return dst, fmt.Errorf("%w: block of %d bytes exceeds limit", ErrCorruptBlock, len(data))
	}
	h := BlockHeader{
		Method:           MethodNone,
		UncompressedSize: uint32(len(data)),
		Checksum:         hash.CRC32C(data),
	}

	var payload []byte
	switch method {
	case MethodNone:
	case MethodLZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, buf, nil)
		if err != nil {
			return dst, fmt.Errorf("lz4: %w", err)
		}
		// 0 means incompressible
		payload = buf[:n]
	case MethodZSTD:
		enc := getZstdEncoder()
		payload = enc.EncodeAll(data, nil)
		zstdEncoderPool.Put(enc)
	default:
		return dst, fmt.Errorf("%w: %d", ErrUnknownMethod, uint8(method))
	}

	if len(payload) == 0 || float64(len(payload)) > float64(len(data))*0.9 {
		payload = data
	} else {
		h.Method = method
	}
	h.StoredSize = uint32(len(payload))

	var hdr [HeaderSize]byte
	h.put(hdr[:])
	dst = append(dst, hdr[:]...)
	return append(dst, payload...), nil
}

// DecodeBlock decompresses the payload of a block described by h into dst
// (reusing its capacity) and verifies the checksum.
func DecodeBlock(dst []byte, h BlockHeader, payload []byte) ([]byte, error) {
	if uint32(len(payload)) != h.StoredSize {
		return nil, fmt.Errorf("%w: payload of %d bytes, header says %d", ErrCorruptBlock, len(payload), h.StoredSize)
	}
	size := int(h.UncompressedSize)
	if cap(dst) < size {
		dst = make([]byte, size)
	}
	dst = dst[:size]

	switch h.Method {
	case MethodNone:
		copy(dst, payload)
	case MethodLZ4:
		n, err := lz4.UncompressBlock(payload, dst)
		if err != nil {
			return nil, fmt.Errorf("%w: lz4: %w", ErrCorruptBlock, err)
		}
		if n != size {
			return nil, fmt.Errorf("%w: decompressed size mismatch", ErrCorruptBlock)
		}
	case MethodZSTD:
		dec := getZstdDecoder()
		decoded, err := dec.DecodeAll(payload, dst[:0])
		zstdDecoderPool.Put(dec)
		if err != nil {
			return nil, fmt.Errorf("%w: zstd: %w", ErrCorruptBlock, err)
		}
		if len(decoded) != size {
			return nil, fmt.Errorf("%w: decompressed size mismatch", ErrCorruptBlock)
		}
		dst = decoded
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownMethod, uint8(h.Method))
	}

	if sum := hash.CRC32C(dst); sum != h.Checksum {
		return nil, fmt.Errorf("%w: %w", ErrCorruptBlock, &hash.MismatchError{Expected: h.Checksum, Actual: sum})
	}
	return dst, nil
}
