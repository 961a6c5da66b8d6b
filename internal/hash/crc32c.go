package hash

import (
	"fmt"
	"hash"
	"hash/crc32"
	"io"
)

// crc32cTable is pre-computed for CRC32-Castagnoli polynomial.
var crc32cTable = crc32.MakeTable(crc32.Castagnoli)

// CRC32C computes the CRC32-Castagnoli checksum of data.
func CRC32C(data []byte) uint32 {
	return crc32.Checksum(data, crc32cTable)
}

// NewCRC32C returns a new CRC32-Castagnoli hash.Hash32.
func NewCRC32C() hash.Hash32 {
	return crc32.New(crc32cTable)
}

// Writer wraps an io.Writer and computes a running CRC32C checksum
// and byte count of everything written through it.
type Writer struct {
	w    io.Writer
	hash hash.Hash32
	n    int64
}

// NewWriter creates a new checksumming writer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w, hash: NewCRC32C()}
}

// Write implements io.Writer.
func (cw *Writer) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	if n > 0 {
		_, _ = cw.hash.Write(p[:n])
		cw.n += int64(n)
	}
	return n, err
}

// Sum32 returns the current checksum value.
func (cw *Writer) Sum32() uint32 { return cw.hash.Sum32() }

// Size returns the number of bytes written so far.
func (cw *Writer) Size() int64 { return cw.n }

// Reader wraps an io.Reader and computes a running CRC32C checksum.
type Reader struct {
	r    io.Reader
	hash hash.Hash32
	n    int64
}

// NewReader creates a new checksumming reader.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r, hash: NewCRC32C()}
}

// Read implements io.Reader.
func (cr *Reader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	if n > 0 {
		_, _ = cr.hash.Write(p[:n])
		cr.n += int64(n)
	}
	return n, err
}

// Sum32 returns the current checksum value.
func (cr *Reader) Sum32() uint32 { return cr.hash.Sum32() }

// Size returns the number of bytes read so far.
func (cr *Reader) Size() int64 { return cr.n }

// Verify checks if the computed checksum matches the expected value.
func (cr *Reader) Verify(expected uint32) error {
	if actual := cr.Sum32(); actual != expected {
		return &MismatchError{Expected: expected, Actual: actual}
	}
	return nil
}

// MismatchError is returned when checksum verification fails.
type MismatchError struct {
	Expected uint32
	Actual   uint32
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("checksum mismatch: expected 0x%08x, got 0x%08x", e.Expected, e.Actual)
}
