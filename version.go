package lowcard

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Version is the keys substream serialization version.
type Version uint64

// VersionSingleDictionaryWithAdditionalKeys is the only supported version:
// one global dictionary per session with chunk-local additional keys.
const VersionSingleDictionaryWithAdditionalKeys Version = 1

// CurrentVersion is the version written by every encoder.
const CurrentVersion = VersionSingleDictionaryWithAdditionalKeys

// Validate returns ErrInvalidVersion for any value other than CurrentVersion.
func (v Version) Validate() error {
	if v != CurrentVersion {
		return fmt.Errorf("%w: %d (expected %d)", ErrInvalidVersion, uint64(v), uint64(CurrentVersion))
	}
	return nil
}

func writeVersion(w io.Writer) error {
	return writeWord(w, uint64(CurrentVersion))
}

func readVersion(r io.Reader) (Version, error) {
	word, err := readWord(r)
	if err != nil {
		return 0, fmt.Errorf("read version: %w", err)
	}
	v := Version(word)
	if err := v.Validate(); err != nil {
		return 0, err
	}
	return v, nil
}

// writeWord writes v as a 64-bit little-endian word.
func writeWord(w io.Writer, v uint64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

func readWord(r io.Reader) (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return 0, io.ErrUnexpectedEOF
		}
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}
