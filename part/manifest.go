package part

import (
	"encoding/binary"
	"fmt"

	"github.com/hupe1980/lowcard/codec"
)

// FormatVersion is the part layout version recorded in every manifest.
const FormatVersion = 1

// maxCodecName bounds the codec name read from a manifest.
const maxCodecName = 64

// Manifest describes a stored part.
type Manifest struct {
	FormatVersion              uint64       `json:"format_version" msgpack:"format_version"`
	Compression                string       `json:"compression" msgpack:"compression"`
	GranuleRows                int          `json:"granule_rows" msgpack:"granule_rows"`
	MaxDictionarySize          uint64       `json:"max_dictionary_size" msgpack:"max_dictionary_size"`
	RotateDictionaryOnOverflow bool         `json:"rotate_dictionary_on_overflow" msgpack:"rotate_dictionary_on_overflow"`
	Rows                       int          `json:"rows" msgpack:"rows"`
	Columns                    []ColumnInfo `json:"columns" msgpack:"columns"`
}

// ColumnInfo describes one stored column.
type ColumnInfo struct {
	Name string `json:"name" msgpack:"name"`
	// Type is the declaration, e.g. "LowCardinality(Nullable(String))".
	Type     string       `json:"type" msgpack:"type"`
	Rows     int          `json:"rows" msgpack:"rows"`
	Granules int          `json:"granules" msgpack:"granules"`
	Streams  []StreamInfo `json:"streams" msgpack:"streams"`
}

// StreamInfo describes one stored substream.
type StreamInfo struct {
	// Path is the substream path name, e.g. "status.dict".
	Path string `json:"path" msgpack:"path"`
	Blob string `json:"blob" msgpack:"blob"`
	// RawSize and Checksum (CRC32C) cover the uncompressed substream.
	RawSize  int64  `json:"raw_size" msgpack:"raw_size"`
	Checksum uint32 `json:"checksum" msgpack:"checksum"`
	// StoredSize is the blob size after compression framing.
	StoredSize int64 `json:"stored_size" msgpack:"stored_size"`
	Blocks     int   `json:"blocks" msgpack:"blocks"`
}

// Column returns the info of the named column.
func (m *Manifest) Column(name string) (ColumnInfo, bool) {
	for _, c := range m.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnInfo{}, false
}

// Stream returns the info of the substream with the given path name.
func (c ColumnInfo) Stream(path string) (StreamInfo, bool) {
	for _, s := range c.Streams {
		if s.Path == path {
			return s, true
		}
	}
	return StreamInfo{}, false
}

// EncodeManifest serializes m with c behind a codec name prefix.
func EncodeManifest(m *Manifest, c codec.Codec) ([]byte, error) {
	payload, err := c.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	name := c.Name()
	buf := make([]byte, 0, binary.MaxVarintLen64+len(name)+len(payload))
	buf = binary.AppendUvarint(buf, uint64(len(name)))
	buf = append(buf, name...)
	return append(buf, payload...), nil
}

// DecodeManifest parses a manifest written by EncodeManifest. It returns the
// codec the manifest was written with.
func DecodeManifest(data []byte) (*Manifest, codec.Codec, error) {
	n, k := binary.Uvarint(data)
	if k <= 0 || n > maxCodecName || uint64(len(data)-k) < n {
		return nil, nil, fmt.Errorf("%w: malformed manifest header", ErrCorruptPart)
	}
	name := string(data[k : k+int(n)])
	c, ok := codec.ByName(name)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownCodec, name)
	}

	var m Manifest
	if err := c.Unmarshal(data[k+int(n):], &m); err != nil {
		return nil, nil, fmt.Errorf("%w: unmarshal manifest: %w", ErrCorruptPart, err)
	}
	if m.FormatVersion != FormatVersion {
		return nil, nil, fmt.Errorf("%w: format version %d (expected %d)", ErrCorruptPart, m.FormatVersion, FormatVersion)
	}
	return &m, c, nil
}
