package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stream struct {
	Path     string `json:"path" msgpack:"path"`
	Size     int64  `json:"size" msgpack:"size"`
	Checksum uint32 `json:"crc" msgpack:"crc"`
}

type manifest struct {
	Version uint64            `json:"version" msgpack:"version"`
	Columns []string          `json:"columns" msgpack:"columns"`
	Streams []stream          `json:"streams" msgpack:"streams"`
	Labels  map[string]string `json:"labels,omitempty" msgpack:"labels,omitempty"`
}

func TestCodecs_RoundTrip(t *testing.T) {
	in := manifest{
		Version: 1,
		Columns: []string{"host", "status"},
		Streams: []stream{{Path: "host.dict", Size: 42, Checksum: 0xdeadbeef}, {Path: "host", Size: 7}},
		Labels:  map[string]string{"b": "2", "a": "1"},
	}
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			c, ok := ByName(name)
			require.True(t, ok)
			assert.Equal(t, name, c.Name())

			data := MustMarshal(c, in)
			var out manifest
			require.NoError(t, c.Unmarshal(data, &out))
			assert.Equal(t, in, out)
		})
	}
}

func TestMsgpack_Deterministic(t *testing.T) {
	a := map[string]int{"x": 1, "y": 2, "z": 3, "w": 4}
	first := MustMarshal(Msgpack{}, a)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, MustMarshal(Msgpack{}, a))
	}
}

func TestJSONCodecsInterchangeable(t *testing.T) {
	in := manifest{Version: 3, Columns: []string{"c"}}
	var out manifest
	require.NoError(t, GoJSON{}.Unmarshal(MustMarshal(JSON{}, in), &out))
	assert.Equal(t, in, out)
}

func TestByName_Unknown(t *testing.T) {
	_, ok := ByName("gob")
	assert.False(t, ok)
	assert.Equal(t, "msgpack", Default.Name())
}
