// Package lowcard implements dictionary-encoded ("low cardinality") column
// serialization.
//
// A dictionary-encoded column stores one small unsigned index per row that
// references a table of distinct keys. On disk or on the wire every column is
// split into two substreams:
//
//   - keys ("<column>.dict"): the protocol version followed by global
//     dictionary blocks, each a key count and the serialized keys.
//   - indexes ("<column>"): per chunk, a header word, optional chunk-local
//     additional keys, the row count and the index array in the width the
//     header declares.
//
// A global dictionary bounded by SerializeSettings.MaxDictionarySize is shared
// by all chunks of a session. Keys that do not fit are written with the chunk
// as additional keys. With RotateDictionaryOnOverflow a full dictionary is
// flushed and replaced by a fresh one.
//
// # Quick Start
//
//	t, _ := lowcard.NewType(types.String())
//	col := t.CreateColumn().(*column.LowCardinality)
//	_ = col.Insert("a")
//
//	keys, indexes := new(bytes.Buffer), new(bytes.Buffer)
//	enc, _ := t.NewEncoder(lowcard.SerializeSettings{
//	    Streams:           lowcard.WriterStreams(keys, indexes),
//	    Column:            "c",
//	    MaxDictionarySize: 8192,
//	})
//	_ = enc.Encode(col, 0, 0)
//	_ = enc.Close()
//
//	dec, _ := t.NewDecoder(lowcard.DeserializeSettings{
//	    Streams: lowcard.ReaderStreams(keys, indexes),
//	    Column:  "c",
//	})
//	out := t.CreateColumn().(*column.LowCardinality)
//	_, _ = dec.Decode(out, 0)
//
// Encoder and Decoder sessions are not safe for concurrent use. Independent
// sessions may run in parallel.
package lowcard
