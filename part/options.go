package part

import (
	"github.com/hupe1980/lowcard"
	"github.com/hupe1980/lowcard/codec"
	"github.com/hupe1980/lowcard/compress"
)

const (
	// DefaultGranuleRows is the number of rows encoded per chunk.
	DefaultGranuleRows = 8192
	// DefaultMaxDictionarySize bounds each column's global dictionary.
	DefaultMaxDictionarySize = 8192
	// DefaultConcurrency is the number of columns encoded or decoded at once.
	DefaultConcurrency = 4
)

type options struct {
	granuleRows       int
	maxDictionarySize uint64
	rotate            bool
	compression       compress.Method
	blockSize         int
	concurrency       int
	codec             codec.Codec
	typeOptions       []lowcard.Option
}

// Option configures Write and Open.
type Option func(*options)

func defaultOptions() options {
	return options{
		granuleRows:       DefaultGranuleRows,
		maxDictionarySize: DefaultMaxDictionarySize,
		compression:       compress.MethodLZ4,
		blockSize:         compress.DefaultBlockSize,
		concurrency:       DefaultConcurrency,
		codec:             codec.Default,
	}
}

func applyOptions(optFns []Option) options {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return opts
}

// WithGranuleRows sets the rows per encoded chunk. Values <= 0 are ignored.
func WithGranuleRows(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.granuleRows = n
		}
	}
}

// WithMaxDictionarySize bounds each column's global dictionary. 0 disables
// the global dictionary so every chunk carries its own keys.
func WithMaxDictionarySize(n uint64) Option {
	return func(o *options) {
		o.maxDictionarySize = n
	}
}

// WithRotateDictionary flushes a full global dictionary and starts a new one
// instead of writing overflowing keys per chunk.
func WithRotateDictionary(rotate bool) Option {
	return func(o *options) {
		o.rotate = rotate
	}
}

// WithCompression selects the substream block compression.
func WithCompression(m compress.Method) Option {
	return func(o *options) {
		o.compression = m
	}
}

// WithBlockSize sets the uncompressed compression block size.
func WithBlockSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.blockSize = n
		}
	}
}

// WithConcurrency sets how many columns are processed at once.
func WithConcurrency(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithCodec selects the manifest codec. Readers detect it from the manifest.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c != nil {
			o.codec = c
		}
	}
}

// WithTypeOptions applies lowcard options (logger, metrics) to the column
// types a Reader re-creates from the manifest.
func WithTypeOptions(opts ...lowcard.Option) Option {
	return func(o *options) {
		o.typeOptions = append(o.typeOptions, opts...)
	}
}
