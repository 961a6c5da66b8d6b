package lowcard

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting codec metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
type MetricsCollector interface {
	// RecordChunkEncoded is called after each encoded chunk.
	// additionalKeys is the number of chunk-local keys written.
	RecordChunkEncoded(rows, additionalKeys int, duration time.Duration, err error)

	// RecordDictionaryFlush is called whenever a global dictionary of keys
	// entries is written to the keys substream.
	RecordDictionaryFlush(keys int)

	// RecordChunkDecoded is called after each Decode call with the rows appended.
	RecordChunkDecoded(rows int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordChunkEncoded(int, int, time.Duration, error) {}
func (NoopMetricsCollector) RecordDictionaryFlush(int)                         {}
func (NoopMetricsCollector) RecordChunkDecoded(int, time.Duration, error)      {}

// BasicMetricsCollector provides simple in-memory metrics collection.
type BasicMetricsCollector struct {
	EncodedChunks     atomic.Int64
	EncodedRows       atomic.Int64
	EncodeErrors      atomic.Int64
	EncodeTotalNanos  atomic.Int64
	AdditionalKeys    atomic.Int64
	DictionaryFlushes atomic.Int64
	DictionaryKeys    atomic.Int64
	DecodeCalls       atomic.Int64
	DecodedRows       atomic.Int64
	DecodeErrors      atomic.Int64
	DecodeTotalNanos  atomic.Int64
}

// RecordChunkEncoded implements MetricsCollector.
func (b *BasicMetricsCollector) RecordChunkEncoded(rows, additionalKeys int, duration time.Duration, err error) {
	b.EncodedChunks.Add(1)
	b.EncodeTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.EncodeErrors.Add(1)
		return
	}
	b.EncodedRows.Add(int64(rows))
	b.AdditionalKeys.Add(int64(additionalKeys))
}

// RecordDictionaryFlush implements MetricsCollector.
func (b *BasicMetricsCollector) RecordDictionaryFlush(keys int) {
	b.DictionaryFlushes.Add(1)
	b.DictionaryKeys.Add(int64(keys))
}

// RecordChunkDecoded implements MetricsCollector.
func (b *BasicMetricsCollector) RecordChunkDecoded(rows int, duration time.Duration, err error) {
	b.DecodeCalls.Add(1)
	b.DecodeTotalNanos.Add(duration.Nanoseconds())
	b.DecodedRows.Add(int64(rows))
	if err != nil {
		b.DecodeErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		EncodedChunks:     b.EncodedChunks.Load(),
		EncodedRows:       b.EncodedRows.Load(),
		EncodeErrors:      b.EncodeErrors.Load(),
		EncodeAvgNanos:    avg(b.EncodeTotalNanos.Load(), b.EncodedChunks.Load()),
		AdditionalKeys:    b.AdditionalKeys.Load(),
		DictionaryFlushes: b.DictionaryFlushes.Load(),
		DictionaryKeys:    b.DictionaryKeys.Load(),
		DecodeCalls:       b.DecodeCalls.Load(),
		DecodedRows:       b.DecodedRows.Load(),
		DecodeErrors:      b.DecodeErrors.Load(),
		DecodeAvgNanos:    avg(b.DecodeTotalNanos.Load(), b.DecodeCalls.Load()),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	EncodedChunks     int64
	EncodedRows       int64
	EncodeErrors      int64
	EncodeAvgNanos    int64
	AdditionalKeys    int64
	DictionaryFlushes int64
	DictionaryKeys    int64
	DecodeCalls       int64
	DecodedRows       int64
	DecodeErrors      int64
	DecodeAvgNanos    int64
}
