package lowcard

import (
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with the chunk and dictionary events of encode
// and decode sessions. Chunk events log at Debug, failures at Error.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a Logger with the given handler.
// A nil handler logs text at Info level to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		return NewTextLogger(slog.LevelInfo)
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewJSONLogger creates a Logger writing JSON to stderr at level and above.
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NewTextLogger creates a Logger writing logfmt-style text to stderr.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// LogChunkEncoded logs one encoded chunk.
func (l *Logger) LogChunkEncoded(info ChunkInfo, err error) {
	if err != nil {
		l.Error("chunk encode failed",
			"column", info.Column,
			"chunk", info.Sequence,
			"error", err,
		)
		return
	}
	l.Debug("chunk encoded",
		"column", info.Column,
		"chunk", info.Sequence,
		"rows", info.Rows,
		"width", info.Header.Width.String(),
		"additional_keys", info.AdditionalKeys,
		"need_global_dictionary", info.Header.NeedGlobalDictionary,
		"dictionary_size", info.DictionarySize,
	)
}

// LogDictionaryFlush logs a global dictionary written to the keys substream.
// final is true for the flush at session end.
func (l *Logger) LogDictionaryFlush(column string, keys int, final bool) {
	l.Debug("dictionary flushed",
		"column", column,
		"keys", keys,
		"final", final,
	)
}

// LogChunkDecoded logs one chunk header read by a decoder.
func (l *Logger) LogChunkDecoded(info ChunkInfo, err error) {
	if err != nil {
		l.Error("chunk decode failed",
			"column", info.Column,
			"chunk", info.Sequence,
			"error", err,
		)
		return
	}
	l.Debug("chunk decoded",
		"column", info.Column,
		"chunk", info.Sequence,
		"rows", info.Rows,
		"width", info.Header.Width.String(),
		"additional_keys", info.AdditionalKeys,
	)
}

// LogDictionaryLoaded logs a global dictionary read from the keys substream.
func (l *Logger) LogDictionaryLoaded(column string, keys int) {
	l.Debug("dictionary loaded",
		"column", column,
		"keys", keys,
	)
}
