package compress

import (
	"errors"
	"fmt"
	"io"
)

// Writer buffers writes into blocks and emits one frame per block.
type Writer struct {
	w         io.Writer
	method    Method
	blockSize int
	buf       []byte
	frame     []byte
	written   int64
	blocks    int
	closed    bool
}

// NewWriter creates a block writer. A blockSize <= 0 selects DefaultBlockSize.
func NewWriter(w io.Writer, method Method, blockSize int) *Writer {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	blockSize = min(blockSize, MaxBlockSize)
	return &Writer{
		w:         w,
		method:    method,
		blockSize: blockSize,
		buf:       make([]byte, 0, blockSize),
	}
}

// Write writes data to the buffer, flushing blocks as needed.
func (c *Writer) Write(p []byte) (int, error) {
	if c.closed {
		return 0, errors.New("compress: write to closed writer")
	}
	total := 0
	for len(p) > 0 {
		if len(c.buf) == c.blockSize {
			if err := c.Flush(); err != nil {
				return total, err
			}
		}
		n := min(len(p), c.blockSize-len(c.buf))
		c.buf = append(c.buf, p[:n]...)
		total += n
		p = p[n:]
	}
	return total, nil
}

// Flush compresses and writes the buffered bytes as one block.
func (c *Writer) Flush() error {
	if len(c.buf) == 0 {
		return nil
	}
	frame, err := AppendBlock(c.frame[:0], c.buf, c.method)
	if err != nil {
		return err
	}
	c.frame = frame
	n, err := c.w.Write(frame)
	c.written += int64(n)
	if err != nil {
		return fmt.Errorf("write block: %w", err)
	}
	c.buf = c.buf[:0]
	c.blocks++
	return nil
}

// Close flushes the last block. It does not close the underlying writer.
func (c *Writer) Close() error {
	if c.closed {
		return nil
	}
	err := c.Flush()
	c.closed = true
	return err
}

// Written returns the number of framed bytes written to the underlying writer.
func (c *Writer) Written() int64 { return c.written }

// Blocks returns the number of blocks written.
func (c *Writer) Blocks() int { return c.blocks }

// Reader decodes a stream of frames written by Writer.
type Reader struct {
	r       io.Reader
	header  [HeaderSize]byte
	payload []byte
	block   []byte
	off     int
	err     error
}

// NewReader creates a block reader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// Read implements io.Reader.
func (c *Reader) Read(p []byte) (int, error) {
	for c.off == len(c.block) {
		if c.err != nil {
			return 0, c.err
		}
		c.err = c.next()
	}
	n := copy(p, c.block[c.off:])
	c.off += n
	return n, nil
}

func (c *Reader) next() error {
	if _, err := io.ReadFull(c.r, c.header[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return fmt.Errorf("%w: truncated header", ErrCorruptBlock)
		}
		return err
	}
	h, err := ParseBlockHeader(c.header[:])
	if err != nil {
		return err
	}
	if cap(c.payload) < int(h.StoredSize) {
		c.payload = make([]byte, h.StoredSize)
	}
	c.payload = c.payload[:h.StoredSize]
	if _, err := io.ReadFull(c.r, c.payload); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return fmt.Errorf("%w: truncated payload", ErrCorruptBlock)
		}
		return err
	}
	block, err := DecodeBlock(c.block[:0], h, c.payload)
	if err != nil {
		return err
	}
	c.block, c.off = block, 0
	return nil
}
