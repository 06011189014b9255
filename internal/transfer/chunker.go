package transfer

import (
	"io"

	"github.com/pkg/errors"
)

// Chunker cuts a reader into size byte windows. Only the last window may be
// shorter and an empty window is never returned.
type Chunker struct {
	r     io.Reader
	size  int
	index int
	done  bool
}

func NewChunker(r io.Reader, size int) *Chunker {
	return &Chunker{
		r:    r,
		size: size,
	}
}

// Next returns a freshly allocated chunk, io.EOF once the reader is
// exhausted, or an *Error of kind ErrFile when reading fails.
func (c *Chunker) Next() ([]byte, error) {
	if c.done {
		return nil, io.EOF
	}

	buf := make([]byte, c.size)
	n, err := io.ReadFull(c.r, buf)
	switch {
	case err == nil:
	case errors.Is(err, io.EOF):
		c.done = true
		return nil, io.EOF
	case errors.Is(err, io.ErrUnexpectedEOF):
		c.done = true
		buf = buf[:n]
	default:
		c.done = true
		return nil, newError(ErrFile, c.index, 0, errors.Wrap(err, "read chunk"))
	}

	c.index++
	return buf, nil
}
