package copier

import "github.com/xakep666/asynccopy-go/pkg/bufferpool"

// chunk is a buffer filled by reader, only first n bytes are meaningful.
type chunk struct {
	buf *bufferpool.Buffer
	n   int
}

func (c chunk) bytes() []byte { return c.buf.Bytes()[:c.n] }

func (c chunk) release() { c.buf.Release() }
