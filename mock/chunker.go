package mock

import "github.com/fwojciec/webrag"

var _ webrag.Chunker = (*Chunker)(nil)

// Chunker is a mock implementation of webrag.Chunker.
type Chunker struct {
	ChunkFn func(text string) []webrag.Span
}

func (c *Chunker) Chunk(text string) []webrag.Span {
	return c.ChunkFn(text)
}
