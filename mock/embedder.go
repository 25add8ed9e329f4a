package mock

import (
	"context"

	"github.com/fwojciec/webrag"
)

var _ webrag.Embedder = (*Embedder)(nil)

// Embedder is a mock implementation of webrag.Embedder.
type Embedder struct {
	EmbedFn      func(ctx context.Context, texts []string) ([][]float32, error)
	ModelFn      func() string
	DimensionsFn func() int
}

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return e.EmbedFn(ctx, texts)
}

func (e *Embedder) Model() string {
	if e.ModelFn == nil {
		return "mock-embedding-model"
	}
	return e.ModelFn()
}

func (e *Embedder) Dimensions() int {
	if e.DimensionsFn == nil {
		return 3
	}
	return e.DimensionsFn()
}
