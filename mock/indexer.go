package mock

import (
	"context"

	"github.com/fwojciec/webrag"
)

var _ webrag.Indexer = (*Indexer)(nil)

// Indexer is a mock implementation of webrag.Indexer.
type Indexer struct {
	IndexPageFn func(ctx context.Context, page *webrag.Page) (*webrag.Document, error)
}

func (i *Indexer) IndexPage(ctx context.Context, page *webrag.Page) (*webrag.Document, error) {
	return i.IndexPageFn(ctx, page)
}
