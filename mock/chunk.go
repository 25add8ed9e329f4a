package mock

import (
	"context"

	"github.com/fwojciec/webrag"
)

var _ webrag.VectorStore = (*VectorStore)(nil)

// VectorStore is a mock implementation of webrag.VectorStore.
type VectorStore struct {
	UpsertChunksFn           func(ctx context.Context, chunks []*webrag.Chunk) error
	DeleteChunksByDocumentFn func(ctx context.Context, documentID string) error
	DeleteChunksByModelFn    func(ctx context.Context, embeddingModel string) error
	SearchChunksFn           func(ctx context.Context, query []float32, opts webrag.SearchOptions) ([]webrag.SearchResult, error)
	CountChunksFn            func(ctx context.Context, embeddingModel string) (int, error)
	CountChunksByDocumentFn  func(ctx context.Context, documentID, embeddingModel string) (int, error)
	FindChunksByDocumentFn   func(ctx context.Context, documentID string) ([]*webrag.Chunk, error)
}

func (s *VectorStore) UpsertChunks(ctx context.Context, chunks []*webrag.Chunk) error {
	return s.UpsertChunksFn(ctx, chunks)
}

func (s *VectorStore) DeleteChunksByDocument(ctx context.Context, documentID string) error {
	return s.DeleteChunksByDocumentFn(ctx, documentID)
}

func (s *VectorStore) DeleteChunksByModel(ctx context.Context, embeddingModel string) error {
	return s.DeleteChunksByModelFn(ctx, embeddingModel)
}

func (s *VectorStore) SearchChunks(ctx context.Context, query []float32, opts webrag.SearchOptions) ([]webrag.SearchResult, error) {
	return s.SearchChunksFn(ctx, query, opts)
}

func (s *VectorStore) CountChunks(ctx context.Context, embeddingModel string) (int, error) {
	return s.CountChunksFn(ctx, embeddingModel)
}

func (s *VectorStore) CountChunksByDocument(ctx context.Context, documentID, embeddingModel string) (int, error) {
	return s.CountChunksByDocumentFn(ctx, documentID, embeddingModel)
}

func (s *VectorStore) FindChunksByDocument(ctx context.Context, documentID string) ([]*webrag.Chunk, error) {
	return s.FindChunksByDocumentFn(ctx, documentID)
}
