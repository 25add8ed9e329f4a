package mock

import (
	"context"

	"github.com/fwojciec/webrag"
)

var _ webrag.DocumentService = (*DocumentService)(nil)

// DocumentService is a mock implementation of webrag.DocumentService.
type DocumentService struct {
	CreateDocumentFn             func(ctx context.Context, doc *webrag.Document) error
	FindDocumentByIDFn           func(ctx context.Context, id string) (*webrag.Document, error)
	FindDocumentByCanonicalURLFn func(ctx context.Context, canonicalURL string) (*webrag.Document, error)
	FindDocumentsFn              func(ctx context.Context, filter webrag.DocumentFilter) ([]*webrag.Document, int, error)
	UpdateDocumentFn             func(ctx context.Context, id string, upd webrag.DocumentUpdate) (*webrag.Document, error)
	DeleteDocumentFn             func(ctx context.Context, id string) error
	StorageUsageFn               func(ctx context.Context) (*webrag.StorageUsage, error)
}

func (s *DocumentService) CreateDocument(ctx context.Context, doc *webrag.Document) error {
	return s.CreateDocumentFn(ctx, doc)
}

func (s *DocumentService) FindDocumentByID(ctx context.Context, id string) (*webrag.Document, error) {
	return s.FindDocumentByIDFn(ctx, id)
}

func (s *DocumentService) FindDocumentByCanonicalURL(ctx context.Context, canonicalURL string) (*webrag.Document, error) {
	return s.FindDocumentByCanonicalURLFn(ctx, canonicalURL)
}

func (s *DocumentService) FindDocuments(ctx context.Context, filter webrag.DocumentFilter) ([]*webrag.Document, int, error) {
	return s.FindDocumentsFn(ctx, filter)
}

func (s *DocumentService) UpdateDocument(ctx context.Context, id string, upd webrag.DocumentUpdate) (*webrag.Document, error) {
	return s.UpdateDocumentFn(ctx, id, upd)
}

func (s *DocumentService) DeleteDocument(ctx context.Context, id string) error {
	return s.DeleteDocumentFn(ctx, id)
}

func (s *DocumentService) StorageUsage(ctx context.Context) (*webrag.StorageUsage, error) {
	return s.StorageUsageFn(ctx)
}
