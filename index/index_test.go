package index_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fwojciec/webrag"
	"github.com/fwojciec/webrag/index"
	"github.com/fwojciec/webrag/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory catalogue and vector store backing Indexer tests.
type memStore struct {
	mu     sync.Mutex
	docs   map[string]*webrag.Document
	chunks map[string][]*webrag.Chunk
	nextID int
}

func newMemStore() *memStore {
	return &memStore{
		docs:   make(map[string]*webrag.Document),
		chunks: make(map[string][]*webrag.Chunk),
	}
}

func (m *memStore) documents() *mock.DocumentService {
	return &mock.DocumentService{
		CreateDocumentFn: func(_ context.Context, doc *webrag.Document) error {
			m.mu.Lock()
			defer m.mu.Unlock()
			m.nextID++
			doc.ID = fmt.Sprintf("doc-%d", m.nextID)
			copied := *doc
			m.docs[doc.ID] = &copied
			return nil
		},
		FindDocumentByCanonicalURLFn: func(_ context.Context, canonicalURL string) (*webrag.Document, error) {
			m.mu.Lock()
			defer m.mu.Unlock()
			for _, doc := range m.docs {
				if doc.CanonicalURL == canonicalURL {
					copied := *doc
					return &copied, nil
				}
			}
			return nil, webrag.Errorf(webrag.ENOTFOUND, "document not found")
		},
		FindDocumentsFn: func(_ context.Context, filter webrag.DocumentFilter) ([]*webrag.Document, int, error) {
			m.mu.Lock()
			defer m.mu.Unlock()
			var out []*webrag.Document
			for _, doc := range m.docs {
				copied := *doc
				out = append(out, &copied)
			}
			if filter.Offset >= len(out) {
				return nil, len(out), nil
			}
			return out[filter.Offset:], len(out), nil
		},
		UpdateDocumentFn: func(_ context.Context, id string, upd webrag.DocumentUpdate) (*webrag.Document, error) {
			m.mu.Lock()
			defer m.mu.Unlock()
			doc, ok := m.docs[id]
			if !ok {
				return nil, webrag.Errorf(webrag.ENOTFOUND, "document not found")
			}
			if upd.Title != nil {
				doc.Title = *upd.Title
			}
			if upd.Status != nil {
				doc.Status = *upd.Status
			}
			if upd.TextLength != nil {
				doc.TextLength = *upd.TextLength
			}
			if upd.ContentHash != nil {
				doc.ContentHash = *upd.ContentHash
			}
			if upd.FetchedAt != nil {
				doc.FetchedAt = *upd.FetchedAt
			}
			if upd.Error != nil {
				doc.Error = *upd.Error
			}
			copied := *doc
			return &copied, nil
		},
	}
}

func (m *memStore) vectors() *mock.VectorStore {
	return &mock.VectorStore{
		UpsertChunksFn: func(_ context.Context, chunks []*webrag.Chunk) error {
			m.mu.Lock()
			defer m.mu.Unlock()
			for _, c := range chunks {
				m.nextID++
				c.ID = fmt.Sprintf("chunk-%d", m.nextID)
				copied := *c
				m.chunks[c.DocumentID] = append(m.chunks[c.DocumentID], &copied)
			}
			return nil
		},
		DeleteChunksByDocumentFn: func(_ context.Context, documentID string) error {
			m.mu.Lock()
			defer m.mu.Unlock()
			delete(m.chunks, documentID)
			return nil
		},
		DeleteChunksByModelFn: func(_ context.Context, embeddingModel string) error {
			m.mu.Lock()
			defer m.mu.Unlock()
			for docID, chunks := range m.chunks {
				kept := chunks[:0:0]
				for _, c := range chunks {
					if c.EmbeddingModel != embeddingModel {
						kept = append(kept, c)
					}
				}
				m.chunks[docID] = kept
			}
			return nil
		},
		CountChunksByDocumentFn: func(_ context.Context, documentID, embeddingModel string) (int, error) {
			m.mu.Lock()
			defer m.mu.Unlock()
			n := 0
			for _, c := range m.chunks[documentID] {
				if c.EmbeddingModel == embeddingModel {
					n++
				}
			}
			return n, nil
		},
		FindChunksByDocumentFn: func(_ context.Context, documentID string) ([]*webrag.Chunk, error) {
			m.mu.Lock()
			defer m.mu.Unlock()
			return append([]*webrag.Chunk(nil), m.chunks[documentID]...), nil
		},
	}
}

// countingEmbedder wraps a deterministic embedder and counts Embed calls.
type countingEmbedder struct {
	mu    sync.Mutex
	calls int
	model string
	fail  error
}

func (e *countingEmbedder) embedder() *mock.Embedder {
	return &mock.Embedder{
		EmbedFn: func(_ context.Context, texts []string) ([][]float32, error) {
			e.mu.Lock()
			e.calls++
			fail := e.fail
			e.mu.Unlock()
			if fail != nil {
				return nil, fail
			}
			vectors := make([][]float32, len(texts))
			for i := range texts {
				vectors[i] = []float32{1, 0, 0}
			}
			return vectors, nil
		},
		ModelFn:      func() string { return e.model },
		DimensionsFn: func() int { return 3 },
	}
}

func (e *countingEmbedder) callCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

func wordChunker() *mock.Chunker {
	return &mock.Chunker{ChunkFn: func(text string) []webrag.Span {
		var spans []webrag.Span
		offset := 0
		for _, part := range strings.Split(text, "\n\n") {
			spans = append(spans, webrag.Span{Text: part, Start: offset, End: offset + len([]rune(part))})
			offset += len([]rune(part)) + 2
		}
		return spans
	}}
}

func page(url, markdown string) *webrag.Page {
	return &webrag.Page{
		SourceURL:    url,
		CanonicalURL: url,
		Title:        "Title",
		Domain:       "example.com",
		Markdown:     markdown,
		FetchedAt:    time.Now().UTC(),
	}
}

func TestIndexer_IndexPage_CreatesIndexedDocument(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	emb := &countingEmbedder{model: "test-model"}
	ix := &index.Indexer{
		Chunker:   wordChunker(),
		Embedder:  emb.embedder(),
		Documents: store.documents(),
		Store:     store.vectors(),
	}

	doc, err := ix.IndexPage(context.Background(), page("https://example.com/a", "first part\n\nsecond part"))
	require.NoError(t, err)

	assert.Equal(t, webrag.DocumentStatusIndexed, doc.Status)
	assert.NotEmpty(t, doc.ContentHash)
	assert.Equal(t, len([]rune("first part\n\nsecond part")), doc.TextLength)

	chunks := store.chunks[doc.ID]
	require.Len(t, chunks, 2)
	assert.Equal(t, "first part", chunks[0].Text)
	assert.Equal(t, 0, chunks[0].Seq)
	assert.Equal(t, "test-model", chunks[0].EmbeddingModel)
	assert.Equal(t, []float32{1, 0, 0}, chunks[0].Embedding)
	assert.Equal(t, 1, emb.callCount())
}

func TestIndexer_IndexPage_UnchangedContentSkipsEmbedding(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	emb := &countingEmbedder{model: "test-model"}
	ix := &index.Indexer{
		Chunker:   wordChunker(),
		Embedder:  emb.embedder(),
		Documents: store.documents(),
		Store:     store.vectors(),
	}

	p := page("https://example.com/a", "stable content")
	first, err := ix.IndexPage(context.Background(), p)
	require.NoError(t, err)
	require.Equal(t, 1, emb.callCount())

	second, err := ix.IndexPage(context.Background(), p)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, webrag.DocumentStatusIndexed, second.Status)
	assert.Equal(t, 1, emb.callCount(), "unchanged content must not be re-embedded")
	assert.Len(t, store.chunks[first.ID], 1)
}

func TestIndexer_IndexPage_ChangedContentReplacesChunks(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	emb := &countingEmbedder{model: "test-model"}
	ix := &index.Indexer{
		Chunker:   wordChunker(),
		Embedder:  emb.embedder(),
		Documents: store.documents(),
		Store:     store.vectors(),
	}

	first, err := ix.IndexPage(context.Background(), page("https://example.com/a", "old content"))
	require.NoError(t, err)

	second, err := ix.IndexPage(context.Background(), page("https://example.com/a", "new content\n\nwith more"))
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID, "same canonical URL updates the existing document")
	assert.NotEqual(t, first.ContentHash, second.ContentHash)
	assert.Equal(t, 2, emb.callCount())

	chunks := store.chunks[first.ID]
	require.Len(t, chunks, 2)
	assert.Equal(t, "new content", chunks[0].Text)
}

func TestIndexer_IndexPage_EmbeddingFailureMarksDocumentFailed(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	emb := &countingEmbedder{model: "test-model", fail: webrag.Errorf(webrag.EEMBED, "embedding service unavailable")}
	ix := &index.Indexer{
		Chunker:   wordChunker(),
		Embedder:  emb.embedder(),
		Documents: store.documents(),
		Store:     store.vectors(),
	}

	_, err := ix.IndexPage(context.Background(), page("https://example.com/a", "content"))
	require.Error(t, err)
	assert.Equal(t, webrag.EEMBED, webrag.ErrorCode(err))

	require.Len(t, store.docs, 1)
	for _, doc := range store.docs {
		assert.Equal(t, webrag.DocumentStatusFailed, doc.Status)
		assert.Equal(t, "embedding service unavailable", doc.Error)
	}
}

func TestIndexer_IndexPage_StorageFailureMarksDocumentFailed(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	emb := &countingEmbedder{model: "test-model"}
	vectors := store.vectors()
	vectors.UpsertChunksFn = func(_ context.Context, _ []*webrag.Chunk) error {
		return webrag.Errorf(webrag.ESTORE, "disk full")
	}
	ix := &index.Indexer{
		Chunker:   wordChunker(),
		Embedder:  emb.embedder(),
		Documents: store.documents(),
		Store:     vectors,
	}

	_, err := ix.IndexPage(context.Background(), page("https://example.com/a", "content"))
	require.Error(t, err)
	assert.Equal(t, webrag.ESTORE, webrag.ErrorCode(err))

	for _, doc := range store.docs {
		assert.Equal(t, webrag.DocumentStatusFailed, doc.Status)
	}
}

func TestIndexer_IndexPage_DropsShortChunks(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	emb := &countingEmbedder{model: "test-model"}
	ix := &index.Indexer{
		Chunker:     wordChunker(),
		Embedder:    emb.embedder(),
		Documents:   store.documents(),
		Store:       store.vectors(),
		MinChunkLen: 10,
	}

	doc, err := ix.IndexPage(context.Background(), page("https://example.com/a", "this part is long enough\n\nshort"))
	require.NoError(t, err)

	chunks := store.chunks[doc.ID]
	require.Len(t, chunks, 1)
	assert.Equal(t, "this part is long enough", chunks[0].Text)
}

func TestIndexer_Reindex_ReembedsUnderActiveModel(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	ctx := context.Background()

	// Index two documents under the old model.
	oldEmb := &countingEmbedder{model: "old-model"}
	oldIx := &index.Indexer{
		Chunker:   wordChunker(),
		Embedder:  oldEmb.embedder(),
		Documents: store.documents(),
		Store:     store.vectors(),
	}
	docA, err := oldIx.IndexPage(ctx, page("https://example.com/a", "document a"))
	require.NoError(t, err)
	docB, err := oldIx.IndexPage(ctx, page("https://example.com/b", "document b"))
	require.NoError(t, err)

	// Reindex under the new model.
	newEmb := &countingEmbedder{model: "new-model"}
	newIx := &index.Indexer{
		Chunker:   wordChunker(),
		Embedder:  newEmb.embedder(),
		Documents: store.documents(),
		Store:     store.vectors(),
	}

	result, err := newIx.Reindex(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Reindexed)
	assert.Equal(t, 0, result.Failed)
	assert.Equal(t, []string{"old-model"}, result.PurgedModels)

	for _, docID := range []string{docA.ID, docB.ID} {
		chunks := store.chunks[docID]
		require.NotEmpty(t, chunks)
		for _, c := range chunks {
			assert.Equal(t, "new-model", c.EmbeddingModel)
		}
	}
}

func TestIndexer_Reindex_SkipsDocumentsAlreadyUnderActiveModel(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	ctx := context.Background()

	emb := &countingEmbedder{model: "test-model"}
	ix := &index.Indexer{
		Chunker:   wordChunker(),
		Embedder:  emb.embedder(),
		Documents: store.documents(),
		Store:     store.vectors(),
	}
	_, err := ix.IndexPage(ctx, page("https://example.com/a", "document a"))
	require.NoError(t, err)
	require.Equal(t, 1, emb.callCount())

	result, err := ix.Reindex(ctx)
	require.NoError(t, err)

	assert.Equal(t, 0, result.Reindexed)
	assert.Equal(t, 1, result.Skipped)
	assert.Empty(t, result.PurgedModels)
	assert.Equal(t, 1, emb.callCount(), "documents under the active model are not re-embedded")
}
