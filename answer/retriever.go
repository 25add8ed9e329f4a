// Package answer implements the query path: retrieval of relevant passages
// and citation-tracked answer assembly over a chat model.
package answer

import (
	"context"
	"strings"

	"github.com/fwojciec/webrag"
)

// Retriever finds the indexed passages most relevant to a query.
type Retriever struct {
	Embedder  webrag.Embedder
	Store     webrag.VectorStore
	Documents webrag.DocumentService

	// TopK is the number of passages to retrieve; zero uses the default.
	TopK int

	// MinScore drops passages below this cosine similarity.
	MinScore float32
}

// Retrieve embeds the query once, searches the vector store, and resolves
// each match to its parent document for provenance.
//
// Returns ERETRIEVAL when the store holds no searchable chunks for the
// active embedding model, so callers can tell the user to index content
// first instead of answering from nothing.
func (r *Retriever) Retrieve(ctx context.Context, query string) ([]*webrag.RetrievalResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, webrag.Errorf(webrag.EINVALID, "query required")
	}

	model := r.Embedder.Model()
	n, err := r.Store.CountChunks(ctx, model)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, webrag.Errorf(webrag.ERETRIEVAL, "no content indexed yet; add pages before asking questions")
	}

	vectors, err := r.Embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	if len(vectors) != 1 {
		return nil, webrag.Errorf(webrag.ERETRIEVAL, "embedding returned %d vectors for one query", len(vectors))
	}

	topK := r.TopK
	if topK <= 0 {
		topK = webrag.DefaultTopK
	}

	matches, err := r.Store.SearchChunks(ctx, vectors[0], webrag.SearchOptions{
		EmbeddingModel: model,
		Limit:          topK,
		MinScore:       r.MinScore,
	})
	if err != nil {
		return nil, err
	}

	// Resolve provenance, caching document lookups since passages often
	// share a parent.
	docs := make(map[string]*webrag.Document)
	results := make([]*webrag.RetrievalResult, 0, len(matches))
	for _, match := range matches {
		doc, ok := docs[match.Chunk.DocumentID]
		if !ok {
			doc, err = r.Documents.FindDocumentByID(ctx, match.Chunk.DocumentID)
			if err != nil {
				return nil, err
			}
			docs[doc.ID] = doc
		}
		results = append(results, &webrag.RetrievalResult{
			Chunk:    match.Chunk,
			Document: doc,
			Score:    match.Score,
		})
	}
	return results, nil
}
