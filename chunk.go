package webrag

import (
	"context"
)

// Chunk represents a bounded passage of a document's text, the unit of
// embedding and retrieval. Chunks are owned exclusively by their document
// and ordered by Seq; consecutive chunks overlap by a fixed number of
// characters so context at passage boundaries is not lost.
type Chunk struct {
	ID         string `json:"id"`
	DocumentID string `json:"documentId"`
	Seq        int    `json:"seq"`
	Text       string `json:"text"`

	// [Start, End) is the rune offset span of Text within the document
	// markdown.
	Start int `json:"start"`
	End   int `json:"end"`

	Embedding []float32 `json:"embedding,omitempty"`

	// EmbeddingModel identifies the vector space Embedding belongs to.
	// Chunks are searchable only under the model that produced them.
	EmbeddingModel string `json:"embeddingModel"`
}

// Validate returns an error if the chunk contains invalid fields.
func (c *Chunk) Validate() error {
	if c.DocumentID == "" {
		return Errorf(EINVALID, "chunk document ID required")
	}
	if c.Text == "" {
		return Errorf(EINVALID, "chunk text required")
	}
	if c.Seq < 0 {
		return Errorf(EINVALID, "chunk sequence index must be non-negative")
	}
	if c.End < c.Start {
		return Errorf(EINVALID, "chunk span end before start")
	}
	if c.EmbeddingModel == "" {
		return Errorf(EINVALID, "chunk embedding model required")
	}
	return nil
}

// SearchOptions configures vector search behavior.
type SearchOptions struct {
	// EmbeddingModel restricts candidates to one vector space. Required;
	// vectors from different models are never ranked together.
	EmbeddingModel string `json:"embeddingModel"`

	// Domain restricts results to documents from one domain.
	Domain string `json:"domain,omitempty"`

	// Maximum number of results to return.
	Limit int `json:"limit,omitempty"`

	// Minimum similarity score (0-1).
	MinScore float32 `json:"minScore,omitempty"`
}

// SearchResult represents a search match.
type SearchResult struct {
	Chunk *Chunk  `json:"chunk"`
	Score float32 `json:"score"`
}

// VectorStore persists chunk embeddings and performs similarity search over
// them. Implementations must survive process restarts and must never mix
// vector spaces in one ranking.
type VectorStore interface {
	// UpsertChunks stores chunks with their embeddings, replacing any
	// previous chunk set rows with the same IDs.
	UpsertChunks(ctx context.Context, chunks []*Chunk) error

	// DeleteChunksByDocument removes all chunks for a document.
	DeleteChunksByDocument(ctx context.Context, documentID string) error

	// DeleteChunksByModel removes all chunks embedded under a model.
	// Used to purge stale vector spaces after a reindex.
	DeleteChunksByModel(ctx context.Context, embeddingModel string) error

	// SearchChunks returns the top matches for the query vector by cosine
	// similarity, most similar first. Only chunks from indexed documents
	// in the requested vector space are candidates. Ties are broken by the
	// parent document's fetched_at, most recent first.
	SearchChunks(ctx context.Context, query []float32, opts SearchOptions) ([]SearchResult, error)

	// CountChunks returns the number of searchable chunks in the given
	// vector space.
	CountChunks(ctx context.Context, embeddingModel string) (int, error)

	// CountChunksByDocument returns the number of chunks a document holds
	// in the given vector space. Used to decide whether a re-index can keep
	// the existing chunk set.
	CountChunksByDocument(ctx context.Context, documentID, embeddingModel string) (int, error)

	// FindChunksByDocument returns a document's chunks ordered by Seq,
	// without embeddings. Used to re-embed stored text under a new model.
	FindChunksByDocument(ctx context.Context, documentID string) ([]*Chunk, error)
}
