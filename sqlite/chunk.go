package sqlite

import (
	"container/heap"
	"context"
	"encoding/binary"
	"math"
	"strings"

	"github.com/fwojciec/webrag"
	"github.com/google/uuid"
)

// Compile-time interface verification.
var _ webrag.VectorStore = (*VectorStore)(nil)

// VectorStore implements webrag.VectorStore using SQLite. Embeddings are
// stored as little-endian float32 blobs and searched brute-force with cosine
// similarity, which is plenty for a local library of a few thousand pages.
type VectorStore struct {
	db *DB
}

// NewVectorStore creates a new VectorStore.
func NewVectorStore(db *DB) *VectorStore {
	return &VectorStore{db: db}
}

// UpsertChunks stores chunks with their embeddings in one transaction,
// replacing any previous rows with the same IDs.
func (s *VectorStore) UpsertChunks(ctx context.Context, chunks []*webrag.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	for _, chunk := range chunks {
		if err := chunk.Validate(); err != nil {
			return err
		}
		if len(chunk.Embedding) == 0 {
			return webrag.Errorf(webrag.EINVALID, "chunk embedding required")
		}
		if chunk.ID == "" {
			chunk.ID = uuid.New().String()
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO chunks (id, document_id, seq, text, start_offset, end_offset, embedding, embedding_model)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, chunk := range chunks {
		_, err := stmt.ExecContext(ctx, chunk.ID, chunk.DocumentID, chunk.Seq, chunk.Text,
			chunk.Start, chunk.End, encodeFloat32s(chunk.Embedding), chunk.EmbeddingModel)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// DeleteChunksByDocument removes all chunks for a document.
func (s *VectorStore) DeleteChunksByDocument(ctx context.Context, documentID string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM chunks WHERE document_id = ?", documentID)
	return err
}

// DeleteChunksByModel removes all chunks embedded under a model.
func (s *VectorStore) DeleteChunksByModel(ctx context.Context, embeddingModel string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM chunks WHERE embedding_model = ?", embeddingModel)
	return err
}

// CountChunks returns the number of searchable chunks in the given vector
// space.
func (s *VectorStore) CountChunks(ctx context.Context, embeddingModel string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM chunks c
		JOIN documents d ON d.id = c.document_id
		WHERE c.embedding_model = ? AND d.status = ?
	`, embeddingModel, string(webrag.DocumentStatusIndexed)).Scan(&n)
	return n, err
}

// CountChunksByDocument returns the number of chunks a document holds in the
// given vector space.
func (s *VectorStore) CountChunksByDocument(ctx context.Context, documentID, embeddingModel string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM chunks WHERE document_id = ? AND embedding_model = ?",
		documentID, embeddingModel,
	).Scan(&n)
	return n, err
}

// FindChunksByDocument returns a document's chunks ordered by Seq, without
// embeddings.
func (s *VectorStore) FindChunksByDocument(ctx context.Context, documentID string) ([]*webrag.Chunk, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, document_id, seq, text, start_offset, end_offset, embedding_model
		FROM chunks
		WHERE document_id = ?
		ORDER BY seq ASC
	`, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []*webrag.Chunk
	for rows.Next() {
		var c webrag.Chunk
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.Seq, &c.Text, &c.Start, &c.End, &c.EmbeddingModel); err != nil {
			return nil, err
		}
		chunks = append(chunks, &c)
	}
	return chunks, rows.Err()
}

// SearchChunks returns the top matches for the query vector by cosine
// similarity. Candidates are restricted to the requested vector space and to
// indexed documents; ties are broken by the parent document's fetched_at,
// most recent first.
//
// The search runs in two phases: a scan over (id, embedding, fetched_at)
// that keeps only the top-k in a heap, then one hydration query for the
// winning rows.
func (s *VectorStore) SearchChunks(ctx context.Context, query []float32, opts webrag.SearchOptions) ([]webrag.SearchResult, error) {
	if len(query) == 0 {
		return nil, webrag.Errorf(webrag.EINVALID, "query vector required")
	}
	if opts.EmbeddingModel == "" {
		return nil, webrag.Errorf(webrag.EINVALID, "embedding model required")
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}

	var q strings.Builder
	args := []any{opts.EmbeddingModel, string(webrag.DocumentStatusIndexed)}
	q.WriteString(`
		SELECT c.id, c.embedding, d.fetched_at
		FROM chunks c
		JOIN documents d ON d.id = c.document_id
		WHERE c.embedding_model = ? AND d.status = ?
	`)
	if opts.Domain != "" {
		q.WriteString(" AND d.domain = ?")
		args = append(args, opts.Domain)
	}

	rows, err := s.db.QueryContext(ctx, q.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	queryNorm := norm(query)

	// Reused across candidates to avoid one allocation per row.
	buf := make([]float32, len(query))

	top := &scoredHeap{}
	heap.Init(top)
	for rows.Next() {
		var id, fetchedAt string
		var blob []byte
		if err := rows.Scan(&id, &blob, &fetchedAt); err != nil {
			return nil, err
		}

		candidate, err := decodeFloat32sInto(buf, blob)
		if err != nil {
			return nil, webrag.Errorf(webrag.ESTORE, "corrupt embedding for chunk %s", id)
		}
		if len(candidate) != len(query) {
			// A stale row from a different vector space; never rank it.
			continue
		}

		score := cosine(query, candidate, queryNorm)
		if opts.MinScore > 0 && score < opts.MinScore {
			continue
		}

		heap.Push(top, scoredChunk{id: id, score: score, fetchedAt: fetchedAt})
		if top.Len() > limit {
			heap.Pop(top)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if top.Len() == 0 {
		return nil, nil
	}

	// Drain the heap worst-first, then reverse into rank order.
	ranked := make([]scoredChunk, top.Len())
	for i := top.Len() - 1; i >= 0; i-- {
		ranked[i] = heap.Pop(top).(scoredChunk)
	}

	chunks, err := s.findChunksByID(ctx, ranked)
	if err != nil {
		return nil, err
	}

	results := make([]webrag.SearchResult, 0, len(ranked))
	for _, sc := range ranked {
		chunk, ok := chunks[sc.id]
		if !ok {
			continue
		}
		results = append(results, webrag.SearchResult{Chunk: chunk, Score: sc.score})
	}

	return results, nil
}

// findChunksByID hydrates full chunk rows for the ranked IDs. Embeddings are
// not loaded; callers of search never need the raw vectors back.
func (s *VectorStore) findChunksByID(ctx context.Context, ranked []scoredChunk) (map[string]*webrag.Chunk, error) {
	var q strings.Builder
	q.WriteString("SELECT id, document_id, seq, text, start_offset, end_offset, embedding_model FROM chunks WHERE id IN (")
	args := make([]any, 0, len(ranked))
	for i, sc := range ranked {
		if i > 0 {
			q.WriteString(", ")
		}
		q.WriteString("?")
		args = append(args, sc.id)
	}
	q.WriteString(")")

	rows, err := s.db.QueryContext(ctx, q.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	chunks := make(map[string]*webrag.Chunk, len(ranked))
	for rows.Next() {
		var chunk webrag.Chunk
		if err := rows.Scan(&chunk.ID, &chunk.DocumentID, &chunk.Seq, &chunk.Text,
			&chunk.Start, &chunk.End, &chunk.EmbeddingModel); err != nil {
			return nil, err
		}
		chunks[chunk.ID] = &chunk
	}

	return chunks, rows.Err()
}

// scoredChunk is a search candidate that survived the heap.
type scoredChunk struct {
	id        string
	score     float32
	fetchedAt string // RFC3339 UTC, so string order is time order
}

// scoredHeap is a min-heap keeping the best candidates; the worst candidate
// sits at the root for cheap eviction. For equal scores the older document
// is the worse candidate.
type scoredHeap []scoredChunk

func (h scoredHeap) Len() int { return len(h) }

func (h scoredHeap) Less(i, j int) bool {
	if h[i].score != h[j].score {
		return h[i].score < h[j].score
	}
	return h[i].fetchedAt < h[j].fetchedAt
}

func (h scoredHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *scoredHeap) Push(x any) {
	*h = append(*h, x.(scoredChunk))
}

func (h *scoredHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// encodeFloat32s renders a vector as a little-endian float32 blob.
func encodeFloat32s(values []float32) []byte {
	buf := make([]byte, len(values)*4)
	for i, v := range values {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// decodeFloat32sInto parses a little-endian float32 blob into buf when
// capacity allows, avoiding an allocation per candidate during search.
func decodeFloat32sInto(buf []float32, data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, webrag.Errorf(webrag.ESTORE, "embedding blob length %d is not a multiple of 4", len(data))
	}
	n := len(data) / 4
	if cap(buf) < n {
		buf = make([]float32, n)
	}
	buf = buf[:n]
	for i := range buf {
		buf[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return buf, nil
}

// norm returns the Euclidean norm of a vector.
func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// cosine computes cosine similarity given a precomputed query norm.
func cosine(query, candidate []float32, queryNorm float64) float32 {
	var dot, candSum float64
	for i := range query {
		dot += float64(query[i]) * float64(candidate[i])
		candSum += float64(candidate[i]) * float64(candidate[i])
	}
	candNorm := math.Sqrt(candSum)
	if queryNorm == 0 || candNorm == 0 {
		return 0
	}
	return float32(dot / (queryNorm * candNorm))
}
