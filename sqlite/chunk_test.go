package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/fwojciec/webrag"
	"github.com/fwojciec/webrag/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVectorStore_UpsertChunks(t *testing.T) {
	t.Parallel()

	t.Run("assigns chunk IDs", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		store := sqlite.NewVectorStore(db)
		doc := createTestDocument(t, db, "https://example.com/page", webrag.DocumentStatusIndexed, time.Now())

		chunk := &webrag.Chunk{DocumentID: doc.ID, Seq: 0, Text: "hello", End: 5, Embedding: []float32{1, 0}, EmbeddingModel: "m"}
		require.NoError(t, store.UpsertChunks(context.Background(), []*webrag.Chunk{chunk}))
		assert.NotEmpty(t, chunk.ID)
	})

	t.Run("replaces rows with the same ID", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		store := sqlite.NewVectorStore(db)
		doc := createTestDocument(t, db, "https://example.com/page", webrag.DocumentStatusIndexed, time.Now())
		ctx := context.Background()

		chunk := &webrag.Chunk{ID: "c1", DocumentID: doc.ID, Seq: 0, Text: "old", End: 3, Embedding: []float32{1, 0}, EmbeddingModel: "m"}
		require.NoError(t, store.UpsertChunks(ctx, []*webrag.Chunk{chunk}))

		chunk.Text = "new"
		require.NoError(t, store.UpsertChunks(ctx, []*webrag.Chunk{chunk}))

		n, err := store.CountChunks(ctx, "m")
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		results, err := store.SearchChunks(ctx, []float32{1, 0}, webrag.SearchOptions{EmbeddingModel: "m", Limit: 1})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "new", results[0].Chunk.Text)
	})

	t.Run("rejects chunks without embeddings", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		store := sqlite.NewVectorStore(db)
		doc := createTestDocument(t, db, "https://example.com/page", webrag.DocumentStatusIndexed, time.Now())

		err := store.UpsertChunks(context.Background(), []*webrag.Chunk{
			{DocumentID: doc.ID, Seq: 0, Text: "hello", End: 5, EmbeddingModel: "m"},
		})
		require.Error(t, err)
		assert.Equal(t, webrag.EINVALID, webrag.ErrorCode(err))
	})
}

func TestVectorStore_SearchChunks(t *testing.T) {
	t.Parallel()

	t.Run("ranks by cosine similarity descending", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		store := sqlite.NewVectorStore(db)
		doc := createTestDocument(t, db, "https://example.com/page", webrag.DocumentStatusIndexed, time.Now())
		ctx := context.Background()

		require.NoError(t, store.UpsertChunks(ctx, []*webrag.Chunk{
			{ID: "far", DocumentID: doc.ID, Seq: 0, Text: "far", End: 3, Embedding: []float32{0, 1}, EmbeddingModel: "m"},
			{ID: "near", DocumentID: doc.ID, Seq: 1, Text: "near", End: 4, Embedding: []float32{1, 0.1}, EmbeddingModel: "m"},
			{ID: "exact", DocumentID: doc.ID, Seq: 2, Text: "exact", End: 5, Embedding: []float32{1, 0}, EmbeddingModel: "m"},
		}))

		results, err := store.SearchChunks(ctx, []float32{1, 0}, webrag.SearchOptions{EmbeddingModel: "m", Limit: 2})
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, "exact", results[0].Chunk.ID)
		assert.Equal(t, "near", results[1].Chunk.ID)
		assert.Greater(t, results[0].Score, results[1].Score)
	})

	t.Run("breaks score ties by most recent fetched_at", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		store := sqlite.NewVectorStore(db)
		base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		older := createTestDocument(t, db, "https://example.com/old", webrag.DocumentStatusIndexed, base)
		newer := createTestDocument(t, db, "https://example.com/new", webrag.DocumentStatusIndexed, base.Add(time.Hour))
		ctx := context.Background()

		// Identical vectors, so scores are equal.
		require.NoError(t, store.UpsertChunks(ctx, []*webrag.Chunk{
			{ID: "from-old", DocumentID: older.ID, Seq: 0, Text: "a", End: 1, Embedding: []float32{1, 0}, EmbeddingModel: "m"},
			{ID: "from-new", DocumentID: newer.ID, Seq: 0, Text: "b", End: 1, Embedding: []float32{1, 0}, EmbeddingModel: "m"},
		}))

		results, err := store.SearchChunks(ctx, []float32{1, 0}, webrag.SearchOptions{EmbeddingModel: "m", Limit: 2})
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, "from-new", results[0].Chunk.ID)
		assert.Equal(t, "from-old", results[1].Chunk.ID)
	})

	t.Run("excludes chunks from other vector spaces", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		store := sqlite.NewVectorStore(db)
		doc := createTestDocument(t, db, "https://example.com/page", webrag.DocumentStatusIndexed, time.Now())
		ctx := context.Background()

		require.NoError(t, store.UpsertChunks(ctx, []*webrag.Chunk{
			{ID: "active", DocumentID: doc.ID, Seq: 0, Text: "a", End: 1, Embedding: []float32{1, 0}, EmbeddingModel: "model-v2"},
			{ID: "stale", DocumentID: doc.ID, Seq: 1, Text: "b", End: 1, Embedding: []float32{1, 0}, EmbeddingModel: "model-v1"},
		}))

		results, err := store.SearchChunks(ctx, []float32{1, 0}, webrag.SearchOptions{EmbeddingModel: "model-v2", Limit: 10})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "active", results[0].Chunk.ID)
	})

	t.Run("excludes chunks of non-indexed documents", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		store := sqlite.NewVectorStore(db)
		pending := createTestDocument(t, db, "https://example.com/pending", webrag.DocumentStatusPending, time.Now())
		ctx := context.Background()

		require.NoError(t, store.UpsertChunks(ctx, []*webrag.Chunk{
			{DocumentID: pending.ID, Seq: 0, Text: "a", End: 1, Embedding: []float32{1, 0}, EmbeddingModel: "m"},
		}))

		results, err := store.SearchChunks(ctx, []float32{1, 0}, webrag.SearchOptions{EmbeddingModel: "m", Limit: 10})
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("filters by domain", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		store := sqlite.NewVectorStore(db)
		svc := sqlite.NewDocumentService(db)
		ctx := context.Background()

		docA := createTestDocument(t, db, "https://example.com/a", webrag.DocumentStatusIndexed, time.Now())
		docB := &webrag.Document{
			SourceURL:    "https://other.org/b",
			CanonicalURL: "https://other.org/b",
			Domain:       "other.org",
			Status:       webrag.DocumentStatusIndexed,
		}
		require.NoError(t, svc.CreateDocument(ctx, docB))

		require.NoError(t, store.UpsertChunks(ctx, []*webrag.Chunk{
			{ID: "a", DocumentID: docA.ID, Seq: 0, Text: "a", End: 1, Embedding: []float32{1, 0}, EmbeddingModel: "m"},
			{ID: "b", DocumentID: docB.ID, Seq: 0, Text: "b", End: 1, Embedding: []float32{1, 0}, EmbeddingModel: "m"},
		}))

		results, err := store.SearchChunks(ctx, []float32{1, 0}, webrag.SearchOptions{EmbeddingModel: "m", Domain: "other.org", Limit: 10})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "b", results[0].Chunk.ID)
	})

	t.Run("applies minimum score", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		store := sqlite.NewVectorStore(db)
		doc := createTestDocument(t, db, "https://example.com/page", webrag.DocumentStatusIndexed, time.Now())
		ctx := context.Background()

		require.NoError(t, store.UpsertChunks(ctx, []*webrag.Chunk{
			{ID: "aligned", DocumentID: doc.ID, Seq: 0, Text: "a", End: 1, Embedding: []float32{1, 0}, EmbeddingModel: "m"},
			{ID: "orthogonal", DocumentID: doc.ID, Seq: 1, Text: "b", End: 1, Embedding: []float32{0, 1}, EmbeddingModel: "m"},
		}))

		results, err := store.SearchChunks(ctx, []float32{1, 0}, webrag.SearchOptions{EmbeddingModel: "m", Limit: 10, MinScore: 0.5})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "aligned", results[0].Chunk.ID)
	})

	t.Run("requires embedding model", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		store := sqlite.NewVectorStore(db)

		_, err := store.SearchChunks(context.Background(), []float32{1, 0}, webrag.SearchOptions{})
		require.Error(t, err)
		assert.Equal(t, webrag.EINVALID, webrag.ErrorCode(err))
	})

	t.Run("reports corrupt embedding blobs as ESTORE", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		store := sqlite.NewVectorStore(db)
		doc := createTestDocument(t, db, "https://example.com/page", webrag.DocumentStatusIndexed, time.Now())
		ctx := context.Background()

		// Three bytes cannot decode back into float32s.
		_, err := db.ExecContext(ctx, `
			INSERT INTO chunks (id, document_id, seq, text, embedding, embedding_model)
			VALUES ('bad', ?, 0, 'text', X'000000', 'm')
		`, doc.ID)
		require.NoError(t, err)

		_, err = store.SearchChunks(ctx, []float32{1, 0}, webrag.SearchOptions{EmbeddingModel: "m", Limit: 10})
		require.Error(t, err)
		assert.Equal(t, webrag.ESTORE, webrag.ErrorCode(err))
	})
}

func TestVectorStore_DeleteChunksByModel(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	store := sqlite.NewVectorStore(db)
	doc := createTestDocument(t, db, "https://example.com/page", webrag.DocumentStatusIndexed, time.Now())
	ctx := context.Background()

	require.NoError(t, store.UpsertChunks(ctx, []*webrag.Chunk{
		{DocumentID: doc.ID, Seq: 0, Text: "a", End: 1, Embedding: []float32{1, 0}, EmbeddingModel: "old-model"},
		{DocumentID: doc.ID, Seq: 0, Text: "a", End: 1, Embedding: []float32{1, 0, 0}, EmbeddingModel: "new-model"},
	}))

	require.NoError(t, store.DeleteChunksByModel(ctx, "old-model"))

	n, err := store.CountChunks(ctx, "old-model")
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = store.CountChunks(ctx, "new-model")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestVectorStore_CountChunksByDocument(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	store := sqlite.NewVectorStore(db)
	doc := createTestDocument(t, db, "https://example.com/page", webrag.DocumentStatusIndexed, time.Now())
	other := createTestDocument(t, db, "https://example.com/other", webrag.DocumentStatusIndexed, time.Now())
	ctx := context.Background()

	require.NoError(t, store.UpsertChunks(ctx, []*webrag.Chunk{
		{DocumentID: doc.ID, Seq: 0, Text: "a", End: 1, Embedding: []float32{1, 0}, EmbeddingModel: "m"},
		{DocumentID: doc.ID, Seq: 1, Text: "b", End: 1, Embedding: []float32{0, 1}, EmbeddingModel: "m"},
		{DocumentID: doc.ID, Seq: 0, Text: "a", End: 1, Embedding: []float32{1, 0, 0}, EmbeddingModel: "other-model"},
		{DocumentID: other.ID, Seq: 0, Text: "c", End: 1, Embedding: []float32{1, 0}, EmbeddingModel: "m"},
	}))

	n, err := store.CountChunksByDocument(ctx, doc.ID, "m")
	require.NoError(t, err)
	assert.Equal(t, 2, n, "count should be scoped to the document and model")

	n, err = store.CountChunksByDocument(ctx, doc.ID, "unknown-model")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestVectorStore_FindChunksByDocument(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	store := sqlite.NewVectorStore(db)
	doc := createTestDocument(t, db, "https://example.com/page", webrag.DocumentStatusIndexed, time.Now())
	ctx := context.Background()

	require.NoError(t, store.UpsertChunks(ctx, []*webrag.Chunk{
		{DocumentID: doc.ID, Seq: 1, Text: "second", End: 6, Embedding: []float32{0, 1}, EmbeddingModel: "m"},
		{DocumentID: doc.ID, Seq: 0, Text: "first", End: 5, Embedding: []float32{1, 0}, EmbeddingModel: "m"},
	}))

	chunks, err := store.FindChunksByDocument(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "first", chunks[0].Text, "chunks should come back in sequence order")
	assert.Equal(t, "second", chunks[1].Text)
	assert.Nil(t, chunks[0].Embedding, "embeddings are not loaded for text-only reads")
}
