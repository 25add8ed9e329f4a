// Package index ties the ingestion tail together: it turns a fetched page
// into a Document with an embedded, searchable chunk set.
package index

import (
	"context"
	"encoding/hex"
	"sort"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/webrag"
)

var _ webrag.Indexer = (*Indexer)(nil)

// Indexer chunks, embeds, and persists pages.
type Indexer struct {
	Chunker   webrag.Chunker
	Embedder  webrag.Embedder
	Documents webrag.DocumentService
	Store     webrag.VectorStore

	// MinChunkLen drops spans shorter than this many runes before
	// embedding.
	MinChunkLen int
}

// IndexPage creates or refreshes the Document for the page's canonical URL.
//
// When the page content is unchanged since the last indexing and the
// existing chunks were embedded under the active model, the chunk set is
// kept and no embedding call is made. Otherwise the markdown is chunked,
// embedded, and the document's chunk set is replaced.
//
// Embedding or storage failures mark the document failed and return the
// error; the document entry itself is preserved.
func (ix *Indexer) IndexPage(ctx context.Context, page *webrag.Page) (*webrag.Document, error) {
	hash := hashContent(page.Markdown)
	textLen := len([]rune(page.Markdown))
	model := ix.Embedder.Model()

	doc, err := ix.Documents.FindDocumentByCanonicalURL(ctx, page.CanonicalURL)
	switch {
	case err == nil:
		if doc.ContentHash == hash {
			n, countErr := ix.Store.CountChunksByDocument(ctx, doc.ID, model)
			if countErr == nil && n > 0 {
				return ix.refresh(ctx, doc.ID, page)
			}
		}
		doc, err = ix.markPending(ctx, doc.ID, page, hash, textLen)
		if err != nil {
			return nil, err
		}
	case webrag.ErrorCode(err) == webrag.ENOTFOUND:
		doc = &webrag.Document{
			SourceURL:    page.SourceURL,
			CanonicalURL: page.CanonicalURL,
			Title:        page.Title,
			Domain:       page.Domain,
			FetchedAt:    page.FetchedAt,
			TextLength:   textLen,
			ContentHash:  hash,
			Status:       webrag.DocumentStatusPending,
		}
		if err := ix.Documents.CreateDocument(ctx, doc); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	spans := ix.usableSpans(page.Markdown)
	if len(spans) == 0 {
		err := webrag.Errorf(webrag.EINVALID, "page %s produced no usable chunks", page.CanonicalURL)
		ix.markFailed(ctx, doc.ID, err)
		return nil, err
	}

	texts := make([]string, len(spans))
	for i, span := range spans {
		texts[i] = span.Text
	}

	vectors, err := ix.Embedder.Embed(ctx, texts)
	if err != nil {
		ix.markFailed(ctx, doc.ID, err)
		return nil, err
	}
	if len(vectors) != len(texts) {
		err := webrag.Errorf(webrag.EEMBED, "embedding returned %d vectors for %d texts", len(vectors), len(texts))
		ix.markFailed(ctx, doc.ID, err)
		return nil, err
	}

	chunks := make([]*webrag.Chunk, len(spans))
	for i, span := range spans {
		chunks[i] = &webrag.Chunk{
			DocumentID:     doc.ID,
			Seq:            i,
			Text:           span.Text,
			Start:          span.Start,
			End:            span.End,
			Embedding:      vectors[i],
			EmbeddingModel: model,
		}
	}

	if err := ix.replaceChunks(ctx, doc.ID, chunks); err != nil {
		ix.markFailed(ctx, doc.ID, err)
		return nil, err
	}

	return ix.markIndexed(ctx, doc.ID)
}

// ReindexResult summarizes a Reindex pass.
type ReindexResult struct {
	Reindexed int
	Skipped   int
	Failed    int

	// PurgedModels lists the stale vector spaces removed after the pass.
	PurgedModels []string
}

// Reindex re-embeds every document's stored chunk text under the active
// embedding model, then purges chunks left over from other models. Documents
// already embedded under the active model are left alone.
func (ix *Indexer) Reindex(ctx context.Context) (*ReindexResult, error) {
	model := ix.Embedder.Model()
	result := &ReindexResult{}
	stale := make(map[string]bool)

	const pageSize = 100
	offset := 0
	for {
		docs, total, err := ix.Documents.FindDocuments(ctx, webrag.DocumentFilter{Offset: offset, Limit: pageSize})
		if err != nil {
			return result, err
		}
		if len(docs) == 0 {
			break
		}

		for _, doc := range docs {
			if err := ctx.Err(); err != nil {
				return result, err
			}
			if err := ix.reindexDocument(ctx, doc, model, stale, result); err != nil {
				result.Failed++
			}
		}

		offset += len(docs)
		if offset >= total {
			break
		}
	}

	for m := range stale {
		if err := ix.Store.DeleteChunksByModel(ctx, m); err != nil {
			return result, err
		}
		result.PurgedModels = append(result.PurgedModels, m)
	}
	sort.Strings(result.PurgedModels)

	return result, nil
}

func (ix *Indexer) reindexDocument(ctx context.Context, doc *webrag.Document, model string, stale map[string]bool, result *ReindexResult) error {
	chunks, err := ix.Store.FindChunksByDocument(ctx, doc.ID)
	if err != nil {
		return err
	}
	if len(chunks) == 0 {
		result.Skipped++
		return nil
	}

	hasActive := false
	for _, c := range chunks {
		if c.EmbeddingModel == model {
			hasActive = true
		} else {
			stale[c.EmbeddingModel] = true
		}
	}
	if hasActive {
		result.Skipped++
		return nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors, err := ix.Embedder.Embed(ctx, texts)
	if err != nil {
		ix.markFailed(ctx, doc.ID, err)
		return err
	}

	replacement := make([]*webrag.Chunk, len(chunks))
	for i, c := range chunks {
		replacement[i] = &webrag.Chunk{
			DocumentID:     doc.ID,
			Seq:            c.Seq,
			Text:           c.Text,
			Start:          c.Start,
			End:            c.End,
			Embedding:      vectors[i],
			EmbeddingModel: model,
		}
	}

	if err := ix.replaceChunks(ctx, doc.ID, replacement); err != nil {
		ix.markFailed(ctx, doc.ID, err)
		return err
	}
	if _, err := ix.markIndexed(ctx, doc.ID); err != nil {
		return err
	}

	result.Reindexed++
	return nil
}

// usableSpans splits the markdown and drops spans too short to embed
// usefully, unless that would drop everything.
func (ix *Indexer) usableSpans(markdown string) []webrag.Span {
	spans := ix.Chunker.Chunk(markdown)
	if ix.MinChunkLen <= 0 {
		return spans
	}

	kept := spans[:0:0]
	for _, span := range spans {
		if len([]rune(span.Text)) >= ix.MinChunkLen {
			kept = append(kept, span)
		}
	}
	if len(kept) == 0 && len(spans) > 0 {
		// A single short page still deserves one chunk.
		return spans[:1]
	}
	return kept
}

func (ix *Indexer) replaceChunks(ctx context.Context, documentID string, chunks []*webrag.Chunk) error {
	if err := ix.Store.DeleteChunksByDocument(ctx, documentID); err != nil {
		return err
	}
	return ix.Store.UpsertChunks(ctx, chunks)
}

// refresh updates metadata on a document whose chunk set is being kept.
func (ix *Indexer) refresh(ctx context.Context, id string, page *webrag.Page) (*webrag.Document, error) {
	status := webrag.DocumentStatusIndexed
	clearErr := ""
	return ix.Documents.UpdateDocument(ctx, id, webrag.DocumentUpdate{
		Title:     &page.Title,
		Status:    &status,
		FetchedAt: &page.FetchedAt,
		Error:     &clearErr,
	})
}

func (ix *Indexer) markPending(ctx context.Context, id string, page *webrag.Page, hash string, textLen int) (*webrag.Document, error) {
	status := webrag.DocumentStatusPending
	clearErr := ""
	return ix.Documents.UpdateDocument(ctx, id, webrag.DocumentUpdate{
		Title:       &page.Title,
		Status:      &status,
		TextLength:  &textLen,
		ContentHash: &hash,
		FetchedAt:   &page.FetchedAt,
		Error:       &clearErr,
	})
}

func (ix *Indexer) markIndexed(ctx context.Context, id string) (*webrag.Document, error) {
	status := webrag.DocumentStatusIndexed
	clearErr := ""
	return ix.Documents.UpdateDocument(ctx, id, webrag.DocumentUpdate{
		Status: &status,
		Error:  &clearErr,
	})
}

// markFailed records a terminal ingestion failure on the document. The
// update error, if any, is dropped; the original failure is what matters.
func (ix *Indexer) markFailed(ctx context.Context, id string, cause error) {
	status := webrag.DocumentStatusFailed
	msg := webrag.ErrorMessage(cause)
	_, _ = ix.Documents.UpdateDocument(ctx, id, webrag.DocumentUpdate{
		Status: &status,
		Error:  &msg,
	})
}

// hashContent computes xxHash of content and returns a hex string.
func hashContent(content string) string {
	h := xxhash.Sum64String(content)
	b := make([]byte, 8)
	b[0] = byte(h >> 56)
	b[1] = byte(h >> 48)
	b[2] = byte(h >> 40)
	b[3] = byte(h >> 32)
	b[4] = byte(h >> 24)
	b[5] = byte(h >> 16)
	b[6] = byte(h >> 8)
	b[7] = byte(h)
	return hex.EncodeToString(b)
}
