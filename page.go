package webrag

import (
	"context"
	"time"
)

// Page represents a fetched web page after extraction and markdown
// conversion, ready to be chunked and indexed.
type Page struct {
	SourceURL    string
	CanonicalURL string
	Title        string
	Domain       string
	Markdown     string
	FetchedAt    time.Time
}

// Indexer persists a page as a Document with embedded chunks.
type Indexer interface {
	// IndexPage creates or refreshes the Document for the page's canonical
	// URL, chunks and embeds its markdown, and stores the chunk set. When
	// the page content is unchanged since the last indexing under the same
	// embedding model, the existing chunks are kept and no embedding call
	// is made.
	//
	// Embedding or storage failures mark the document failed and return
	// the error; the document entry itself is preserved.
	IndexPage(ctx context.Context, page *Page) (*Document, error)
}
