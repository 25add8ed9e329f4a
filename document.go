package webrag

import (
	"context"
	"time"
)

// DocumentStatus tracks a document through the ingestion pipeline.
type DocumentStatus string

// Document lifecycle states.
const (
	// DocumentStatusPending marks a document created from a successful
	// extraction whose chunks have not been embedded yet.
	DocumentStatusPending DocumentStatus = "pending"

	// DocumentStatusIndexed marks a document whose chunks are embedded and
	// searchable.
	DocumentStatusIndexed DocumentStatus = "indexed"

	// DocumentStatusFailed marks a document whose ingestion failed
	// (fetch failure recorded during a crawl, or an embedding or storage
	// error after extraction).
	DocumentStatusFailed DocumentStatus = "failed"
)

// Valid reports whether s is a known document status.
func (s DocumentStatus) Valid() bool {
	switch s {
	case DocumentStatusPending, DocumentStatusIndexed, DocumentStatusFailed:
		return true
	}
	return false
}

// Document represents an indexed web page. Documents are unique by
// CanonicalURL; re-indexing the same page updates the existing entry rather
// than creating a duplicate.
type Document struct {
	ID           string         `json:"id"`
	SourceURL    string         `json:"sourceUrl"`
	CanonicalURL string         `json:"canonicalUrl"`
	Title        string         `json:"title"`
	Domain       string         `json:"domain"`
	FetchedAt    time.Time      `json:"fetchedAt"`
	TextLength   int            `json:"textLength"`
	ContentHash  string         `json:"contentHash"`
	Status       DocumentStatus `json:"status"`

	// Error holds the user-facing failure message for failed documents.
	Error string `json:"error,omitempty"`
}

// Validate returns an error if the document contains invalid fields.
func (d *Document) Validate() error {
	if d.SourceURL == "" {
		return Errorf(EINVALID, "document source URL required")
	}
	if d.CanonicalURL == "" {
		return Errorf(EINVALID, "document canonical URL required")
	}
	if d.Domain == "" {
		return Errorf(EINVALID, "document domain required")
	}
	if !d.Status.Valid() {
		return Errorf(EINVALID, "document status %q invalid", d.Status)
	}
	return nil
}

// SortOrder represents the sort order for document queries.
type SortOrder string

// SortOrder constants for DocumentFilter.
const (
	SortByFetchedAt SortOrder = "fetched_at"
	SortByTitle     SortOrder = "title"
)

// DocumentFilter represents a filter for FindDocuments.
type DocumentFilter struct {
	ID           *string         `json:"id"`
	CanonicalURL *string         `json:"canonicalUrl"`
	Domain       *string         `json:"domain"`
	Status       *DocumentStatus `json:"status"`

	// Query matches a substring of the title or the domain,
	// case-insensitively.
	Query *string `json:"query"`

	Offset int `json:"offset"`
	Limit  int `json:"limit"`

	// SortBy defaults to fetched_at, most recent first.
	SortBy SortOrder `json:"sortBy"`
}

// DocumentUpdate represents a set of fields to update on a document.
type DocumentUpdate struct {
	Title       *string         `json:"title"`
	Status      *DocumentStatus `json:"status"`
	TextLength  *int            `json:"textLength"`
	ContentHash *string         `json:"contentHash"`
	FetchedAt   *time.Time      `json:"fetchedAt"`
	Error       *string         `json:"error"`
}

// StorageUsage summarizes what the library currently holds.
type StorageUsage struct {
	Documents int   `json:"documents"`
	Chunks    int   `json:"chunks"`
	Domains   int   `json:"domains"`
	Bytes     int64 `json:"bytes"`
}

// DocumentService represents a service for managing the document catalogue.
type DocumentService interface {
	// CreateDocument creates a new document.
	// Returns ECONFLICT if a document with the same canonical URL exists.
	CreateDocument(ctx context.Context, doc *Document) error

	// FindDocumentByID retrieves a document by ID.
	// Returns ENOTFOUND if document does not exist.
	FindDocumentByID(ctx context.Context, id string) (*Document, error)

	// FindDocumentByCanonicalURL retrieves a document by canonical URL.
	// Returns ENOTFOUND if no document exists under the URL.
	FindDocumentByCanonicalURL(ctx context.Context, canonicalURL string) (*Document, error)

	// FindDocuments retrieves documents matching the filter, along with the
	// total count of matches disregarding Offset and Limit.
	FindDocuments(ctx context.Context, filter DocumentFilter) ([]*Document, int, error)

	// UpdateDocument updates a document and returns the updated entry.
	// Returns ENOTFOUND if document does not exist.
	UpdateDocument(ctx context.Context, id string, upd DocumentUpdate) (*Document, error)

	// DeleteDocument permanently removes a document and all associated
	// chunks in a single transaction. Returns ENOTFOUND if document does
	// not exist.
	DeleteDocument(ctx context.Context, id string) error

	// StorageUsage reports catalogue counts and an on-disk byte estimate.
	StorageUsage(ctx context.Context) (*StorageUsage, error)
}
