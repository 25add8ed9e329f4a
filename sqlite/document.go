package sqlite

import (
	"context"
	"database/sql"
	"os"
	"strings"
	"time"

	"github.com/fwojciec/webrag"
	"github.com/google/uuid"
)

// Compile-time interface verification.
var _ webrag.DocumentService = (*DocumentService)(nil)

// DocumentService implements webrag.DocumentService using SQLite.
type DocumentService struct {
	db *DB
}

// NewDocumentService creates a new DocumentService.
func NewDocumentService(db *DB) *DocumentService {
	return &DocumentService{db: db}
}

// CreateDocument creates a new document.
func (s *DocumentService) CreateDocument(ctx context.Context, doc *webrag.Document) error {
	if err := doc.Validate(); err != nil {
		return err
	}

	// The single writer connection serializes this check with the insert.
	if _, err := s.FindDocumentByCanonicalURL(ctx, doc.CanonicalURL); err == nil {
		return webrag.Errorf(webrag.ECONFLICT, "document already exists for %s", doc.CanonicalURL)
	} else if webrag.ErrorCode(err) != webrag.ENOTFOUND {
		return err
	}

	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	if doc.FetchedAt.IsZero() {
		doc.FetchedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (id, source_url, canonical_url, title, domain, fetched_at, text_length, content_hash, status, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, doc.ID, doc.SourceURL, doc.CanonicalURL, doc.Title, doc.Domain,
		formatTime(doc.FetchedAt), doc.TextLength, doc.ContentHash, string(doc.Status), doc.Error)

	return err
}

// FindDocumentByID retrieves a document by ID.
func (s *DocumentService) FindDocumentByID(ctx context.Context, id string) (*webrag.Document, error) {
	row := s.db.QueryRowContext(ctx, selectDocuments+" WHERE id = ?", id)
	return scanDocumentRow(row)
}

// FindDocumentByCanonicalURL retrieves a document by canonical URL.
func (s *DocumentService) FindDocumentByCanonicalURL(ctx context.Context, canonicalURL string) (*webrag.Document, error) {
	row := s.db.QueryRowContext(ctx, selectDocuments+" WHERE canonical_url = ?", canonicalURL)
	return scanDocumentRow(row)
}

// FindDocuments retrieves documents matching the filter along with the total
// match count disregarding pagination.
func (s *DocumentService) FindDocuments(ctx context.Context, filter webrag.DocumentFilter) ([]*webrag.Document, int, error) {
	where, args := buildDocumentWhere(filter)

	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents"+where, args...).Scan(&n); err != nil {
		return nil, 0, err
	}

	var query strings.Builder
	query.WriteString(selectDocuments)
	query.WriteString(where)

	switch filter.SortBy {
	case webrag.SortByTitle:
		query.WriteString(" ORDER BY title COLLATE NOCASE ASC")
	default:
		query.WriteString(" ORDER BY fetched_at DESC")
	}
	appendPagination(&query, &args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var docs []*webrag.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, 0, err
		}
		docs = append(docs, doc)
	}

	return docs, n, rows.Err()
}

// UpdateDocument updates an existing document.
func (s *DocumentService) UpdateDocument(ctx context.Context, id string, upd webrag.DocumentUpdate) (*webrag.Document, error) {
	doc, err := s.FindDocumentByID(ctx, id)
	if err != nil {
		return nil, err
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

	if err := doc.Validate(); err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE documents
		SET title = ?, status = ?, text_length = ?, content_hash = ?, fetched_at = ?, error = ?
		WHERE id = ?
	`, doc.Title, string(doc.Status), doc.TextLength, doc.ContentHash,
		formatTime(doc.FetchedAt), doc.Error, id)

	if err != nil {
		return nil, err
	}

	return doc, nil
}

// DeleteDocument permanently removes a document. The chunks foreign key
// cascades inside the same statement, so a concurrent search observes either
// the full document or none of it.
func (s *DocumentService) DeleteDocument(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return webrag.Errorf(webrag.ENOTFOUND, "document not found")
	}

	return nil
}

// StorageUsage reports catalogue counts and an on-disk byte estimate.
func (s *DocumentService) StorageUsage(ctx context.Context) (*webrag.StorageUsage, error) {
	var usage webrag.StorageUsage

	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(DISTINCT domain) FROM documents
	`).Scan(&usage.Documents, &usage.Domains)
	if err != nil {
		return nil, err
	}

	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks").Scan(&usage.Chunks); err != nil {
		return nil, err
	}

	usage.Bytes = s.databaseBytes(ctx)

	return &usage, nil
}

// databaseBytes estimates on-disk size. File-backed databases are measured
// directly (including the WAL, which holds recent writes before checkpoint);
// in-memory databases fall back to page accounting.
func (s *DocumentService) databaseBytes(ctx context.Context) int64 {
	path := s.db.Path()
	if path != ":memory:" {
		var bytes int64
		if info, err := os.Stat(path); err == nil {
			bytes += info.Size()
		}
		if info, err := os.Stat(path + "-wal"); err == nil {
			bytes += info.Size()
		}
		if bytes > 0 {
			return bytes
		}
	}

	var pageCount, pageSize int64
	if err := s.db.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount); err != nil {
		return 0
	}
	if err := s.db.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize); err != nil {
		return 0
	}
	return pageCount * pageSize
}

const selectDocuments = `SELECT id, source_url, canonical_url, title, domain, fetched_at, text_length, content_hash, status, error FROM documents`

// buildDocumentWhere renders filter conditions shared by the count and
// select queries.
func buildDocumentWhere(filter webrag.DocumentFilter) (string, []any) {
	var where strings.Builder
	var args []any

	where.WriteString(" WHERE 1=1")

	if filter.ID != nil {
		where.WriteString(" AND id = ?")
		args = append(args, *filter.ID)
	}
	if filter.CanonicalURL != nil {
		where.WriteString(" AND canonical_url = ?")
		args = append(args, *filter.CanonicalURL)
	}
	if filter.Domain != nil {
		where.WriteString(" AND domain = ?")
		args = append(args, *filter.Domain)
	}
	if filter.Status != nil {
		where.WriteString(" AND status = ?")
		args = append(args, string(*filter.Status))
	}
	if filter.Query != nil {
		where.WriteString(" AND (title LIKE ? ESCAPE '\\' COLLATE NOCASE OR domain LIKE ? ESCAPE '\\' COLLATE NOCASE)")
		pattern := "%" + escapeLike(*filter.Query) + "%"
		args = append(args, pattern, pattern)
	}

	return where.String(), args
}

// escapeLike escapes LIKE wildcards in user-supplied search terms.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// scanner abstracts *sql.Row and *sql.Rows for document scanning.
type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(sc scanner) (*webrag.Document, error) {
	var doc webrag.Document
	var fetchedAt, status string

	if err := sc.Scan(&doc.ID, &doc.SourceURL, &doc.CanonicalURL, &doc.Title, &doc.Domain,
		&fetchedAt, &doc.TextLength, &doc.ContentHash, &status, &doc.Error); err != nil {
		return nil, err
	}

	t, err := parseRFC3339(fetchedAt, "fetched_at")
	if err != nil {
		return nil, err
	}
	doc.FetchedAt = t
	doc.Status = webrag.DocumentStatus(status)

	return &doc, nil
}

func scanDocumentRow(row *sql.Row) (*webrag.Document, error) {
	doc, err := scanDocument(row)
	if err == sql.ErrNoRows {
		return nil, webrag.Errorf(webrag.ENOTFOUND, "document not found")
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}
