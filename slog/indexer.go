package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/webrag"
)

// Ensure LoggingIndexer implements webrag.Indexer.
var _ webrag.Indexer = (*LoggingIndexer)(nil)

// LoggingIndexer wraps an Indexer with debug logging.
type LoggingIndexer struct {
	next   webrag.Indexer
	logger *slog.Logger
}

// NewLoggingIndexer creates a new LoggingIndexer.
func NewLoggingIndexer(next webrag.Indexer, logger *slog.Logger) *LoggingIndexer {
	return &LoggingIndexer{next: next, logger: logger}
}

// IndexPage delegates to the wrapped indexer and logs the operation.
func (i *LoggingIndexer) IndexPage(ctx context.Context, page *webrag.Page) (doc *webrag.Document, err error) {
	defer func(begin time.Time) {
		status := ""
		if doc != nil {
			status = string(doc.Status)
		}
		i.logger.Info("index page",
			"url", page.CanonicalURL,
			"chars", len(page.Markdown),
			"status", status,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return i.next.IndexPage(ctx, page)
}
