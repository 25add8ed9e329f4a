package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/webrag"
)

// Ensure LoggingAsker implements webrag.Asker.
var _ webrag.Asker = (*LoggingAsker)(nil)

// LoggingAsker wraps an Asker with debug logging.
type LoggingAsker struct {
	next   webrag.Asker
	logger *slog.Logger
}

// NewLoggingAsker creates a new LoggingAsker.
func NewLoggingAsker(next webrag.Asker, logger *slog.Logger) *LoggingAsker {
	return &LoggingAsker{next: next, logger: logger}
}

// Ask delegates to the wrapped asker and logs the operation.
func (a *LoggingAsker) Ask(ctx context.Context, query string, history []*webrag.ChatTurn) (ans *webrag.Answer, err error) {
	defer func(begin time.Time) {
		citations := 0
		if ans != nil {
			citations = len(ans.Citations)
		}
		a.logger.Info("ask",
			"query", query,
			"history", len(history),
			"citations", citations,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return a.next.Ask(ctx, query, history)
}
