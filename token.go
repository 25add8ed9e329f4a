package webrag

import "context"

// TokenCounter counts tokens in text for a specific model.
// Used to budget prompt assembly against context-window limits.
type TokenCounter interface {
	CountTokens(ctx context.Context, text string) (int, error)
}
