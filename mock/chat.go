package mock

import (
	"context"

	"github.com/fwojciec/webrag"
)

var _ webrag.ChatModel = (*ChatModel)(nil)

// ChatModel is a mock implementation of webrag.ChatModel.
type ChatModel struct {
	ChatFn func(ctx context.Context, messages []webrag.ChatMessage) (string, error)
}

func (m *ChatModel) Chat(ctx context.Context, messages []webrag.ChatMessage) (string, error) {
	return m.ChatFn(ctx, messages)
}
