package webrag

import "context"

// Chat message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one message in a chat-completion conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatModel generates text from a conversation using an external
// chat-completion model. Model identity and sampling parameters are fixed at
// construction.
type ChatModel interface {
	// Chat returns the model's reply to the conversation.
	// Transient failures (rate limit, timeout) are retried with bounded
	// backoff; terminal failures return EANSWER.
	Chat(ctx context.Context, messages []ChatMessage) (string, error)
}
