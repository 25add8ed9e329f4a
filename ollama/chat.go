package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/fwojciec/webrag"
)

var _ webrag.ChatModel = (*ChatModel)(nil)

// ChatConfig holds configuration for the Ollama chat model.
type ChatConfig struct {
	// BaseURL is the Ollama daemon address (default: http://localhost:11434).
	BaseURL string

	// Model is the chat model (default: llama3.2).
	Model string

	// Timeout is the per-request timeout; zero means no timeout.
	Timeout time.Duration

	// Temperature controls sampling; zero means the model default.
	Temperature float64
}

// ChatModel generates chat completions using a local Ollama instance.
type ChatModel struct {
	client      *client
	model       string
	temperature float64
}

// chatRequest is the JSON body for POST /api/chat (non-streaming).
type chatRequest struct {
	Model    string               `json:"model"`
	Messages []webrag.ChatMessage `json:"messages"`
	Stream   bool                 `json:"stream"`
	Options  *chatOptions         `json:"options,omitempty"`
}

type chatOptions struct {
	Temperature float64 `json:"temperature"`
}

// chatResponse is the JSON returned by POST /api/chat.
type chatResponse struct {
	Message webrag.ChatMessage `json:"message"`
}

// NewChatModel creates an Ollama chat model.
func NewChatModel(cfg ChatConfig) *ChatModel {
	if cfg.Model == "" {
		cfg.Model = DefaultChatModel
	}
	return &ChatModel{
		client:      newClient(cfg.BaseURL, cfg.Timeout),
		model:       cfg.Model,
		temperature: cfg.Temperature,
	}
}

// Chat returns the model's reply to the conversation.
func (m *ChatModel) Chat(ctx context.Context, messages []webrag.ChatMessage) (string, error) {
	cr := chatRequest{Model: m.model, Messages: messages, Stream: false}
	if m.temperature > 0 {
		cr.Options = &chatOptions{Temperature: m.temperature}
	}

	body, err := json.Marshal(cr)
	if err != nil {
		return "", webrag.Errorf(webrag.EANSWER, "ollama: marshal request: %s", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.client.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", webrag.Errorf(webrag.EANSWER, "ollama: create request: %s", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", checkDaemon(err, webrag.EANSWER)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return "", webrag.Errorf(webrag.EANSWER, "ollama: status %d: %s", resp.StatusCode, msg)
	}

	var result chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", webrag.Errorf(webrag.EANSWER, "ollama: decode response: %s", err)
	}
	return result.Message.Content, nil
}

// IsRunning reports whether the Ollama daemon is reachable.
func (m *ChatModel) IsRunning(ctx context.Context) bool {
	return m.client.IsRunning(ctx)
}
