package openai

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

// ChatConfig holds configuration for the OpenAI chat model.
type ChatConfig struct {
	// APIKey is the OpenAI API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.openai.com/v1).
	BaseURL string

	// Model is the chat model (default: gpt-4o-mini).
	Model string

	// Timeout is the per-request timeout (default: 120s).
	Timeout time.Duration

	// Temperature controls sampling; zero means the API default.
	Temperature float64

	// MaxTokens caps the completion length; zero means no cap.
	MaxTokens int
}

// ChatModel generates chat completions using the OpenAI API.
type ChatModel struct {
	client      *http.Client
	baseURL     string
	apiKey      string
	model       string
	temperature float64
	maxTokens   int
}

// chatRequest is the /chat/completions request format.
type chatRequest struct {
	Model       string               `json:"model"`
	Messages    []webrag.ChatMessage `json:"messages"`
	MaxTokens   int                  `json:"max_tokens,omitempty"`
	Temperature float64              `json:"temperature,omitempty"`
}

// chatResponse is the /chat/completions response format.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *apiError `json:"error,omitempty"`
}

// NewChatModel creates an OpenAI chat model.
func NewChatModel(cfg ChatConfig) (*ChatModel, error) {
	if cfg.APIKey == "" {
		return nil, webrag.Errorf(webrag.EINVALID, "openai: API key required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultChatModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultChatTimeout
	}

	return &ChatModel{
		client:      &http.Client{Timeout: cfg.Timeout},
		baseURL:     cfg.BaseURL,
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}, nil
}

// Chat returns the model's reply to the conversation. Rate limits and
// server errors are retried with backoff; auth and request errors return
// EANSWER immediately.
func (m *ChatModel) Chat(ctx context.Context, messages []webrag.ChatMessage) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		reply, retryAfter, retryable, err := m.doChat(ctx, messages)
		if err == nil {
			return reply, nil
		}
		lastErr = err

		if !retryable || attempt == maxRetries {
			break
		}
		if err := sleep(ctx, backoffDelay(attempt, retryAfter)); err != nil {
			return "", err
		}
	}
	return "", lastErr
}

func (m *ChatModel) doChat(ctx context.Context, messages []webrag.ChatMessage) (string, time.Duration, bool, error) {
	jsonBody, err := json.Marshal(chatRequest{
		Model:       m.model,
		Messages:    messages,
		MaxTokens:   m.maxTokens,
		Temperature: m.temperature,
	})
	if err != nil {
		return "", 0, false, webrag.Errorf(webrag.EANSWER, "openai: marshal request: %s", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return "", 0, false, webrag.Errorf(webrag.EANSWER, "openai: create request: %s", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.apiKey)

	resp, err := m.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", 0, false, ctx.Err()
		}
		return "", 0, true, webrag.Errorf(webrag.EANSWER, "openai: %s", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", 0, true, webrag.Errorf(webrag.EANSWER, "openai: read response: %s", err)
	}

	if resp.StatusCode != http.StatusOK {
		retryAfter := retryAfterHeader(resp)
		return "", retryAfter, retryableStatus(resp.StatusCode),
			webrag.Errorf(webrag.EANSWER, "openai: status %d: %s", resp.StatusCode, apiErrorMessage(body))
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", 0, false, webrag.Errorf(webrag.EANSWER, "openai: decode response: %s", err)
	}
	if chatResp.Error != nil {
		return "", 0, false, webrag.Errorf(webrag.EANSWER, "openai: %s", chatResp.Error.Message)
	}
	if len(chatResp.Choices) == 0 {
		return "", 0, false, webrag.Errorf(webrag.EANSWER, "openai: no completion returned")
	}
	return chatResp.Choices[0].Message.Content, 0, false, nil
}
