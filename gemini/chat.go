package gemini

import (
	"context"

	"github.com/fwojciec/webrag"
	"google.golang.org/genai"
)

var _ webrag.ChatModel = (*ChatModel)(nil)

// DefaultChatModel is the Gemini chat model used when none is set.
const DefaultChatModel = "gemini-2.5-flash"

// ChatConfig holds configuration for the Gemini chat model.
type ChatConfig struct {
	// Model is the chat model (default: gemini-2.5-flash).
	Model string

	// Temperature controls sampling; zero means the model default.
	Temperature float32
}

// ChatModel generates chat completions using the Gemini API.
type ChatModel struct {
	client      *genai.Client
	model       string
	temperature float32
}

// NewChatModel creates a Gemini chat model over an existing client.
func NewChatModel(client *genai.Client, cfg ChatConfig) *ChatModel {
	if cfg.Model == "" {
		cfg.Model = DefaultChatModel
	}
	return &ChatModel{client: client, model: cfg.Model, temperature: cfg.Temperature}
}

// Chat returns the model's reply to the conversation. System messages become
// the Gemini system instruction; assistant turns map to the "model" role.
func (m *ChatModel) Chat(ctx context.Context, messages []webrag.ChatMessage) (string, error) {
	config := &genai.GenerateContentConfig{}
	if m.temperature > 0 {
		temp := m.temperature
		config.Temperature = &temp
	}

	var contents []*genai.Content
	for _, msg := range messages {
		switch msg.Role {
		case webrag.RoleSystem:
			config.SystemInstruction = &genai.Content{
				Parts: []*genai.Part{{Text: msg.Content}},
			}
		case webrag.RoleAssistant:
			contents = append(contents, &genai.Content{
				Role:  genai.RoleModel,
				Parts: []*genai.Part{{Text: msg.Content}},
			})
		default:
			contents = append(contents, &genai.Content{
				Role:  genai.RoleUser,
				Parts: []*genai.Part{{Text: msg.Content}},
			})
		}
	}
	if len(contents) == 0 {
		return "", webrag.Errorf(webrag.EINVALID, "gemini: conversation requires at least one user message")
	}

	result, err := m.client.Models.GenerateContent(ctx, m.model, contents, config)
	if err != nil {
		return "", webrag.Errorf(webrag.EANSWER, "gemini: %s", err)
	}
	if result == nil {
		return "", webrag.Errorf(webrag.EANSWER, "gemini: nil result")
	}
	return result.Text(), nil
}
