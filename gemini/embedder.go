// Package gemini provides Embedder and ChatModel implementations backed by
// the Google Gemini API via the genai client.
package gemini

import (
	"context"

	"github.com/fwojciec/webrag"
	"google.golang.org/genai"
)

var _ webrag.Embedder = (*Embedder)(nil)

// DefaultEmbeddingModel is the Gemini embedding model used when none is set.
const DefaultEmbeddingModel = "text-embedding-004"

// geminiModelDimensions maps Gemini embedding models to their native vector
// size.
var geminiModelDimensions = map[string]int{
	"text-embedding-004":   768,
	"gemini-embedding-001": 3072,
}

// EmbedderConfig holds configuration for the Gemini embedder.
type EmbedderConfig struct {
	// Model is the embedding model (default: text-embedding-004).
	Model string

	// Dimensions overrides the model's native vector size.
	Dimensions int
}

// Embedder generates embeddings using the Gemini API.
type Embedder struct {
	client     *genai.Client
	model      string
	dimensions int
}

// NewEmbedder creates a Gemini embedder over an existing client.
func NewEmbedder(client *genai.Client, cfg EmbedderConfig) (*Embedder, error) {
	if cfg.Model == "" {
		cfg.Model = DefaultEmbeddingModel
	}

	dimensions := cfg.Dimensions
	if dimensions == 0 {
		var ok bool
		dimensions, ok = geminiModelDimensions[cfg.Model]
		if !ok {
			return nil, webrag.Errorf(webrag.EINVALID, "gemini: unknown embedding model %q, set Dimensions explicitly", cfg.Model)
		}
	}

	return &Embedder{client: client, model: cfg.Model, dimensions: dimensions}, nil
}

// Embed returns one vector per input text, in input order.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = &genai.Content{Parts: []*genai.Part{{Text: text}}}
	}

	var config *genai.EmbedContentConfig
	if e.dimensions != geminiModelDimensions[e.model] {
		dim := int32(e.dimensions)
		config = &genai.EmbedContentConfig{OutputDimensionality: &dim}
	}

	result, err := e.client.Models.EmbedContent(ctx, e.model, contents, config)
	if err != nil {
		return nil, webrag.Errorf(webrag.EEMBED, "gemini: %s", err)
	}
	if result == nil || len(result.Embeddings) != len(texts) {
		return nil, webrag.Errorf(webrag.EEMBED, "gemini: unexpected embedding count")
	}

	vectors := make([][]float32, len(texts))
	for i, emb := range result.Embeddings {
		if emb == nil || len(emb.Values) == 0 {
			return nil, webrag.Errorf(webrag.EEMBED, "gemini: empty embedding for input %d", i)
		}
		vectors[i] = emb.Values
	}
	return vectors, nil
}

// Model identifies the embedding model.
func (e *Embedder) Model() string {
	return e.model
}

// Dimensions returns the embedding vector size.
func (e *Embedder) Dimensions() int {
	return e.dimensions
}
