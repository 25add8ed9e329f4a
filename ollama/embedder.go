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

var _ webrag.Embedder = (*Embedder)(nil)

// EmbedderConfig holds configuration for the Ollama embedder.
type EmbedderConfig struct {
	// BaseURL is the Ollama daemon address (default: http://localhost:11434).
	BaseURL string

	// Model is the embedding model (default: nomic-embed-text).
	Model string

	// Timeout is the per-request timeout; zero means no timeout, which
	// suits cold model loads on slow machines.
	Timeout time.Duration

	// Dimensions overrides the model's vector size when the model is not
	// one of the common known ones.
	Dimensions int
}

// Embedder generates embeddings using a local Ollama instance.
type Embedder struct {
	client     *client
	model      string
	dimensions int
}

// embedRequest is the JSON body for POST /api/embed.
type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

// embedResponse is the JSON returned by POST /api/embed.
type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// NewEmbedder creates an Ollama embedder.
func NewEmbedder(cfg EmbedderConfig) (*Embedder, error) {
	if cfg.Model == "" {
		cfg.Model = DefaultEmbeddingModel
	}

	dimensions := cfg.Dimensions
	if dimensions == 0 {
		var ok bool
		dimensions, ok = modelDimensions[baseModelName(cfg.Model)]
		if !ok {
			return nil, webrag.Errorf(webrag.EINVALID, "ollama: unknown embedding model %q, set Dimensions explicitly", cfg.Model)
		}
	}

	return &Embedder{
		client:     newClient(cfg.BaseURL, cfg.Timeout),
		model:      cfg.Model,
		dimensions: dimensions,
	}, nil
}

// Embed returns one vector per input text, in input order.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(embedRequest{Model: e.model, Input: texts})
	if err != nil {
		return nil, webrag.Errorf(webrag.EEMBED, "ollama: marshal request: %s", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.client.baseURL+"/api/embed", bytes.NewReader(body))
	if err != nil {
		return nil, webrag.Errorf(webrag.EEMBED, "ollama: create request: %s", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, checkDaemon(err, webrag.EEMBED)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return nil, webrag.Errorf(webrag.EEMBED, "ollama: status %d: %s", resp.StatusCode, msg)
	}

	var result embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, webrag.Errorf(webrag.EEMBED, "ollama: decode response: %s", err)
	}
	if len(result.Embeddings) != len(texts) {
		return nil, webrag.Errorf(webrag.EEMBED, "ollama: got %d embeddings for %d inputs", len(result.Embeddings), len(texts))
	}
	return result.Embeddings, nil
}

// Model identifies the embedding model.
func (e *Embedder) Model() string {
	return e.model
}

// Dimensions returns the embedding vector size.
func (e *Embedder) Dimensions() int {
	return e.dimensions
}

// IsRunning reports whether the Ollama daemon is reachable.
func (e *Embedder) IsRunning(ctx context.Context) bool {
	return e.client.IsRunning(ctx)
}
