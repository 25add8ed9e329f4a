package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fwojciec/webrag"
)

var _ webrag.Embedder = (*Embedder)(nil)

// maxBatchSize caps how many inputs go into a single embeddings request.
const maxBatchSize = 100

// modelDimensions maps OpenAI embedding models to their native vector size.
var modelDimensions = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
}

// Config holds configuration for the OpenAI embedder.
type Config struct {
	// APIKey is the OpenAI API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.openai.com/v1).
	BaseURL string

	// Model is the embedding model (default: text-embedding-3-small).
	Model string

	// Timeout is the per-request timeout (default: 60s).
	Timeout time.Duration

	// Dimensions overrides the model's native vector size.
	// Only the text-embedding-3-* models support this.
	Dimensions int
}

// Embedder generates embeddings using the OpenAI embeddings API.
type Embedder struct {
	client     *http.Client
	baseURL    string
	apiKey     string
	model      string
	dimensions int
}

// embeddingRequest is the /embeddings request format.
type embeddingRequest struct {
	Model      string   `json:"model"`
	Input      []string `json:"input"`
	Dimensions int      `json:"dimensions,omitempty"`
}

// embeddingResponse is the /embeddings response format.
type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Error *apiError `json:"error,omitempty"`
}

// NewEmbedder creates an OpenAI embedder.
func NewEmbedder(cfg Config) (*Embedder, error) {
	if cfg.APIKey == "" {
		return nil, webrag.Errorf(webrag.EINVALID, "openai: API key required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultEmbeddingModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	dimensions := cfg.Dimensions
	if dimensions == 0 {
		var ok bool
		dimensions, ok = modelDimensions[cfg.Model]
		if !ok {
			dimensions = 1536
		}
	}

	return &Embedder{
		client:     &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		dimensions: dimensions,
	}, nil
}

// Embed returns one vector per input text, in input order. Inputs are sent
// in batches; transient failures (rate limits, server errors) are retried
// with exponential backoff before the batch fails with EEMBED.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += maxBatchSize {
		end := start + maxBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch, err := e.embedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, batch...)
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

func (e *Embedder) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		vectors, retryAfter, retryable, err := e.doEmbed(ctx, texts)
		if err == nil {
			return vectors, nil
		}
		lastErr = err

		if !retryable || attempt == maxRetries {
			break
		}
		if err := sleep(ctx, backoffDelay(attempt, retryAfter)); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

func (e *Embedder) doEmbed(ctx context.Context, texts []string) ([][]float32, time.Duration, bool, error) {
	reqBody := embeddingRequest{Model: e.model, Input: texts}
	if e.model == "text-embedding-3-small" || e.model == "text-embedding-3-large" {
		reqBody.Dimensions = e.dimensions
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, 0, false, webrag.Errorf(webrag.EEMBED, "openai: marshal request: %s", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/embeddings", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, 0, false, webrag.Errorf(webrag.EEMBED, "openai: create request: %s", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, 0, false, ctx.Err()
		}
		return nil, 0, true, webrag.Errorf(webrag.EEMBED, "openai: %s", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, true, webrag.Errorf(webrag.EEMBED, "openai: read response: %s", err)
	}

	if resp.StatusCode != http.StatusOK {
		retryAfter := retryAfterHeader(resp)
		msg := apiErrorMessage(body)
		return nil, retryAfter, retryableStatus(resp.StatusCode),
			webrag.Errorf(webrag.EEMBED, "openai: status %d: %s", resp.StatusCode, msg)
	}

	var embedResp embeddingResponse
	if err := json.Unmarshal(body, &embedResp); err != nil {
		return nil, 0, false, webrag.Errorf(webrag.EEMBED, "openai: decode response: %s", err)
	}
	if embedResp.Error != nil {
		return nil, 0, false, webrag.Errorf(webrag.EEMBED, "openai: %s", embedResp.Error.Message)
	}
	if len(embedResp.Data) != len(texts) {
		return nil, 0, false, webrag.Errorf(webrag.EEMBED, "openai: got %d embeddings for %d inputs", len(embedResp.Data), len(texts))
	}

	// Order by index; the API does not guarantee input order.
	vectors := make([][]float32, len(texts))
	for _, data := range embedResp.Data {
		if data.Index < 0 || data.Index >= len(texts) {
			return nil, 0, false, webrag.Errorf(webrag.EEMBED, "openai: embedding index %d out of range", data.Index)
		}
		vectors[data.Index] = data.Embedding
	}
	for i, v := range vectors {
		if v == nil {
			return nil, 0, false, webrag.Errorf(webrag.EEMBED, "openai: missing embedding for input %d", i)
		}
	}
	return vectors, 0, false, nil
}

// apiErrorMessage extracts the error message from a failure response body,
// falling back to the raw body.
func apiErrorMessage(body []byte) string {
	var parsed struct {
		Error *apiError `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error != nil {
		return parsed.Error.Message
	}
	return fmt.Sprintf("%s", body)
}
