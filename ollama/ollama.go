// Package ollama provides Embedder and ChatModel implementations backed by a
// local Ollama instance. Everything runs on the machine, so no API key is
// involved; the adapters talk plain HTTP to the Ollama daemon.
package ollama

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/fwojciec/webrag"
)

// DefaultBaseURL is the address the Ollama daemon listens on by default.
const DefaultBaseURL = "http://localhost:11434"

// Default models.
const (
	DefaultEmbeddingModel = "nomic-embed-text"
	DefaultChatModel      = "llama3.2"
)

// modelDimensions maps common Ollama embedding models to their vector size.
var modelDimensions = map[string]int{
	"nomic-embed-text":  768,
	"mxbai-embed-large": 1024,
	"all-minilm":        384,
}

// client holds the HTTP plumbing shared by the embedder and chat model.
type client struct {
	baseURL    string
	httpClient *http.Client
}

func newClient(baseURL string, timeout time.Duration) *client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// IsRunning returns true if the Ollama daemon responds to GET /api/tags.
func (c *client) IsRunning(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// baseModelName strips the tag suffix, so "nomic-embed-text:latest" maps to
// the same dimensions as "nomic-embed-text".
func baseModelName(model string) string {
	if i := strings.IndexByte(model, ':'); i >= 0 {
		return model[:i]
	}
	return model
}

// checkDaemon converts a connection refusal into a friendlier message.
func checkDaemon(err error, code string) error {
	if strings.Contains(err.Error(), "connection refused") {
		return webrag.Errorf(code, "ollama: daemon not running (start it with `ollama serve`)")
	}
	return webrag.Errorf(code, "ollama: %s", err)
}
