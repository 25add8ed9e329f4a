// Package openai provides Embedder and ChatModel implementations backed by
// the OpenAI REST API. The BaseURL is configurable so any OpenAI-compatible
// endpoint works.
package openai

import (
	"context"
	"net/http"
	"strconv"
	"time"
)

// Default configuration values.
const (
	DefaultBaseURL        = "https://api.openai.com/v1"
	DefaultEmbeddingModel = "text-embedding-3-small"
	DefaultChatModel      = "gpt-4o-mini"
	DefaultTimeout        = 60 * time.Second
	DefaultChatTimeout    = 120 * time.Second
)

// Retry policy for transient API failures.
const (
	maxRetries     = 3
	retryBaseDelay = 200 * time.Millisecond
	retryMaxDelay  = 5 * time.Second
)

// apiError is the error object OpenAI embeds in failure responses.
type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// retryableStatus reports whether an HTTP status is worth retrying.
// Rate limits and server errors are transient; other client errors
// (auth, bad request) are terminal.
func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

// backoffDelay returns the exponential backoff delay for an attempt,
// honoring the server's Retry-After when one was provided.
func backoffDelay(attempt int, retryAfter time.Duration) time.Duration {
	if retryAfter > 0 {
		return retryAfter
	}
	d := retryBaseDelay << attempt
	if d > retryMaxDelay {
		d = retryMaxDelay
	}
	return d
}

// retryAfterHeader parses the Retry-After response header in seconds form.
func retryAfterHeader(resp *http.Response) time.Duration {
	if resp == nil {
		return 0
	}
	ra := resp.Header.Get("Retry-After")
	if ra == "" {
		return 0
	}
	secs, err := strconv.Atoi(ra)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// sleep waits for d or until the context is done.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
