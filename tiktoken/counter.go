// Package tiktoken provides token counting using OpenAI's BPE encodings.
package tiktoken

import (
	"context"

	"github.com/fwojciec/webrag"
	"github.com/pkoukk/tiktoken-go"
)

var _ webrag.TokenCounter = (*Counter)(nil)

// DefaultEncoding is a reasonable approximation for current chat models.
const DefaultEncoding = "cl100k_base"

// Counter counts tokens with a fixed BPE encoding. The encoding is loaded
// once at construction; counting itself is pure computation.
type Counter struct {
	enc *tiktoken.Tiktoken
}

// NewCounter creates a counter for the model's encoding, falling back to
// cl100k_base for models tiktoken does not know.
func NewCounter(model string) (*Counter, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding(DefaultEncoding)
		if err != nil {
			return nil, webrag.Errorf(webrag.EINTERNAL, "tiktoken: load encoding: %s", err)
		}
	}
	return &Counter{enc: enc}, nil
}

// CountTokens returns the number of tokens in text.
func (c *Counter) CountTokens(_ context.Context, text string) (int, error) {
	return len(c.enc.Encode(text, nil, nil)), nil
}
