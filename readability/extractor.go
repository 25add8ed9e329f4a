// Package readability provides a fallback content extraction strategy using
// go-readability's article scoring.
package readability

import (
	"net/url"
	"strings"

	"github.com/fwojciec/webrag"
	"github.com/go-shiori/go-readability"
)

// Ensure Extractor implements webrag.Extractor at compile time.
var _ webrag.Extractor = (*Extractor)(nil)

// Extractor wraps go-readability to extract main content from HTML.
type Extractor struct{}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract processes raw HTML fetched from pageURL and returns the main
// content. Returns EEXTRACT when the input is empty, binary, or yields no
// usable content.
func (e *Extractor) Extract(rawHTML string, pageURL string) (*webrag.ExtractResult, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return nil, webrag.Errorf(webrag.EEXTRACT, "empty input for %s", pageURL)
	}
	if strings.HasPrefix(rawHTML, "%PDF-") {
		return nil, webrag.Errorf(webrag.EEXTRACT, "binary content for %s", pageURL)
	}

	parsed, _ := url.Parse(pageURL)

	article, err := readability.FromReader(strings.NewReader(rawHTML), parsed)
	if err != nil {
		return nil, webrag.Errorf(webrag.EEXTRACT, "extracting %s: %v", pageURL, err)
	}
	if strings.TrimSpace(article.Content) == "" {
		return nil, webrag.Errorf(webrag.EEXTRACT, "no usable content for %s", pageURL)
	}

	return &webrag.ExtractResult{
		Title:       article.Title,
		ContentHTML: article.Content,
	}, nil
}
