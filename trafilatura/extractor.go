// Package trafilatura provides the primary content extraction strategy,
// wrapping go-trafilatura's boilerplate removal.
package trafilatura

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/fwojciec/webrag"
	"github.com/markusmobius/go-trafilatura"
	"golang.org/x/net/html"
)

// Ensure Extractor implements webrag.Extractor at compile time.
var _ webrag.Extractor = (*Extractor)(nil)

// Extractor wraps go-trafilatura to extract main content from HTML.
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
	if looksBinary(rawHTML) {
		return nil, webrag.Errorf(webrag.EEXTRACT, "binary content for %s", pageURL)
	}

	opts := trafilatura.Options{
		EnableFallback: true,
	}
	if u, err := url.Parse(pageURL); err == nil {
		opts.OriginalURL = u
	}

	result, err := trafilatura.Extract(strings.NewReader(rawHTML), opts)
	if err != nil {
		return nil, webrag.Errorf(webrag.EEXTRACT, "extracting %s: %v", pageURL, err)
	}

	var contentHTML string
	if result.ContentNode != nil {
		contentHTML, err = renderNode(result.ContentNode)
		if err != nil {
			return nil, webrag.Errorf(webrag.EEXTRACT, "rendering content for %s: %v", pageURL, err)
		}
	}
	if strings.TrimSpace(contentHTML) == "" {
		return nil, webrag.Errorf(webrag.EEXTRACT, "no usable content for %s", pageURL)
	}

	return &webrag.ExtractResult{
		Title:       result.Metadata.Title,
		ContentHTML: contentHTML,
	}, nil
}

// looksBinary detects non-HTML payloads that slipped past content-type
// checks: PDF signatures and NUL bytes near the start.
func looksBinary(s string) bool {
	if strings.HasPrefix(s, "%PDF-") {
		return true
	}
	head := s
	if len(head) > 512 {
		head = head[:512]
	}
	return strings.ContainsRune(head, '\x00')
}

// renderNode converts an html.Node to a string.
func renderNode(n *html.Node) (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return "", err
	}
	return buf.String(), nil
}
