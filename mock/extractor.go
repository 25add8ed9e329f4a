package mock

import "github.com/fwojciec/webrag"

var _ webrag.Extractor = (*Extractor)(nil)

// Extractor is a mock implementation of webrag.Extractor.
type Extractor struct {
	ExtractFn func(html string, pageURL string) (*webrag.ExtractResult, error)
}

func (e *Extractor) Extract(html string, pageURL string) (*webrag.ExtractResult, error) {
	return e.ExtractFn(html, pageURL)
}
