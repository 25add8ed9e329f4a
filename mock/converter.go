package mock

import "github.com/fwojciec/webrag"

var _ webrag.Converter = (*Converter)(nil)

// Converter is a mock implementation of webrag.Converter.
type Converter struct {
	ConvertFn func(html string) (string, error)
}

func (c *Converter) Convert(html string) (string, error) {
	return c.ConvertFn(html)
}
