package mock

import (
	"context"

	"github.com/fwojciec/webrag"
)

var _ webrag.SitemapService = (*SitemapService)(nil)

// SitemapService is a mock implementation of webrag.SitemapService.
type SitemapService struct {
	DiscoverURLsFn func(ctx context.Context, baseURL string, filter *webrag.URLFilter) ([]string, error)
}

func (s *SitemapService) DiscoverURLs(ctx context.Context, baseURL string, filter *webrag.URLFilter) ([]string, error) {
	return s.DiscoverURLsFn(ctx, baseURL, filter)
}
