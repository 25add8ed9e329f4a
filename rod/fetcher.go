// Package rod provides a Fetcher backed by headless Chrome, for pages that
// render their content with JavaScript.
package rod

import (
	"context"

	"github.com/fwojciec/webrag"
	"github.com/go-rod/rod/lib/proto"
)

// Ensure Fetcher implements webrag.Fetcher at compile time.
var _ webrag.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves rendered HTML from URLs using Chrome browser automation.
// The browser is recycled periodically to keep long crawl jobs from
// accumulating Chrome memory. Fetcher is safe for concurrent use by multiple
// goroutines.
type Fetcher struct {
	manager *BrowserManager
}

// NewFetcher creates a new Fetcher that launches a headless Chrome browser.
// Close must be called when the Fetcher is no longer needed.
//
// Returns an error if Chrome/Chromium cannot be found or launched.
func NewFetcher(opts ...ManagerOption) (*Fetcher, error) {
	manager, err := NewBrowserManager(opts...)
	if err != nil {
		return nil, err
	}
	return &Fetcher{manager: manager}, nil
}

// Fetch navigates to the URL and returns the rendered HTML.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	page, err := f.manager.Browser().Page(proto.TargetCreateTarget{})
	if err != nil {
		return "", webrag.Errorf(webrag.EFETCH, "opening page: %s", err)
	}
	defer page.Close()

	// Bind the context so navigation honors timeouts and cancellation.
	page = page.Context(ctx)

	if err := page.Navigate(url); err != nil {
		return "", webrag.Errorf(webrag.EFETCH, "fetching %s: %s", url, err)
	}
	if err := page.WaitLoad(); err != nil {
		return "", webrag.Errorf(webrag.EFETCH, "loading %s: %s", url, err)
	}

	html, err := page.HTML()
	if err != nil {
		return "", webrag.Errorf(webrag.EFETCH, "reading %s: %s", url, err)
	}

	f.manager.IncrementPageCount()
	return html, nil
}

// Close releases browser resources.
func (f *Fetcher) Close() error {
	return f.manager.Close()
}
