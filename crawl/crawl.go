// Package crawl orchestrates web crawling: breadth-first traversal from seed
// URLs, bounded by depth and per-domain budgets, feeding fetched pages
// through extraction, markdown conversion, and indexing.
package crawl

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fwojciec/webrag"
)

// Frontier sizing for URL deduplication.
const (
	// frontierExpectedURLs is the expected number of URLs for Bloom filter sizing.
	frontierExpectedURLs = 10000
	// frontierFalsePositiveRate is the acceptable false positive rate for deduplication.
	frontierFalsePositiveRate = 0.01
)

// Crawler coordinates the ingestion pipeline over a frontier of URLs.
type Crawler struct {
	Fetcher     webrag.Fetcher
	Extractor   webrag.Extractor
	Converter   webrag.Converter
	Links       webrag.LinkExtractor
	Indexer     webrag.Indexer
	Documents   webrag.DocumentService
	Robots      webrag.RobotsPolicy
	RateLimiter webrag.DomainLimiter

	// Sitemaps, when set together with ExpandSitemaps, expands each seed
	// into the URLs its site's sitemap lists before link crawling starts.
	Sitemaps       webrag.SitemapService
	ExpandSitemaps bool
	SitemapFilter  *webrag.URLFilter

	// MaxDepth bounds traversal; seeds are depth 0 and links found at
	// depth d enqueue at d+1 only if d+1 <= MaxDepth.
	MaxDepth int

	// MaxPagesPerDomain is the fetch budget per domain, seeds included.
	MaxPagesPerDomain int

	// Concurrency bounds parallel fetches across domains.
	Concurrency int

	// MinContentLen skips pages whose markdown is shorter than this.
	MinContentLen int

	// RetryDelays configures fetch retry backoff; nil uses DefaultRetryDelays.
	RetryDelays []time.Duration
}

// Result holds the outcome of a crawl job. Per-URL failures are recorded
// here and as failed Documents; they never abort the job.
type Result struct {
	Indexed int
	Failed  int
	Skipped int

	// Errors maps each failed URL to its user-facing failure message.
	Errors map[string]string
}

// ProgressType indicates the type of progress event.
type ProgressType int

// Progress event types, one per URL processed plus job start/finish.
const (
	ProgressStarted ProgressType = iota
	ProgressIndexed
	ProgressFailed
	ProgressSkipped
	ProgressFinished
)

// String returns the wire name of the progress type.
func (t ProgressType) String() string {
	switch t {
	case ProgressStarted:
		return "started"
	case ProgressIndexed:
		return "indexed"
	case ProgressFailed:
		return "failed"
	case ProgressSkipped:
		return "skipped"
	case ProgressFinished:
		return "finished"
	}
	return "unknown"
}

// ProgressEvent reports progress during a crawl job.
type ProgressEvent struct {
	Type      ProgressType
	URL       string
	Depth     int
	Completed int
	Error     error
}

// ProgressFunc is a callback for reporting crawl progress. The crawler calls
// it from the coordinator goroutine, so implementations need no locking, but
// they must not block on slow consumers.
type ProgressFunc func(event ProgressEvent)

// outcome classifies a processed URL.
type outcome int

const (
	outcomeIndexed outcome = iota
	outcomeFailed
	outcomeSkipped
)

// pageResult holds the outcome of processing a single URL.
type pageResult struct {
	entry   Entry
	outcome outcome
	links   []string
	err     error
}

// Crawl traverses breadth-first from the seed URLs and indexes each reachable
// page. Successfully indexed documents are persisted incrementally, so
// partial progress survives cancellation; the context error is returned
// alongside the partial result when the job is aborted.
func (c *Crawler) Crawl(ctx context.Context, seeds []string, progress ProgressFunc) (*Result, error) {
	result := &Result{Errors: make(map[string]string)}

	frontier := NewFrontier(frontierExpectedURLs, frontierFalsePositiveRate, c.MaxPagesPerDomain)

	for _, seed := range seeds {
		entry, err := newEntry(seed, 0)
		if err != nil {
			result.Failed++
			result.Errors[seed] = webrag.ErrorMessage(err)
			continue
		}
		frontier.Push(entry)
	}
	if frontier.Len() == 0 && result.Failed == len(seeds) {
		return result, webrag.Errorf(webrag.EINVALID, "no valid seed URLs")
	}

	if c.ExpandSitemaps && c.Sitemaps != nil {
		c.expandSeeds(ctx, seeds, frontier)
	}

	if progress != nil {
		progress(ProgressEvent{Type: ProgressStarted})
	}

	concurrency := c.Concurrency
	if concurrency <= 0 {
		concurrency = webrag.DefaultConcurrency
	}

	workCh := make(chan Entry, concurrency)
	resultCh := make(chan pageResult)

	var g errgroup.Group
	for i := 0; i < concurrency; i++ {
		g.Go(func() error {
			for entry := range workCh {
				res := c.processEntry(ctx, entry)
				select {
				case resultCh <- res:
				case <-ctx.Done():
					return nil
				}
			}
			return nil
		})
	}

	go func() {
		_ = g.Wait()
		close(resultCh)
	}()

	// Coordinator loop: dispatch frontier entries to workers and fold
	// results back in, enqueueing newly discovered links.
	completed := 0
	pending := 0
	var next *Entry

	if e, ok := frontier.Pop(); ok {
		next = &e
	}

coordinator:
	for {
		if next == nil && pending == 0 {
			break
		}
		if ctx.Err() != nil {
			break
		}

		if next != nil {
			select {
			case <-ctx.Done():
				break coordinator
			case workCh <- *next:
				pending++
				next = nil
			case res, ok := <-resultCh:
				if !ok {
					break coordinator
				}
				pending--
				completed++
				c.handleResult(res, frontier, result, progress, completed)
			}
		} else {
			select {
			case <-ctx.Done():
				break coordinator
			case res, ok := <-resultCh:
				if !ok {
					break coordinator
				}
				pending--
				completed++
				c.handleResult(res, frontier, result, progress, completed)
			}
		}

		if next == nil {
			if e, ok := frontier.Pop(); ok {
				next = &e
			}
		}
	}

	close(workCh)

	// Drain remaining results so in-flight pages still count.
	for res := range resultCh {
		completed++
		c.handleResult(res, frontier, result, progress, completed)
	}

	if progress != nil {
		progress(ProgressEvent{Type: ProgressFinished, Completed: completed})
	}

	return result, ctx.Err()
}

// expandSeeds enqueues sitemap-discovered URLs as depth-1 entries, subject
// to the same dedup and domain budgets as link discovery. Discovery failures
// are ignored; link crawling covers the site either way.
func (c *Crawler) expandSeeds(ctx context.Context, seeds []string, frontier *Frontier) {
	for _, seed := range seeds {
		urls, err := c.Sitemaps.DiscoverURLs(ctx, seed, c.SitemapFilter)
		if err != nil {
			continue
		}
		for _, u := range urls {
			if c.MaxDepth < 1 {
				break
			}
			entry, err := newEntry(u, 1)
			if err != nil {
				continue
			}
			frontier.Push(entry)
		}
	}
}

// handleResult folds one processed URL into the job result and enqueues its
// discovered links.
func (c *Crawler) handleResult(res pageResult, frontier *Frontier, result *Result, progress ProgressFunc, completed int) {
	nextDepth := res.entry.Depth + 1
	if nextDepth <= c.MaxDepth {
		for _, link := range res.links {
			entry, err := newEntry(link, nextDepth)
			if err != nil {
				continue
			}
			// Same-host traversal only; cross-domain links are noise
			// for a site-scoped index.
			if entry.Domain != res.entry.Domain {
				continue
			}
			frontier.Push(entry)
		}
	}

	event := ProgressEvent{URL: res.entry.URL, Depth: res.entry.Depth, Completed: completed, Error: res.err}
	switch res.outcome {
	case outcomeIndexed:
		result.Indexed++
		event.Type = ProgressIndexed
	case outcomeSkipped:
		result.Skipped++
		event.Type = ProgressSkipped
	case outcomeFailed:
		result.Failed++
		result.Errors[res.entry.URL] = webrag.ErrorMessage(res.err)
		event.Type = ProgressFailed
	}

	if progress != nil {
		progress(event)
	}
}

// processEntry fetches and indexes a single URL, returning discovered links
// for the coordinator to enqueue.
func (c *Crawler) processEntry(ctx context.Context, entry Entry) pageResult {
	res := pageResult{entry: entry}

	if c.Robots != nil && !c.Robots.Allowed(ctx, entry.URL) {
		res.outcome = outcomeSkipped
		return res
	}

	if c.RateLimiter != nil {
		if err := c.RateLimiter.Wait(ctx, entry.Domain); err != nil {
			res.outcome = outcomeFailed
			res.err = err
			return res
		}
	}

	delays := c.RetryDelays
	if delays == nil {
		delays = DefaultRetryDelays()
	}
	html, err := FetchWithRetryDelays(ctx, entry.URL, c.Fetcher.Fetch, delays)
	if err != nil {
		return c.fail(ctx, res, err)
	}

	if c.Links != nil {
		if links, err := c.Links.ExtractLinks(html, entry.URL); err == nil {
			res.links = links
		}
	}

	extracted, err := c.Extractor.Extract(html, entry.URL)
	if err != nil {
		return c.fail(ctx, res, err)
	}

	markdown, err := c.Converter.Convert(extracted.ContentHTML)
	if err != nil {
		return c.fail(ctx, res, err)
	}

	if len([]rune(markdown)) < c.MinContentLen {
		res.outcome = outcomeSkipped
		return res
	}

	page := &webrag.Page{
		SourceURL:    entry.URL,
		CanonicalURL: entry.URL,
		Title:        extracted.Title,
		Domain:       entry.Domain,
		Markdown:     markdown,
		FetchedAt:    time.Now().UTC(),
	}

	if _, err := c.Indexer.IndexPage(ctx, page); err != nil {
		// The indexer already marked the document failed; record the
		// outcome without writing a second entry.
		res.outcome = outcomeFailed
		res.err = err
		return res
	}

	res.outcome = outcomeIndexed
	return res
}

// fail records the URL as a failed Document so the failure survives the job.
func (c *Crawler) fail(ctx context.Context, res pageResult, err error) pageResult {
	res.outcome = outcomeFailed
	res.err = err
	c.recordFailure(ctx, res.entry, err)
	return res
}

// recordFailure upserts a failed Document for the URL. An existing document
// is marked failed in place; its chunks drop out of search until a later
// crawl succeeds again.
func (c *Crawler) recordFailure(ctx context.Context, entry Entry, cause error) {
	if c.Documents == nil || ctx.Err() != nil {
		return
	}

	msg := webrag.ErrorMessage(cause)
	status := webrag.DocumentStatusFailed

	existing, err := c.Documents.FindDocumentByCanonicalURL(ctx, entry.URL)
	if err == nil {
		_, _ = c.Documents.UpdateDocument(ctx, existing.ID, webrag.DocumentUpdate{
			Status: &status,
			Error:  &msg,
		})
		return
	}

	_ = c.Documents.CreateDocument(ctx, &webrag.Document{
		SourceURL:    entry.URL,
		CanonicalURL: entry.URL,
		Domain:       entry.Domain,
		FetchedAt:    time.Now().UTC(),
		Status:       status,
		Error:        msg,
	})
}

// newEntry normalizes a raw URL into a frontier entry.
func newEntry(rawURL string, depth int) (Entry, error) {
	normalized, err := webrag.NormalizeURL(rawURL)
	if err != nil {
		return Entry{}, err
	}
	domain, err := webrag.DomainOf(normalized)
	if err != nil {
		return Entry{}, err
	}
	return Entry{URL: normalized, Domain: domain, Depth: depth}, nil
}
