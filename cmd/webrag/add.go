package main

import (
	"fmt"
	"regexp"

	"github.com/fwojciec/webrag"
	"github.com/fwojciec/webrag/crawl"
)

// Run executes the add command.
func (c *AddCmd) Run(deps *Dependencies) error {
	// Apply per-invocation overrides to the wired crawler.
	if c.Depth >= 0 {
		deps.Crawler.MaxDepth = c.Depth
	}
	if c.MaxPages > 0 {
		deps.Crawler.MaxPagesPerDomain = c.MaxPages
	}
	if c.Concurrency > 0 {
		deps.Crawler.Concurrency = c.Concurrency
	}

	if c.Sitemap {
		deps.Crawler.ExpandSitemaps = true
	}
	if len(c.Filter) > 0 {
		filter := &webrag.URLFilter{}
		for _, pattern := range c.Filter {
			re, err := regexp.Compile(pattern)
			if err != nil {
				fmt.Fprintf(deps.Stderr, "error: invalid filter pattern %q: %v\n", pattern, err)
				return err
			}
			filter.Include = append(filter.Include, re)
		}
		deps.Crawler.SitemapFilter = filter
	}

	progress := func(event crawl.ProgressEvent) {
		switch event.Type {
		case crawl.ProgressIndexed:
			fmt.Fprintf(deps.Stdout, "  indexed %s\n", event.URL)
		case crawl.ProgressSkipped:
			fmt.Fprintf(deps.Stdout, "  skip %s\n", event.URL)
		case crawl.ProgressFailed:
			fmt.Fprintf(deps.Stderr, "  fail %s: %s\n", event.URL, webrag.ErrorMessage(event.Error))
		}
	}

	result, err := deps.Crawler.Crawl(deps.Ctx, c.URLs, progress)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error crawling: %s\n", webrag.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "Indexed %d pages (%d failed, %d skipped)\n",
		result.Indexed, result.Failed, result.Skipped)
	return nil
}
