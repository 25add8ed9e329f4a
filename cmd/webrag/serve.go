package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fwojciec/webrag/api"
	"github.com/fwojciec/webrag/crawl"
)

// shutdownTimeout bounds how long in-flight requests may take to drain.
const shutdownTimeout = 10 * time.Second

// Run executes the serve command.
func (c *ServeCmd) Run(deps *Dependencies) error {
	token := c.Token
	if token == "" {
		token = os.Getenv("WEBRAG_API_TOKEN")
	}

	// Each job gets its own crawler so request-level depth and budget
	// overrides never affect concurrent jobs. The copy shares the wired
	// fetcher, indexer, and services.
	crawlFn := func(ctx context.Context, req api.CrawlRequest, progress crawl.ProgressFunc) (*crawl.Result, error) {
		crawler := *deps.Crawler
		if req.MaxDepth != nil && *req.MaxDepth >= 0 {
			crawler.MaxDepth = *req.MaxDepth
		}
		if req.MaxPagesPerDomain != nil && *req.MaxPagesPerDomain > 0 {
			crawler.MaxPagesPerDomain = *req.MaxPagesPerDomain
		}
		return crawler.Crawl(ctx, req.URLs, progress)
	}

	handler := api.NewHandler(api.Deps{
		Crawl:     crawlFn,
		Asker:     deps.Asker,
		History:   deps.History,
		Documents: deps.Documents,
		Jobs:      api.NewJobManager(),
		Token:     token,
	})

	srv := &http.Server{
		Addr:              c.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	fmt.Fprintf(deps.Stdout, "Listening on %s\n", c.Addr)
	if token != "" {
		fmt.Fprintln(deps.Stdout, "Bearer auth enabled")
	}

	ctx, stop := signal.NotifyContext(deps.Ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	fmt.Fprintln(deps.Stdout, "Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
