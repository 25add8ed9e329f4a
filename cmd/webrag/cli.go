package main

import (
	"context"
	"io"

	"github.com/fwojciec/webrag"
	"github.com/fwojciec/webrag/crawl"
	"github.com/fwojciec/webrag/index"
	"github.com/fwojciec/webrag/sqlite"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx    context.Context
	Stdout io.Writer
	Stderr io.Writer

	Config    webrag.Config
	DB        *sqlite.DB
	Documents webrag.DocumentService
	Store     webrag.VectorStore
	History   webrag.HistoryService
	Crawler   *crawl.Crawler
	Indexer   *index.Indexer
	Asker     webrag.Asker
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	DB        string `help:"Database path (default: $WEBRAG_DB or ~/.webrag/webrag.db)"`
	Provider  string `help:"Model provider" enum:"openai,gemini,ollama" default:"openai"`
	Extractor string `help:"Content extraction strategy" enum:"trafilatura,readability,goquery" default:"trafilatura"`
	Verbose   bool   `short:"v" help:"Log pipeline operations to stderr"`

	Add     AddCmd     `cmd:"" help:"Crawl and index web pages"`
	Ask     AskCmd     `cmd:"" help:"Ask a question against the indexed content"`
	List    ListCmd    `cmd:"" help:"List indexed documents"`
	Delete  DeleteCmd  `cmd:"" help:"Delete a document and its chunks"`
	Stats   StatsCmd   `cmd:"" help:"Show storage usage"`
	Reindex ReindexCmd `cmd:"" help:"Re-embed stored content under the active embedding model"`
	History HistoryCmd `cmd:"" help:"Show or clear chat history"`
	Serve   ServeCmd   `cmd:"" help:"Run the HTTP API server"`
}

// AddCmd is the "add" subcommand.
type AddCmd struct {
	URLs        []string `arg:"" help:"Seed URLs to crawl"`
	Depth       int      `short:"d" default:"-1" help:"Crawl depth; 0 indexes only the seeds"`
	MaxPages    int      `short:"m" default:"0" help:"Page budget per domain"`
	Concurrency int      `short:"c" default:"0" help:"Concurrent fetch limit"`
	Sitemap     bool     `short:"s" help:"Expand seeds through their site's sitemap"`
	Filter      []string `short:"F" name:"filter" help:"Only follow URLs matching regex (repeatable, with --sitemap)"`
	Render      bool     `short:"r" help:"Render pages with headless Chrome (for JavaScript-heavy sites)"`
}

// AskCmd is the "ask" subcommand.
type AskCmd struct {
	Question string `arg:"" help:"Question to ask"`
}

// ListCmd is the "list" subcommand.
type ListCmd struct {
	Domain string `help:"Only documents from this domain"`
	Status string `help:"Only documents with this status (pending, indexed, failed)"`
	Query  string `short:"q" help:"Match title or domain substring"`
	Limit  int    `default:"50" help:"Maximum documents to show"`
	Offset int    `default:"0" help:"Documents to skip"`
}

// DeleteCmd is the "delete" subcommand.
type DeleteCmd struct {
	ID    string `arg:"" help:"Document ID"`
	Force bool   `help:"Confirm deletion"`
}

// StatsCmd is the "stats" subcommand.
type StatsCmd struct{}

// ReindexCmd is the "reindex" subcommand.
type ReindexCmd struct{}

// HistoryCmd is the "history" subcommand.
type HistoryCmd struct {
	Limit int  `default:"10" help:"Turns to show, most recent last"`
	Clear bool `help:"Delete all retained history"`
}

// ServeCmd is the "serve" subcommand.
type ServeCmd struct {
	Addr  string `default:":8080" help:"Listen address"`
	Token string `help:"Require this bearer token on every request (default: $WEBRAG_API_TOKEN)"`
}
