package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"google.golang.org/genai"

	"github.com/fwojciec/webrag"
	"github.com/fwojciec/webrag/answer"
	"github.com/fwojciec/webrag/crawl"
	"github.com/fwojciec/webrag/fs"
	"github.com/fwojciec/webrag/gemini"
	"github.com/fwojciec/webrag/goquery"
	"github.com/fwojciec/webrag/htmltomarkdown"
	raghttp "github.com/fwojciec/webrag/http"
	"github.com/fwojciec/webrag/index"
	"github.com/fwojciec/webrag/ollama"
	"github.com/fwojciec/webrag/openai"
	"github.com/fwojciec/webrag/readability"
	"github.com/fwojciec/webrag/rod"
	ragslog "github.com/fwojciec/webrag/slog"
	"github.com/fwojciec/webrag/sqlite"
	"github.com/fwojciec/webrag/textsplit"
	"github.com/fwojciec/webrag/tiktoken"
	"github.com/fwojciec/webrag/trafilatura"
)

// userAgent identifies the crawler to web servers and robots.txt.
const userAgent = "webrag/1.0"

func main() {
	// A missing .env is fine; environment variables still apply.
	_ = godotenv.Load()

	ctx := context.Background()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Database path. Set before calling Run().
	DBPath string

	// Chat history path. Set before calling Run().
	HistoryPath string

	// SQLite database used by SQLite service implementations.
	DB *sqlite.DB

	// Services for end-to-end testing.
	Documents webrag.DocumentService
	Store     webrag.VectorStore
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{
		DBPath:      defaultDBPath(),
		HistoryPath: defaultHistoryPath(),
	}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	if m.DB != nil {
		return m.DB.Close()
	}
	return nil
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
		Config: webrag.DefaultConfig(),
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("webrag"),
		kong.Description("Index web pages locally and ask questions with cited answers."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'webrag --help' to see available commands")
	}
	if cmd := args[0]; cmd == "help" || cmd == "--help" || cmd == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	cmd := strings.Fields(kongCtx.Command())[0]

	if cli.DB != "" {
		m.DBPath = cli.DB
	}

	var logger *slog.Logger
	if cli.Verbose {
		logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	// Open database
	m.DB = sqlite.NewDB(m.DBPath)
	if err := m.DB.Open(); err != nil {
		fmt.Fprintf(stderr, "Hint: Set WEBRAG_DB to use a different database path\n")
		return fmt.Errorf("failed to open database at %q: %w", m.DBPath, err)
	}
	defer m.Close()

	// Wire core services into dependencies
	m.Documents = sqlite.NewDocumentService(m.DB)
	m.Store = sqlite.NewVectorStore(m.DB)
	deps.DB = m.DB
	deps.Documents = m.Documents
	deps.Store = m.Store
	deps.History = fs.NewHistoryService(m.HistoryPath)

	needsEmbedder := cmd == "add" || cmd == "ask" || cmd == "reindex" || cmd == "serve"
	needsChat := cmd == "ask" || cmd == "serve"

	// Gemini shares one client between the embedder and the chat model.
	var gclient *genai.Client
	if cli.Provider == "gemini" && needsEmbedder {
		apiKey := os.Getenv("GEMINI_API_KEY")
		if apiKey == "" {
			fmt.Fprintln(stderr, "GEMINI_API_KEY environment variable not set. Get an API key at https://aistudio.google.com/apikey")
			return webrag.Errorf(webrag.EINVALID, "GEMINI_API_KEY not set")
		}
		gclient, err = genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  apiKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			fmt.Fprintln(stderr, "Hint: Check your GEMINI_API_KEY is valid")
			return fmt.Errorf("failed to connect to Gemini API: %w", err)
		}
	}

	var embedder webrag.Embedder
	if needsEmbedder {
		embedder, err = buildEmbedder(cli.Provider, gclient, stderr)
		if err != nil {
			return err
		}
	}

	if cmd == "add" || cmd == "reindex" || cmd == "serve" {
		splitter, err := textsplit.New(deps.Config.ChunkSize, deps.Config.ChunkOverlap)
		if err != nil {
			return err
		}
		deps.Indexer = &index.Indexer{
			Chunker:     splitter,
			Embedder:    embedder,
			Documents:   deps.Documents,
			Store:       deps.Store,
			MinChunkLen: deps.Config.MinChunkLen,
		}
	}

	if cmd == "add" || cmd == "serve" {
		var fetcher webrag.Fetcher
		if cmd == "add" && cli.Add.Render {
			fetcher, err = rod.NewFetcher()
			if err != nil {
				fmt.Fprintln(stderr, "Hint: Chrome or Chromium must be installed for --render")
				return fmt.Errorf("failed to start browser: %w", err)
			}
		} else {
			fetcher = raghttp.NewFetcher(
				raghttp.WithTimeout(deps.Config.FetchTimeout),
				raghttp.WithUserAgent(userAgent),
			)
		}
		defer fetcher.Close()

		var indexer webrag.Indexer = deps.Indexer
		if logger != nil {
			fetcher = ragslog.NewLoggingFetcher(fetcher, logger)
			indexer = ragslog.NewLoggingIndexer(indexer, logger)
		}

		deps.Crawler = &crawl.Crawler{
			Fetcher:           fetcher,
			Extractor:         buildExtractor(cli.Extractor),
			Converter:         htmltomarkdown.NewConverter(),
			Links:             goquery.NewLinkExtractor(),
			Indexer:           indexer,
			Documents:         deps.Documents,
			Robots:            raghttp.NewRobotsPolicy(nil, userAgent),
			RateLimiter:       crawl.NewDomainLimiter(deps.Config.PolitenessDelay),
			Sitemaps:          raghttp.NewSitemapService(nil),
			MaxDepth:          deps.Config.MaxDepth,
			MaxPagesPerDomain: deps.Config.MaxPagesPerDomain,
			Concurrency:       deps.Config.Concurrency,
			MinContentLen:     deps.Config.MinContentLen,
		}
	}

	if needsChat {
		chat, err := buildChatModel(cli.Provider, gclient, stderr)
		if err != nil {
			return err
		}

		// cl100k_base approximates non-OpenAI tokenizers closely enough
		// for history budget trimming.
		counter, err := tiktoken.NewCounter(openai.DefaultChatModel)
		if err != nil {
			return err
		}

		var asker webrag.Asker = &answer.Service{
			Retriever: &answer.Retriever{
				Embedder:  embedder,
				Store:     deps.Store,
				Documents: deps.Documents,
				TopK:      deps.Config.TopK,
				MinScore:  deps.Config.MinScore,
			},
			Answerer: &answer.Answerer{
				Chat:            chat,
				Tokens:          counter,
				MaxHistoryTurns: deps.Config.MaxHistoryTurns,
			},
			History: deps.History,
		}
		if logger != nil {
			asker = ragslog.NewLoggingAsker(asker, logger)
		}
		deps.Asker = asker
	}

	return kongCtx.Run(deps)
}

// buildEmbedder constructs the embedding client for the selected provider.
func buildEmbedder(provider string, gclient *genai.Client, stderr io.Writer) (webrag.Embedder, error) {
	switch provider {
	case "openai":
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			fmt.Fprintln(stderr, "OPENAI_API_KEY environment variable not set. Get an API key at https://platform.openai.com/api-keys")
			return nil, webrag.Errorf(webrag.EINVALID, "OPENAI_API_KEY not set")
		}
		return openai.NewEmbedder(openai.Config{
			APIKey:  apiKey,
			BaseURL: os.Getenv("OPENAI_BASE_URL"),
		})
	case "gemini":
		return gemini.NewEmbedder(gclient, gemini.EmbedderConfig{})
	case "ollama":
		return ollama.NewEmbedder(ollama.EmbedderConfig{
			BaseURL: os.Getenv("OLLAMA_HOST"),
		})
	}
	return nil, webrag.Errorf(webrag.EINVALID, "unknown provider %q", provider)
}

// buildChatModel constructs the chat client for the selected provider.
func buildChatModel(provider string, gclient *genai.Client, stderr io.Writer) (webrag.ChatModel, error) {
	switch provider {
	case "openai":
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			fmt.Fprintln(stderr, "OPENAI_API_KEY environment variable not set. Get an API key at https://platform.openai.com/api-keys")
			return nil, webrag.Errorf(webrag.EINVALID, "OPENAI_API_KEY not set")
		}
		return openai.NewChatModel(openai.ChatConfig{
			APIKey:  apiKey,
			BaseURL: os.Getenv("OPENAI_BASE_URL"),
		})
	case "gemini":
		return gemini.NewChatModel(gclient, gemini.ChatConfig{}), nil
	case "ollama":
		return ollama.NewChatModel(ollama.ChatConfig{
			BaseURL: os.Getenv("OLLAMA_HOST"),
		}), nil
	}
	return nil, webrag.Errorf(webrag.EINVALID, "unknown provider %q", provider)
}

// buildExtractor selects the content extraction strategy.
func buildExtractor(name string) webrag.Extractor {
	switch name {
	case "readability":
		return readability.NewExtractor()
	case "goquery":
		return goquery.NewExtractor()
	}
	return trafilatura.NewExtractor()
}

func defaultDBPath() string {
	if path := os.Getenv("WEBRAG_DB"); path != "" {
		return path
	}
	return filepath.Join(dataDir(), "webrag.db")
}

func defaultHistoryPath() string {
	if path := os.Getenv("WEBRAG_HISTORY"); path != "" {
		return path
	}
	return filepath.Join(dataDir(), "history.json")
}

func dataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	dir := filepath.Join(home, ".webrag")
	_ = os.MkdirAll(dir, 0o755)
	return dir
}
