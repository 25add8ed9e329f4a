package webrag

import "time"

// Default pipeline parameters.
const (
	DefaultChunkSize         = 1000
	DefaultChunkOverlap      = 200
	DefaultMinChunkLen       = 50
	DefaultMinContentLen     = 200
	DefaultMaxDepth          = 2
	DefaultMaxPagesPerDomain = 50
	DefaultConcurrency       = 5
	DefaultTopK              = 5
	DefaultFetchTimeout      = 15 * time.Second
	DefaultPolitenessDelay   = 500 * time.Millisecond
	DefaultMaxHistoryTurns   = 5
)

// Config carries pipeline tunables. Entry points receive an explicit Config
// rather than reading ambient state, so the pipeline can be exercised in
// isolation.
type Config struct {
	// Chunking.
	ChunkSize     int // target chunk length in runes
	ChunkOverlap  int // exact overlap between consecutive chunks in runes
	MinChunkLen   int // trailing chunks shorter than this are dropped
	MinContentLen int // extracted pages shorter than this are rejected

	// Crawling.
	MaxDepth          int           // 0 = seeds only
	MaxPagesPerDomain int           // fetch budget per domain
	Concurrency       int           // parallel fetches across domains
	FetchTimeout      time.Duration // per-request timeout
	PolitenessDelay   time.Duration // minimum delay between same-domain fetches

	// Retrieval.
	TopK     int     // passages retrieved per query
	MinScore float32 // similarity floor, 0 disables

	// Answering.
	MaxHistoryTurns int // prior turns included in the prompt
}

// DefaultConfig returns a Config populated with the default parameters.
func DefaultConfig() Config {
	return Config{
		ChunkSize:         DefaultChunkSize,
		ChunkOverlap:      DefaultChunkOverlap,
		MinChunkLen:       DefaultMinChunkLen,
		MinContentLen:     DefaultMinContentLen,
		MaxDepth:          DefaultMaxDepth,
		MaxPagesPerDomain: DefaultMaxPagesPerDomain,
		Concurrency:       DefaultConcurrency,
		FetchTimeout:      DefaultFetchTimeout,
		PolitenessDelay:   DefaultPolitenessDelay,
		TopK:              DefaultTopK,
		MaxHistoryTurns:   DefaultMaxHistoryTurns,
	}
}

// Validate returns an error if the configuration is not usable.
func (c Config) Validate() error {
	if c.ChunkSize <= 0 {
		return Errorf(EINVALID, "chunk size must be positive")
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return Errorf(EINVALID, "chunk overlap must be non-negative and smaller than chunk size")
	}
	if c.MaxDepth < 0 {
		return Errorf(EINVALID, "max depth must be non-negative")
	}
	if c.MaxPagesPerDomain <= 0 {
		return Errorf(EINVALID, "max pages per domain must be positive")
	}
	if c.Concurrency <= 0 {
		return Errorf(EINVALID, "concurrency must be positive")
	}
	if c.TopK <= 0 {
		return Errorf(EINVALID, "top-k must be positive")
	}
	return nil
}
