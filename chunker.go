package webrag

// Span is one chunk of a split text. [Start, End) are rune offsets into the
// input; Text is the corresponding substring.
type Span struct {
	Text  string `json:"text"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// Chunker splits text into overlapping spans sized for embedding.
//
// Splitting is deterministic: identical input always yields the identical
// sequence of spans, which re-indexing relies on. Consecutive spans overlap
// by a fixed rune count, so the trailing overlap of one span equals the
// leading overlap of the next.
type Chunker interface {
	Chunk(text string) []Span
}
