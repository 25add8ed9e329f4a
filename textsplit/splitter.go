// Package textsplit splits document text into overlapping chunks sized for
// embedding. Cut points prefer natural boundaries (paragraph breaks, line
// breaks, sentence ends, spaces) and fall back to hard cuts when a single
// unit exceeds the chunk size.
package textsplit

import (
	"strings"

	"github.com/fwojciec/webrag"
)

// Ensure Splitter implements webrag.Chunker at compile time.
var _ webrag.Chunker = (*Splitter)(nil)

// Splitter produces deterministic overlapping spans. Offsets are rune
// offsets into the input, and every chunk after the first starts exactly
// overlap runes before the previous chunk ends, so the trailing overlap of
// chunk i is always identical to the leading overlap of chunk i+1.
type Splitter struct {
	size    int
	overlap int
}

// New creates a Splitter targeting size runes per chunk with the given
// overlap. Returns EINVALID unless 0 <= overlap < size.
func New(size, overlap int) (*Splitter, error) {
	if size <= 0 {
		return nil, webrag.Errorf(webrag.EINVALID, "chunk size must be positive")
	}
	if overlap < 0 || overlap >= size {
		return nil, webrag.Errorf(webrag.EINVALID, "chunk overlap must be non-negative and smaller than chunk size")
	}
	return &Splitter{size: size, overlap: overlap}, nil
}

// Chunk splits text into spans. Identical input always yields the identical
// sequence of spans.
func (s *Splitter) Chunk(text string) []webrag.Span {
	runes := []rune(text)
	n := len(runes)
	if n == 0 {
		return nil
	}
	if n <= s.size {
		return []webrag.Span{{Text: text, Start: 0, End: n}}
	}

	var spans []webrag.Span
	start := 0
	for {
		end := start + s.size
		if end >= n {
			end = n
		} else {
			end = cutPoint(runes, start+s.overlap, end)
		}

		spans = append(spans, webrag.Span{
			Text:  string(runes[start:end]),
			Start: start,
			End:   end,
		})

		if end == n {
			break
		}
		start = end - s.overlap
	}

	// Trailing spans of pure whitespace carry nothing worth embedding.
	for len(spans) > 1 && strings.TrimSpace(spans[len(spans)-1].Text) == "" {
		spans = spans[:len(spans)-1]
	}

	return spans
}

// cutPoint picks the cut index in (lo, hi] for a chunk ending at or before
// hi. The rightmost boundary of the strongest class wins; if the window
// contains no boundary at all, the chunk is cut hard at hi. Cutting strictly
// after lo guarantees forward progress once the overlap is subtracted.
func cutPoint(runes []rune, lo, hi int) int {
	// Paragraph break: cut just after a blank line.
	for b := hi; b > lo; b-- {
		if b >= 2 && runes[b-1] == '\n' && runes[b-2] == '\n' {
			return b
		}
	}

	// Line break.
	for b := hi; b > lo; b-- {
		if runes[b-1] == '\n' {
			return b
		}
	}

	// Sentence end followed by a space.
	for b := hi; b > lo; b-- {
		if b >= 2 && isSentenceEnd(runes[b-2]) && runes[b-1] == ' ' {
			return b
		}
	}

	// Word boundary.
	for b := hi; b > lo; b-- {
		if runes[b-1] == ' ' {
			return b
		}
	}

	return hi
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}
