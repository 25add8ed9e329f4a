package textsplit_test

import (
	"strings"
	"testing"

	"github.com/fwojciec/webrag"
	"github.com/fwojciec/webrag/textsplit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_rejects_invalid_parameters(t *testing.T) {
	t.Parallel()

	_, err := textsplit.New(0, 0)
	assert.Equal(t, webrag.EINVALID, webrag.ErrorCode(err))

	_, err = textsplit.New(100, -1)
	assert.Equal(t, webrag.EINVALID, webrag.ErrorCode(err))

	_, err = textsplit.New(100, 100)
	assert.Equal(t, webrag.EINVALID, webrag.ErrorCode(err))
}

func TestSplitter_Chunk_empty_text_returns_nil(t *testing.T) {
	t.Parallel()

	s, err := textsplit.New(100, 20)
	require.NoError(t, err)

	assert.Nil(t, s.Chunk(""))
}

func TestSplitter_Chunk_short_text_returns_single_span(t *testing.T) {
	t.Parallel()

	s, err := textsplit.New(100, 20)
	require.NoError(t, err)

	spans := s.Chunk("a short paragraph")
	require.Len(t, spans, 1)
	assert.Equal(t, "a short paragraph", spans[0].Text)
	assert.Equal(t, 0, spans[0].Start)
	assert.Equal(t, len([]rune("a short paragraph")), spans[0].End)
}

func TestSplitter_Chunk_is_deterministic(t *testing.T) {
	t.Parallel()

	s, err := textsplit.New(50, 10)
	require.NoError(t, err)

	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 20)

	first := s.Chunk(text)
	second := s.Chunk(text)

	assert.Equal(t, first, second)
}

func TestSplitter_Chunk_overlap_invariant(t *testing.T) {
	t.Parallel()

	texts := map[string]string{
		"prose":      strings.Repeat("The quick brown fox jumps over the lazy dog. ", 30),
		"paragraphs": strings.Repeat("First line of a paragraph.\nSecond line.\n\n", 25),
		"unbroken":   strings.Repeat("x", 777),
		"unicode":    strings.Repeat("żółta łódź płynie przez jezioro. ", 40),
	}

	const size, overlap = 80, 15

	s, err := textsplit.New(size, overlap)
	require.NoError(t, err)

	for name, text := range texts {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			spans := s.Chunk(text)
			require.NotEmpty(t, spans)

			runes := []rune(text)
			for i, span := range spans {
				// Span text matches its offsets into the input.
				assert.Equal(t, string(runes[span.Start:span.End]), span.Text)
				assert.LessOrEqual(t, span.End-span.Start, size)

				if i == 0 {
					assert.Equal(t, 0, span.Start)
					continue
				}

				prev := spans[i-1]
				require.Equal(t, prev.End-overlap, span.Start)

				prevRunes := []rune(prev.Text)
				curRunes := []rune(span.Text)
				tail := string(prevRunes[len(prevRunes)-overlap:])
				head := string(curRunes[:overlap])
				assert.Equal(t, tail, head)
			}
		})
	}
}

func TestSplitter_Chunk_spans_reconstruct_text(t *testing.T) {
	t.Parallel()

	const overlap = 12

	s, err := textsplit.New(60, overlap)
	require.NoError(t, err)

	text := strings.Repeat("Working through the checklist one item at a time. ", 15)
	spans := s.Chunk(text)
	require.Greater(t, len(spans), 1)

	var b strings.Builder
	for i, span := range spans {
		if i == 0 {
			b.WriteString(span.Text)
			continue
		}
		b.WriteString(string([]rune(span.Text)[overlap:]))
	}

	assert.Equal(t, text, b.String())
}

func TestSplitter_Chunk_prefers_paragraph_boundaries(t *testing.T) {
	t.Parallel()

	s, err := textsplit.New(20, 5)
	require.NoError(t, err)

	text := "para one.\n\npara two continues here."
	spans := s.Chunk(text)
	require.NotEmpty(t, spans)

	assert.Equal(t, "para one.\n\n", spans[0].Text)
}

func TestSplitter_Chunk_hard_cuts_unbroken_text(t *testing.T) {
	t.Parallel()

	s, err := textsplit.New(10, 3)
	require.NoError(t, err)

	spans := s.Chunk(strings.Repeat("x", 25))
	require.Greater(t, len(spans), 2)

	for i, span := range spans {
		if i < len(spans)-1 {
			assert.Equal(t, 10, span.End-span.Start)
		}
	}
	assert.Equal(t, 25, spans[len(spans)-1].End)
}

func TestSplitter_Chunk_drops_whitespace_tail(t *testing.T) {
	t.Parallel()

	s, err := textsplit.New(6, 1)
	require.NoError(t, err)

	spans := s.Chunk("hello" + strings.Repeat("\n", 7))
	require.Len(t, spans, 1)
	assert.Equal(t, "hello\n", spans[0].Text)
}
