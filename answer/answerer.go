package answer

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/fwojciec/webrag"
)

// DefaultHistoryTokenBudget bounds how much of the prompt past turns may
// occupy.
const DefaultHistoryTokenBudget = 2000

const systemPrompt = `You are a research assistant answering questions from indexed web content.

Answer using only the numbered sources provided. Cite every claim with its source marker, e.g. [1] or [2]. If the sources do not contain the answer, say so plainly instead of guessing.`

// markerPattern matches source markers like [1] in model output.
var markerPattern = regexp.MustCompile(`\[(\d+)\]`)

// Answerer turns retrieved passages and chat history into a grounded,
// cited answer.
type Answerer struct {
	Chat   webrag.ChatModel
	Tokens webrag.TokenCounter

	// MaxHistoryTurns bounds how many past turns enter the prompt;
	// zero uses the default.
	MaxHistoryTurns int

	// HistoryTokenBudget truncates history further when the retained
	// turns exceed this many tokens; zero uses the default. Only applied
	// when Tokens is set.
	HistoryTokenBudget int
}

// source is one numbered entry in the grounded prompt. Passages from the
// same document share a marker.
type source struct {
	marker   int
	document *webrag.Document
	passages []*webrag.RetrievalResult
}

// Answer invokes the chat model with the retrieved passages and bounded
// history, then parses the reply for source markers. Only sources the model
// actually referenced become citations, in first-reference order.
func (a *Answerer) Answer(ctx context.Context, query string, history []*webrag.ChatTurn, retrieved []*webrag.RetrievalResult) (*webrag.Answer, error) {
	if len(retrieved) == 0 {
		return nil, webrag.Errorf(webrag.ERETRIEVAL, "no relevant content found for the question")
	}

	sources := groupSources(retrieved)

	messages := []webrag.ChatMessage{{Role: webrag.RoleSystem, Content: systemPrompt}}
	for _, turn := range a.boundHistory(ctx, history) {
		messages = append(messages,
			webrag.ChatMessage{Role: webrag.RoleUser, Content: turn.Query},
			webrag.ChatMessage{Role: webrag.RoleAssistant, Content: turn.Answer},
		)
	}
	messages = append(messages, webrag.ChatMessage{Role: webrag.RoleUser, Content: buildPrompt(sources, query)})

	reply, err := a.Chat.Chat(ctx, messages)
	if err != nil {
		return nil, err
	}

	return &webrag.Answer{
		Text:      reply,
		Citations: parseCitations(reply, sources),
	}, nil
}

// groupSources assigns one marker per document, in rank order of the first
// passage from that document.
func groupSources(retrieved []*webrag.RetrievalResult) []*source {
	var sources []*source
	byDoc := make(map[string]*source)
	for _, res := range retrieved {
		s, ok := byDoc[res.Document.ID]
		if !ok {
			s = &source{marker: len(sources) + 1, document: res.Document}
			byDoc[res.Document.ID] = s
			sources = append(sources, s)
		}
		s.passages = append(s.passages, res)
	}
	return sources
}

// buildPrompt renders the numbered sources followed by the question.
func buildPrompt(sources []*source, query string) string {
	var sb strings.Builder
	sb.WriteString("Sources:\n\n")
	for _, s := range sources {
		title := s.document.Title
		if title == "" {
			title = s.document.SourceURL
		}
		fmt.Fprintf(&sb, "[%d] %s (%s)\n", s.marker, title, s.document.SourceURL)
		for _, p := range s.passages {
			sb.WriteString(p.Chunk.Text)
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "Question: %s", query)
	return sb.String()
}

// boundHistory keeps the most recent turns, oldest-truncated first by turn
// count, then by token budget when a counter is available.
func (a *Answerer) boundHistory(ctx context.Context, history []*webrag.ChatTurn) []*webrag.ChatTurn {
	maxTurns := a.MaxHistoryTurns
	if maxTurns <= 0 {
		maxTurns = webrag.DefaultMaxHistoryTurns
	}
	if len(history) > maxTurns {
		history = history[len(history)-maxTurns:]
	}
	if a.Tokens == nil {
		return history
	}

	budget := a.HistoryTokenBudget
	if budget <= 0 {
		budget = DefaultHistoryTokenBudget
	}

	total := 0
	counts := make([]int, len(history))
	for i, turn := range history {
		n, err := a.Tokens.CountTokens(ctx, turn.Query+turn.Answer)
		if err != nil {
			return history
		}
		counts[i] = n
		total += n
	}
	for len(history) > 0 && total > budget {
		total -= counts[0]
		counts = counts[1:]
		history = history[1:]
	}
	return history
}

// parseCitations extracts the source markers the model referenced and maps
// them back to documents, in first-reference order.
func parseCitations(reply string, sources []*source) []webrag.Citation {
	byMarker := make(map[int]*source, len(sources))
	for _, s := range sources {
		byMarker[s.marker] = s
	}

	var citations []webrag.Citation
	seen := make(map[int]bool)
	for _, m := range markerPattern.FindAllStringSubmatch(reply, -1) {
		marker, err := strconv.Atoi(m[1])
		if err != nil || seen[marker] {
			continue
		}
		s, ok := byMarker[marker]
		if !ok {
			continue
		}
		seen[marker] = true
		citations = append(citations, webrag.Citation{
			DocumentID: s.document.ID,
			Title:      s.document.Title,
			URL:        s.document.SourceURL,
			Score:      bestScore(s.passages),
		})
	}
	return citations
}

func bestScore(passages []*webrag.RetrievalResult) float32 {
	var best float32
	for _, p := range passages {
		if p.Score > best {
			best = p.Score
		}
	}
	return best
}
