package webrag

import (
	"context"
	"time"
)

// RetrievalResult is one retrieved passage with its provenance, produced per
// query and never persisted.
type RetrievalResult struct {
	Chunk    *Chunk    `json:"chunk"`
	Document *Document `json:"document"`
	Score    float32   `json:"score"`
}

// Citation references a document whose content was actually used to ground
// an answer. The reference is weak: the document may be deleted later, in
// which case resolution reports the source as removed instead of failing.
type Citation struct {
	DocumentID string  `json:"documentId"`
	Title      string  `json:"title"`
	URL        string  `json:"url"`
	Score      float32 `json:"score"`
}

// Answer is a grounded reply to a question, with the citations the model
// referenced. Passages that were in the prompt but went unreferenced are not
// cited.
type Answer struct {
	Text      string     `json:"text"`
	Citations []Citation `json:"citations"`
}

// ChatTurn records one question and its answer.
type ChatTurn struct {
	Query     string     `json:"query"`
	Answer    string     `json:"answer"`
	Citations []Citation `json:"citations"`
	CreatedAt time.Time  `json:"createdAt"`
}

// Asker answers natural language questions against the indexed content.
type Asker interface {
	// Ask retrieves relevant passages for the query, invokes the chat model
	// with the passages and recent history, and returns the cited answer.
	//
	// Returns ERETRIEVAL when no indexed content exists, and EANSWER when
	// the chat model fails terminally.
	Ask(ctx context.Context, query string, history []*ChatTurn) (*Answer, error)
}

// HistoryService persists chat turns across sessions.
type HistoryService interface {
	// AppendTurn records a completed turn. Oldest turns are discarded once
	// the history cap is reached.
	AppendTurn(ctx context.Context, turn *ChatTurn) error

	// RecentTurns returns up to n most recent turns, oldest first.
	// n <= 0 returns all retained turns.
	RecentTurns(ctx context.Context, n int) ([]*ChatTurn, error)

	// ClearHistory removes all retained turns.
	ClearHistory(ctx context.Context) error
}
