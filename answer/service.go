package answer

import (
	"context"
	"time"

	"github.com/fwojciec/webrag"
)

var _ webrag.Asker = (*Service)(nil)

// Service wires retrieval and answering into the Asker entry point.
type Service struct {
	Retriever *Retriever
	Answerer  *Answerer

	// History, when set, records each completed turn.
	History webrag.HistoryService
}

// Ask retrieves passages for the query, produces a cited answer, and records
// the turn. A history write failure does not fail the answer.
func (s *Service) Ask(ctx context.Context, query string, history []*webrag.ChatTurn) (*webrag.Answer, error) {
	retrieved, err := s.Retriever.Retrieve(ctx, query)
	if err != nil {
		return nil, err
	}

	ans, err := s.Answerer.Answer(ctx, query, history, retrieved)
	if err != nil {
		return nil, err
	}

	if s.History != nil {
		_ = s.History.AppendTurn(ctx, &webrag.ChatTurn{
			Query:     query,
			Answer:    ans.Text,
			Citations: ans.Citations,
			CreatedAt: time.Now().UTC(),
		})
	}
	return ans, nil
}
