package mock

import (
	"context"

	"github.com/fwojciec/webrag"
)

var _ webrag.Asker = (*Asker)(nil)

// Asker is a mock implementation of webrag.Asker.
type Asker struct {
	AskFn func(ctx context.Context, query string, history []*webrag.ChatTurn) (*webrag.Answer, error)
}

func (a *Asker) Ask(ctx context.Context, query string, history []*webrag.ChatTurn) (*webrag.Answer, error) {
	return a.AskFn(ctx, query, history)
}

var _ webrag.HistoryService = (*HistoryService)(nil)

// HistoryService is a mock implementation of webrag.HistoryService.
type HistoryService struct {
	AppendTurnFn   func(ctx context.Context, turn *webrag.ChatTurn) error
	RecentTurnsFn  func(ctx context.Context, n int) ([]*webrag.ChatTurn, error)
	ClearHistoryFn func(ctx context.Context) error
}

func (s *HistoryService) AppendTurn(ctx context.Context, turn *webrag.ChatTurn) error {
	return s.AppendTurnFn(ctx, turn)
}

func (s *HistoryService) RecentTurns(ctx context.Context, n int) ([]*webrag.ChatTurn, error) {
	return s.RecentTurnsFn(ctx, n)
}

func (s *HistoryService) ClearHistory(ctx context.Context) error {
	return s.ClearHistoryFn(ctx)
}
