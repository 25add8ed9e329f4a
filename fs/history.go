// Package fs provides file-based storage for chat history.
package fs

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/fwojciec/webrag"
)

// MaxHistoryTurns caps how many turns the history file retains; appending
// beyond the cap discards the oldest turns.
const MaxHistoryTurns = 100

var _ webrag.HistoryService = (*HistoryService)(nil)

// HistoryService persists chat turns as a JSON file. Writes go to a temp
// file first and are renamed into place, so a crash mid-write never leaves a
// truncated history.
type HistoryService struct {
	mu   sync.Mutex
	path string
}

// NewHistoryService creates a history store at path. The parent directory is
// created on first write.
func NewHistoryService(path string) *HistoryService {
	return &HistoryService{path: path}
}

// AppendTurn records a completed turn, discarding the oldest turns beyond
// the retention cap.
func (s *HistoryService) AppendTurn(ctx context.Context, turn *webrag.ChatTurn) error {
	if turn == nil {
		return webrag.Errorf(webrag.EINVALID, "turn required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	turns, err := s.load()
	if err != nil {
		return err
	}

	turns = append(turns, turn)
	if len(turns) > MaxHistoryTurns {
		turns = turns[len(turns)-MaxHistoryTurns:]
	}
	return s.save(turns)
}

// RecentTurns returns up to n most recent turns, oldest first.
// n <= 0 returns all retained turns.
func (s *HistoryService) RecentTurns(ctx context.Context, n int) ([]*webrag.ChatTurn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	turns, err := s.load()
	if err != nil {
		return nil, err
	}
	if n > 0 && len(turns) > n {
		turns = turns[len(turns)-n:]
	}
	return turns, nil
}

// ClearHistory removes all retained turns.
func (s *HistoryService) ClearHistory(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if err != nil && !os.IsNotExist(err) {
		return webrag.Errorf(webrag.EINTERNAL, "clear history: %s", err)
	}
	return nil
}

func (s *HistoryService) load() ([]*webrag.ChatTurn, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, webrag.Errorf(webrag.EINTERNAL, "read history: %s", err)
	}

	var turns []*webrag.ChatTurn
	if err := json.Unmarshal(data, &turns); err != nil {
		return nil, webrag.Errorf(webrag.EINTERNAL, "history file corrupt: %s", err)
	}
	return turns, nil
}

func (s *HistoryService) save(turns []*webrag.ChatTurn) error {
	data, err := json.MarshalIndent(turns, "", "  ")
	if err != nil {
		return webrag.Errorf(webrag.EINTERNAL, "encode history: %s", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return webrag.Errorf(webrag.EINTERNAL, "create history dir: %s", err)
	}

	// Write to a temp file and atomically rename into place.
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return webrag.Errorf(webrag.EINTERNAL, "write history: %s", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return webrag.Errorf(webrag.EINTERNAL, "write history: %s", err)
	}
	return nil
}
