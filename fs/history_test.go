package fs_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fwojciec/webrag"
	"github.com/fwojciec/webrag/fs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func turn(q string) *webrag.ChatTurn {
	return &webrag.ChatTurn{
		Query:     q,
		Answer:    "answer to " + q,
		Citations: []webrag.Citation{{DocumentID: "doc-1", Title: "Doc", URL: "https://example.com"}},
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
}

func TestHistoryService_AppendAndRecent(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "history.json")
	s := fs.NewHistoryService(path)
	ctx := context.Background()

	require.NoError(t, s.AppendTurn(ctx, turn("first")))
	require.NoError(t, s.AppendTurn(ctx, turn("second")))
	require.NoError(t, s.AppendTurn(ctx, turn("third")))

	turns, err := s.RecentTurns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, "second", turns[0].Query, "turns come back oldest first")
	assert.Equal(t, "third", turns[1].Query)

	all, err := s.RecentTurns(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
	require.Len(t, all[0].Citations, 1)
	assert.Equal(t, "doc-1", all[0].Citations[0].DocumentID)
}

func TestHistoryService_SurvivesReopen(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "history.json")
	ctx := context.Background()

	require.NoError(t, fs.NewHistoryService(path).AppendTurn(ctx, turn("persisted")))

	turns, err := fs.NewHistoryService(path).RecentTurns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, "persisted", turns[0].Query)
}

func TestHistoryService_CapsRetainedTurns(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "history.json")
	s := fs.NewHistoryService(path)
	ctx := context.Background()

	for i := 0; i < fs.MaxHistoryTurns+10; i++ {
		require.NoError(t, s.AppendTurn(ctx, turn(fmt.Sprintf("q%d", i))))
	}

	turns, err := s.RecentTurns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, turns, fs.MaxHistoryTurns)
	assert.Equal(t, "q10", turns[0].Query, "oldest turns are discarded")
}

func TestHistoryService_ClearHistory(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "history.json")
	s := fs.NewHistoryService(path)
	ctx := context.Background()

	require.NoError(t, s.AppendTurn(ctx, turn("gone")))
	require.NoError(t, s.ClearHistory(ctx))

	turns, err := s.RecentTurns(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, turns)

	// Clearing an already-empty history is fine.
	require.NoError(t, s.ClearHistory(ctx))
}

func TestHistoryService_EmptyFileMissing(t *testing.T) {
	t.Parallel()

	s := fs.NewHistoryService(filepath.Join(t.TempDir(), "nope", "history.json"))
	turns, err := s.RecentTurns(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestHistoryService_NoTempFileLeftBehind(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "history.json")
	s := fs.NewHistoryService(path)

	require.NoError(t, s.AppendTurn(context.Background(), turn("q")))

	_, err := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}
