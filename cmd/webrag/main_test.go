package main_test

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fwojciec/webrag"
	main "github.com/fwojciec/webrag/cmd/webrag"
	"github.com/fwojciec/webrag/fs"
	"github.com/fwojciec/webrag/sqlite"
)

// newTestMain returns a Main wired to a temp database and history file.
func newTestMain(t *testing.T) *main.Main {
	t.Helper()
	dir := t.TempDir()
	m := main.NewMain()
	m.DBPath = filepath.Join(dir, "test.db")
	m.HistoryPath = filepath.Join(dir, "history.json")
	return m
}

// seedDocument inserts a document directly so commands have data to act on.
func seedDocument(t *testing.T, dbPath string, doc *webrag.Document) {
	t.Helper()
	db := sqlite.NewDB(dbPath)
	require.NoError(t, db.Open())
	defer db.Close()

	svc := sqlite.NewDocumentService(db)
	require.NoError(t, svc.CreateDocument(context.Background(), doc))
}

func TestList_EmptyDatabase(t *testing.T) {
	t.Parallel()

	m := newTestMain(t)
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	err := m.Run(context.Background(), []string{"list"}, stdout, stderr)
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "No documents found")
}

func TestList_ShowsSeededDocuments(t *testing.T) {
	t.Parallel()

	m := newTestMain(t)
	seedDocument(t, m.DBPath, &webrag.Document{
		SourceURL:    "https://example.com/guide",
		CanonicalURL: "https://example.com/guide",
		Title:        "Example Guide",
		Domain:       "example.com",
		Status:       webrag.DocumentStatusIndexed,
	})

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	err := m.Run(context.Background(), []string{"list"}, stdout, stderr)
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "Example Guide")
	assert.Contains(t, stdout.String(), "https://example.com/guide")
	assert.Contains(t, stdout.String(), "1 of 1 documents")
}

func TestList_FilterByStatus(t *testing.T) {
	t.Parallel()

	m := newTestMain(t)
	seedDocument(t, m.DBPath, &webrag.Document{
		SourceURL:    "https://example.com/good",
		CanonicalURL: "https://example.com/good",
		Title:        "Good Page",
		Domain:       "example.com",
		Status:       webrag.DocumentStatusIndexed,
	})
	seedDocument(t, m.DBPath, &webrag.Document{
		SourceURL:    "https://example.com/bad",
		CanonicalURL: "https://example.com/bad",
		Title:        "Bad Page",
		Domain:       "example.com",
		Status:       webrag.DocumentStatusFailed,
		Error:        "fetch failed",
	})

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	err := m.Run(context.Background(), []string{"list", "--status", "failed"}, stdout, stderr)
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "Bad Page")
	assert.NotContains(t, stdout.String(), "Good Page")
}

func TestList_RejectsUnknownStatus(t *testing.T) {
	t.Parallel()

	m := newTestMain(t)
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	err := m.Run(context.Background(), []string{"list", "--status", "bogus"}, stdout, stderr)
	require.Error(t, err)
	assert.Equal(t, webrag.EINVALID, webrag.ErrorCode(err))
}

func TestDelete_RequiresForce(t *testing.T) {
	t.Parallel()

	m := newTestMain(t)
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	err := m.Run(context.Background(), []string{"delete", "some-id"}, stdout, stderr)
	require.Error(t, err)
	assert.Contains(t, stderr.String(), "--force")
}

func TestDelete_NotFound(t *testing.T) {
	t.Parallel()

	m := newTestMain(t)
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	err := m.Run(context.Background(), []string{"delete", "missing-id", "--force"}, stdout, stderr)
	require.Error(t, err)
	assert.Equal(t, webrag.ENOTFOUND, webrag.ErrorCode(err))
}

func TestDelete_RemovesDocument(t *testing.T) {
	t.Parallel()

	m := newTestMain(t)
	doc := &webrag.Document{
		ID:           "doc-to-delete",
		SourceURL:    "https://example.com/old",
		CanonicalURL: "https://example.com/old",
		Title:        "Old Page",
		Domain:       "example.com",
		Status:       webrag.DocumentStatusIndexed,
	}
	seedDocument(t, m.DBPath, doc)

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	err := m.Run(context.Background(), []string{"delete", "doc-to-delete", "--force"}, stdout, stderr)
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "Deleted")

	stdout.Reset()
	err = m.Run(context.Background(), []string{"list"}, stdout, stderr)
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "No documents found")
}

func TestStats_EmptyDatabase(t *testing.T) {
	t.Parallel()

	m := newTestMain(t)
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	err := m.Run(context.Background(), []string{"stats"}, stdout, stderr)
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "Documents: 0")
	assert.Contains(t, stdout.String(), "Chunks:    0")
}

func TestHistory_EmptyShowsHint(t *testing.T) {
	t.Parallel()

	m := newTestMain(t)
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	err := m.Run(context.Background(), []string{"history"}, stdout, stderr)
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "No history yet")
}

func TestHistory_ShowsRecordedTurns(t *testing.T) {
	t.Parallel()

	m := newTestMain(t)
	seedDocument(t, m.DBPath, &webrag.Document{
		ID:           "doc-cited",
		SourceURL:    "https://example.com/cited",
		CanonicalURL: "https://example.com/cited",
		Title:        "Cited Page",
		Domain:       "example.com",
		Status:       webrag.DocumentStatusIndexed,
	})

	history := fs.NewHistoryService(m.HistoryPath)
	require.NoError(t, history.AppendTurn(context.Background(), &webrag.ChatTurn{
		Query:  "what is this?",
		Answer: "A test page.",
		Citations: []webrag.Citation{
			{DocumentID: "doc-cited", Title: "Cited Page", URL: "https://example.com/cited"},
			{DocumentID: "doc-gone", Title: "Gone Page", URL: "https://example.com/gone"},
		},
		CreatedAt: time.Now().UTC(),
	}))

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	err := m.Run(context.Background(), []string{"history"}, stdout, stderr)
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "what is this?")
	assert.Contains(t, stdout.String(), "Cited Page (https://example.com/cited)")
	assert.Contains(t, stdout.String(), "Gone Page (source removed)",
		"citations referencing deleted documents should degrade")
}

func TestHistory_Clear(t *testing.T) {
	t.Parallel()

	m := newTestMain(t)
	history := fs.NewHistoryService(m.HistoryPath)
	require.NoError(t, history.AppendTurn(context.Background(), &webrag.ChatTurn{
		Query:     "anything",
		Answer:    "something",
		CreatedAt: time.Now().UTC(),
	}))

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	err := m.Run(context.Background(), []string{"history", "--clear"}, stdout, stderr)
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "History cleared")

	turns, err := history.RecentTurns(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestAsk_RequiresAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	m := newTestMain(t)
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	err := m.Run(context.Background(), []string{"ask", "what is this?"}, stdout, stderr)
	require.Error(t, err)
	assert.Contains(t, stderr.String(), "OPENAI_API_KEY")
}

func TestAdd_RequiresAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	m := newTestMain(t)
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	err := m.Run(context.Background(), []string{"add", "https://example.com"}, stdout, stderr)
	require.Error(t, err)
	assert.Contains(t, stderr.String(), "OPENAI_API_KEY")
}
