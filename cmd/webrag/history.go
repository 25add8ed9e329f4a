package main

import (
	"fmt"

	"github.com/fwojciec/webrag"
)

// Run executes the history command.
func (c *HistoryCmd) Run(deps *Dependencies) error {
	if c.Clear {
		if err := deps.History.ClearHistory(deps.Ctx); err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", webrag.ErrorMessage(err))
			return err
		}
		fmt.Fprintln(deps.Stdout, "History cleared")
		return nil
	}

	turns, err := deps.History.RecentTurns(deps.Ctx, c.Limit)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", webrag.ErrorMessage(err))
		return err
	}

	if len(turns) == 0 {
		fmt.Fprintln(deps.Stdout, "No history yet. Use 'webrag ask' to start a conversation.")
		return nil
	}

	for _, turn := range turns {
		fmt.Fprintf(deps.Stdout, "%s  Q: %s\n", turn.CreatedAt.Format("2006-01-02 15:04"), turn.Query)
		fmt.Fprintf(deps.Stdout, "   A: %s\n", turn.Answer)
		for _, citation := range turn.Citations {
			// Citations reference documents weakly; a cited source may have
			// been deleted since the turn was recorded.
			if _, err := deps.Documents.FindDocumentByID(deps.Ctx, citation.DocumentID); webrag.ErrorCode(err) == webrag.ENOTFOUND {
				fmt.Fprintf(deps.Stdout, "      - %s (source removed)\n", citation.Title)
				continue
			}
			fmt.Fprintf(deps.Stdout, "      - %s (%s)\n", citation.Title, citation.URL)
		}
	}
	return nil
}
