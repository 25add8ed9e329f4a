package main

import (
	"fmt"

	"github.com/fwojciec/webrag"
)

// Run executes the ask command.
func (c *AskCmd) Run(deps *Dependencies) error {
	// History reads are best-effort; a missing or corrupt file should not
	// block the question.
	history, _ := deps.History.RecentTurns(deps.Ctx, 0)

	answer, err := deps.Asker.Ask(deps.Ctx, c.Question, history)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", webrag.ErrorMessage(err))
		return err
	}

	fmt.Fprintln(deps.Stdout, answer.Text)

	if len(answer.Citations) > 0 {
		fmt.Fprintln(deps.Stdout, "\nSources:")
		for i, citation := range answer.Citations {
			fmt.Fprintf(deps.Stdout, "  [%d] %s (%s)\n", i+1, citation.Title, citation.URL)
		}
	}

	return nil
}
