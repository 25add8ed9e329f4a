package main

import (
	"fmt"
	"strings"

	"github.com/fwojciec/webrag"
)

// Run executes the reindex command.
func (c *ReindexCmd) Run(deps *Dependencies) error {
	fmt.Fprintf(deps.Stdout, "Re-embedding under %q...\n", deps.Indexer.Embedder.Model())

	result, err := deps.Indexer.Reindex(deps.Ctx)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", webrag.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "Reindexed %d documents (%d already current, %d failed)\n",
		result.Reindexed, result.Skipped, result.Failed)
	if len(result.PurgedModels) > 0 {
		fmt.Fprintf(deps.Stdout, "Purged stale vectors: %s\n", strings.Join(result.PurgedModels, ", "))
	}
	return nil
}
