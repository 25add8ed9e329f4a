package main

import (
	"fmt"

	"github.com/fwojciec/webrag"
)

// Run executes the list command.
func (c *ListCmd) Run(deps *Dependencies) error {
	filter := webrag.DocumentFilter{
		Offset: c.Offset,
		Limit:  c.Limit,
	}
	if c.Domain != "" {
		filter.Domain = &c.Domain
	}
	if c.Query != "" {
		filter.Query = &c.Query
	}
	if c.Status != "" {
		status := webrag.DocumentStatus(c.Status)
		if !status.Valid() {
			fmt.Fprintf(deps.Stderr, "error: unknown status %q\n", c.Status)
			return webrag.Errorf(webrag.EINVALID, "unknown status %q", c.Status)
		}
		filter.Status = &status
	}

	docs, total, err := deps.Documents.FindDocuments(deps.Ctx, filter)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", webrag.ErrorMessage(err))
		return err
	}

	if total == 0 {
		fmt.Fprintln(deps.Stdout, "No documents found. Use 'webrag add' to index pages.")
		return nil
	}

	for _, doc := range docs {
		title := doc.Title
		if title == "" {
			title = doc.CanonicalURL
		}
		fmt.Fprintf(deps.Stdout, "%s  %-8s  %s\n     %s\n", doc.ID, doc.Status, title, doc.CanonicalURL)
	}
	fmt.Fprintf(deps.Stdout, "\n%d of %d documents\n", len(docs), total)

	return nil
}
