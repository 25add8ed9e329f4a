package main

import (
	"fmt"

	"github.com/fwojciec/webrag"
)

// Run executes the stats command.
func (c *StatsCmd) Run(deps *Dependencies) error {
	usage, err := deps.Documents.StorageUsage(deps.Ctx)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", webrag.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "Documents: %d\n", usage.Documents)
	fmt.Fprintf(deps.Stdout, "Chunks:    %d\n", usage.Chunks)
	fmt.Fprintf(deps.Stdout, "Domains:   %d\n", usage.Domains)
	fmt.Fprintf(deps.Stdout, "Disk:      %s\n", formatBytes(usage.Bytes))
	return nil
}

// formatBytes renders a byte count in a human-readable unit.
func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}
