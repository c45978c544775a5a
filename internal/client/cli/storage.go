package cli

import (
	"context"
	"fmt"
)

func (c *Cli) runClear(ctx context.Context, args []string) error {
	if len(args) == 0 {
		if err := c.app.Store.ClearAll(ctx); err != nil {
			return fmt.Errorf("failed to clear local data: %w", err)
		}
		c.io.Println("✓ All cached tables and the offline queue have been cleared")
		return nil
	}

	table := args[0]
	if err := c.app.Store.Clear(ctx, table); err != nil {
		return fmt.Errorf("failed to clear %s: %w", table, err)
	}
	c.io.Printf("✓ Table %s cleared\n", table)
	return nil
}

func (c *Cli) runUsage(ctx context.Context) error {
	usage, err := c.app.Store.EstimateUsage(ctx)
	if err != nil {
		return fmt.Errorf("failed to estimate usage: %w", err)
	}
	if usage == nil {
		c.io.Println("Storage usage is not available for this backend.")
		return nil
	}

	c.io.Printf("Used:  %s\n", formatBytes(usage.Usage))
	c.io.Printf("Quota: %s\n", formatBytes(usage.Quota))
	c.io.Printf("Usage: %.2f%%\n", usage.UsagePercentage)
	return nil
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
