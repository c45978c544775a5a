package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/iudanet/offlinedesk/internal/models"
)

func (c *Cli) runQueue(ctx context.Context, args []string) error {
	sub := "list"
	if len(args) > 0 {
		sub = args[0]
	}

	switch sub {
	case "list":
		items, err := c.app.Queue.List(ctx)
		if err != nil {
			return err
		}
		c.printQueue(items, "Offline queue is empty.")
	case "failed":
		items, err := c.app.Queue.Failed(ctx)
		if err != nil {
			return err
		}
		c.printQueue(items, "No failed changes.")
	case "clear-synced":
		n, err := c.app.Queue.ClearSynced(ctx)
		if err != nil {
			return err
		}
		c.io.Printf("Removed %d finished item(s)\n", n)
	case "clear":
		n, err := c.app.Queue.ClearAll(ctx)
		if err != nil {
			return err
		}
		c.io.Printf("Removed %d item(s)\n", n)
	default:
		return usageError("unknown queue command: %s", sub)
	}
	return nil
}

func (c *Cli) printQueue(items []*models.QueueItem, empty string) {
	if len(items) == 0 {
		c.io.Println(empty)
		return
	}

	c.io.Printf("%-6s %-20s %-7s %-30s %-8s %-10s %s\n", "ID", "TYPE", "METHOD", "URL", "RETRIES", "STATE", "QUEUED AT")
	for _, item := range items {
		c.io.Printf("%-6d %-20s %-7s %-30s %-8s %-10s %s\n",
			item.ID,
			item.Type,
			item.Method,
			item.URL,
			fmt.Sprintf("%d/%d", item.Retries, item.MaxRetries),
			itemState(item),
			item.EnqueuedAt().Format(time.DateTime))
		if item.LastError != "" {
			c.io.Printf("       last error: %s\n", item.LastError)
		}
	}
}

func itemState(item *models.QueueItem) string {
	switch {
	case item.Pending():
		return "pending"
	case item.Failed():
		return "failed"
	default:
		return "synced"
	}
}
