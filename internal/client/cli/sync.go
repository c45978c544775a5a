package cli

import (
	"context"
	"fmt"

	"github.com/iudanet/offlinedesk/internal/client/sync"
)

func (c *Cli) runSync(ctx context.Context) error {
	c.io.Println("=== Synchronization ===")

	result, err := c.app.Engine.ProcessQueue(ctx)
	if err != nil {
		return fmt.Errorf("synchronization failed: %w", err)
	}
	if result.Pending {
		c.io.Println("Offline: the queue will be sent once the server is reachable.")
		return nil
	}
	if len(result.Details) == 0 {
		c.io.Println("✓ Nothing to synchronize")
		return nil
	}

	for _, d := range result.Details {
		switch d.Status {
		case sync.StatusSuccess:
			c.io.Printf("  ✓ #%d %s\n", d.ID, d.Type)
		case sync.StatusMaxRetries:
			c.io.Printf("  ✗ #%d %s: gave up after repeated attempts\n", d.ID, d.Type)
		default:
			c.io.Printf("  ⚠️ #%d %s: %s (will retry)\n", d.ID, d.Type, d.Error)
		}
	}

	c.io.Println()
	c.io.Printf("Sent: %d\n", result.Success)
	c.io.Printf("Failed: %d\n", result.Failed)
	return nil
}
