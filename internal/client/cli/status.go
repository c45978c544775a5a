package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/offlinedesk/internal/client/storage"
)

func (c *Cli) runStatus(ctx context.Context) error {
	c.io.Println("=== Status ===")
	c.io.Println()

	c.io.Printf("Server: %s\n", c.app.API.BaseURL())
	if c.app.Conn.Online(ctx) {
		c.io.Println("Connectivity: online")
	} else {
		c.io.Println("Connectivity: offline")
	}

	authData, err := c.app.Auth.Current(ctx)
	switch {
	case errors.Is(err, storage.ErrAuthNotFound):
		c.io.Println("Session: not authenticated (run 'offlinedesk login')")
	case err != nil:
		return fmt.Errorf("failed to get auth data: %w", err)
	default:
		c.io.Printf("Session: %s\n", authData.Username)
		if authData.ExpiresAt > 0 {
			expiresAt := time.Unix(authData.ExpiresAt, 0)
			if remaining := time.Until(expiresAt); remaining > 0 {
				c.io.Printf("Token expires: %s (in %s)\n", expiresAt.Format(time.RFC3339), remaining.Round(time.Second))
			} else {
				c.io.Println("⚠️  Token has expired. Please login again.")
			}
		}
	}

	c.io.Println()

	pending, err := c.app.Queue.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count queue: %w", err)
	}
	failed, err := c.app.Queue.Failed(ctx)
	if err != nil {
		return fmt.Errorf("failed to list failed items: %w", err)
	}

	if pending > 0 {
		c.io.Printf("⚠️  Pending sync: %d change(s) will sync when online\n", pending)
	} else {
		c.io.Println("✓ Offline queue is empty")
	}
	if len(failed) > 0 {
		c.io.Printf("✗ Failed: %d change(s) gave up after repeated attempts (see 'offlinedesk queue failed')\n", len(failed))
	}

	last, err := c.app.Store.GetLastSyncTimestamp(ctx)
	if err != nil {
		return fmt.Errorf("failed to read last sync time: %w", err)
	}
	if last > 0 {
		c.io.Printf("Last sync: %s\n", time.UnixMilli(last).Format(time.RFC3339))
	} else {
		c.io.Println("Last sync: never")
	}
	return nil
}
