package cli

import (
	"context"
	"fmt"
)

func (c *Cli) runLogout(ctx context.Context) error {
	c.io.Println("=== Logout ===")

	pending, err := c.app.Queue.Count(ctx)
	if err == nil && pending > 0 {
		c.io.Printf("⚠️  Discarding %d queued change(s) that were never sent.\n", pending)
	}

	if err := c.app.Auth.Logout(ctx); err != nil {
		return fmt.Errorf("logout failed: %w", err)
	}

	c.io.Println("✓ Logout successful!")
	c.io.Println("The session, cached data and offline queue have been deleted.")
	return nil
}
