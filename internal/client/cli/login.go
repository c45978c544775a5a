package cli

import (
	"context"
	"fmt"
	"os"
	"time"
)

var lookupEnv = os.Getenv

func (c *Cli) runLogin(ctx context.Context) error {
	c.io.Println("=== Login ===")
	c.io.Println()

	username, err := c.io.ReadInput("Username: ")
	if err != nil {
		return fmt.Errorf("failed to read username: %w", err)
	}

	password, err := c.getPassword("Password: ")
	if err != nil {
		return err
	}

	c.io.Println("Authenticating...")

	authData, err := c.app.Auth.Login(ctx, username, password)
	if err != nil {
		return err
	}

	c.io.Println()
	c.io.Println("✓ Login successful!")
	c.io.Printf("Username: %s\n", authData.Username)
	if authData.ExpiresAt > 0 {
		c.io.Printf("Token expires: %s\n", time.Unix(authData.ExpiresAt, 0).Format(time.RFC3339))
	}

	// запросы, накопленные без токена, можно отправить сразу
	pending, err := c.app.Queue.Count(ctx)
	if err == nil && pending > 0 {
		c.io.Printf("%d queued change(s) are waiting. Run 'offlinedesk sync' to send them.\n", pending)
	}
	return nil
}
