package cli

import (
	"context"
	"errors"
)

func (c *Cli) runWatch(ctx context.Context) error {
	c.io.Printf("Watching offline queue every %s (Ctrl+C to stop)\n", c.app.Config().SyncInterval)

	runner := c.app.StartRunner(ctx)
	err := runner.Run(ctx)
	if errors.Is(err, context.Canceled) {
		c.io.Println("Stopped.")
		return nil
	}
	return err
}
