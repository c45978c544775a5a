package cli

import (
	"context"
)

// Run executes one command.
func (c *Cli) Run(ctx context.Context, command string, args []string) error {
	if !c.app.Durable() {
		c.io.Println("⚠️  Local database unavailable: working in memory, nothing will survive exit.")
	}

	switch command {
	case "register":
		return c.runRegister(ctx, args)
	case "login":
		return c.runLogin(ctx)
	case "logout":
		return c.runLogout(ctx)
	case "status":
		return c.runStatus(ctx)
	case "fetch":
		return c.runFetch(ctx, args)
	case "mutate":
		return c.runMutate(ctx, args)
	case "queue":
		return c.runQueue(ctx, args)
	case "sync":
		return c.runSync(ctx)
	case "watch":
		return c.runWatch(ctx)
	case "clear":
		return c.runClear(ctx, args)
	case "usage":
		return c.runUsage(ctx)
	default:
		return usageError("unknown command: %s", command)
	}
}
