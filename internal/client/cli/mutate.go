package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/iudanet/offlinedesk/internal/client/data"
	"github.com/iudanet/offlinedesk/internal/models"
)

// headerFlag собирает повторяющиеся -H "Name: value"
type headerFlag map[string]string

func (h headerFlag) String() string {
	return fmt.Sprint(map[string]string(h))
}

func (h headerFlag) Set(v string) error {
	name, value, ok := strings.Cut(v, ":")
	if !ok || strings.TrimSpace(name) == "" {
		return fmt.Errorf("header must look like 'Name: value'")
	}
	h[strings.TrimSpace(name)] = strings.TrimSpace(value)
	return nil
}

func (c *Cli) runMutate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("mutate", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	headers := headerFlag{}
	fs.Var(headers, "H", "extra request header, repeatable")
	table := fs.String("table", "", "local table to reconcile")
	id := fs.String("id", "", "target record id (default: last url segment)")
	noReconcile := fs.Bool("no-reconcile", false, "do not update the cache after a direct write")
	noOptimistic := fs.Bool("no-optimistic", false, "do not update the cache when the write is queued")
	maxRetries := fs.Int("max-retries", 0, "retry budget for a queued write")
	if err := fs.Parse(args); err != nil {
		return usageError("%v", err)
	}

	if fs.NArg() < 2 || fs.NArg() > 3 {
		return usageError("mutate expects METHOD URL [JSON]")
	}
	method := strings.ToUpper(fs.Arg(0))
	if !models.IsWriteMethod(method) {
		return usageError("method must be POST, PUT, PATCH or DELETE")
	}
	url := fs.Arg(1)
	if err := checkURL(url); err != nil {
		return usageError("%v", err)
	}

	var body models.Record
	if fs.NArg() == 3 {
		rec, err := models.DecodeRecord([]byte(fs.Arg(2)))
		if err != nil {
			return usageError("body must be a JSON object: %v", err)
		}
		body = rec
	}

	req := data.MutationRequest{
		Method:     method,
		URL:        url,
		Body:       body,
		Table:      *table,
		ID:         *id,
		Reconcile:  !*noReconcile,
		Optimistic: !*noOptimistic,
		MaxRetries: *maxRetries,
	}
	if len(headers) > 0 {
		req.Headers = headers
	}

	res, err := c.app.Data.Mutate(ctx, req)
	if err != nil {
		return err
	}

	switch {
	case !res.Success:
		return fmt.Errorf("server rejected the change: %s", res.Error)
	case res.Queued:
		c.io.Printf("⏳ Queued as #%d: will sync when online\n", res.QueueID)
	default:
		c.io.Println("✓ Applied on server")
	}

	if res.Data != nil {
		c.io.Printf("Record id: %s\n", res.Data.ID())
	}
	return nil
}
