package cli

import (
	"context"
	"encoding/json"
	"flag"
	"io"

	"github.com/iudanet/offlinedesk/internal/client/data"
)

func (c *Cli) runFetch(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("fetch", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	table := fs.String("table", "", "local table to cache into")
	if err := fs.Parse(args); err != nil {
		return usageError("%v", err)
	}
	if fs.NArg() != 1 {
		return usageError("fetch expects exactly one url")
	}
	url := fs.Arg(0)
	if err := checkURL(url); err != nil {
		return usageError("%v", err)
	}

	res, err := c.app.Data.Fetch(ctx, data.FetchRequest{URL: url, Table: *table})
	if err != nil {
		return err
	}

	switch res.Source {
	case data.SourceNetwork:
		c.io.Printf("%d record(s) from server\n", len(res.Records))
	case data.SourceCache:
		c.io.Printf("%d record(s) from local cache\n", len(res.Records))
		if res.Err != nil {
			c.io.Printf("⚠️  Server unreachable: %v\n", res.Err)
		}
	default:
		c.io.Println("Offline and nothing cached for this resource.")
		return nil
	}

	enc := json.NewEncoder(c.io)
	for _, rec := range res.Records {
		if err := enc.Encode(rec); err != nil {
			return err
		}
	}
	return nil
}
