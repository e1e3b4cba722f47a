package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/iudanet/listingsync/pkg/api"
)

func (c *Cli) runMediaSync(ctx context.Context, args []string) error {
	fs := newFlagSet("media-sync")
	types := fs.String("types", "", "Comma separated media types, e.g. image,document")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("%w: usage: listingsync media-sync [-types T,..] <id>...", ErrUsage)
	}

	req := api.MediaSyncRequest{RecordIDs: fs.Args()}
	if *types != "" {
		for _, t := range strings.Split(*types, ",") {
			if t = strings.TrimSpace(t); t != "" {
				req.MediaTypes = append(req.MediaTypes, t)
			}
		}
	}

	resp, err := c.client.SyncMedia(ctx, req)
	if err != nil {
		return err
	}

	ids := make([]string, 0, len(resp.Results))
	for id := range resp.Results {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		res := resp.Results[id]
		c.io.Printf("%s: synced=%d skipped=%d failed=%d\n", id, res.Synced, res.Skipped, res.Failed)
		for _, msg := range res.Errors {
			c.io.Printf("  ✗ %s\n", msg)
		}
	}
	return nil
}

func (c *Cli) runCleanupPlan(ctx context.Context, _ []string) error {
	plan, err := c.client.CleanupPlan(ctx)
	if err != nil {
		return err
	}

	if len(plan.Fingerprints) == 0 {
		c.io.Println("✓ No unreferenced media")
		return nil
	}

	c.io.Printf("%d unreferenced blobs, %d bytes\n", len(plan.Fingerprints), plan.Bytes)
	for _, fp := range plan.Fingerprints {
		c.io.Printf("  %s\n", fp)
	}
	c.io.Println()
	c.io.Printf("Run 'listingsync cleanup %s' to delete them.\n", plan.Token)
	return nil
}

func (c *Cli) runCleanup(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: usage: listingsync cleanup <plan-token>", ErrUsage)
	}

	plan, err := c.client.Cleanup(ctx, args[0])
	if err != nil {
		return err
	}

	c.io.Printf("✓ Deleted %d blobs, %d bytes\n", len(plan.Fingerprints), plan.Bytes)
	return nil
}
