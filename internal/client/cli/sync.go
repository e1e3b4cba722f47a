package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/iudanet/listingsync/pkg/api"
)

func (c *Cli) runFullSync(ctx context.Context, args []string) error {
	fs := newFlagSet("full-sync")
	direction := fs.String("direction", "both", "both, local_to_remote or remote_to_local")
	force := fs.Bool("force", false, "Ignore stored cursors and compare every record")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	c.io.Println("Running full sync...")
	job, err := c.client.FullSync(ctx, api.FullSyncRequest{Direction: *direction, ForceFull: *force})
	if err != nil {
		return err
	}

	c.printJobReport(job)
	return nil
}

func (c *Cli) runDeltaSync(ctx context.Context, args []string) error {
	fs := newFlagSet("delta-sync")
	since := fs.String("since", "", "Only changes after this RFC3339 time")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	req := api.DeltaSyncRequest{}
	if *since != "" {
		t, err := time.Parse(time.RFC3339, *since)
		if err != nil {
			return fmt.Errorf("%w: invalid -since: %w", ErrUsage, err)
		}
		req.Since = &t
	}

	c.io.Println("Running delta sync...")
	job, err := c.client.DeltaSync(ctx, req)
	if err != nil {
		return err
	}

	c.printJobReport(job)
	return nil
}

func (c *Cli) runSyncRecord(ctx context.Context, args []string) error {
	fs := newFlagSet("sync-record")
	direction := fs.String("direction", "both", "both, local_to_remote or remote_to_local")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: usage: listingsync sync-record [-direction D] <id>", ErrUsage)
	}

	res, err := c.client.SyncRecord(ctx, api.RecordSyncRequest{RecordID: fs.Arg(0), Direction: *direction})
	if err != nil {
		return err
	}

	c.io.Printf("Record %s: %s\n", res.RecordID, res.Outcome)
	if res.RemoteID != "" {
		c.io.Printf("Remote ID: %s\n", res.RemoteID)
	}
	if len(res.ChangedFields) > 0 {
		c.io.Printf("Changed fields: %s\n", strings.Join(res.ChangedFields, ", "))
	}
	if len(res.Conflicts) > 0 {
		c.io.Printf("Conflicts resolved: %s\n", strings.Join(res.Conflicts, ", "))
	}
	if res.Message != "" {
		c.io.Printf("Message: %s\n", res.Message)
	}
	return nil
}

func (c *Cli) printJobReport(job *api.SyncJob) {
	c.io.Println()
	c.io.Printf("Job %s: %s\n", job.ID, job.Status)
	c.io.Printf("Processed: %d\n", job.Stats.TotalProcessed)
	c.io.Printf("Created:   %d\n", job.Stats.Created)
	c.io.Printf("Updated:   %d\n", job.Stats.Updated)
	c.io.Printf("Skipped:   %d\n", job.Stats.Skipped)
	c.io.Printf("Errors:    %d\n", job.Stats.Errors)
	c.io.Printf("Media:     %d\n", job.Stats.MediaSynced)
	if job.Degraded {
		c.io.Println("⚠️  Remote rejected the modified-since filter, the whole table was scanned")
	}
	if job.ErrorMessage != "" {
		c.io.Printf("Failure (%s): %s\n", job.ErrorKind, job.ErrorMessage)
	}
	if job.Stats.Errors > 0 {
		c.io.Println("Run 'listingsync errors' for details.")
	}
}
