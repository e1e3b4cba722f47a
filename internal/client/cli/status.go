package cli

import (
	"context"
	"time"

	"github.com/iudanet/listingsync/pkg/api"
)

const timeLayout = time.RFC3339

func (c *Cli) runHealth(ctx context.Context, _ []string) error {
	resp, err := c.client.Health(ctx)
	if err != nil {
		return err
	}
	c.io.Printf("Server: %s (version %s)\n", resp.Status, resp.Version)
	return nil
}

func (c *Cli) runStatus(ctx context.Context, _ []string) error {
	status, err := c.client.Status(ctx)
	if err != nil {
		return err
	}

	c.io.Println("=== Sync Status ===")
	c.io.Println()
	if status.LastSyncAt != nil {
		c.io.Printf("Last sync: %s\n", status.LastSyncAt.Format(timeLayout))
	} else {
		c.io.Println("Last sync: never")
	}
	if status.InProgress && status.CurrentJob != nil {
		c.io.Printf("Running: %s %s job %s since %s\n",
			status.CurrentJob.Kind, status.CurrentJob.Direction, status.CurrentJob.ID,
			status.CurrentJob.StartedAt.Format(timeLayout))
	}
	if status.LastJob != nil {
		c.io.Printf("Last job: ")
		c.printJobLine(*status.LastJob)
	}
	c.io.Printf("Pending local changes: %d\n", status.PendingChanges)
	c.io.Printf("Errors in last 24h: %d\n", status.RecentErrors)
	c.io.Printf("Unprocessed webhooks: %d\n", status.UnprocessedWebhook)
	return nil
}

func (c *Cli) runJobs(ctx context.Context, args []string) error {
	fs := newFlagSet("jobs")
	limit := fs.Int("limit", 0, "Number of jobs to show")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	jobs, err := c.client.Jobs(ctx, *limit)
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		c.io.Println("No sync jobs yet.")
		return nil
	}
	for _, job := range jobs {
		c.printJobLine(job)
	}
	return nil
}

func (c *Cli) runErrors(ctx context.Context, args []string) error {
	fs := newFlagSet("errors")
	limit := fs.Int("limit", 0, "Number of errors to show")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	errs, err := c.client.Errors(ctx, *limit)
	if err != nil {
		return err
	}
	if len(errs) == 0 {
		c.io.Println("✓ No sync errors")
		return nil
	}
	for _, e := range errs {
		record := e.RecordID
		if record == "" {
			record = "-"
		}
		c.io.Printf("%s  job=%s  record=%s  %s\n", e.CreatedAt.Format(timeLayout), e.JobID, record, e.Message)
	}
	return nil
}

func (c *Cli) printJobLine(job api.SyncJob) {
	c.io.Printf("%s  %-5s %-15s %-9s processed=%d created=%d updated=%d skipped=%d errors=%d",
		job.ID, job.Kind, job.Direction, job.Status,
		job.Stats.TotalProcessed, job.Stats.Created, job.Stats.Updated, job.Stats.Skipped, job.Stats.Errors)
	if job.Degraded {
		c.io.Printf(" degraded")
	}
	if job.ErrorMessage != "" {
		c.io.Printf(" (%s: %s)", job.ErrorKind, job.ErrorMessage)
	}
	c.io.Println()
}
