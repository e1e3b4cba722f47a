package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/iudanet/listingsync/internal/fields"
	"github.com/iudanet/listingsync/pkg/api"
)

// remoteTokenEnv переменная окружения с токеном удаленного хранилища
const remoteTokenEnv = "LISTINGSYNC_AIRTABLE_TOKEN"

func (c *Cli) runTestConnection(ctx context.Context, args []string) error {
	fs := newFlagSet("test-connection")
	baseID := fs.String("base-id", "", "Remote base id")
	table := fs.String("table", "", "Remote table name")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *baseID == "" {
		return fmt.Errorf("%w: -base-id is required", ErrUsage)
	}

	token, err := c.secret(remoteTokenEnv, "Access token: ")
	if err != nil {
		return fmt.Errorf("failed to read access token: %w", err)
	}

	res, err := c.client.TestConnection(ctx, api.ConnectionTestRequest{
		AccessToken: token,
		BaseID:      *baseID,
		TableName:   *table,
	})
	if err != nil {
		return err
	}

	if !res.Success {
		c.io.Printf("✗ Connection failed (status %d): %s\n", res.StatusCode, res.Error)
		return nil
	}

	c.io.Println("✓ Connection OK")
	if len(res.Tables) > 0 {
		c.io.Printf("Tables: %s\n", strings.Join(res.Tables, ", "))
	}
	return nil
}

func (c *Cli) runConnection(ctx context.Context, _ []string) error {
	conn, err := c.client.Connection(ctx)
	if err != nil {
		return err
	}
	c.printConnection(conn)
	return nil
}

func (c *Cli) runSetConnection(ctx context.Context, args []string) error {
	fs := newFlagSet("set-connection")
	baseID := fs.String("base-id", "", "Remote base id")
	table := fs.String("table", "", "Remote table name")
	apiURL := fs.String("api-url", "", "Remote API URL")
	modifiedField := fs.String("modified-field", "", "Remote last-modified field name")
	batchSize := fs.Int("batch-size", 0, "Records per write request")
	delay := fs.Duration("rate-limit-delay", 0, "Minimum pause between remote requests")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *baseID == "" || *table == "" {
		return fmt.Errorf("%w: -base-id and -table are required", ErrUsage)
	}

	token, err := c.secret(remoteTokenEnv, "Access token: ")
	if err != nil {
		return fmt.Errorf("failed to read access token: %w", err)
	}

	conn, err := c.client.UpdateConnection(ctx, api.Connection{
		AccessToken:       token,
		BaseID:            *baseID,
		TableName:         *table,
		APIURL:            *apiURL,
		LastModifiedField: *modifiedField,
		WebhookSecret:     os.Getenv("LISTINGSYNC_WEBHOOK_SECRET"),
		BatchSize:         *batchSize,
		RateLimitDelay:    int64(*delay),
	})
	if err != nil {
		return err
	}

	c.io.Println("✓ Connection saved")
	c.printConnection(conn)
	return nil
}

func (c *Cli) printConnection(conn *api.Connection) {
	c.io.Printf("Base:           %s\n", conn.BaseID)
	c.io.Printf("Table:          %s\n", conn.TableName)
	c.io.Printf("Access token:   %s\n", conn.AccessToken)
	if conn.APIURL != "" {
		c.io.Printf("API URL:        %s\n", conn.APIURL)
	}
	if conn.LastModifiedField != "" {
		c.io.Printf("Modified field: %s\n", conn.LastModifiedField)
	}
	c.io.Printf("Batch size:     %d\n", conn.BatchSize)
	c.io.Printf("Request delay:  %s\n", time.Duration(conn.RateLimitDelay))
}

func (c *Cli) runSchema(ctx context.Context, _ []string) error {
	schema, err := c.client.Schema(ctx)
	if err != nil {
		return err
	}

	c.io.Printf("Table %s (%s), %d fields\n", schema.TableName, schema.TableID, schema.FieldCount)
	for _, f := range schema.Fields {
		c.io.Printf("  %-30s %s\n", f.Name, f.Type)
	}
	if len(schema.Unmapped) > 0 {
		c.io.Printf("Not in field mapping: %s\n", strings.Join(schema.Unmapped, ", "))
	}
	if len(schema.Missing) > 0 {
		c.io.Printf("⚠️  Missing in remote table: %s\n", strings.Join(schema.Missing, ", "))
	}
	return nil
}

func (c *Cli) runFields(ctx context.Context, _ []string) error {
	specs, err := c.client.FieldMapping(ctx)
	if err != nil {
		return err
	}

	for _, s := range specs {
		line := fmt.Sprintf("  %-24s %-17s", s.Name, s.Category)
		if s.MediaType != "" {
			line += " " + s.MediaType
		}
		c.io.Println(strings.TrimRight(line, " "))
	}
	return nil
}

func (c *Cli) runSetFields(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: usage: listingsync set-fields <schema.yaml>", ErrUsage)
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read field schema: %w", err)
	}
	specs, err := fields.ParseYAML(data)
	if err != nil {
		return err
	}

	req := api.FieldMappingRequest{Fields: make([]api.FieldSpec, 0, len(specs))}
	for _, s := range specs {
		req.Fields = append(req.Fields, api.FieldSpec{
			Name:      s.Name,
			Category:  string(s.Category),
			MediaType: s.MediaType,
			Label:     s.Label,
		})
	}

	resp, err := c.client.UpdateFieldMapping(ctx, req)
	if err != nil {
		return err
	}

	c.io.Printf("✓ Field mapping updated, %d fields accepted\n", resp.Accepted)
	return nil
}
