// Package cli implements the commands of the listingsync operator client.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/iudanet/listingsync/internal/client/api"
	"github.com/iudanet/listingsync/internal/client/iocli"
	"github.com/iudanet/listingsync/internal/client/storage"
)

// ErrUsage is returned for a malformed command line.
var ErrUsage = errors.New("invalid usage")

// Cli runs one operator command against the server.
type Cli struct {
	client   *api.Client
	sessions storage.SessionStorage
	io       iocli.IO
	server   string
	// token из -token или LISTINGSYNC_TOKEN, важнее сохраненной сессии
	token string
	now   func() time.Time
}

// New creates the command runner.
func New(client *api.Client, sessions storage.SessionStorage, io iocli.IO, server, token string) *Cli {
	return &Cli{
		client:   client,
		sessions: sessions,
		io:       io,
		server:   server,
		token:    token,
		now:      time.Now,
	}
}

type command struct {
	run func(ctx context.Context, args []string) error
	// public команды не требуют токена
	public bool
}

func (c *Cli) commands() map[string]command {
	return map[string]command{
		"login":           {run: c.runLogin, public: true},
		"logout":          {run: c.runLogout, public: true},
		"health":          {run: c.runHealth, public: true},
		"status":          {run: c.runStatus},
		"jobs":            {run: c.runJobs},
		"errors":          {run: c.runErrors},
		"full-sync":       {run: c.runFullSync},
		"delta-sync":      {run: c.runDeltaSync},
		"sync-record":     {run: c.runSyncRecord},
		"test-connection": {run: c.runTestConnection},
		"connection":      {run: c.runConnection},
		"set-connection":  {run: c.runSetConnection},
		"schema":          {run: c.runSchema},
		"fields":          {run: c.runFields},
		"set-fields":      {run: c.runSetFields},
		"media-sync":      {run: c.runMediaSync},
		"cleanup-plan":    {run: c.runCleanupPlan},
		"cleanup":         {run: c.runCleanup},
		"listings":        {run: c.runListings},
		"listing":         {run: c.runListing},
	}
}

// Run executes command with its arguments.
func (c *Cli) Run(ctx context.Context, name string, args []string) error {
	cmd, ok := c.commands()[name]
	if !ok {
		return fmt.Errorf("%w: unknown command %q", ErrUsage, name)
	}

	if !cmd.public {
		if err := c.authenticate(ctx); err != nil {
			return err
		}
	}

	return cmd.run(ctx, args)
}

// authenticate выставляет токен клиенту: явный токен, иначе сохраненная сессия
func (c *Cli) authenticate(ctx context.Context) error {
	if c.token != "" {
		c.client.SetToken(c.token)
		return nil
	}

	session, err := c.sessions.GetSession(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			return fmt.Errorf("not authenticated. Please run 'listingsync login' first")
		}
		return fmt.Errorf("failed to get session: %w", err)
	}
	if session.Expired(c.now()) {
		return fmt.Errorf("session of %s has expired. Please run 'listingsync login' again", session.Operator)
	}
	if session.Server != "" && session.Server != c.server {
		return fmt.Errorf("session was issued by %s, not %s. Please run 'listingsync login' again", session.Server, c.server)
	}

	c.client.SetToken(session.AccessToken)
	return nil
}

// newFlagSet создает набор флагов подкоманды, ошибки разбора возвращаются как ErrUsage
func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrUsage, fs.Name(), err)
	}
	return nil
}

// PrintUsage печатает справку по командам
func PrintUsage(out iocli.IO) {
	out.Println("Listingsync Client")
	out.Println()
	out.Println("Usage:")
	out.Println("  listingsync [OPTIONS] COMMAND [ARGS]")
	out.Println()
	out.Println("Options:")
	out.Println("  --version          Show version information")
	out.Println("  --server URL       Server URL (default: http://localhost:8080)")
	out.Println("  --db PATH          Path to local session database (default: listingsync-client.db)")
	out.Println("  --token TOKEN      Access token, overrides the stored session (env LISTINGSYNC_TOKEN)")
	out.Println()
	out.Println("Commands:")
	out.Println("  login [-operator NAME]                 Exchange the API key for an access token")
	out.Println("  logout                                 Forget the stored access token")
	out.Println("  health                                 Check that the server is up")
	out.Println("  status                                 Show sync status")
	out.Println("  jobs [-limit N]                        Show recent sync jobs")
	out.Println("  errors [-limit N]                      Show recent sync errors")
	out.Println("  full-sync [-direction D] [-force]      Run a full sync (D: both, local_to_remote, remote_to_local)")
	out.Println("  delta-sync [-since RFC3339]            Sync changes since the last run")
	out.Println("  sync-record [-direction D] <id>        Sync one listing")
	out.Println("  test-connection -base-id ID [-table T] Check credentials without saving them")
	out.Println("  connection                             Show the stored connection")
	out.Println("  set-connection -base-id ID -table T    Store a new connection")
	out.Println("  schema                                 Show remote table fields")
	out.Println("  fields                                 Show the field mapping")
	out.Println("  set-fields <schema.yaml>               Replace the field mapping")
	out.Println("  media-sync [-types T,..] <id>...       Sync attachments of listings")
	out.Println("  cleanup-plan                           Plan removal of unreferenced media")
	out.Println("  cleanup <plan-token>                   Execute a cleanup plan")
	out.Println("  listings                               List local listings")
	out.Println("  listing <id>                           Show one listing")
	out.Println()
	out.Println("Secrets (API key, remote access token) are prompted without echo.")
	out.Println("LISTINGSYNC_API_KEY and LISTINGSYNC_AIRTABLE_TOKEN skip the prompts.")
}
