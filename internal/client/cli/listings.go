package cli

import (
	"context"
	"fmt"
	"maps"
	"slices"
)

func (c *Cli) runListings(ctx context.Context, _ []string) error {
	listings, err := c.client.Listings(ctx)
	if err != nil {
		return err
	}
	if len(listings) == 0 {
		c.io.Println("No listings.")
		return nil
	}

	for _, l := range listings {
		remote := l.RemoteID
		if remote == "" {
			remote = "(not linked)"
		}
		c.io.Printf("%s  %-18s %v\n", l.ID, remote, l.Fields["title"])
	}
	return nil
}

func (c *Cli) runListing(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: usage: listingsync listing <id>", ErrUsage)
	}

	l, err := c.client.Listing(ctx, args[0])
	if err != nil {
		return err
	}

	c.io.Printf("ID:        %s\n", l.ID)
	c.io.Printf("Remote ID: %s\n", l.RemoteID)
	c.io.Printf("Modified:  %s\n", l.ModifiedAt.Format(timeLayout))
	for _, name := range slices.Sorted(maps.Keys(l.Fields)) {
		c.io.Printf("  %-24s %v\n", name, l.Fields[name])
	}
	return nil
}
