package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/runnerr0/lookback/internal/config"
	"github.com/runnerr0/lookback/internal/storage"
)

type addJSON struct {
	TabID     string `json:"tab_id"`
	SessionID string `json:"session_id"`
	Site      string `json:"site"`
	URL       string `json:"url"`
	Title     string `json:"title"`
	Created   string `json:"created"`
	Active    bool   `json:"active"`
}

// Execute implements the go-flags Commander interface for AddCommand.
func (c *AddCommand) Execute(args []string) error {
	if c.URL == "" {
		return fmt.Errorf("--url is required for add command")
	}
	if c.Title == "" {
		return fmt.Errorf("--title is required for add command")
	}

	return withStore(c.globals, func(cfg *config.Config, store *storage.SQLiteStore, _ *sql.DB) error {
		return c.executeWithStore(store, cfg)
	})
}

// executeWithStore runs the add logic against a provided store (used by tests).
func (c *AddCommand) executeWithStore(store *storage.SQLiteStore, cfg *config.Config) error {
	// Validate URL format
	parsed, err := url.ParseRequestURI(c.URL)
	if err != nil || parsed.Host == "" {
		return fmt.Errorf("invalid URL: %s", c.URL)
	}

	ctx := context.Background()
	now := time.Now().UTC()

	tabID := c.Tab
	if tabID == "" {
		owner := c.Owner
		if owner == "" {
			owner = cfg.Server.DefaultOwner
		}
		tab, err := store.OpenTab(ctx, owner, now)
		if err != nil {
			return fmt.Errorf("open tab: %w", err)
		}
		tabID = tab.ID
	}

	sess, err := store.Navigate(ctx, storage.Navigation{
		TabID:   tabID,
		URL:     c.URL,
		Title:   c.Title,
		Favicon: c.Favicon,
		At:      now,
	})
	if err != nil {
		if errors.Is(err, storage.ErrExcluded) {
			return fmt.Errorf("domain %q is excluded by exclusion rules", parsed.Hostname())
		}
		return fmt.Errorf("recording navigation: %w", err)
	}

	if c.Active {
		if _, err := store.Activate(ctx, sess.ID, now); err != nil {
			return fmt.Errorf("activate session: %w", err)
		}
	}

	// Output confirmation
	if c.globals != nil && c.globals.JSON {
		return printJSON(addJSON{
			TabID:     tabID,
			SessionID: sess.ID,
			Site:      sess.Site,
			URL:       sess.URL,
			Title:     sess.Title,
			Created:   sess.Created.Format(time.RFC3339),
			Active:    c.Active,
		})
	}

	active := "no"
	if c.Active {
		active = "yes"
	}

	fmt.Printf("Added session %s (%s)\n", sess.ID, sess.Created.Format(time.RFC3339))
	fmt.Printf("  Tab: %s\n", tabID)
	fmt.Printf("  URL: %s\n", sess.URL)
	fmt.Printf("  Title: %s\n", sess.Title)
	fmt.Printf("  Active: %s\n", active)

	return nil
}
