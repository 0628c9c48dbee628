package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/runnerr0/lookback/internal/config"
	"github.com/runnerr0/lookback/internal/storage"
)

// Execute implements the go-flags Commander interface for CloseCommand.
func (c *CloseCommand) Execute(args []string) error {
	if c.Tab == "" {
		return fmt.Errorf("--tab is required for close command")
	}

	return withStore(c.globals, func(_ *config.Config, store *storage.SQLiteStore, _ *sql.DB) error {
		return c.executeWithStore(store)
	})
}

// executeWithStore closes the tab against a provided store (used by tests).
func (c *CloseCommand) executeWithStore(store *storage.SQLiteStore) error {
	now := time.Now().UTC()

	err := store.CloseTab(context.Background(), c.Tab, now)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return fmt.Errorf("tab %q not found", c.Tab)
	case errors.Is(err, storage.ErrClosed):
		return fmt.Errorf("tab %q is already closed", c.Tab)
	case err != nil:
		return fmt.Errorf("close tab: %w", err)
	}

	if c.globals != nil && c.globals.JSON {
		return printJSON(map[string]any{
			"tab_id": c.Tab,
			"closed": now.Format(time.RFC3339),
		})
	}

	fmt.Printf("Closed tab %s\n", c.Tab)
	return nil
}
