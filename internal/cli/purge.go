package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	"github.com/runnerr0/lookback/internal/config"
	"github.com/runnerr0/lookback/internal/storage"
)

// Execute implements the go-flags Commander interface for PurgeCommand.
func (c *PurgeCommand) Execute(args []string) error {
	if !c.All {
		return fmt.Errorf("purge requires --all flag for safety")
	}
	if err := c.confirm(); err != nil {
		return err
	}

	return withStore(c.globals, func(_ *config.Config, store *storage.SQLiteStore, _ *sql.DB) error {
		return c.executeWithStore(store)
	})
}

// confirm asks for the PURGE confirmation unless --force is set.
func (c *PurgeCommand) confirm() error {
	if c.Force {
		return nil
	}

	fmt.Println("⚠ WARNING: This will permanently delete ALL Lookback activity.")
	fmt.Println("  - All tabs and sessions")
	fmt.Println("  - All active time intervals")
	fmt.Println("  - All page visits")
	fmt.Println()
	fmt.Println("Exclusion rules are kept. This action cannot be undone.")
	fmt.Println()
	fmt.Print(`Type "PURGE" to confirm: `)

	in := c.stdin
	if in == nil {
		in = os.Stdin
	}
	scanner := bufio.NewScanner(in)
	if !scanner.Scan() {
		return fmt.Errorf("aborted: no input received")
	}
	if strings.TrimSpace(scanner.Text()) != "PURGE" {
		return fmt.Errorf("aborted: confirmation text did not match")
	}
	return nil
}

// executeWithStore purges a provided store (used by tests).
func (c *PurgeCommand) executeWithStore(store *storage.SQLiteStore) error {
	if err := store.PurgeAll(context.Background()); err != nil {
		return fmt.Errorf("purge failed: %w", err)
	}

	if c.globals != nil && c.globals.JSON {
		return printJSON(map[string]any{
			"purged":  true,
			"message": "all activity deleted",
		})
	}

	fmt.Println("Purged all activity. Lookback is empty.")
	return nil
}
