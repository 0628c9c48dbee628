package cli

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/runnerr0/lookback/internal/config"
	"github.com/runnerr0/lookback/internal/storage"
)

type pruneJSON struct {
	Cutoff string `json:"cutoff"`
	DryRun bool   `json:"dry_run"`
	Tabs   int64  `json:"tabs"`
}

// Execute implements the go-flags Commander interface for PruneCommand.
func (c *PruneCommand) Execute(args []string) error {
	return withStore(c.globals, func(cfg *config.Config, store *storage.SQLiteStore, _ *sql.DB) error {
		return c.executeWithStore(store, cfg, time.Now())
	})
}

// executeWithStore prunes relative to now against a provided store.
func (c *PruneCommand) executeWithStore(store *storage.SQLiteStore, cfg *config.Config, now time.Time) error {
	retention := time.Duration(cfg.Retention.Days) * 24 * time.Hour
	if c.OlderThan != "" {
		d, err := parseDuration(c.OlderThan)
		if err != nil {
			return err
		}
		retention = d
	}
	cutoff := now.UTC().Add(-retention)

	ctx := context.Background()
	var n int64
	var err error
	if c.DryRun {
		n, err = store.CountClosedBefore(ctx, cutoff)
	} else {
		n, err = store.PruneClosedBefore(ctx, cutoff)
	}
	if err != nil {
		return fmt.Errorf("prune: %w", err)
	}

	if c.globals != nil && c.globals.JSON {
		return printJSON(pruneJSON{Cutoff: cutoff.Format(time.RFC3339), DryRun: c.DryRun, Tabs: n})
	}

	if c.DryRun {
		fmt.Printf("Would prune %s closed tabs older than %s (before %s).\n",
			formatNumber(n), formatDurationHuman(retention), cutoff.Local().Format("2006-01-02 15:04"))
		return nil
	}
	fmt.Printf("Pruned %s closed tabs older than %s.\n", formatNumber(n), formatDurationHuman(retention))
	return nil
}
