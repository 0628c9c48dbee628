package cli

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/runnerr0/lookback/internal/activity"
	"github.com/runnerr0/lookback/internal/config"
	"github.com/runnerr0/lookback/internal/report"
	"github.com/runnerr0/lookback/internal/storage"
)

// Execute implements the go-flags Commander interface for ReportCommand.
func (c *ReportCommand) Execute(args []string) error {
	return withStore(c.globals, func(cfg *config.Config, store *storage.SQLiteStore, _ *sql.DB) error {
		logger, err := newLogger(cfg, c.globals)
		if err != nil {
			return err
		}
		defer logger.Sync() //nolint:errcheck

		return c.executeWithStore(store, cfg, logger)
	})
}

// executeWithStore builds and prints the report against a provided store.
func (c *ReportCommand) executeWithStore(viewer report.Viewer, cfg *config.Config, logger *zap.Logger) error {
	q, err := c.query(cfg)
	if err != nil {
		return err
	}

	rep, err := report.NewEngine(viewer, logger, nil).Build(context.Background(), q)
	if err != nil {
		return fmt.Errorf("build report: %w", err)
	}

	if c.globals != nil && c.globals.JSON {
		return printJSON(rep)
	}
	printReportHuman(rep)
	return nil
}

// query resolves the window and owner from flags. --since and --start are
// mutually exclusive; a missing --end means now.
func (c *ReportCommand) query(cfg *config.Config) (report.Query, error) {
	now := time.Now
	if c.now != nil {
		now = c.now
	}

	owner := c.Owner
	if owner == "" {
		owner = cfg.Server.DefaultOwner
	}

	end := c.End
	if end == "" {
		end = now().UTC().Format(time.RFC3339Nano)
	}

	start := c.Start
	switch {
	case c.Since != "" && c.Start != "":
		return report.Query{}, fmt.Errorf("%w: --since and --start are mutually exclusive", activity.ErrInvalidWindow)
	case c.Since != "":
		d, err := parseDuration(c.Since)
		if err != nil {
			return report.Query{}, fmt.Errorf("%w: --since: %v", activity.ErrInvalidWindow, err)
		}
		endTime, err := activity.ParseTimestamp(end)
		if err != nil {
			return report.Query{}, fmt.Errorf("%w: end: %v", activity.ErrInvalidWindow, err)
		}
		start = endTime.Add(-d).Format(time.RFC3339Nano)
	}

	return report.ParseRequest(owner, report.Request{Start: start, End: end})
}

func printReportHuman(rep *report.Report) {
	fmt.Printf("Activity %s to %s\n",
		rep.Start.Local().Format("2006-01-02 15:04"),
		rep.End.Local().Format("2006-01-02 15:04"))

	if len(rep.Tabs) == 0 {
		fmt.Println("No activity in this window.")
		return
	}

	totalMinutes, totalVisits := 0, 0
	for _, tab := range rep.Tabs {
		state := "open"
		if tab.Closed != nil {
			state = "closed " + tab.Closed.Local().Format("15:04")
		}
		fmt.Printf("\nTab %s (opened %s, %s)\n", shortID(tab.TabID), tab.Created.Local().Format("2006-01-02 15:04"), state)

		for _, s := range tab.Sessions {
			title := s.Title
			if title == "" {
				title = s.Site
			}
			fmt.Printf("  %-30s %8s  %3d visits  %s\n", s.Site, formatMinutes(s.ActiveMinutes), s.VisitCount, title)
			totalMinutes += s.ActiveMinutes
			totalVisits += s.VisitCount
		}
	}

	fmt.Printf("\n%d tabs, %s active, %d visits\n", len(rep.Tabs), formatMinutes(totalMinutes), totalVisits)
}

// shortID abbreviates an id for display.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
