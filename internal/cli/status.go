package cli

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/runnerr0/lookback/internal/config"
	"github.com/runnerr0/lookback/internal/storage"
)

// statusJSON is the JSON output structure for the status command.
type statusJSON struct {
	Version           string          `json:"version"`
	DatabasePath      string          `json:"database_path"`
	DatabaseSizeBytes int64           `json:"database_size_bytes"`
	Owner             string          `json:"owner,omitempty"`
	TotalTabs         int64           `json:"total_tabs"`
	OpenTabs          int64           `json:"open_tabs"`
	TotalSessions     int64           `json:"total_sessions"`
	TotalIntervals    int64           `json:"total_intervals"`
	TotalVisits       int64           `json:"total_visits"`
	OldestTab         string          `json:"oldest_tab,omitempty"`
	NewestTab         string          `json:"newest_tab,omitempty"`
	RetentionDays     int             `json:"retention_days"`
	TopSites          []siteCountJSON `json:"top_sites"`
	ServerRunning     bool            `json:"server_running"`
}

type siteCountJSON struct {
	Site   string `json:"site"`
	Visits int64  `json:"visits"`
}

// Execute implements the go-flags Commander interface for StatusCommand.
func (c *StatusCommand) Execute(args []string) error {
	return withStore(c.globals, func(cfg *config.Config, store *storage.SQLiteStore, db *sql.DB) error {
		return c.executeWithStore(store, db, cfg)
	})
}

// executeWithStore runs status against a provided store and db (for testing).
func (c *StatusCommand) executeWithStore(store *storage.SQLiteStore, db *sql.DB, cfg *config.Config) error {
	ctx := context.Background()

	stats, err := store.GetStats(ctx, c.Owner)
	if err != nil {
		return fmt.Errorf("get stats: %w", err)
	}

	dbPath, err := cfg.DatabasePath()
	if err != nil {
		return err
	}
	dbSize := getDatabaseSize(db, dbPath)
	serverRunning := checkServer(cfg.Server)

	if c.globals != nil && c.globals.JSON {
		return c.printStatusJSON(stats, dbPath, dbSize, serverRunning, cfg.Retention.Days)
	}
	return c.printStatusHuman(stats, dbPath, dbSize, serverRunning, cfg.Retention.Days)
}

func (c *StatusCommand) printStatusHuman(stats *storage.Stats, dbPath string, dbSize int64, serverRunning bool, retentionDays int) error {
	fmt.Println("Lookback Status")
	fmt.Println("===============")
	fmt.Printf("Version:       %s\n", c.version)
	fmt.Printf("Database:      %s (%s)\n", dbPath, formatBytes(dbSize))
	if c.Owner != "" {
		fmt.Printf("Owner:         %s\n", c.Owner)
	}
	fmt.Printf("Tabs:          %s (%s open)\n", formatNumber(stats.TotalTabs), formatNumber(stats.OpenTabs))
	fmt.Printf("Sessions:      %s\n", formatNumber(stats.TotalSessions))
	fmt.Printf("Intervals:     %s\n", formatNumber(stats.TotalIntervals))
	fmt.Printf("Visits:        %s\n", formatNumber(stats.TotalVisits))

	// Time range
	if stats.TotalTabs > 0 {
		fmt.Printf("Oldest:        %s\n", stats.OldestTab.Local().Format("2006-01-02"))
		fmt.Printf("Newest:        %s\n", stats.NewestTab.Local().Format("2006-01-02"))
	}

	fmt.Printf("Retention:     %d days\n", retentionDays)

	if len(stats.TopSites) > 0 {
		fmt.Println()
		fmt.Println("Top Sites:")
		for _, s := range stats.TopSites {
			fmt.Printf("  %-24s %s\n", s.Site, formatNumber(s.Visits))
		}
	}

	fmt.Println()
	if serverRunning {
		fmt.Println("Server:        running")
	} else {
		fmt.Println("Server:        not running")
	}

	return nil
}

func (c *StatusCommand) printStatusJSON(stats *storage.Stats, dbPath string, dbSize int64, serverRunning bool, retentionDays int) error {
	out := statusJSON{
		Version:           c.version,
		DatabasePath:      dbPath,
		DatabaseSizeBytes: dbSize,
		Owner:             c.Owner,
		TotalTabs:         stats.TotalTabs,
		OpenTabs:          stats.OpenTabs,
		TotalSessions:     stats.TotalSessions,
		TotalIntervals:    stats.TotalIntervals,
		TotalVisits:       stats.TotalVisits,
		RetentionDays:     retentionDays,
		TopSites:          make([]siteCountJSON, len(stats.TopSites)),
		ServerRunning:     serverRunning,
	}

	if stats.TotalTabs > 0 {
		out.OldestTab = stats.OldestTab.UTC().Format(time.RFC3339)
		out.NewestTab = stats.NewestTab.UTC().Format(time.RFC3339)
	}

	for i, s := range stats.TopSites {
		out.TopSites[i] = siteCountJSON{Site: s.Site, Visits: s.Visits}
	}

	return printJSON(out)
}

// getDatabaseSize returns the database file size in bytes.
// For on-disk databases, it uses os.Stat. For in-memory databases,
// it queries page_count * page_size.
func getDatabaseSize(db *sql.DB, dbPath string) int64 {
	// Try file stat first
	if info, err := os.Stat(dbPath); err == nil {
		return info.Size()
	}

	// Fallback: query SQLite for in-memory or unavailable file
	var pageCount, pageSize int64
	if err := db.QueryRow("PRAGMA page_count").Scan(&pageCount); err != nil {
		return 0
	}
	if err := db.QueryRow("PRAGMA page_size").Scan(&pageSize); err != nil {
		return 0
	}
	return pageCount * pageSize
}

// checkServer attempts an HTTP GET to the configured /status endpoint.
// Returns true if the server responds within 1 second.
func checkServer(sc config.ServerConfig) bool {
	client := &http.Client{Timeout: 1 * time.Second}
	resp, err := client.Get("http://" + net.JoinHostPort(sc.Host, strconv.Itoa(sc.Port)) + "/status")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
