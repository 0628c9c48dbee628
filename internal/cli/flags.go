package cli

import (
	"io"
	"time"
)

// GlobalFlags holds flags available to all subcommands.
type GlobalFlags struct {
	Config  string `long:"config" description:"Path to config file" default:""`
	JSON    bool   `long:"json" description:"Output in JSON format"`
	Verbose bool   `long:"verbose" description:"Enable verbose output"`
	Version bool   `long:"version" description:"Show version and exit"`
}

// ReportCommand prints per-tab, per-site activity for a time window.
type ReportCommand struct {
	Start string `long:"start" description:"Window start (ISO-8601, UTC if no zone)"`
	End   string `long:"end" description:"Window end (ISO-8601, UTC if no zone); defaults to now"`
	Since string `long:"since" description:"Window ending now, e.g. 24h, 7d, 2w (instead of --start)"`
	Owner string `long:"owner" description:"Owner to report on (default from config)"`

	globals *GlobalFlags
	version string
	now     func() time.Time
}

// ServeCommand runs the local HTTP query API.
type ServeCommand struct {
	Host string `long:"host" description:"Override listen host"`
	Port int    `long:"port" description:"Override listen port"`

	globals *GlobalFlags
	version string
}

// StatusCommand shows database statistics and configuration summary.
type StatusCommand struct {
	Owner string `long:"owner" description:"Limit statistics to one owner"`

	globals *GlobalFlags
	version string
}

// AddCommand manually records a navigation on a tab.
type AddCommand struct {
	URL     string `long:"url" description:"URL to record (required)"`
	Title   string `long:"title" description:"Page title (required)"`
	Favicon string `long:"favicon" description:"Favicon URL"`
	Tab     string `long:"tab" description:"Existing tab ID; a new tab is opened when empty"`
	Active  bool   `long:"active" description:"Make the new session the foreground tab"`
	Owner   string `long:"owner" description:"Owner of a newly opened tab (default from config)"`

	globals *GlobalFlags
	version string
}

// CloseCommand closes a tab and its open session.
type CloseCommand struct {
	Tab string `long:"tab" description:"Tab ID (required)"`

	globals *GlobalFlags
	version string
}

// PruneCommand deletes tabs closed before the retention cutoff.
type PruneCommand struct {
	OlderThan string `long:"older-than" description:"Override retention period (e.g., 30d)"`
	DryRun    bool   `long:"dry-run" description:"Show what would be pruned without deleting"`

	globals *GlobalFlags
	version string
}

// PurgeCommand deletes ALL Lookback activity with safety confirmation.
type PurgeCommand struct {
	All   bool `long:"all" description:"Required flag to confirm purge intent"`
	Force bool `long:"force" description:"Skip safety confirmation prompt"`

	globals *GlobalFlags
	version string
	stdin   io.Reader // injectable for testing; nil means os.Stdin
}
