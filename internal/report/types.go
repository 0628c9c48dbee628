// Package report builds per-tab, per-site activity summaries for a time
// window from a consistent snapshot of recorded browsing activity.
package report

import (
	"errors"
	"time"

	"github.com/runnerr0/lookback/internal/activity"
)

// ErrStoreUnavailable is returned when the read snapshot cannot be
// established or a query inside it fails. Callers may retry.
var ErrStoreUnavailable = errors.New("activity store unavailable")

// ErrMissingOwner is returned when a query is not scoped to an owner.
var ErrMissingOwner = errors.New("owner is required")

type (
	Snapshot = activity.Snapshot
	Viewer   = activity.Viewer
)

// Query is a validated report request scoped to one owner.
type Query struct {
	Owner  string
	Window activity.Window
}

// Report is the response for one query window.
type Report struct {
	Start time.Time   `json:"start"`
	End   time.Time   `json:"end"`
	Tabs  []TabReport `json:"tabs"`
}

// TabReport groups the sessions of one tab.
type TabReport struct {
	TabID    string          `json:"tab_id"`
	Created  time.Time       `json:"created"`
	Closed   *time.Time      `json:"closed,omitempty"`
	Sessions []SessionReport `json:"sessions"`
}

// SessionReport is one site visit with its in-window activity.
type SessionReport struct {
	SessionID       string         `json:"session_id"`
	Site            string         `json:"site"`
	Title           string         `json:"title"`
	URL             string         `json:"url,omitempty"`
	Favicon         string         `json:"favicon,omitempty"`
	ActiveMinutes   int            `json:"active_minutes"`
	VisitCount      int            `json:"visit_count"`
	ActiveIntervals []IntervalSpan `json:"active_intervals"`
}

// IntervalSpan is the in-window part of an active interval. End is omitted
// while the interval is still open.
type IntervalSpan struct {
	Start time.Time  `json:"start"`
	End   *time.Time `json:"end,omitempty"`
}
