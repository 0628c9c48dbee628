package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/runnerr0/lookback/internal/activity"
)

var (
	ErrNotFound = errors.New("not found")
	ErrExcluded = errors.New("site is excluded by exclusion rules")
	ErrClosed   = errors.New("already closed")
)

// Store defines the Lookback data operations: the read snapshot used by the
// report engine, the recorder used by ingestion, and housekeeping.
type Store interface {
	activity.Viewer

	OpenTab(ctx context.Context, owner string, at time.Time) (*activity.Tab, error)
	CloseTab(ctx context.Context, tabID string, at time.Time) error
	Navigate(ctx context.Context, nav Navigation) (*activity.Session, error)
	RecordVisit(ctx context.Context, sessionID, rawURL string, at time.Time) (*activity.PageVisit, error)
	Activate(ctx context.Context, sessionID string, at time.Time) (*activity.Interval, error)
	Deactivate(ctx context.Context, sessionID string, at time.Time) error

	SeedExclusions(ctx context.Context, domains, patterns []string) error
	IsExcluded(site string) bool

	GetStats(ctx context.Context, owner string) (*Stats, error)
	CountClosedBefore(ctx context.Context, cutoff time.Time) (int64, error)
	PruneClosedBefore(ctx context.Context, cutoff time.Time) (int64, error)
	PurgeAll(ctx context.Context) error
	Close() error
}

// SQLiteStore implements Store backed by a SQLite database.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time

	// Prepared statements
	getTab     *sql.Stmt
	getSession *sql.Stmt

	mu               sync.RWMutex
	domainExclusions []string
	regexExclusions  []*regexp.Regexp
}

// Open opens (creating if needed) the SQLite file at path with foreign keys
// and a busy timeout on every pooled connection, then applies migrations.
func Open(ctx context.Context, path string, busyTimeoutMS int) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	dsn := fmt.Sprintf("%s?_foreign_keys=on&_busy_timeout=%d", path, busyTimeoutMS)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := NewMigrationRunner(db).RunContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return db, nil
}

// NewSQLiteStore creates a new SQLiteStore from an already-opened and migrated database.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}

	if err := s.prepareStatements(); err != nil {
		return nil, fmt.Errorf("prepare statements: %w", err)
	}

	if err := s.loadExclusions(context.Background()); err != nil {
		return nil, fmt.Errorf("load exclusions: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) prepareStatements() error {
	var err error

	s.getTab, err = s.db.Prepare(`
		SELECT id, owner, created_at, closed_at FROM tabs WHERE id = ?
	`)
	if err != nil {
		return err
	}

	s.getSession, err = s.db.Prepare(`
		SELECT s.id, s.tab_id, s.url, s.site, s.title, s.favicon, s.created_at, s.closed_at, t.owner
		FROM sessions s
		JOIN tabs t ON t.id = s.tab_id
		WHERE s.id = ?
	`)
	if err != nil {
		return err
	}

	return nil
}

// loadExclusions replaces the cached exclusion rules with the table contents.
func (s *SQLiteStore) loadExclusions(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, "SELECT rule_type, rule_value FROM exclusions ORDER BY id")
	if err != nil {
		return err
	}
	defer rows.Close()

	var domains []string
	var patterns []*regexp.Regexp
	for rows.Next() {
		var ruleType, ruleValue string
		if err := rows.Scan(&ruleType, &ruleValue); err != nil {
			return err
		}
		switch ruleType {
		case "domain":
			domains = append(domains, strings.ToLower(ruleValue))
		case "regex":
			re, err := regexp.Compile(ruleValue)
			if err != nil {
				continue // skip invalid regex
			}
			patterns = append(patterns, re)
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	s.domainExclusions = domains
	s.regexExclusions = patterns
	s.mu.Unlock()
	return nil
}

// SeedExclusions adds domain and regex rules (typically from config) and
// reloads the cache. Existing rules are kept.
func (s *SQLiteStore) SeedExclusions(ctx context.Context, domains, patterns []string) error {
	for _, p := range patterns {
		if _, err := regexp.Compile(p); err != nil {
			return fmt.Errorf("invalid exclusion pattern %q: %w", p, err)
		}
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		const insertSQL = `INSERT OR IGNORE INTO exclusions (rule_type, rule_value, reason) VALUES (?, ?, 'config')`
		for _, d := range domains {
			d = strings.ToLower(strings.TrimSpace(d))
			if d == "" {
				continue
			}
			if _, err := tx.ExecContext(ctx, insertSQL, "domain", d); err != nil {
				return fmt.Errorf("insert domain rule: %w", err)
			}
		}
		for _, p := range patterns {
			if _, err := tx.ExecContext(ctx, insertSQL, "regex", p); err != nil {
				return fmt.Errorf("insert regex rule: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	return s.loadExclusions(ctx)
}

// IsExcluded checks if a site is blocked by exclusion rules. A domain rule
// also covers its subdomains.
func (s *SQLiteStore) IsExcluded(site string) bool {
	site = strings.ToLower(site)

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, d := range s.domainExclusions {
		if site == d || strings.HasSuffix(site, "."+d) {
			return true
		}
	}
	for _, re := range s.regexExclusions {
		if re.MatchString(site) {
			return true
		}
	}
	return false
}

// withTx runs fn inside a write transaction.
func (s *SQLiteStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// stamp defaults a zero time to now and normalizes to UTC.
func (s *SQLiteStore) stamp(t time.Time) time.Time {
	if t.IsZero() {
		return s.now()
	}
	return t.UTC()
}

// generateID creates an opaque entity ID.
func generateID() string {
	return uuid.NewString()
}

// timestampLayout is fixed-width so stored values sort as text.
const timestampLayout = "2006-01-02T15:04:05.000000000Z"

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// parseTimestamp tries several common SQLite timestamp formats.
func parseTimestamp(s string) (time.Time, error) {
	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05",
	}
	for _, f := range formats {
		if t, err := time.Parse(f, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse timestamp: %s", s)
}

func parseNullTimestamp(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid {
		return nil, nil
	}
	t, err := parseTimestamp(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// extractDomain pulls the lower-cased hostname from a URL string.
func extractDomain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTab(row rowScanner) (activity.Tab, error) {
	var t activity.Tab
	var created string
	var closed sql.NullString
	if err := row.Scan(&t.ID, &t.Owner, &created, &closed); err != nil {
		return activity.Tab{}, err
	}

	var err error
	if t.Created, err = parseTimestamp(created); err != nil {
		return activity.Tab{}, fmt.Errorf("tab %s created_at: %w", t.ID, err)
	}
	if t.Closed, err = parseNullTimestamp(closed); err != nil {
		return activity.Tab{}, fmt.Errorf("tab %s closed_at: %w", t.ID, err)
	}
	return t, nil
}

func scanSession(row rowScanner, extra ...any) (activity.Session, error) {
	var s activity.Session
	var created string
	var closed sql.NullString
	dest := append([]any{
		&s.ID, &s.TabID, &s.URL, &s.Site, &s.Title, &s.Favicon, &created, &closed,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return activity.Session{}, err
	}

	var err error
	if s.Created, err = parseTimestamp(created); err != nil {
		return activity.Session{}, fmt.Errorf("session %s created_at: %w", s.ID, err)
	}
	if s.Closed, err = parseNullTimestamp(closed); err != nil {
		return activity.Session{}, fmt.Errorf("session %s closed_at: %w", s.ID, err)
	}
	return s, nil
}

func scanInterval(row rowScanner) (activity.Interval, error) {
	var iv activity.Interval
	var start string
	var end sql.NullString
	if err := row.Scan(&iv.ID, &iv.SessionID, &start, &end); err != nil {
		return activity.Interval{}, err
	}

	var err error
	if iv.Start, err = parseTimestamp(start); err != nil {
		return activity.Interval{}, fmt.Errorf("interval %s start_at: %w", iv.ID, err)
	}
	if iv.End, err = parseNullTimestamp(end); err != nil {
		return activity.Interval{}, fmt.Errorf("interval %s end_at: %w", iv.ID, err)
	}
	return iv, nil
}

// Close releases all prepared statements. The underlying *sql.DB is NOT
// closed; that is the caller's responsibility.
func (s *SQLiteStore) Close() error {
	stmts := []*sql.Stmt{s.getTab, s.getSession}
	for _, stmt := range stmts {
		if stmt != nil {
			stmt.Close()
		}
	}
	return nil
}
