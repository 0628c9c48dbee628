package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/runnerr0/lookback/internal/activity"
)

// maxInArgs bounds the placeholders per IN (...) query.
const maxInArgs = 500

// View runs fn inside one read-only transaction. SQLite in WAL mode pins the
// snapshot at the first read, so every query fn makes observes the same
// committed state even while the recorder writes.
func (s *SQLiteStore) View(ctx context.Context, fn func(activity.Snapshot) error) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return fmt.Errorf("begin read snapshot: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	return fn(&snapshot{tx: tx})
}

// snapshot implements activity.Snapshot over a read transaction.
type snapshot struct {
	tx *sql.Tx
}

// SessionsOverlapping mirrors activity.Overlaps in SQL:
// created <= end AND (closed IS NULL OR closed >= start).
func (sn *snapshot) SessionsOverlapping(ctx context.Context, owner string, w activity.Window) ([]activity.Session, error) {
	rows, err := sn.tx.QueryContext(ctx, `
		SELECT s.id, s.tab_id, s.url, s.site, s.title, s.favicon, s.created_at, s.closed_at
		FROM sessions s
		JOIN tabs t ON t.id = s.tab_id
		WHERE t.owner = ?
		  AND s.created_at <= ?
		  AND (s.closed_at IS NULL OR s.closed_at >= ?)
		ORDER BY s.created_at, s.id
	`, owner, formatTimestamp(w.End), formatTimestamp(w.Start))
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []activity.Session{}
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// Tabs resolves tab rows in chunks of maxInArgs ids.
func (sn *snapshot) Tabs(ctx context.Context, ids []string) ([]activity.Tab, error) {
	tabs := make([]activity.Tab, 0, len(ids))

	for start := 0; start < len(ids); start += maxInArgs {
		chunk := ids[start:min(start+maxInArgs, len(ids))]

		query, args := inPlaceholders(chunk)
		rows, err := sn.tx.QueryContext(ctx,
			"SELECT id, owner, created_at, closed_at FROM tabs WHERE id IN ("+query+")",
			args...,
		)
		if err != nil {
			return nil, fmt.Errorf("query tabs: %w", err)
		}

		for rows.Next() {
			tab, err := scanTab(rows)
			if err != nil {
				rows.Close()
				return nil, fmt.Errorf("scan tab: %w", err)
			}
			tabs = append(tabs, tab)
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, err
		}
	}

	return tabs, nil
}

func (sn *snapshot) IntervalsIntersecting(ctx context.Context, sessionID string, w activity.Window) ([]activity.Interval, error) {
	rows, err := sn.tx.QueryContext(ctx, `
		SELECT id, session_id, start_at, end_at
		FROM intervals
		WHERE session_id = ?
		  AND start_at <= ?
		  AND (end_at IS NULL OR end_at >= ?)
		ORDER BY start_at, id
	`, sessionID, formatTimestamp(w.End), formatTimestamp(w.Start))
	if err != nil {
		return nil, fmt.Errorf("query intervals: %w", err)
	}
	defer rows.Close()

	intervals := []activity.Interval{}
	for rows.Next() {
		iv, err := scanInterval(rows)
		if err != nil {
			return nil, fmt.Errorf("scan interval: %w", err)
		}
		intervals = append(intervals, iv)
	}
	return intervals, rows.Err()
}

func (sn *snapshot) CountVisits(ctx context.Context, sessionID string, w activity.Window) (int, error) {
	var n int
	err := sn.tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM page_visits
		WHERE session_id = ? AND visited_at >= ? AND visited_at <= ?
	`, sessionID, formatTimestamp(w.Start), formatTimestamp(w.End)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count page visits: %w", err)
	}
	return n, nil
}

// inPlaceholders returns "?,?,..." for ids and the matching args.
func inPlaceholders(ids []string) (string, []any) {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return strings.TrimSuffix(strings.Repeat("?,", len(ids)), ","), args
}
