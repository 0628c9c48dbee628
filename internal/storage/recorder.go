package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/runnerr0/lookback/internal/activity"
)

// Navigation describes a page load that starts a new session on a tab.
type Navigation struct {
	TabID   string
	URL     string
	Title   string
	Favicon string
	At      time.Time
}

// Closing statements clamp the end to the row's own start so a late or skewed
// clock never violates the end >= start checks.
const (
	closeSessionIntervalsSQL = `
		UPDATE intervals SET end_at = CASE WHEN start_at > ? THEN start_at ELSE ? END
		WHERE end_at IS NULL AND session_id = ?`

	closeTabIntervalsSQL = `
		UPDATE intervals SET end_at = CASE WHEN start_at > ? THEN start_at ELSE ? END
		WHERE end_at IS NULL AND session_id IN (SELECT id FROM sessions WHERE tab_id = ?)`

	closeOwnerIntervalsSQL = `
		UPDATE intervals SET end_at = CASE WHEN start_at > ? THEN start_at ELSE ? END
		WHERE end_at IS NULL AND session_id IN (
			SELECT s.id FROM sessions s JOIN tabs t ON t.id = s.tab_id WHERE t.owner = ?
		)`

	closeTabSessionsSQL = `
		UPDATE sessions SET closed_at = CASE WHEN created_at > ? THEN created_at ELSE ? END
		WHERE closed_at IS NULL AND tab_id = ?`
)

// OpenTab records a new browser tab for owner.
func (s *SQLiteStore) OpenTab(ctx context.Context, owner string, at time.Time) (*activity.Tab, error) {
	if owner == "" {
		return nil, fmt.Errorf("open tab: owner is required")
	}

	tab := &activity.Tab{
		ID:      generateID(),
		Owner:   owner,
		Created: s.stamp(at),
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO tabs (id, owner, created_at) VALUES (?, ?, ?)",
		tab.ID, tab.Owner, formatTimestamp(tab.Created),
	)
	if err != nil {
		return nil, fmt.Errorf("insert tab: %w", err)
	}

	return tab, nil
}

// CloseTab closes the tab together with its open session and any open
// active interval, in one transaction.
func (s *SQLiteStore) CloseTab(ctx context.Context, tabID string, at time.Time) error {
	at = s.stamp(at)

	return s.withTx(ctx, func(tx *sql.Tx) error {
		tab, err := s.tabTx(ctx, tx, tabID)
		if err != nil {
			return err
		}
		if tab.Closed != nil {
			return fmt.Errorf("tab %s: %w", tabID, ErrClosed)
		}
		if at.Before(tab.Created) {
			at = tab.Created
		}
		ts := formatTimestamp(at)

		if _, err := tx.ExecContext(ctx, closeTabIntervalsSQL, ts, ts, tabID); err != nil {
			return fmt.Errorf("close intervals: %w", err)
		}
		if _, err := tx.ExecContext(ctx, closeTabSessionsSQL, ts, ts, tabID); err != nil {
			return fmt.Errorf("close sessions: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "UPDATE tabs SET closed_at = ? WHERE id = ?", ts, tabID); err != nil {
			return fmt.Errorf("close tab: %w", err)
		}
		return nil
	})
}

// Navigate starts a new session on a tab and records its first page visit.
// The tab's previous session is closed; if it held focus, the focus moves to
// the new session.
func (s *SQLiteStore) Navigate(ctx context.Context, nav Navigation) (*activity.Session, error) {
	site := extractDomain(nav.URL)
	if site == "" {
		return nil, fmt.Errorf("navigate: invalid URL %q", nav.URL)
	}
	if s.IsExcluded(site) {
		return nil, fmt.Errorf("navigate to %s: %w", site, ErrExcluded)
	}

	sess := &activity.Session{
		ID:      generateID(),
		TabID:   nav.TabID,
		URL:     nav.URL,
		Site:    site,
		Title:   nav.Title,
		Favicon: nav.Favicon,
		Created: s.stamp(nav.At),
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		tab, err := s.tabTx(ctx, tx, nav.TabID)
		if err != nil {
			return err
		}
		if tab.Closed != nil {
			return fmt.Errorf("tab %s: %w", nav.TabID, ErrClosed)
		}
		if sess.Created.Before(tab.Created) {
			sess.Created = tab.Created
		}
		ts := formatTimestamp(sess.Created)

		res, err := tx.ExecContext(ctx, closeTabIntervalsSQL, ts, ts, nav.TabID)
		if err != nil {
			return fmt.Errorf("close previous interval: %w", err)
		}
		moved, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, closeTabSessionsSQL, ts, ts, nav.TabID); err != nil {
			return fmt.Errorf("close previous session: %w", err)
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO sessions (id, tab_id, url, site, title, favicon, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			sess.ID, sess.TabID, sess.URL, sess.Site, sess.Title, sess.Favicon, ts,
		)
		if err != nil {
			return fmt.Errorf("insert session: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			"INSERT INTO page_visits (id, session_id, url, visited_at) VALUES (?, ?, ?, ?)",
			generateID(), sess.ID, sess.URL, ts,
		); err != nil {
			return fmt.Errorf("insert page visit: %w", err)
		}

		if moved > 0 {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO intervals (id, session_id, start_at) VALUES (?, ?, ?)",
				generateID(), sess.ID, ts,
			); err != nil {
				return fmt.Errorf("move focus: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return sess, nil
}

// RecordVisit appends a page load to an open session.
func (s *SQLiteStore) RecordVisit(ctx context.Context, sessionID, rawURL string, at time.Time) (*activity.PageVisit, error) {
	visit := &activity.PageVisit{
		ID:        generateID(),
		SessionID: sessionID,
		URL:       rawURL,
		Visited:   s.stamp(at),
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		sess, _, err := s.sessionTx(ctx, tx, sessionID)
		if err != nil {
			return err
		}
		if sess.Closed != nil {
			return fmt.Errorf("session %s: %w", sessionID, ErrClosed)
		}
		if visit.Visited.Before(sess.Created) {
			visit.Visited = sess.Created
		}

		_, err = tx.ExecContext(ctx,
			"INSERT INTO page_visits (id, session_id, url, visited_at) VALUES (?, ?, ?, ?)",
			visit.ID, visit.SessionID, visit.URL, formatTimestamp(visit.Visited),
		)
		if err != nil {
			return fmt.Errorf("insert page visit: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return visit, nil
}

// Activate makes the session the foreground tab. A browser has a single
// foreground tab, so every other open interval of the owner is closed in the
// same transaction as the new one is opened. Activating an already active
// session returns its open interval unchanged.
func (s *SQLiteStore) Activate(ctx context.Context, sessionID string, at time.Time) (*activity.Interval, error) {
	iv := &activity.Interval{
		ID:        generateID(),
		SessionID: sessionID,
		Start:     s.stamp(at),
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		sess, owner, err := s.sessionTx(ctx, tx, sessionID)
		if err != nil {
			return err
		}
		if sess.Closed != nil {
			return fmt.Errorf("session %s: %w", sessionID, ErrClosed)
		}

		existing, err := scanInterval(tx.QueryRowContext(ctx,
			"SELECT id, session_id, start_at, end_at FROM intervals WHERE session_id = ? AND end_at IS NULL",
			sessionID,
		))
		switch {
		case err == nil:
			*iv = existing
			return nil
		case !errors.Is(err, sql.ErrNoRows):
			return fmt.Errorf("find open interval: %w", err)
		}

		if iv.Start.Before(sess.Created) {
			iv.Start = sess.Created
		}
		ts := formatTimestamp(iv.Start)

		if _, err := tx.ExecContext(ctx, closeOwnerIntervalsSQL, ts, ts, owner); err != nil {
			return fmt.Errorf("close foreground interval: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO intervals (id, session_id, start_at) VALUES (?, ?, ?)",
			iv.ID, iv.SessionID, ts,
		); err != nil {
			return fmt.Errorf("insert interval: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return iv, nil
}

// Deactivate closes the session's open interval, if any.
func (s *SQLiteStore) Deactivate(ctx context.Context, sessionID string, at time.Time) error {
	at = s.stamp(at)

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, _, err := s.sessionTx(ctx, tx, sessionID); err != nil {
			return err
		}
		ts := formatTimestamp(at)
		if _, err := tx.ExecContext(ctx, closeSessionIntervalsSQL, ts, ts, sessionID); err != nil {
			return fmt.Errorf("close interval: %w", err)
		}
		return nil
	})
}

func (s *SQLiteStore) tabTx(ctx context.Context, tx *sql.Tx, tabID string) (activity.Tab, error) {
	tab, err := scanTab(tx.StmtContext(ctx, s.getTab).QueryRowContext(ctx, tabID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return activity.Tab{}, fmt.Errorf("tab %s: %w", tabID, ErrNotFound)
		}
		return activity.Tab{}, fmt.Errorf("get tab: %w", err)
	}
	return tab, nil
}

// sessionTx loads a session and the owner of its tab.
func (s *SQLiteStore) sessionTx(ctx context.Context, tx *sql.Tx, sessionID string) (activity.Session, string, error) {
	var owner string
	sess, err := scanSession(tx.StmtContext(ctx, s.getSession).QueryRowContext(ctx, sessionID), &owner)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return activity.Session{}, "", fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
		}
		return activity.Session{}, "", fmt.Errorf("get session: %w", err)
	}
	return sess, owner, nil
}
