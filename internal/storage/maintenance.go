package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// GetStats returns aggregate statistics. An empty owner covers every owner.
func (s *SQLiteStore) GetStats(ctx context.Context, owner string) (*Stats, error) {
	stats := &Stats{}

	// Every query filters tabs through the same owner clause.
	const ownerClause = "(? = '' OR t.owner = ?)"

	counts := []struct {
		dest  *int64
		query string
	}{
		{&stats.TotalTabs, "SELECT COUNT(*) FROM tabs t WHERE " + ownerClause},
		{&stats.OpenTabs, "SELECT COUNT(*) FROM tabs t WHERE t.closed_at IS NULL AND " + ownerClause},
		{&stats.TotalSessions, "SELECT COUNT(*) FROM sessions s JOIN tabs t ON t.id = s.tab_id WHERE " + ownerClause},
		{&stats.TotalIntervals, `SELECT COUNT(*) FROM intervals i
			JOIN sessions s ON s.id = i.session_id JOIN tabs t ON t.id = s.tab_id WHERE ` + ownerClause},
		{&stats.TotalVisits, `SELECT COUNT(*) FROM page_visits v
			JOIN sessions s ON s.id = v.session_id JOIN tabs t ON t.id = s.tab_id WHERE ` + ownerClause},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.query, owner, owner).Scan(c.dest); err != nil {
			return nil, fmt.Errorf("count: %w", err)
		}
	}

	// Oldest and newest (handle empty DB)
	if stats.TotalTabs > 0 {
		var oldest, newest string
		err := s.db.QueryRowContext(ctx,
			"SELECT MIN(t.created_at), MAX(t.created_at) FROM tabs t WHERE "+ownerClause, owner, owner,
		).Scan(&oldest, &newest)
		if err != nil {
			return nil, fmt.Errorf("tab time range: %w", err)
		}
		stats.OldestTab, _ = parseTimestamp(oldest)
		stats.NewestTab, _ = parseTimestamp(newest)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT s.site, COUNT(v.id) AS cnt
		FROM page_visits v
		JOIN sessions s ON s.id = v.session_id
		JOIN tabs t ON t.id = s.tab_id
		WHERE `+ownerClause+`
		GROUP BY s.site
		ORDER BY cnt DESC, s.site
		LIMIT 10
	`, owner, owner)
	if err != nil {
		return nil, fmt.Errorf("top sites: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var sc SiteCount
		if err := rows.Scan(&sc.Site, &sc.Visits); err != nil {
			return nil, err
		}
		stats.TopSites = append(stats.TopSites, sc)
	}

	return stats, rows.Err()
}

// CountClosedBefore counts tabs that PruneClosedBefore would delete.
func (s *SQLiteStore) CountClosedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM tabs WHERE closed_at IS NOT NULL AND closed_at < ?",
		formatTimestamp(cutoff),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count prunable tabs: %w", err)
	}
	return n, nil
}

// PruneClosedBefore deletes tabs closed before cutoff. Their sessions,
// intervals and page visits are cascade-deleted by the schema. Open tabs are
// never pruned, however old.
func (s *SQLiteStore) PruneClosedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	var n int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			"DELETE FROM tabs WHERE closed_at IS NOT NULL AND closed_at < ?",
			formatTimestamp(cutoff),
		)
		if err != nil {
			return fmt.Errorf("prune tabs: %w", err)
		}
		if n, err = res.RowsAffected(); err != nil {
			return err
		}
		return audit(ctx, tx, "prune", fmt.Sprintf("cutoff=%s tabs=%d", formatTimestamp(cutoff), n))
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

// PurgeAll deletes all recorded activity. Exclusion rules are kept.
func (s *SQLiteStore) PurgeAll(ctx context.Context) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmts := []string{
			"DELETE FROM page_visits",
			"DELETE FROM intervals",
			"DELETE FROM sessions",
			"DELETE FROM tabs",
		}
		for _, stmt := range stmts {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("purge (%s): %w", stmt, err)
			}
		}
		return audit(ctx, tx, "purge", "all activity deleted")
	})
}

func audit(ctx context.Context, tx *sql.Tx, action, detail string) error {
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO audit_log (action, detail) VALUES (?, ?)", action, detail,
	); err != nil {
		return fmt.Errorf("write audit log: %w", err)
	}
	return nil
}
