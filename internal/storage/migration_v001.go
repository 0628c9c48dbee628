package storage

import "database/sql"

// migrateV001 creates the initial Lookback schema: tabs, sessions, active
// intervals, page visits, exclusions and the audit log. Every statement uses
// IF NOT EXISTS for idempotency.
//
// Timestamps are fixed-width UTC text (see timestampLayout) so range
// predicates compare lexicographically.
func migrateV001(tx *sql.Tx) error {
	stmts := []string{
		// ── Tables ──────────────────────────────────────────────

		`CREATE TABLE IF NOT EXISTS tabs (
			id         TEXT PRIMARY KEY,
			owner      TEXT NOT NULL DEFAULT 'local',
			created_at TEXT NOT NULL,
			closed_at  TEXT,
			CHECK (closed_at IS NULL OR closed_at >= created_at)
		)`,

		`CREATE TABLE IF NOT EXISTS sessions (
			id         TEXT PRIMARY KEY,
			tab_id     TEXT NOT NULL REFERENCES tabs(id) ON DELETE CASCADE,
			url        TEXT NOT NULL DEFAULT '',
			site       TEXT NOT NULL DEFAULT '',
			title      TEXT NOT NULL DEFAULT '',
			favicon    TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			closed_at  TEXT,
			CHECK (closed_at IS NULL OR closed_at >= created_at)
		)`,

		`CREATE TABLE IF NOT EXISTS intervals (
			id         TEXT PRIMARY KEY,
			session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			start_at   TEXT NOT NULL,
			end_at     TEXT,
			CHECK (end_at IS NULL OR end_at >= start_at)
		)`,

		`CREATE TABLE IF NOT EXISTS page_visits (
			id         TEXT PRIMARY KEY,
			session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			url        TEXT NOT NULL DEFAULT '',
			visited_at TEXT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS exclusions (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			rule_type  TEXT NOT NULL CHECK (rule_type IN ('domain', 'regex')),
			rule_value TEXT NOT NULL,
			reason     TEXT NOT NULL DEFAULT '',
			is_default BOOLEAN NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(rule_type, rule_value)
		)`,

		`CREATE TABLE IF NOT EXISTS audit_log (
			id     INTEGER PRIMARY KEY AUTOINCREMENT,
			action TEXT NOT NULL,
			detail TEXT NOT NULL DEFAULT '',
			ts     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		// ── Indexes ────────────────────────────────────────────

		`CREATE INDEX IF NOT EXISTS idx_tabs_owner_created     ON tabs(owner, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_tabs_closed            ON tabs(closed_at)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_tab           ON sessions(tab_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_lifetime      ON sessions(created_at, closed_at)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_site          ON sessions(site)`,
		`CREATE INDEX IF NOT EXISTS idx_intervals_session      ON intervals(session_id, start_at)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_intervals_open  ON intervals(session_id) WHERE end_at IS NULL`,
		`CREATE INDEX IF NOT EXISTS idx_page_visits_session    ON page_visits(session_id, visited_at)`,
		`CREATE INDEX IF NOT EXISTS idx_exclusions_rule        ON exclusions(rule_type, rule_value)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_log_ts           ON audit_log(ts)`,
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}

	return seedDefaultExclusions(tx)
}

// seedDefaultExclusions inserts the pattern rules every install starts with.
// Domain rules come from configuration through SeedExclusions.
func seedDefaultExclusions(tx *sql.Tx) error {
	defaults := []struct {
		RuleType  string
		RuleValue string
		Reason    string
	}{
		{"regex", `.*\.xxx$`, "Adult content exclusion"},
		{"regex", `(^|\.)pornhub\.com$`, "Adult content exclusion"},
	}

	const insertSQL = `INSERT OR IGNORE INTO exclusions (rule_type, rule_value, reason, is_default) VALUES (?, ?, ?, 1)`

	for _, r := range defaults {
		if _, err := tx.Exec(insertSQL, r.RuleType, r.RuleValue, r.Reason); err != nil {
			return err
		}
	}

	return nil
}
