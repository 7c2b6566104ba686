package store

import "fmt"

// currentSchemaVersion is the latest schema version.
const currentSchemaVersion = 1

// Migrate runs forward migrations to bring the database schema up to date.
// The DDL sticks to types and clauses SQLite and PostgreSQL share.
func (db *DB) Migrate() error {
	if _, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	version := 0
	row := db.conn.QueryRow("SELECT version FROM schema_version LIMIT 1")
	if err := row.Scan(&version); err != nil {
		// No rows means version 0 (fresh database).
		version = 0
	}

	if version < 1 {
		if err := db.migrateV1(); err != nil {
			return fmt.Errorf("migration v1: %w", err)
		}
	}

	return nil
}

// migrateV1 creates all initial tables and indexes.
func (db *DB) migrateV1() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS entries (
			id            TEXT PRIMARY KEY,
			domain        TEXT NOT NULL,
			entry_date    TEXT NOT NULL,
			amount        TEXT NOT NULL,
			category      TEXT NOT NULL DEFAULT '',
			client_id     TEXT NOT NULL DEFAULT '',
			kind          TEXT NOT NULL DEFAULT '',
			currency_code TEXT NOT NULL DEFAULT ''
		)`,

		`CREATE TABLE IF NOT EXISTS clients (
			domain          TEXT NOT NULL,
			id              TEXT NOT NULL,
			name            TEXT NOT NULL DEFAULT '',
			total_committed TEXT NOT NULL,
			total_paid      TEXT NOT NULL,
			currency_code   TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (domain, id)
		)`,

		`CREATE TABLE IF NOT EXISTS kpi_snapshots (
			id          TEXT PRIMARY KEY,
			recorded_at TEXT NOT NULL,
			body        TEXT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS runs (
			id            TEXT PRIMARY KEY,
			domain        TEXT NOT NULL,
			generated_at  TEXT NOT NULL,
			version       TEXT NOT NULL,
			insight_count INTEGER NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS run_insights (
			run_id     TEXT NOT NULL REFERENCES runs(id),
			seq        INTEGER NOT NULL,
			insight_id TEXT NOT NULL,
			severity   TEXT NOT NULL,
			priority   INTEGER NOT NULL,
			body       TEXT NOT NULL,
			PRIMARY KEY (run_id, seq)
		)`,

		`CREATE TABLE IF NOT EXISTS dismissals (
			domain       TEXT NOT NULL,
			insight_id   TEXT NOT NULL,
			dismissed_at TEXT NOT NULL,
			PRIMARY KEY (domain, insight_id)
		)`,

		// Indexes.
		`CREATE INDEX IF NOT EXISTS idx_entries_domain_date ON entries(domain, entry_date)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_domain ON runs(domain, generated_at)`,
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("executing %q: %w", stmt[:40], err)
		}
	}

	if _, err := tx.Exec("DELETE FROM schema_version"); err != nil {
		return err
	}
	if _, err := tx.Exec(db.rebind("INSERT INTO schema_version (version) VALUES (?)"), currentSchemaVersion); err != nil {
		return err
	}

	return tx.Commit()
}
