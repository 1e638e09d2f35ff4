// Package storage is the relational persistence layer: a local SQLite
// database holding payments, the reference directories and the extraction
// pattern directory.
package storage

import (
	"database/sql"
	"fmt"

	"avolkov/finaudit/internal/patterns"

	_ "modernc.org/sqlite"
)

const schemaVersion = 1

const schemaV1 = `
CREATE TABLE IF NOT EXISTS schema_meta (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS counterparties (
	id      INTEGER PRIMARY KEY AUTOINCREMENT,
	name    TEXT NOT NULL,
	tax_id  TEXT
);

CREATE TABLE IF NOT EXISTS contracts (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	number          TEXT NOT NULL,
	date            TEXT NOT NULL,
	counterparty_id INTEGER REFERENCES counterparties(id),
	UNIQUE(number, date)
);

CREATE TABLE IF NOT EXISTS invoices (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	number      TEXT NOT NULL,
	date        TEXT NOT NULL,
	contract_id INTEGER REFERENCES contracts(id),
	UNIQUE(number, date)
);

CREATE TABLE IF NOT EXISTS budget_codes (
	id    INTEGER PRIMARY KEY AUTOINCREMENT,
	code  TEXT NOT NULL UNIQUE,
	label TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS payments (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	date            TEXT NOT NULL,
	doc_number      TEXT NOT NULL DEFAULT '',
	type            TEXT NOT NULL CHECK (type IN ('income', 'expense')),
	amount          TEXT NOT NULL,
	counterparty_id INTEGER REFERENCES counterparties(id),
	recipient       TEXT NOT NULL DEFAULT '',
	description     TEXT NOT NULL DEFAULT '',
	created_at      TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS payment_details (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	payment_id     INTEGER NOT NULL REFERENCES payments(id) ON DELETE CASCADE,
	budget_code_id INTEGER REFERENCES budget_codes(id),
	contract_id    INTEGER REFERENCES contracts(id),
	invoice_id     INTEGER REFERENCES invoices(id),
	amount         TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS patterns (
	id      INTEGER PRIMARY KEY AUTOINCREMENT,
	name    TEXT NOT NULL UNIQUE,
	pattern TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_payments_date ON payments(date);
CREATE INDEX IF NOT EXISTS idx_payment_details_payment ON payment_details(payment_id);
CREATE INDEX IF NOT EXISTS idx_counterparties_name ON counterparties(name);
`

// Open opens (or creates) the SQLite database and ensures the schema is at
// the current version. Amounts are stored as decimal strings to avoid
// float drift.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	ver, err := currentSchemaVersion(db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("check schema version: %w", err)
	}

	if ver < schemaVersion {
		if err := createSchema(db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("create schema: %w", err)
		}
	}

	return db, nil
}

// currentSchemaVersion returns the schema version from schema_meta, or 0 for
// a fresh database.
func currentSchemaVersion(db *sql.DB) (int, error) {
	var count int
	err := db.QueryRow(`
		SELECT COUNT(*) FROM sqlite_master
		WHERE type='table' AND name='schema_meta'
	`).Scan(&count)
	if err != nil {
		return 0, err
	}
	if count == 0 {
		return 0, nil
	}

	var ver int
	err = db.QueryRow("SELECT version FROM schema_meta LIMIT 1").Scan(&ver)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return ver, err
}

// createSchema creates the v1 schema and seeds the default extraction
// patterns.
func createSchema(db *sql.DB) error {
	if _, err := db.Exec(schemaV1); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}

	if err := seedDefaultPatterns(db); err != nil {
		return fmt.Errorf("seed patterns: %w", err)
	}

	if _, err := db.Exec("INSERT INTO schema_meta (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("insert schema version: %w", err)
	}

	return nil
}

// seedDefaultPatterns inserts the original application's extraction rules.
// Existing rows are left alone so user edits survive reopening.
func seedDefaultPatterns(db *sql.DB) error {
	for _, p := range patterns.Defaults {
		_, err := db.Exec(`
			INSERT INTO patterns (name, pattern) VALUES (?, ?)
			ON CONFLICT(name) DO NOTHING
		`, p.Name, p.Pattern)
		if err != nil {
			return fmt.Errorf("seed pattern %s: %w", p.Name, err)
		}
	}
	return nil
}
