// Package datasetdb is an optional diagnostics sink: it loads an
// assembled dataset into a queryable SQLite table so it can be inspected
// with ad-hoc SQL instead of re-parsing the packed binary format. It is
// additive — the primary codec in internal/codec is the dataset's
// source of truth; this package never reads back its own table.
package datasetdb

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/sarchlab/llvm-ml-bench/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS dataset_entries (
	id             TEXT PRIMARY KEY,
	cov            REAL NOT NULL,
	measured_cycles INTEGER NOT NULL,
	node_count     INTEGER NOT NULL,
	source         TEXT NOT NULL
);
`

// Open opens the SQLite database at path (creating the file if needed)
// and creates the dataset_entries table if it does not exist. Rows
// already in an existing table are kept.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("datasetdb: open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("datasetdb: create schema: %w", err)
	}
	return db, nil
}

// Load inserts every entry into the dataset_entries table within one
// transaction, replacing any row with a colliding id.
func Load(db *sql.DB, entries []model.DatasetEntry) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("datasetdb: begin: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO dataset_entries (id, cov, measured_cycles, node_count, source)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			cov = excluded.cov,
			measured_cycles = excluded.measured_cycles,
			node_count = excluded.node_count,
			source = excluded.source
	`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("datasetdb: prepare insert: %w", err)
	}
	defer stmt.Close()

	for i := range entries {
		e := &entries[i]
		if _, err := stmt.Exec(e.ID, e.CoV, e.Metrics.MeasuredCycles, e.Graph.NodeCount(), e.Graph.Source); err != nil {
			tx.Rollback()
			return fmt.Errorf("datasetdb: insert %s: %w", e.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("datasetdb: commit: %w", err)
	}
	return nil
}

// Count returns the number of rows currently in dataset_entries, mostly
// useful for tests and CLI confirmation output.
func Count(db *sql.DB) (int, error) {
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM dataset_entries`).Scan(&n); err != nil {
		return 0, fmt.Errorf("datasetdb: count: %w", err)
	}
	return n, nil
}
