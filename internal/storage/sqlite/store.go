package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const defaultPath = "data/arb.db"

// Store wraps a SQLite DB connection.
type Store struct {
	path string
	db   *sql.DB
}

// Open creates (if needed) and opens the SQLite database.
func Open(path string) (*Store, error) {
	if path == "" {
		path = defaultPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure data dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := ensureWAL(db); err != nil {
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	return &Store{path: path, db: db}, nil
}

func ensureWAL(db *sql.DB) error {
	const (
		maxAttempts = 5
		delay       = 200 * time.Millisecond
	)
	for i := 0; i < maxAttempts; i++ {
		if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			if strings.Contains(err.Error(), "database is locked") {
				time.Sleep(delay)
				continue
			}
			return err
		}
		return nil
	}
	return fmt.Errorf("database is locked after retries")
}

// Path returns the path backing the store.
func (s *Store) Path() string {
	return s.path
}

// Close closes the DB.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// CreateTables ensures the opportunities table exists.
func (s *Store) CreateTables(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, opportunitySchemaSQL)
	return err
}

// DropTables removes the opportunities table.
func (s *Store) DropTables(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DROP TABLE IF EXISTS opportunities;`)
	return err
}

// ClearTables truncates the opportunities table.
func (s *Store) ClearTables(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM opportunities;`)
	return err
}

const opportunitySchemaSQL = `
CREATE TABLE IF NOT EXISTS opportunities (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	pair_id TEXT NOT NULL,
	opportunity_type TEXT NOT NULL,
	direction TEXT NOT NULL,
	venue_a TEXT NOT NULL,
	venue_b TEXT NOT NULL,
	side_a TEXT NOT NULL,
	side_b TEXT NOT NULL,
	price_a REAL NOT NULL,
	price_b REAL NOT NULL,
	cost_a REAL NOT NULL,
	cost_b REAL NOT NULL,
	gross_edge REAL NOT NULL,
	net_edge REAL NOT NULL,
	max_position_size REAL NOT NULL,
	expected_profit REAL NOT NULL,
	slippage_estimate REAL NOT NULL,
	timing_risk REAL NOT NULL,
	resolution_risk REAL NOT NULL,
	match_confidence REAL NOT NULL,
	review_required INTEGER NOT NULL,
	risk_factors_json TEXT,
	feasible INTEGER,
	feasible_max_size REAL,
	feasible_net_edge REAL,
	feasible_slippage REAL,
	constraints_json TEXT,
	detected_at TEXT NOT NULL,
	recorded_at TEXT NOT NULL,
	raw_json TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS opportunities_pair_idx ON opportunities(pair_id, detected_at);
CREATE INDEX IF NOT EXISTS opportunities_edge_idx ON opportunities(net_edge);
`
