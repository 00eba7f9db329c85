package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DB wraps database/sql over the modernc sqlite driver.
type DB struct {
	db *sql.DB
}

// Open opens (creating if necessary) the sqlite database at path and
// applies the schema. The connection pool is pinned to a single
// connection; sqlite serializes writers anyway.
func Open(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	d := &DB{db: db}
	if err := d.migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return d, nil
}

// Close closes the database.
func (d *DB) Close() error { return d.db.Close() }

func (d *DB) migrate(ctx context.Context) error {
	_, err := d.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS trades (
  signature TEXT PRIMARY KEY,
  mint TEXT NOT NULL,
  trader_public_key TEXT,
  tx_type TEXT NOT NULL CHECK (tx_type IN ('buy', 'sell')),
  token_amount REAL,
  sol_amount REAL,
  tokens_in_pool REAL,
  sol_in_pool REAL,
  market_cap_sol REAL,
  pool TEXT,
  tracked_token_count INTEGER NOT NULL,
  received_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_trades_mint ON trades(mint);
CREATE INDEX IF NOT EXISTS idx_trades_received_at ON trades(received_at);
`)
	if err != nil {
		return fmt.Errorf("apply sqlite schema: %w", err)
	}
	return nil
}
