package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	pgcontainer "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestDB creates a PostgreSQL container and applies migrations.
// Returns a cleanup function that must be called after tests complete.
func setupTestDB(t *testing.T) (*Pool, func()) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	container, err := pgcontainer.Run(ctx, "postgres:15-alpine",
		pgcontainer.WithDatabase("testdb"),
		pgcontainer.WithUsername("test"),
		pgcontainer.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start postgres container")

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "failed to get connection string")

	pool, err := NewPool(ctx, dsn)
	require.NoError(t, err, "failed to create pool")

	applyMigrations(t, ctx, pool)

	cleanup := func() {
		pool.Close()
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	}

	return pool, cleanup
}

// applyMigrations runs the embedded schema against the test database.
// Kept in this package to avoid an import cycle with the migrations
// runner, which imports postgres.
func applyMigrations(t *testing.T, ctx context.Context, pool *Pool) {
	t.Helper()

	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS trades (
			signature           TEXT PRIMARY KEY,
			mint                TEXT NOT NULL,
			trader_public_key   TEXT,
			tx_type             TEXT NOT NULL CHECK (tx_type IN ('buy', 'sell')),
			token_amount        DOUBLE PRECISION,
			sol_amount          DOUBLE PRECISION,
			tokens_in_pool      DOUBLE PRECISION,
			sol_in_pool         DOUBLE PRECISION,
			market_cap_sol      DOUBLE PRECISION,
			pool                TEXT,
			tracked_token_count INTEGER NOT NULL,
			received_at         BIGINT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_trades_mint ON trades (mint);
		CREATE INDEX IF NOT EXISTS idx_trades_received_at ON trades (received_at);
	`)
	require.NoError(t, err, "failed to apply schema")
}
