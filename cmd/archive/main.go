package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"pumpstream/internal/config"
	"pumpstream/internal/storage"
	chstore "pumpstream/internal/storage/clickhouse"
	"pumpstream/internal/storage/migrations"
	pgstore "pumpstream/internal/storage/postgres"
	"pumpstream/internal/storage/sqlite"
)

func main() {
	backend := flag.String("backend", config.BackendSQLite, "Ledger backend: sqlite or postgres")
	sqlitePath := flag.String("sqlite-path", "trades.db", "SQLite database path")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", "clickhouse://localhost:9000/default", "ClickHouse connection string")
	since := flag.Duration("since", 0, "Archive trades received within this duration (0 = all)")
	batchSize := flag.Int("batch-size", 1000, "Rows per insert batch")

	flag.Parse()

	logger := log.New(os.Stdout, "[archive] ", log.LstdFlags)

	if *batchSize <= 0 {
		logger.Fatal("batch-size must be positive")
	}

	ctx := context.Background()

	store, closeStore, err := openStore(ctx, *backend, *sqlitePath, *postgresDSN)
	if err != nil {
		logger.Fatalf("Open ledger: %v", err)
	}
	defer closeStore()

	conn, err := chstore.NewConn(ctx, *clickhouseDSN)
	if err != nil {
		logger.Fatalf("Connect to ClickHouse: %v", err)
	}
	defer conn.Close()

	if err := migrations.RunClickhouseMigrations(ctx, conn); err != nil {
		logger.Fatalf("Apply ClickHouse schema: %v", err)
	}

	n, err := archive(ctx, store, chstore.NewTradeArchiveStore(conn), *since, *batchSize)
	if err != nil {
		logger.Fatalf("Archive trades: %v", err)
	}
	logger.Printf("Archived %d trades", n)
}

// archive copies ledger trades into the ClickHouse archive in batches.
func archive(ctx context.Context, store storage.TradeStore, dst storage.TradeArchive, since time.Duration, batchSize int) (int, error) {
	start := int64(0)
	end := time.Now().UnixMilli() + 1
	if since > 0 {
		start = time.Now().Add(-since).UnixMilli()
	}

	trades, err := store.GetByTimeRange(ctx, start, end)
	if err != nil {
		return 0, fmt.Errorf("load trades: %w", err)
	}

	for offset := 0; offset < len(trades); offset += batchSize {
		bound := offset + batchSize
		if bound > len(trades) {
			bound = len(trades)
		}
		batch := trades[offset:bound]
		if err := dst.InsertBatch(ctx, batch); err != nil {
			return offset, fmt.Errorf("insert batch at offset %d: %w", offset, err)
		}
	}

	return len(trades), nil
}

func openStore(ctx context.Context, backend, sqlitePath, postgresDSN string) (storage.TradeStore, func(), error) {
	switch backend {
	case config.BackendSQLite:
		db, err := sqlite.Open(sqlitePath)
		if err != nil {
			return nil, nil, err
		}
		return sqlite.NewTradeStore(db), func() { db.Close() }, nil

	case config.BackendPostgres:
		if postgresDSN == "" {
			return nil, nil, fmt.Errorf("postgres backend requires -postgres-dsn")
		}
		pool, err := pgstore.NewPool(ctx, postgresDSN)
		if err != nil {
			return nil, nil, err
		}
		return pgstore.NewTradeStore(pool), pool.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown backend %q", backend)
	}
}
