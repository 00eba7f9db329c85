package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"pumpstream/internal/config"
	"pumpstream/internal/reporting"
	"pumpstream/internal/storage"
	pgstore "pumpstream/internal/storage/postgres"
	"pumpstream/internal/storage/sqlite"
)

func main() {
	backend := flag.String("backend", config.BackendSQLite, "Ledger backend: sqlite or postgres")
	sqlitePath := flag.String("sqlite-path", "trades.db", "SQLite database path")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string")
	since := flag.Duration("since", 0, "Limit the report to trades within this duration (0 = all)")
	minMarketCap := flag.Float64("min-market-cap", 0, "Drop tokens below this market cap in SOL")
	topTraders := flag.Int("top-traders", 20, "Number of traders to list (0 = all)")
	format := flag.String("format", "md", "Output format: md or csv")
	output := flag.String("output", "", "Output file (default stdout)")

	flag.Parse()

	logger := log.New(os.Stderr, "[report] ", log.LstdFlags)

	if *format != "md" && *format != "csv" {
		logger.Fatalf("Unknown format: %s", *format)
	}

	ctx := context.Background()

	store, closeStore, err := openStore(ctx, *backend, *sqlitePath, *postgresDSN)
	if err != nil {
		logger.Fatalf("Open ledger: %v", err)
	}
	defer closeStore()

	report, err := reporting.NewGenerator(store).Generate(ctx, reporting.Options{
		Since:           *since,
		MinMarketCapSol: *minMarketCap,
		TopTraders:      *topTraders,
	})
	if err != nil {
		logger.Fatalf("Generate report: %v", err)
	}

	var rendered string
	switch *format {
	case "md":
		rendered = reporting.RenderMarkdown(report)
	case "csv":
		rendered = reporting.RenderCSV(report)
	}

	if *output == "" {
		fmt.Print(rendered)
		return
	}
	if err := os.WriteFile(*output, []byte(rendered), 0o644); err != nil {
		logger.Fatalf("Write report: %v", err)
	}
	logger.Printf("Report written to %s (%d trades, %d tokens)", *output, report.TotalTrades, len(report.Tokens))
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
