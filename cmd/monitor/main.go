package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pumpstream/internal/bootstrap"
	"pumpstream/internal/config"
	"pumpstream/internal/feed"
	"pumpstream/internal/observability"
	"pumpstream/internal/storage"
	"pumpstream/internal/storage/memory"
	"pumpstream/internal/storage/migrations"
	pgstore "pumpstream/internal/storage/postgres"
	"pumpstream/internal/storage/sqlite"
	"pumpstream/internal/watchlist"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "", "Path to YAML config file")
	feedURL := flag.String("url", "", "Feed WebSocket URL (overrides config)")
	backend := flag.String("backend", "", "Ledger backend: sqlite, postgres, or memory (overrides config)")
	sqlitePath := flag.String("sqlite-path", "", "SQLite database path (overrides config)")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string (overrides config)")
	seedFile := flag.String("seed-file", "", "Initial token list file (overrides config)")
	reconnectDelay := flag.Duration("reconnect-delay", 0, "Delay between reconnect attempts (overrides config)")
	metricsAddr := flag.String("metrics-addr", "", "Prometheus metrics HTTP address (overrides config, empty keeps config value)")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[monitor] ", log.LstdFlags)

	// Load configuration, then apply flag overrides
	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			logger.Fatalf("Load config: %v", err)
		}
		cfg = loaded
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "url":
			cfg.Feed.URL = *feedURL
		case "backend":
			cfg.Storage.Backend = *backend
		case "sqlite-path":
			cfg.Storage.SQLitePath = *sqlitePath
		case "postgres-dsn":
			cfg.Storage.PostgresDSN = *postgresDSN
		case "seed-file":
			cfg.Seeds.File = *seedFile
		case "reconnect-delay":
			cfg.Feed.ReconnectDelay = *reconnectDelay
		case "metrics-addr":
			cfg.Metrics.Addr = *metricsAddr
		}
	})
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("Invalid configuration: %v", err)
	}

	metrics := observability.NewMetrics("")

	// Start metrics server if enabled
	if cfg.Metrics.Addr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler())
			mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("ok"))
			})
			logger.Printf("Starting metrics server on %s", cfg.Metrics.Addr)
			if err := http.ListenAndServe(cfg.Metrics.Addr, mux); err != nil && err != http.ErrServerClosed {
				logger.Printf("Metrics server error: %v", err)
			}
		}()
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())

	// Handle shutdown signals with graceful timeout
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan error, 1)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
			// Normal shutdown completed
		}
	}()

	err := run(ctx, logger, cfg, metrics)

	done <- err
	cancel()

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatalf("Monitor failed: %v", err)
	}
	logger.Println("Monitor stopped")
}

func run(ctx context.Context, logger *log.Logger, cfg config.Config, metrics *observability.Metrics) error {
	store, closeStore, err := openStore(ctx, logger, cfg.Storage)
	if err != nil {
		return err
	}
	defer closeStore()

	var seeds []bootstrap.SeedSource
	if cfg.Seeds.File != "" {
		seeds = append(seeds, bootstrap.FileSeeds{Path: cfg.Seeds.File})
	}
	seeds = append(seeds, bootstrap.LedgerSeeds{Store: store})

	sup, err := feed.NewSupervisor(feed.SupervisorOptions{
		Session: feed.SessionConfig{
			URL:                cfg.Feed.URL,
			HandshakeTimeout:   cfg.Feed.HandshakeTimeout,
			ReadTimeout:        cfg.Feed.ReadTimeout,
			WriteTimeout:       cfg.Feed.WriteTimeout,
			PingInterval:       cfg.Feed.PingInterval,
			SubscribeChunkSize: cfg.Feed.SubscribeChunkSize,
		},
		ReconnectDelay: cfg.Feed.ReconnectDelay,
		Watchlist:      watchlist.New(),
		Store:          store,
		Seeds:          seeds,
		Metrics:        metrics,
		Logger:         logger,
	})
	if err != nil {
		return err
	}

	logger.Printf("Connecting to %s", cfg.Feed.URL)
	return sup.Run(ctx)
}

// openStore builds the configured ledger backend. The returned close
// function is safe to call once.
func openStore(ctx context.Context, logger *log.Logger, cfg config.StorageConfig) (storage.TradeStore, func(), error) {
	switch cfg.Backend {
	case config.BackendSQLite:
		db, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		logger.Printf("Using SQLite ledger at %s", cfg.SQLitePath)
		return sqlite.NewTradeStore(db), func() { db.Close() }, nil

	case config.BackendPostgres:
		pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
		logger.Println("Using PostgreSQL ledger")
		return pgstore.NewTradeStore(pool), pool.Close, nil

	case config.BackendMemory:
		logger.Println("Using in-memory ledger, trades are lost on exit")
		return memory.NewTradeStore(), func() {}, nil

	default:
		// Validate rejects unknown backends before this point.
		return nil, nil, os.ErrInvalid
	}
}
