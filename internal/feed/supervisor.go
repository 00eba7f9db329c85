package feed

import (
	"context"
	"fmt"
	"log"
	"time"

	"pumpstream/internal/bootstrap"
	"pumpstream/internal/observability"
	"pumpstream/internal/storage"
	"pumpstream/internal/watchlist"
)

// DefaultReconnectDelay is the pause between session attempts.
const DefaultReconnectDelay = 10 * time.Second

// SupervisorOptions holds dependencies for creating a Supervisor.
type SupervisorOptions struct {
	Session        SessionConfig
	ReconnectDelay time.Duration
	Watchlist      *watchlist.Watchlist
	Store          storage.TradeStore
	Seeds          []bootstrap.SeedSource
	Metrics        *observability.Metrics
	Logger         *log.Logger
}

// Supervisor keeps the monitor connected. It seeds the watchlist once,
// then runs sessions in a loop, waiting a fixed delay after each
// failure. The delay is deliberately not exponential: the feed is a
// single public endpoint and trades missed while disconnected are gone,
// so reconnecting promptly matters more than backing off.
type Supervisor struct {
	sessionCfg     SessionConfig
	reconnectDelay time.Duration
	watch          *watchlist.Watchlist
	store          storage.TradeStore
	seeds          []bootstrap.SeedSource
	metrics        *observability.Metrics
	logger         *log.Logger
}

// NewSupervisor creates a new Supervisor.
func NewSupervisor(opts SupervisorOptions) (*Supervisor, error) {
	if opts.Watchlist == nil {
		return nil, fmt.Errorf("watchlist is required")
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("store is required")
	}

	delay := opts.ReconnectDelay
	if delay <= 0 {
		delay = DefaultReconnectDelay
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Supervisor{
		sessionCfg:     opts.Session,
		reconnectDelay: delay,
		watch:          opts.Watchlist,
		store:          opts.Store,
		seeds:          opts.Seeds,
		metrics:        opts.Metrics,
		logger:         logger,
	}, nil
}

// Run seeds the watchlist, then runs sessions until ctx is canceled.
// It returns ctx.Err() on cancellation and a seeding error if the
// initial watchlist cannot be assembled.
func (s *Supervisor) Run(ctx context.Context) error {
	if err := s.seedWatchlist(ctx); err != nil {
		return err
	}

	for {
		sess, err := NewSession(SessionOptions{
			Config:    s.sessionCfg,
			Watchlist: s.watch,
			Store:     s.store,
			Metrics:   s.metrics,
			Logger:    s.logger,
		})
		if err != nil {
			return fmt.Errorf("create session: %w", err)
		}

		err = sess.Run(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		s.logger.Printf("feed: session ended: %v, reconnecting in %s", err, s.reconnectDelay)
		if s.metrics != nil {
			s.metrics.Reconnects.Inc()
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.reconnectDelay):
		}
	}
}

// seedWatchlist unions the configured seed sources into the watchlist
// before the first connection.
func (s *Supervisor) seedWatchlist(ctx context.Context) error {
	for _, src := range s.seeds {
		mints, err := src.Seeds(ctx)
		if err != nil {
			return fmt.Errorf("seed source %s: %w", src.Name(), err)
		}
		added := s.watch.Seed(mints)
		s.logger.Printf("watchlist: %d new mints from %s", added, src.Name())
	}

	s.logger.Printf("watchlist: tracking %d mints", s.watch.Len())
	if s.metrics != nil {
		s.metrics.TrackedTokens.Set(float64(s.watch.Len()))
	}
	return nil
}
