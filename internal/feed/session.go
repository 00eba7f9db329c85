package feed

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"pumpstream/internal/domain"
	"pumpstream/internal/observability"
	"pumpstream/internal/storage"
	"pumpstream/internal/watchlist"
)

// State describes a session's lifecycle phase.
type State int32

const (
	StateConnecting State = iota
	StateSubscribing
	StateStreaming
	StateClosed
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateSubscribing:
		return "subscribing"
	case StateStreaming:
		return "streaming"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// SessionConfig configures a single feed connection.
type SessionConfig struct {
	// URL is the WebSocket endpoint.
	URL string
	// HandshakeTimeout bounds the WebSocket handshake.
	HandshakeTimeout time.Duration
	// ReadTimeout is the maximum silence tolerated between messages.
	ReadTimeout time.Duration
	// WriteTimeout bounds outbound directive writes.
	WriteTimeout time.Duration
	// PingInterval is the interval for sending ping frames.
	PingInterval time.Duration
	// SubscribeChunkSize caps the number of mints per directive.
	SubscribeChunkSize int
}

// DefaultSessionConfig returns default session configuration.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		URL:                "wss://pumpportal.fun/api/data",
		HandshakeTimeout:   10 * time.Second,
		ReadTimeout:        60 * time.Second,
		WriteTimeout:       10 * time.Second,
		PingInterval:       20 * time.Second,
		SubscribeChunkSize: 50,
	}
}

// SessionOptions holds dependencies for creating a Session.
type SessionOptions struct {
	Config    SessionConfig
	Watchlist *watchlist.Watchlist
	Store     storage.TradeStore
	Metrics   *observability.Metrics
	Logger    *log.Logger
}

// Session is one connection to the feed. It subscribes to token
// discovery and to trades for every tracked mint, then streams until
// the connection drops or the context is canceled. A session is not
// reused; the supervisor creates a fresh one per attempt.
type Session struct {
	cfg     SessionConfig
	watch   *watchlist.Watchlist
	store   storage.TradeStore
	metrics *observability.Metrics
	logger  *log.Logger

	conn   *websocket.Conn
	connMu sync.Mutex
	state  atomic.Int32
}

// NewSession creates a new Session.
func NewSession(opts SessionOptions) (*Session, error) {
	if opts.Watchlist == nil {
		return nil, fmt.Errorf("watchlist is required")
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("store is required")
	}

	cfg := opts.Config
	def := DefaultSessionConfig()
	if cfg.URL == "" {
		cfg.URL = def.URL
	}
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = def.HandshakeTimeout
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = def.WriteTimeout
	}
	if cfg.SubscribeChunkSize <= 0 {
		cfg.SubscribeChunkSize = def.SubscribeChunkSize
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Session{
		cfg:     cfg,
		watch:   opts.Watchlist,
		store:   opts.Store,
		metrics: opts.Metrics,
		logger:  logger,
	}, nil
}

// State returns the session's current lifecycle phase.
func (s *Session) State() State {
	return State(s.state.Load())
}

func (s *Session) setState(st State) {
	s.state.Store(int32(st))
}

// Run connects, subscribes, and streams until the connection fails or
// ctx is canceled. It always returns a non-nil error describing why
// the session ended.
func (s *Session) Run(ctx context.Context) error {
	s.setState(StateConnecting)

	dialer := websocket.Dialer{HandshakeTimeout: s.cfg.HandshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, s.cfg.URL, nil)
	if err != nil {
		s.setState(StateClosed)
		return fmt.Errorf("dial %s: %w", s.cfg.URL, err)
	}

	s.connMu.Lock()
	s.conn = conn
	s.connMu.Unlock()

	defer func() {
		conn.Close()
		s.setState(StateClosed)
	}()

	if s.metrics != nil {
		s.metrics.SessionsStarted.Inc()
	}

	// Unblock the read loop on cancellation by closing the connection.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			s.closeGracefully()
		case <-done:
		}
	}()

	s.setState(StateSubscribing)
	if err := s.resync(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("resync subscriptions: %w", err)
	}
	s.setState(StateStreaming)

	if s.cfg.PingInterval > 0 {
		go s.pingLoop(done)
	}

	for {
		if s.cfg.ReadTimeout > 0 {
			conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
		}
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read message: %w", err)
		}
		s.handleMessage(ctx, raw)
	}
}

// resync subscribes to token discovery and to trades for the full
// current watchlist. Every session starts from the complete set, so a
// reconnect restores subscriptions without tracking per-connection
// deltas.
func (s *Session) resync(ctx context.Context) error {
	if err := s.writeDirective(directive{Method: methodSubscribeNewToken}); err != nil {
		return err
	}
	if s.metrics != nil {
		s.metrics.SubscribeDirectives.WithLabelValues(methodSubscribeNewToken).Inc()
	}

	if err := s.Subscribe(ctx, s.watch.Snapshot()); err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.TrackedTokens.Set(float64(s.watch.Len()))
	}
	return nil
}

// Subscribe sends trade subscription directives for the given mints,
// chunked to respect the directive size cap.
func (s *Session) Subscribe(ctx context.Context, mints []string) error {
	return s.sendKeyed(ctx, methodSubscribeTokenTrade, mints)
}

// Unsubscribe sends trade unsubscription directives for the given
// mints. It does not remove them from the watchlist; a later session
// resubscribes to the full tracked set.
func (s *Session) Unsubscribe(ctx context.Context, mints []string) error {
	return s.sendKeyed(ctx, methodUnsubscribeTokenTrade, mints)
}

func (s *Session) sendKeyed(ctx context.Context, method string, mints []string) error {
	for start := 0; start < len(mints); start += s.cfg.SubscribeChunkSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := start + s.cfg.SubscribeChunkSize
		if end > len(mints) {
			end = len(mints)
		}
		if err := s.writeDirective(directive{Method: method, Keys: mints[start:end]}); err != nil {
			return err
		}
		if s.metrics != nil {
			s.metrics.SubscribeDirectives.WithLabelValues(method).Inc()
		}
	}
	return nil
}

func (s *Session) writeDirective(d directive) error {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	if s.conn == nil {
		return fmt.Errorf("session not connected")
	}
	if s.cfg.WriteTimeout > 0 {
		s.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	}
	if err := s.conn.WriteJSON(d); err != nil {
		return fmt.Errorf("write %s directive: %w", d.Method, err)
	}
	return nil
}

func (s *Session) handleMessage(ctx context.Context, raw []byte) {
	msg := Classify(raw)
	if s.metrics != nil {
		s.metrics.MessagesReceived.WithLabelValues(msg.Kind.String()).Inc()
	}

	switch msg.Kind {
	case KindTrade:
		s.handleTrade(ctx, msg.Trade)
	case KindNewToken:
		s.handleNewToken(ctx, msg.Token)
	case KindSubscriptionAck:
		s.logger.Printf("feed: subscription confirmed: %s", msg.Text)
	case KindServerError:
		if s.metrics != nil {
			s.metrics.ServerErrors.Inc()
		}
		s.logger.Printf("feed: server error: %s", msg.Text)
	default:
		s.logger.Printf("feed: unrecognized message: %.200s", raw)
	}
}

// handleTrade records a trade for a tracked mint. Trades for untracked
// mints are dropped: the server may still deliver a few after an
// unsubscribe, and discovery subscriptions are broader than the
// watchlist.
func (s *Session) handleTrade(ctx context.Context, t *domain.TokenTrade) {
	if t.Signature == "" || t.Mint == "" {
		if s.metrics != nil {
			s.metrics.MalformedTrades.Inc()
		}
		s.logger.Printf("feed: trade missing signature or mint, dropped")
		return
	}

	if !s.watch.Contains(t.Mint) {
		if s.metrics != nil {
			s.metrics.UntrackedTrades.Inc()
		}
		return
	}

	t.TrackedTokenCount = s.watch.Len()
	t.ReceivedAt = time.Now().UnixMilli()

	err := s.store.Insert(ctx, t)
	switch {
	case err == nil:
		if s.metrics != nil {
			s.metrics.TradesStored.Inc()
		}
		s.logger.Printf("trade: %s %s sol=%.4f sig=%s", t.TxType, t.Mint, t.SolAmount, t.Signature)
	case errors.Is(err, storage.ErrDuplicateKey):
		// Redelivery after a reconnect. Already in the ledger.
		if s.metrics != nil {
			s.metrics.DuplicateTrades.Inc()
		}
	case errors.Is(err, storage.ErrInvalidInput):
		if s.metrics != nil {
			s.metrics.MalformedTrades.Inc()
		}
		s.logger.Printf("feed: trade %s rejected: %v", t.Signature, err)
	default:
		if s.metrics != nil {
			s.metrics.StoreErrors.Inc()
		}
		s.logger.Printf("feed: store trade %s: %v", t.Signature, err)
	}
}

// handleNewToken adds a discovered token to the watchlist and
// subscribes to its trades. If the subscribe write fails the mint stays
// tracked; the next session's resync covers it.
func (s *Session) handleNewToken(ctx context.Context, tok *domain.NewTokenEvent) {
	if tok.Mint == "" {
		s.logger.Printf("feed: token creation missing mint, dropped")
		return
	}

	if !s.watch.AddIfAbsent(tok.Mint) {
		return
	}

	if s.metrics != nil {
		s.metrics.TokensDiscovered.Inc()
		s.metrics.TrackedTokens.Set(float64(s.watch.Len()))
	}
	s.logger.Printf("new token: %s %q (%s), tracking %d", tok.Mint, tok.Name, tok.Symbol, s.watch.Len())

	if err := s.Subscribe(ctx, []string{tok.Mint}); err != nil {
		s.logger.Printf("feed: subscribe to %s: %v", tok.Mint, err)
	}
}

func (s *Session) pingLoop(done <-chan struct{}) {
	ticker := time.NewTicker(s.cfg.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			s.connMu.Lock()
			if s.conn != nil {
				deadline := time.Now().Add(s.cfg.WriteTimeout)
				// Write failures surface through the read loop.
				s.conn.WriteControl(websocket.PingMessage, nil, deadline)
			}
			s.connMu.Unlock()
		}
	}
}

func (s *Session) closeGracefully() {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	if s.conn == nil {
		return
	}
	deadline := time.Now().Add(s.cfg.WriteTimeout)
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	s.conn.WriteControl(websocket.CloseMessage, msg, deadline)
	s.conn.Close()
}
