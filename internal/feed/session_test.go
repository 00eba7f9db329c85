package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pumpstream/internal/domain"
	"pumpstream/internal/storage"
	"pumpstream/internal/storage/memory"
	"pumpstream/internal/watchlist"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// feedServer is a fake PumpPortal endpoint. It records subscription
// directives and hands connections to the test for pushing messages.
type feedServer struct {
	server *httptest.Server
	conns  chan *websocket.Conn

	mu         sync.Mutex
	directives []directive
}

func newFeedServer(t *testing.T) *feedServer {
	t.Helper()
	fs := &feedServer{conns: make(chan *websocket.Conn, 8)}
	fs.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		fs.conns <- conn

		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var d directive
			if err := json.Unmarshal(raw, &d); err == nil && d.Method != "" {
				fs.mu.Lock()
				fs.directives = append(fs.directives, d)
				fs.mu.Unlock()
			}
		}
	}))
	t.Cleanup(fs.server.Close)
	return fs
}

func (fs *feedServer) url() string {
	return "ws" + strings.TrimPrefix(fs.server.URL, "http")
}

func (fs *feedServer) waitConn(t *testing.T) *websocket.Conn {
	t.Helper()
	select {
	case conn := <-fs.conns:
		return conn
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for connection")
		return nil
	}
}

func (fs *feedServer) recorded() []directive {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	out := make([]directive, len(fs.directives))
	copy(out, fs.directives)
	return out
}

func (fs *feedServer) send(t *testing.T, conn *websocket.Conn, payload string) {
	t.Helper()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(payload)))
}

func testSessionConfig(url string) SessionConfig {
	cfg := DefaultSessionConfig()
	cfg.URL = url
	cfg.PingInterval = 0
	cfg.ReadTimeout = 5 * time.Second
	return cfg
}

func startSession(t *testing.T, ctx context.Context, sess *Session) <-chan error {
	t.Helper()
	errCh := make(chan error, 1)
	go func() { errCh <- sess.Run(ctx) }()
	return errCh
}

func waitSessionEnd(t *testing.T, errCh <-chan error) error {
	t.Helper()
	select {
	case err := <-errCh:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for session to end")
		return nil
	}
}

func TestSessionResyncSubscribesFullWatchlist(t *testing.T) {
	fs := newFeedServer(t)

	watch := watchlist.New()
	watch.Seed([]string{"MintA", "MintB", "MintC"})

	cfg := testSessionConfig(fs.url())
	cfg.SubscribeChunkSize = 2

	sess, err := NewSession(SessionOptions{
		Config:    cfg,
		Watchlist: watch,
		Store:     memory.NewTradeStore(),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := startSession(t, ctx, sess)
	fs.waitConn(t)

	require.Eventually(t, func() bool {
		return len(fs.recorded()) == 3
	}, 5*time.Second, 10*time.Millisecond)

	got := fs.recorded()
	assert.Equal(t, methodSubscribeNewToken, got[0].Method)
	assert.Empty(t, got[0].Keys)

	var keys []string
	for _, d := range got[1:] {
		assert.Equal(t, methodSubscribeTokenTrade, d.Method)
		assert.LessOrEqual(t, len(d.Keys), 2)
		keys = append(keys, d.Keys...)
	}
	assert.ElementsMatch(t, []string{"MintA", "MintB", "MintC"}, keys)

	cancel()
	err = waitSessionEnd(t, errCh)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateClosed, sess.State())
}

func TestSessionStoresTradesAndAbsorbsDuplicates(t *testing.T) {
	fs := newFeedServer(t)

	watch := watchlist.New()
	watch.AddIfAbsent("MintA")
	store := memory.NewTradeStore()

	sess, err := NewSession(SessionOptions{
		Config:    testSessionConfig(fs.url()),
		Watchlist: watch,
		Store:     store,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := startSession(t, ctx, sess)
	conn := fs.waitConn(t)

	trade := `{"txType":"buy","mint":"MintA","signature":"sig1","traderPublicKey":"TraderA","solAmount":0.5}`
	fs.send(t, conn, trade)
	fs.send(t, conn, trade)
	fs.send(t, conn, `{"txType":"sell","mint":"MintA","signature":"sig2","solAmount":0.1}`)

	require.Eventually(t, func() bool {
		n, err := store.Count(context.Background())
		return err == nil && n == 2
	}, 5*time.Second, 10*time.Millisecond)

	stored, err := store.GetBySignature(context.Background(), "sig1")
	require.NoError(t, err)
	assert.Equal(t, "MintA", stored.Mint)
	assert.Equal(t, 1, stored.TrackedTokenCount)
	assert.NotZero(t, stored.ReceivedAt)

	cancel()
	waitSessionEnd(t, errCh)

	// Duplicates never inflate the ledger.
	n, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

func TestSessionDropsUntrackedAndMalformedTrades(t *testing.T) {
	fs := newFeedServer(t)

	watch := watchlist.New()
	watch.AddIfAbsent("MintA")
	store := memory.NewTradeStore()

	sess, err := NewSession(SessionOptions{
		Config:    testSessionConfig(fs.url()),
		Watchlist: watch,
		Store:     store,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := startSession(t, ctx, sess)
	conn := fs.waitConn(t)

	fs.send(t, conn, `{"txType":"buy","mint":"MintUntracked","signature":"sigU"}`)
	fs.send(t, conn, `{"txType":"buy","mint":"MintA"}`)
	fs.send(t, conn, `{"txType":"buy","mint":"MintA","signature":"sigOK"}`)

	require.Eventually(t, func() bool {
		n, err := store.Count(context.Background())
		return err == nil && n == 1
	}, 5*time.Second, 10*time.Millisecond)

	_, err = store.GetBySignature(context.Background(), "sigU")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	cancel()
	waitSessionEnd(t, errCh)
}

func TestSessionDiscoverySubscribesNewToken(t *testing.T) {
	fs := newFeedServer(t)

	watch := watchlist.New()
	store := memory.NewTradeStore()

	sess, err := NewSession(SessionOptions{
		Config:    testSessionConfig(fs.url()),
		Watchlist: watch,
		Store:     store,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := startSession(t, ctx, sess)
	conn := fs.waitConn(t)

	fs.send(t, conn, `{"txType":"create","mint":"MintNew","name":"Fresh","symbol":"FRS"}`)

	require.Eventually(t, func() bool {
		for _, d := range fs.recorded() {
			if d.Method == methodSubscribeTokenTrade && len(d.Keys) == 1 && d.Keys[0] == "MintNew" {
				return true
			}
		}
		return false
	}, 5*time.Second, 10*time.Millisecond)
	assert.True(t, watch.Contains("MintNew"))

	// Redelivered creation events are idempotent.
	fs.send(t, conn, `{"txType":"create","mint":"MintNew","name":"Fresh","symbol":"FRS"}`)

	// Trades for the discovered mint now land in the ledger, and a
	// redelivered trade leaves exactly one row.
	fs.send(t, conn, `{"txType":"buy","mint":"MintNew","signature":"sigN","tokenAmount":10,"solAmount":1,"marketCapSol":50}`)
	require.Eventually(t, func() bool {
		n, err := store.Count(context.Background())
		return err == nil && n == 1
	}, 5*time.Second, 10*time.Millisecond)

	fs.send(t, conn, `{"txType":"buy","mint":"MintNew","signature":"sigN","tokenAmount":10,"solAmount":1,"marketCapSol":50}`)
	fs.send(t, conn, `{"txType":"sell","mint":"MintNew","signature":"sigN2"}`)
	require.Eventually(t, func() bool {
		_, err := store.GetBySignature(context.Background(), "sigN2")
		return err == nil
	}, 5*time.Second, 10*time.Millisecond)

	n, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, n, "redelivery of sigN must not add a row")
	assert.Equal(t, 1, watch.Len())

	cancel()
	waitSessionEnd(t, errCh)
}

func TestSessionSurvivesStoreFailure(t *testing.T) {
	fs := newFeedServer(t)

	watch := watchlist.New()
	watch.AddIfAbsent("MintA")
	store := &flakyStore{TradeStore: memory.NewTradeStore(), failSig: "sigBad"}

	sess, err := NewSession(SessionOptions{
		Config:    testSessionConfig(fs.url()),
		Watchlist: watch,
		Store:     store,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := startSession(t, ctx, sess)
	conn := fs.waitConn(t)

	fs.send(t, conn, `{"txType":"buy","mint":"MintA","signature":"sigBad"}`)
	fs.send(t, conn, `{"txType":"buy","mint":"MintA","signature":"sigGood"}`)

	// The failed write is logged and skipped; the stream continues.
	require.Eventually(t, func() bool {
		_, err := store.GetBySignature(context.Background(), "sigGood")
		return err == nil
	}, 5*time.Second, 10*time.Millisecond)

	_, err = store.GetBySignature(context.Background(), "sigBad")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	cancel()
	waitSessionEnd(t, errCh)
}

func TestSessionEndsOnServerClose(t *testing.T) {
	fs := newFeedServer(t)

	sess, err := NewSession(SessionOptions{
		Config:    testSessionConfig(fs.url()),
		Watchlist: watchlist.New(),
		Store:     memory.NewTradeStore(),
	})
	require.NoError(t, err)

	ctx := context.Background()
	errCh := startSession(t, ctx, sess)
	conn := fs.waitConn(t)

	require.NoError(t, conn.Close())

	err = waitSessionEnd(t, errCh)
	require.Error(t, err)
	assert.NotErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateClosed, sess.State())
}

func TestSessionDialFailure(t *testing.T) {
	sess, err := NewSession(SessionOptions{
		Config:    testSessionConfig("ws://127.0.0.1:1/feed"),
		Watchlist: watchlist.New(),
		Store:     memory.NewTradeStore(),
	})
	require.NoError(t, err)

	err = sess.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dial")
}

func TestNewSessionValidation(t *testing.T) {
	_, err := NewSession(SessionOptions{Store: memory.NewTradeStore()})
	assert.Error(t, err)

	_, err = NewSession(SessionOptions{Watchlist: watchlist.New()})
	assert.Error(t, err)
}

// flakyStore fails writes for one signature.
type flakyStore struct {
	storage.TradeStore
	failSig string
}

func (f *flakyStore) Insert(ctx context.Context, tr *domain.TokenTrade) error {
	if tr.Signature == f.failSig {
		return fmt.Errorf("write trade: disk full")
	}
	return f.TradeStore.Insert(ctx, tr)
}
