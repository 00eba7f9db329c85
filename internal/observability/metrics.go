// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Feed metrics
	SessionsStarted  prometheus.Counter
	Reconnects       prometheus.Counter
	MessagesReceived *prometheus.CounterVec
	ServerErrors     prometheus.Counter

	// Ledger metrics
	TradesStored    prometheus.Counter
	DuplicateTrades prometheus.Counter
	UntrackedTrades prometheus.Counter
	MalformedTrades prometheus.Counter
	StoreErrors     prometheus.Counter

	// Watchlist metrics
	TokensDiscovered    prometheus.Counter
	SubscribeDirectives *prometheus.CounterVec
	TrackedTokens       prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "pumpstream"
	}

	return &Metrics{
		// Feed metrics
		SessionsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "sessions_started_total",
			Help:      "Total number of feed sessions started",
		}),
		Reconnects: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "reconnects_total",
			Help:      "Total number of reconnect cycles after a session ended",
		}),
		MessagesReceived: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "messages_received_total",
			Help:      "Total number of feed messages received by kind",
		}, []string{"kind"}),
		ServerErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "server_errors_total",
			Help:      "Total number of error messages received from the feed",
		}),

		// Ledger metrics
		TradesStored: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "trades_stored_total",
			Help:      "Total number of trades written to the ledger",
		}),
		DuplicateTrades: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "duplicate_trades_total",
			Help:      "Total number of trades absorbed as duplicates",
		}),
		UntrackedTrades: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "untracked_trades_total",
			Help:      "Total number of trades dropped for untracked mints",
		}),
		MalformedTrades: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "malformed_trades_total",
			Help:      "Total number of trade messages missing required fields",
		}),
		StoreErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "store_errors_total",
			Help:      "Total number of ledger write failures",
		}),

		// Watchlist metrics
		TokensDiscovered: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "watchlist",
			Name:      "tokens_discovered_total",
			Help:      "Total number of newly created tokens added to the watchlist",
		}),
		SubscribeDirectives: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "watchlist",
			Name:      "subscribe_directives_total",
			Help:      "Total number of subscription directives sent by method",
		}, []string{"method"}),
		TrackedTokens: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "watchlist",
			Name:      "tracked_tokens",
			Help:      "Current number of tracked token mints",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
