package reporting

import "time"

// Report summarizes ledger activity over a time window.
type Report struct {
	// Metadata
	GeneratedAt time.Time
	WindowStart int64 // Unix ms, 0 means unbounded
	WindowEnd   int64 // Unix ms

	// Totals
	TotalTrades    int
	TotalBuys      int
	TotalSells     int
	TotalSolVolume float64

	// Per-token summaries (sorted by SOL volume, descending)
	Tokens []TokenSummary

	// Most active traders (sorted by SOL volume, descending)
	Traders []TraderActivity
}

// TokenSummary aggregates trades for one mint.
type TokenSummary struct {
	Mint          string
	Trades        int
	Buys          int
	Sells         int
	UniqueTraders int
	SolVolume     float64
	LastMarketCap float64 // market cap reported with the latest trade
	MaxMarketCap  float64
	FirstSeenMs   int64
	LastSeenMs    int64
}

// TraderActivity aggregates trades for one trader key.
type TraderActivity struct {
	TraderPublicKey string
	Wallet          bool // key is on the ed25519 curve; PDAs are not
	Trades          int
	Buys            int
	Sells           int
	SolVolume       float64
	NetSolFlow      float64 // SOL spent buying minus SOL received selling
}
