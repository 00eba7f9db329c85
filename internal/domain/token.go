package domain

// NewTokenEvent is a notification that a new token became tradable.
// It is not persisted by the ingestion core; its only required effect is
// growing the watchlist and triggering a trade subscription.
type NewTokenEvent struct {
	Mint   string // token mint address
	Name   string // display name, may be empty
	Symbol string // ticker symbol, may be empty
}
