package domain

// Direction is the side of a trade as reported by the feed.
type Direction string

const (
	DirectionBuy  Direction = "buy"
	DirectionSell Direction = "sell"
)

// Valid reports whether d is a recognized trade direction.
func (d Direction) Valid() bool {
	return d == DirectionBuy || d == DirectionSell
}

// TokenTrade represents one executed transaction against a tracked token.
// Corresponds to the trades table.
type TokenTrade struct {
	Signature         string    // transaction signature, unique trade id
	Mint              string    // token mint address
	TraderPublicKey   string    // counterparty public key
	TxType            Direction // buy or sell
	TokenAmount       float64   // traded token amount
	SolAmount         float64   // traded value in SOL
	TokensInPool      float64   // post-trade pool token reserve
	SolInPool         float64   // post-trade pool SOL reserve
	MarketCapSol      float64   // market cap in SOL at trade time
	Pool              string    // venue/pool tag
	TrackedTokenCount int       // watchlist size at the moment of ingestion
	ReceivedAt        int64     // receipt timestamp in unix ms, defaulted at insert
}
