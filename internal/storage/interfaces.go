package storage

import (
	"context"

	"pumpstream/internal/domain"
)

// TradeStore is the durable, duplicate-rejecting ledger of token trades.
type TradeStore interface {
	// Insert appends a trade. Returns ErrDuplicateKey if the signature
	// already exists, ErrInvalidInput if the trade lacks a signature or
	// mint. ReceivedAt is defaulted to the insertion time when zero.
	Insert(ctx context.Context, t *domain.TokenTrade) error

	// GetBySignature retrieves one trade. Returns ErrNotFound if absent.
	GetBySignature(ctx context.Context, signature string) (*domain.TokenTrade, error)

	// GetByMint retrieves all trades for a mint, ordered by receipt time ASC.
	GetByMint(ctx context.Context, mint string) ([]*domain.TokenTrade, error)

	// GetByTimeRange retrieves trades received within [start, end) in unix ms,
	// ordered by receipt time ASC.
	GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.TokenTrade, error)

	// DistinctMints returns all distinct mint addresses present in the ledger.
	DistinctMints(ctx context.Context) ([]string, error)

	// Count returns the total number of stored trades.
	Count(ctx context.Context) (int64, error)
}

// TradeArchive is a bulk analytical sink for trades. Unlike TradeStore it
// enforces no uniqueness; archival dedup is the reader's concern.
type TradeArchive interface {
	// InsertBatch appends a batch of trades to the archive.
	InsertBatch(ctx context.Context, trades []*domain.TokenTrade) error
}
