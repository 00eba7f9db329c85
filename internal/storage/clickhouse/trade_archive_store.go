package clickhouse

import (
	"context"
	"fmt"

	"pumpstream/internal/domain"
	"pumpstream/internal/storage"
)

// TradeArchiveStore implements storage.TradeArchive using ClickHouse.
// MergeTree does not enforce uniqueness at insert time; the archive is a
// bulk analytical copy, not the ledger of record.
type TradeArchiveStore struct {
	conn *Conn
}

// NewTradeArchiveStore creates a new TradeArchiveStore.
func NewTradeArchiveStore(conn *Conn) *TradeArchiveStore {
	return &TradeArchiveStore{conn: conn}
}

// Compile-time interface check.
var _ storage.TradeArchive = (*TradeArchiveStore)(nil)

// InsertBatch appends a batch of trades to the archive.
func (s *TradeArchiveStore) InsertBatch(ctx context.Context, trades []*domain.TokenTrade) error {
	if len(trades) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO trade_archive (
			signature, mint, trader_public_key, tx_type, token_amount, sol_amount,
			tokens_in_pool, sol_in_pool, market_cap_sol, pool, tracked_token_count,
			received_at
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, t := range trades {
		err = batch.Append(
			t.Signature, t.Mint, t.TraderPublicKey, string(t.TxType),
			t.TokenAmount, t.SolAmount, t.TokensInPool, t.SolInPool,
			t.MarketCapSol, t.Pool, uint32(t.TrackedTokenCount), t.ReceivedAt,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// CountBySignature returns the number of archived rows per signature for a
// mint, letting analytical readers detect archival duplicates.
func (s *TradeArchiveStore) CountBySignature(ctx context.Context, mint string) (map[string]uint64, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT signature, count() FROM trade_archive
		WHERE mint = ?
		GROUP BY signature
	`, mint)
	if err != nil {
		return nil, fmt.Errorf("count archived trades: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]uint64)
	for rows.Next() {
		var sig string
		var n uint64
		if err := rows.Scan(&sig, &n); err != nil {
			return nil, fmt.Errorf("scan archive count: %w", err)
		}
		counts[sig] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate archive counts: %w", err)
	}
	return counts, nil
}
