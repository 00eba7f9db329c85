package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"pumpstream/internal/domain"
	"pumpstream/internal/storage"
)

// TradeStore implements storage.TradeStore on a local sqlite database.
type TradeStore struct {
	db *DB
}

// NewTradeStore creates a new sqlite-backed trade store.
func NewTradeStore(db *DB) *TradeStore {
	return &TradeStore{db: db}
}

// Compile-time interface check.
var _ storage.TradeStore = (*TradeStore)(nil)

const tradeColumns = `
	signature, mint, trader_public_key, tx_type, token_amount, sol_amount,
	tokens_in_pool, sol_in_pool, market_cap_sol, pool, tracked_token_count,
	received_at
`

// Insert appends a trade. Returns ErrDuplicateKey if the signature exists.
// The conflict clause is scoped to the signature key so other constraint
// violations still surface as errors; the affected-row count makes the
// duplicate contract explicit without parsing driver error codes.
func (s *TradeStore) Insert(ctx context.Context, t *domain.TokenTrade) error {
	if t == nil || t.Signature == "" || t.Mint == "" {
		return storage.ErrInvalidInput
	}

	receivedAt := t.ReceivedAt
	if receivedAt == 0 {
		receivedAt = time.Now().UnixMilli()
	}

	res, err := s.db.db.ExecContext(ctx, `
		INSERT INTO trades (`+tradeColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(signature) DO NOTHING
	`,
		t.Signature,
		t.Mint,
		t.TraderPublicKey,
		string(t.TxType),
		t.TokenAmount,
		t.SolAmount,
		t.TokensInPool,
		t.SolInPool,
		t.MarketCapSol,
		t.Pool,
		t.TrackedTokenCount,
		receivedAt,
	)
	if err != nil {
		return fmt.Errorf("insert trade: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert trade rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrDuplicateKey
	}
	return nil
}

// GetBySignature retrieves one trade. Returns ErrNotFound if absent.
func (s *TradeStore) GetBySignature(ctx context.Context, signature string) (*domain.TokenTrade, error) {
	row := s.db.db.QueryRowContext(ctx, `
		SELECT `+tradeColumns+` FROM trades WHERE signature = ?
	`, signature)

	t, err := scanTrade(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get trade by signature: %w", err)
	}
	return t, nil
}

// GetByMint retrieves all trades for a mint, ordered by receipt time ASC.
func (s *TradeStore) GetByMint(ctx context.Context, mint string) ([]*domain.TokenTrade, error) {
	rows, err := s.db.db.QueryContext(ctx, `
		SELECT `+tradeColumns+` FROM trades
		WHERE mint = ?
		ORDER BY received_at ASC, signature ASC
	`, mint)
	if err != nil {
		return nil, fmt.Errorf("get trades by mint: %w", err)
	}
	defer rows.Close()

	return scanTrades(rows)
}

// GetByTimeRange retrieves trades received within [start, end) in unix ms.
func (s *TradeStore) GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.TokenTrade, error) {
	rows, err := s.db.db.QueryContext(ctx, `
		SELECT `+tradeColumns+` FROM trades
		WHERE received_at >= ? AND received_at < ?
		ORDER BY received_at ASC, signature ASC
	`, start, end)
	if err != nil {
		return nil, fmt.Errorf("get trades by time range: %w", err)
	}
	defer rows.Close()

	return scanTrades(rows)
}

// DistinctMints returns all distinct mint addresses present in the ledger.
func (s *TradeStore) DistinctMints(ctx context.Context) ([]string, error) {
	rows, err := s.db.db.QueryContext(ctx, `
		SELECT DISTINCT mint FROM trades ORDER BY mint ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("get distinct mints: %w", err)
	}
	defer rows.Close()

	var mints []string
	for rows.Next() {
		var mint string
		if err := rows.Scan(&mint); err != nil {
			return nil, fmt.Errorf("scan mint: %w", err)
		}
		mints = append(mints, mint)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate mint rows: %w", err)
	}
	return mints, nil
}

// Count returns the total number of stored trades.
func (s *TradeStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM trades`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count trades: %w", err)
	}
	return count, nil
}

// scanTrade scans a single row using the standard column order.
func scanTrade(scan func(dest ...any) error) (*domain.TokenTrade, error) {
	var t domain.TokenTrade
	var txType string
	err := scan(
		&t.Signature,
		&t.Mint,
		&t.TraderPublicKey,
		&txType,
		&t.TokenAmount,
		&t.SolAmount,
		&t.TokensInPool,
		&t.SolInPool,
		&t.MarketCapSol,
		&t.Pool,
		&t.TrackedTokenCount,
		&t.ReceivedAt,
	)
	if err != nil {
		return nil, err
	}
	t.TxType = domain.Direction(txType)
	return &t, nil
}

// scanTrades scans multiple rows into a slice.
func scanTrades(rows *sql.Rows) ([]*domain.TokenTrade, error) {
	var trades []*domain.TokenTrade
	for rows.Next() {
		t, err := scanTrade(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan trade row: %w", err)
		}
		trades = append(trades, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trade rows: %w", err)
	}
	return trades, nil
}
