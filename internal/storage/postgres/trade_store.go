package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"pumpstream/internal/domain"
	"pumpstream/internal/storage"
)

// TradeStore implements storage.TradeStore using PostgreSQL.
type TradeStore struct {
	pool *Pool
}

// NewTradeStore creates a new PostgreSQL-backed trade store.
func NewTradeStore(pool *Pool) *TradeStore {
	return &TradeStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TradeStore = (*TradeStore)(nil)

const tradeColumns = `
	signature, mint, trader_public_key, tx_type, token_amount, sol_amount,
	tokens_in_pool, sol_in_pool, market_cap_sol, pool, tracked_token_count,
	received_at
`

// Insert appends a trade. Returns ErrDuplicateKey if the signature exists.
func (s *TradeStore) Insert(ctx context.Context, t *domain.TokenTrade) error {
	if t == nil || t.Signature == "" || t.Mint == "" {
		return storage.ErrInvalidInput
	}

	receivedAt := t.ReceivedAt
	if receivedAt == 0 {
		receivedAt = time.Now().UnixMilli()
	}

	query := `
		INSERT INTO trades (` + tradeColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := s.pool.Exec(ctx, query,
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
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert trade: %w", err)
	}
	return nil
}

// GetBySignature retrieves one trade. Returns ErrNotFound if absent.
func (s *TradeStore) GetBySignature(ctx context.Context, signature string) (*domain.TokenTrade, error) {
	query := `SELECT ` + tradeColumns + ` FROM trades WHERE signature = $1`

	row := s.pool.QueryRow(ctx, query, signature)
	t, err := scanTrade(row.Scan)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get trade by signature: %w", err)
	}
	return t, nil
}

// GetByMint retrieves all trades for a mint, ordered by receipt time ASC.
func (s *TradeStore) GetByMint(ctx context.Context, mint string) ([]*domain.TokenTrade, error) {
	query := `
		SELECT ` + tradeColumns + ` FROM trades
		WHERE mint = $1
		ORDER BY received_at ASC, signature ASC
	`

	rows, err := s.pool.Query(ctx, query, mint)
	if err != nil {
		return nil, fmt.Errorf("get trades by mint: %w", err)
	}
	defer rows.Close()

	return scanTrades(rows)
}

// GetByTimeRange retrieves trades received within [start, end) in unix ms.
func (s *TradeStore) GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.TokenTrade, error) {
	query := `
		SELECT ` + tradeColumns + ` FROM trades
		WHERE received_at >= $1 AND received_at < $2
		ORDER BY received_at ASC, signature ASC
	`

	rows, err := s.pool.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("get trades by time range: %w", err)
	}
	defer rows.Close()

	return scanTrades(rows)
}

// DistinctMints returns all distinct mint addresses present in the ledger.
func (s *TradeStore) DistinctMints(ctx context.Context) ([]string, error) {
	query := `SELECT DISTINCT mint FROM trades ORDER BY mint ASC`

	rows, err := s.pool.Query(ctx, query)
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
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM trades`).Scan(&count)
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
func scanTrades(rows pgx.Rows) ([]*domain.TokenTrade, error) {
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
