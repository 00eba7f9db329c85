package clickhouse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pumpstream/internal/domain"
)

func sampleTrade(sig, mint string, receivedAt int64) *domain.TokenTrade {
	return &domain.TokenTrade{
		Signature:         sig,
		Mint:              mint,
		TraderPublicKey:   "TraderA",
		TxType:            domain.DirectionBuy,
		TokenAmount:       500000,
		SolAmount:         0.3,
		TokensInPool:      980000000,
		SolInPool:         28.1,
		MarketCapSol:      29,
		Pool:              "pump",
		TrackedTokenCount: 12,
		ReceivedAt:        receivedAt,
	}
}

func TestTradeArchiveStore(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTradeArchiveStore(conn)
	ctx := context.Background()

	t.Run("insert batch and read back", func(t *testing.T) {
		batch := []*domain.TokenTrade{
			sampleTrade("sig1", "MintA", 1000),
			sampleTrade("sig2", "MintA", 2000),
			sampleTrade("sig3", "MintB", 3000),
		}
		require.NoError(t, store.InsertBatch(ctx, batch))

		counts, err := store.CountBySignature(ctx, "MintA")
		require.NoError(t, err)
		assert.Equal(t, map[string]uint64{"sig1": 1, "sig2": 1}, counts)
	})

	t.Run("empty batch is a no-op", func(t *testing.T) {
		require.NoError(t, store.InsertBatch(ctx, nil))
	})

	t.Run("re-archiving duplicates rows", func(t *testing.T) {
		// MergeTree does not dedup; the count reveals re-archived rows.
		require.NoError(t, store.InsertBatch(ctx, []*domain.TokenTrade{
			sampleTrade("sig1", "MintA", 1000),
		}))

		counts, err := store.CountBySignature(ctx, "MintA")
		require.NoError(t, err)
		assert.EqualValues(t, 2, counts["sig1"])
	})
}
