package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"pumpstream/internal/domain"
	"pumpstream/internal/storage"
)

// TradeStore is an in-memory implementation of storage.TradeStore.
type TradeStore struct {
	mu   sync.RWMutex
	data map[string]*domain.TokenTrade // keyed by signature
}

// NewTradeStore creates a new in-memory trade store.
func NewTradeStore() *TradeStore {
	return &TradeStore{
		data: make(map[string]*domain.TokenTrade),
	}
}

// Compile-time interface check.
var _ storage.TradeStore = (*TradeStore)(nil)

// Insert appends a trade. Returns ErrDuplicateKey if the signature exists.
func (s *TradeStore) Insert(_ context.Context, t *domain.TokenTrade) error {
	if t == nil || t.Signature == "" || t.Mint == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[t.Signature]; exists {
		return storage.ErrDuplicateKey
	}

	copy := *t
	if copy.ReceivedAt == 0 {
		copy.ReceivedAt = time.Now().UnixMilli()
	}
	s.data[t.Signature] = &copy
	return nil
}

// GetBySignature retrieves one trade. Returns ErrNotFound if absent.
func (s *TradeStore) GetBySignature(_ context.Context, signature string) (*domain.TokenTrade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, exists := s.data[signature]
	if !exists {
		return nil, storage.ErrNotFound
	}

	copy := *t
	return &copy, nil
}

// GetByMint retrieves all trades for a mint, ordered by receipt time ASC.
func (s *TradeStore) GetByMint(_ context.Context, mint string) ([]*domain.TokenTrade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.TokenTrade
	for _, t := range s.data {
		if t.Mint == mint {
			copy := *t
			result = append(result, &copy)
		}
	}

	sortByReceipt(result)
	return result, nil
}

// GetByTimeRange retrieves trades received within [start, end) in unix ms.
func (s *TradeStore) GetByTimeRange(_ context.Context, start, end int64) ([]*domain.TokenTrade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.TokenTrade
	for _, t := range s.data {
		if t.ReceivedAt >= start && t.ReceivedAt < end {
			copy := *t
			result = append(result, &copy)
		}
	}

	sortByReceipt(result)
	return result, nil
}

// DistinctMints returns all distinct mint addresses present in the store.
func (s *TradeStore) DistinctMints(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, t := range s.data {
		seen[t.Mint] = struct{}{}
	}

	mints := make([]string, 0, len(seen))
	for mint := range seen {
		mints = append(mints, mint)
	}
	sort.Strings(mints)
	return mints, nil
}

// Count returns the total number of stored trades.
func (s *TradeStore) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.data)), nil
}

// sortByReceipt orders trades by receipt time, signature as tiebreaker.
func sortByReceipt(trades []*domain.TokenTrade) {
	sort.Slice(trades, func(i, j int) bool {
		if trades[i].ReceivedAt != trades[j].ReceivedAt {
			return trades[i].ReceivedAt < trades[j].ReceivedAt
		}
		return trades[i].Signature < trades[j].Signature
	})
}
