package storage

import (
	"github.com/PxPatel/clob-exchange/internal/types"
)

// CompositeTradeStore combines multiple TradeStore implementations.
// Writes go to ALL stores, reads come from the FIRST store that has data.
// Example: CompositeTradeStore(memoryStore, fileStore, auditStore) writes to
// all of them and serves reads from memory.
type CompositeTradeStore struct {
	stores []TradeStore
}

// NewCompositeTradeStore creates a composite store from multiple stores
func NewCompositeTradeStore(stores ...TradeStore) *CompositeTradeStore {
	return &CompositeTradeStore{
		stores: stores,
	}
}

func (c *CompositeTradeStore) Save(trade *types.Trade) error {
	var lastErr error
	for _, store := range c.stores {
		if err := store.Save(trade); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

func (c *CompositeTradeStore) SaveBatch(trades []*types.Trade) error {
	var lastErr error
	for _, store := range c.stores {
		if err := store.SaveBatch(trades); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

func (c *CompositeTradeStore) GetRecent(pairID string, limit int) ([]*types.Trade, error) {
	// Write-only stores return nothing, so skip to the next one
	for _, store := range c.stores {
		trades, err := store.GetRecent(pairID, limit)
		if err != nil {
			continue
		}
		if len(trades) > 0 {
			return trades, nil
		}
	}
	return []*types.Trade{}, nil
}

func (c *CompositeTradeStore) Close() error {
	var lastErr error
	for _, store := range c.stores {
		if err := store.Close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}
