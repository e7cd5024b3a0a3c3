package storage

import (
	"github.com/PxPatel/clob-exchange/internal/types"
)

// CompositeOrderStore combines multiple OrderStore implementations.
// Writes go to ALL stores, reads come from the FIRST store that succeeds.
// Example: CompositeOrderStore(memoryStore, pebbleStore, postgresStore)
// writes to all three, reads from memory (fastest), then falls back in order.
type CompositeOrderStore struct {
	stores []OrderStore
}

// NewCompositeOrderStore creates a composite store from multiple stores
func NewCompositeOrderStore(stores ...OrderStore) *CompositeOrderStore {
	return &CompositeOrderStore{
		stores: stores,
	}
}

func (c *CompositeOrderStore) Save(order *types.Order) error {
	// Write-through; every store sees the write even if an earlier one failed
	var lastErr error
	for _, store := range c.stores {
		if err := store.Save(order); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

func (c *CompositeOrderStore) Get(orderID uint64) (*types.Order, error) {
	for _, store := range c.stores {
		order, err := store.Get(orderID)
		if err == nil && order != nil {
			return order, nil
		}
	}
	return nil, ErrNotFound
}

func (c *CompositeOrderStore) Remove(orderID uint64) error {
	var lastErr error
	for _, store := range c.stores {
		if err := store.Remove(orderID); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

func (c *CompositeOrderStore) GetAll() []*types.Order {
	return c.firstNonEmpty(func(s OrderStore) []*types.Order { return s.GetAll() })
}

func (c *CompositeOrderStore) GetByTrader(trader string) []*types.Order {
	return c.firstNonEmpty(func(s OrderStore) []*types.Order { return s.GetByTrader(trader) })
}

func (c *CompositeOrderStore) GetByPair(pairID string) []*types.Order {
	return c.firstNonEmpty(func(s OrderStore) []*types.Order { return s.GetByPair(pairID) })
}

// firstNonEmpty reads from the first store that returns data
func (c *CompositeOrderStore) firstNonEmpty(read func(OrderStore) []*types.Order) []*types.Order {
	for _, store := range c.stores {
		if orders := read(store); len(orders) > 0 {
			return orders
		}
	}
	return []*types.Order{}
}

// MaxOrderID is the highest id held by any store that can report one.
// Every store is asked, since a cache may have evicted what a durable store
// still holds.
func (c *CompositeOrderStore) MaxOrderID() (uint64, error) {
	var max uint64
	for _, store := range c.stores {
		w, ok := store.(OrderIDWatermark)
		if !ok {
			continue
		}
		id, err := w.MaxOrderID()
		if err != nil {
			return 0, err
		}
		if id > max {
			max = id
		}
	}
	return max, nil
}

func (c *CompositeOrderStore) Close() error {
	var lastErr error
	for _, store := range c.stores {
		if err := store.Close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}
