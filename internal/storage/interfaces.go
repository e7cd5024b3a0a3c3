package storage

import (
	"errors"

	"github.com/PxPatel/clob-exchange/internal/types"
)

// ErrNotFound is returned by stores when an id has no record.
var ErrNotFound = errors.New("storage: not found")

// OrderStore abstracts order storage and retrieval operations.
// Implementations can be in-memory (map), Redis, Pebble, PostgreSQL, etc.
type OrderStore interface {
	// Save inserts or replaces an order snapshot
	Save(order *types.Order) error

	// Get retrieves an order by ID
	Get(orderID uint64) (*types.Order, error)

	// Remove deletes an order from storage
	Remove(orderID uint64) error

	// GetAll returns all tracked orders
	GetAll() []*types.Order

	// GetByTrader returns all orders for a specific trader
	GetByTrader(trader string) []*types.Order

	// GetByPair returns all orders for a specific pair
	GetByPair(pairID string) []*types.Order

	// Close releases any resources held by the store
	Close() error
}

// OrderIDWatermark is implemented by order stores that can report the
// highest order id they hold, so a restarted server never reissues an id.
type OrderIDWatermark interface {
	MaxOrderID() (uint64, error)
}

// TradeStore abstracts trade storage and retrieval operations.
// Implementations can be in-memory buffer, file log, Redis, PostgreSQL, etc.
type TradeStore interface {
	// Save persists a single trade
	Save(trade *types.Trade) error

	// SaveBatch persists multiple trades (useful for database batch inserts)
	SaveBatch(trades []*types.Trade) error

	// GetRecent retrieves the N most recent trades, newest first. An empty
	// pairID means every pair.
	GetRecent(pairID string, limit int) ([]*types.Trade, error)

	// Close releases any resources held by the store
	Close() error
}

// Filter narrows an order listing. Zero fields match everything.
type Filter struct {
	Trader string
	PairID string
	Side   *types.Side
	Status *types.OrderStatus
}

// Match reports whether o passes the filter.
func (f Filter) Match(o *types.Order) bool {
	switch {
	case f.Trader != "" && o.Trader != f.Trader:
		return false
	case f.PairID != "" && o.PairID != f.PairID:
		return false
	case f.Side != nil && o.Side != *f.Side:
		return false
	case f.Status != nil && o.Status != *f.Status:
		return false
	}
	return true
}
