package exchange

import (
	"sort"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/PxPatel/clob-exchange/internal/book"
	"github.com/PxPatel/clob-exchange/internal/matching"
	"github.com/PxPatel/clob-exchange/internal/storage"
	"github.com/PxPatel/clob-exchange/internal/types"
)

// Reads share the pair lock, so every answer reflects the book strictly
// before or after any mutation.

func (x *Exchange) BestPrices(pairID string) (matching.TopOfBook, error) {
	m, err := x.market(pairID)
	if err != nil {
		return matching.TopOfBook{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.engine.BestPrices(), nil
}

func (x *Exchange) QuantitiesAtPrice(pairID string, side types.Side, price decimal.Decimal) ([]decimal.Decimal, error) {
	m, err := x.market(pairID)
	if err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.engine.QuantitiesAtPrice(side, price)
}

// Page reads one page of a side; pass the returned cursor to continue.
func (x *Exchange) Page(pairID string, side types.Side, priceCount, orderCount int, cursor book.Cursor) (book.Page, error) {
	m, err := x.market(pairID)
	if err != nil {
		return book.Page{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.engine.Page(side, priceCount, orderCount, cursor)
}

// Depth returns up to n aggregated levels per side.
func (x *Exchange) Depth(pairID string, n int) (bids, asks []book.Level, err error) {
	m, err := x.market(pairID)
	if err != nil {
		return nil, nil, err
	}
	if n <= 0 {
		return nil, nil, errors.Wrapf(matching.ErrInvalidPageSize, "depth %d", n)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	bids, asks = m.engine.Depth(n)
	return bids, asks, nil
}

// GetOrder returns a live order from its engine, or the last stored
// snapshot of an order that has left the book.
func (x *Exchange) GetOrder(id uint64) (*types.Order, error) {
	x.mu.RLock()
	pairID, live := x.pairOf[id]
	x.mu.RUnlock()
	if live {
		if m, err := x.market(pairID); err == nil {
			m.mu.RLock()
			o, err := m.engine.Order(id)
			m.mu.RUnlock()
			if err == nil {
				return o, nil
			}
		}
	}

	o, err := x.orders.Get(id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, errors.Wrapf(matching.ErrOrderNotFound, "order %d", id)
		}
		return nil, errors.Wrapf(err, "load order %d", id)
	}
	return o, nil
}

// Orders lists orders matching f, sorted by id. Live orders come from the
// engines; closed ones from the order store, as far back as it retains them.
func (x *Exchange) Orders(f storage.Filter) []*types.Order {
	seen := make(map[uint64]bool)
	var out []*types.Order

	for _, m := range x.sortedMarkets() {
		m.mu.RLock()
		pairID := m.engine.Pair().ID
		var live []*types.Order
		if f.PairID == "" || f.PairID == pairID {
			live = m.engine.Orders()
		}
		m.mu.RUnlock()
		for _, o := range live {
			seen[o.ID] = true
			if f.Match(o) {
				out = append(out, o)
			}
		}
	}

	var stored []*types.Order
	switch {
	case f.Trader != "":
		stored = x.orders.GetByTrader(f.Trader)
	case f.PairID != "":
		stored = x.orders.GetByPair(f.PairID)
	default:
		stored = x.orders.GetAll()
	}
	for _, o := range stored {
		if !seen[o.ID] && o.IsTerminal() && f.Match(o) {
			out = append(out, o)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// RecentTrades returns up to limit fills, newest first. An empty pairID
// means every pair.
func (x *Exchange) RecentTrades(pairID string, limit int) ([]*types.Trade, error) {
	if pairID != "" {
		if _, err := x.market(pairID); err != nil {
			return nil, err
		}
	}
	if limit <= 0 {
		return nil, errors.Wrapf(matching.ErrInvalidArgument, "limit %d", limit)
	}
	return x.trades.GetRecent(pairID, limit)
}
