// Package book holds the resting orders of a trading pair: one price-indexed
// side per direction, the FIFO queue at each price and the registry of live
// orders.
package book

import (
	"errors"
	"math"

	"github.com/shopspring/decimal"

	"github.com/PxPatel/clob-exchange/internal/rbtree"
	"github.com/PxPatel/clob-exchange/internal/types"
)

var (
	ErrInvalidPrice      = errors.New("book: price is not a positive multiple of the tick")
	ErrInvalidQuantity   = errors.New("book: quantity must be positive")
	ErrDuplicateOrder    = errors.New("book: order already queued")
	ErrOrderNotFound     = errors.New("book: order not found at price")
	ErrEmptySide         = errors.New("book: side is empty")
	ErrReduceExceedsHead = errors.New("book: reduction exceeds head quantity")
)

// Head describes the first order at the best price.
type Head struct {
	Price    decimal.Decimal
	OrderID  uint64
	Quantity decimal.Decimal
}

// Side is one direction of a pair's book. Bids are served from the highest
// price, asks from the lowest. Price keys are prices in ticks of the pair's
// quote display precision.
type Side struct {
	side     types.Side
	decimals int32
	tree     *rbtree.Tree[*priceLevel]
	orders   int
}

func NewSide(side types.Side, priceDecimals int32) *Side {
	return &Side{
		side:     side,
		decimals: priceDecimals,
		tree:     rbtree.New[*priceLevel](),
	}
}

// Kind returns BUY for the bid side and SELL for the ask side.
func (s *Side) Kind() types.Side { return s.side }

// Key converts a price into its tree key.
func (s *Side) Key(price decimal.Decimal) (uint64, error) {
	if !price.IsPositive() {
		return 0, ErrInvalidPrice
	}
	ticks := price.Shift(s.decimals)
	if !ticks.Equal(ticks.Truncate(0)) || ticks.GreaterThan(decimal.NewFromInt(math.MaxInt64)) {
		return 0, ErrInvalidPrice
	}
	return uint64(ticks.IntPart()), nil
}

// Levels returns the number of distinct prices.
func (s *Side) Levels() int { return s.tree.Len() }

// OrderCount returns the number of queued orders.
func (s *Side) OrderCount() int { return s.orders }

func (s *Side) Empty() bool { return s.tree.Len() == 0 }

// Insert appends an order at the tail of its price queue.
func (s *Side) Insert(price decimal.Decimal, orderID uint64, qty decimal.Decimal) error {
	if !qty.IsPositive() {
		return ErrInvalidQuantity
	}
	key, err := s.Key(price)
	if err != nil {
		return err
	}
	lvl, ok := s.tree.Get(key)
	if !ok {
		lvl = newPriceLevel(price)
		if err := s.tree.Insert(key, lvl); err != nil {
			return err
		}
	} else if _, dup := lvl.orders[orderID]; dup {
		return ErrDuplicateOrder
	}
	lvl.pushBack(orderID, qty)
	s.orders++
	return nil
}

// Remove unlinks an order from any position of its queue and returns the
// quantity it still had. An emptied level is destroyed.
func (s *Side) Remove(price decimal.Decimal, orderID uint64) (decimal.Decimal, error) {
	key, err := s.Key(price)
	if err != nil {
		return decimal.Zero, err
	}
	lvl, ok := s.tree.Get(key)
	if !ok {
		return decimal.Zero, ErrOrderNotFound
	}
	qty, ok := lvl.unlink(orderID)
	if !ok {
		return decimal.Zero, ErrOrderNotFound
	}
	s.orders--
	if lvl.empty() {
		if err := s.tree.Remove(key); err != nil {
			return qty, err
		}
	}
	return qty, nil
}

// Best returns the best price of the side.
func (s *Side) Best() (decimal.Decimal, bool) {
	key := s.bestKey()
	if key == 0 {
		return decimal.Zero, false
	}
	lvl, _ := s.tree.Get(key)
	return lvl.price, true
}

// PeekBest returns the head of the best level without changing anything.
func (s *Side) PeekBest() (Head, bool) {
	key := s.bestKey()
	if key == 0 {
		return Head{}, false
	}
	lvl, _ := s.tree.Get(key)
	return Head{Price: lvl.price, OrderID: lvl.head, Quantity: lvl.orders[lvl.head].qty}, true
}

// ReduceHead takes qty off the head of the best level. The head leaves the
// queue when it reaches zero, and the level leaves the tree when it empties.
func (s *Side) ReduceHead(qty decimal.Decimal) error {
	key := s.bestKey()
	if key == 0 {
		return ErrEmptySide
	}
	lvl, _ := s.tree.Get(key)
	head := lvl.orders[lvl.head]
	switch head.qty.Cmp(qty) {
	case -1:
		return ErrReduceExceedsHead
	case 0:
		lvl.unlink(lvl.head)
		s.orders--
		if lvl.empty() {
			return s.tree.Remove(key)
		}
		return nil
	}
	head.qty = head.qty.Sub(qty)
	lvl.total = lvl.total.Sub(qty)
	return nil
}

// Aggregate returns the summed remaining quantity at price.
func (s *Side) Aggregate(price decimal.Decimal) decimal.Decimal {
	key, err := s.Key(price)
	if err != nil {
		return decimal.Zero
	}
	if lvl, ok := s.tree.Get(key); ok {
		return lvl.total
	}
	return decimal.Zero
}

// Walk visits queued orders in priority order (best price first, then time)
// until fn returns false.
func (s *Side) Walk(fn func(price decimal.Decimal, orderID uint64, qty decimal.Decimal) bool) {
	for key := s.bestKey(); key != 0; key = s.advance(key) {
		lvl, _ := s.tree.Get(key)
		for id := lvl.head; id != 0; id = lvl.orders[id].next {
			if !fn(lvl.price, id, lvl.orders[id].qty) {
				return
			}
		}
	}
}

// Depth returns up to n aggregated levels from the best price.
func (s *Side) Depth(n int) []Level {
	var out []Level
	for key := s.bestKey(); key != 0 && len(out) < n; key = s.advance(key) {
		lvl, _ := s.tree.Get(key)
		out = append(out, Level{Price: lvl.price, Quantity: lvl.total, Orders: len(lvl.orders)})
	}
	return out
}

func (s *Side) bestKey() uint64 {
	if s.side == types.Buy {
		return s.tree.Last()
	}
	return s.tree.First()
}

// advance moves one level away from the best price; 0 when exhausted.
func (s *Side) advance(key uint64) uint64 {
	var next uint64
	var err error
	if s.side == types.Buy {
		next, err = s.tree.Prev(key)
	} else {
		next, err = s.tree.Next(key)
	}
	if err != nil {
		return 0
	}
	return next
}
