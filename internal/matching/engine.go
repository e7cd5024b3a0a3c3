// Package matching is the per-pair matching engine: order validation, the
// auction state machine, price-time priority matching with maker/taker fees
// and batched auction matching.
//
// An Engine is not safe for concurrent use. The exchange serializes all
// mutations of a pair and lets reads share the pair's lock.
package matching

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/PxPatel/clob-exchange/internal/book"
	"github.com/PxPatel/clob-exchange/internal/sequence"
	"github.com/PxPatel/clob-exchange/internal/types"
)

// IDSource hands out monotonically increasing ids.
type IDSource interface {
	Next() uint64
}

// Options wires an engine to its collaborators. Nil id sources and clock get
// private defaults.
type Options struct {
	Settlement Settlement
	OrderIDs   IDSource
	TradeIDs   IDSource
	Clock      func() time.Time
	// ClosedRetention is how many closed order ids the engine remembers to
	// answer ORDER_TERMINAL; older ones are served from the order store.
	ClosedRetention int
}

const defaultClosedRetention = 4096

type Engine struct {
	pair       *types.Pair
	book       *book.Book
	settlement Settlement
	orderIDs   IDSource
	tradeIDs   IDSource
	now        func() time.Time

	// clientIDs holds live orders only; a client id is free again once its
	// order closes.
	clientIDs map[string]uint64
	closed    *closedIndex
}

// NewEngine lists pair and returns its engine.
func NewEngine(pair *types.Pair, opts Options) (*Engine, error) {
	if err := ValidatePair(pair); err != nil {
		return nil, err
	}
	if opts.Settlement == nil {
		return nil, errors.New("matching: settlement is required")
	}
	e := &Engine{
		pair:       pair.Clone(),
		book:       book.New(pair.QuoteDisplayDecimals),
		settlement: opts.Settlement,
		orderIDs:   opts.OrderIDs,
		tradeIDs:   opts.TradeIDs,
		now:        opts.Clock,
		clientIDs:  make(map[string]uint64),
	}
	retention := opts.ClosedRetention
	if retention <= 0 {
		retention = defaultClosedRetention
	}
	e.closed = newClosedIndex(retention)
	if e.orderIDs == nil {
		e.orderIDs = sequence.New(0)
	}
	if e.tradeIDs == nil {
		e.tradeIDs = sequence.New(0)
	}
	if e.now == nil {
		e.now = func() time.Time { return time.Now().UTC() }
	}
	if rulesFor(e.pair.AuctionMode).continuous {
		e.pair.AuctionPrice = decimal.Zero
	}
	return e, nil
}

// Result reports what an operation changed. Updated holds snapshots of every
// order whose state changed, Order included.
type Result struct {
	Order   *types.Order
	Trades  []types.Trade
	Updated []*types.Order
	// SettlementErr is the first error settlement returned after the book
	// had been changed. The book change stands.
	SettlementErr error
}

// changes accumulates the effects of one operation.
type changes struct {
	touched   []*types.Order
	seen      map[uint64]bool
	trades    []types.Trade
	settleErr error
}

func newChanges() *changes {
	return &changes{seen: make(map[uint64]bool)}
}

func (c *changes) touch(o *types.Order) {
	if c.seen[o.ID] {
		return
	}
	c.seen[o.ID] = true
	c.touched = append(c.touched, o)
}

func (c *changes) fail(err error) {
	if err != nil && c.settleErr == nil {
		c.settleErr = err
	}
}

func (c *changes) result(primary *types.Order) *Result {
	r := &Result{Trades: c.trades, SettlementErr: c.settleErr}
	if primary != nil {
		r.Order = primary.Clone()
	}
	r.Updated = make([]*types.Order, 0, len(c.touched))
	for _, o := range c.touched {
		r.Updated = append(r.Updated, o.Clone())
	}
	return r
}

// Pair returns a copy of the pair's current configuration and mode.
func (e *Engine) Pair() *types.Pair { return e.pair.Clone() }

// TopOfBook is the best price and aggregate quantity of each side. Zero
// values mean an empty side.
type TopOfBook struct {
	BidPrice    decimal.Decimal `json:"bid_price"`
	BidQuantity decimal.Decimal `json:"bid_quantity"`
	AskPrice    decimal.Decimal `json:"ask_price"`
	AskQuantity decimal.Decimal `json:"ask_quantity"`
}

func (e *Engine) BestPrices() TopOfBook {
	bid, bidQty, ask, askQty := e.book.BestPrices()
	return TopOfBook{BidPrice: bid, BidQuantity: bidQty, AskPrice: ask, AskQuantity: askQty}
}

// QuantitiesAtPrice lists remaining quantities at one price, oldest first.
func (e *Engine) QuantitiesAtPrice(side types.Side, price decimal.Decimal) ([]decimal.Decimal, error) {
	qtys, err := e.book.Side(side).QuantitiesAt(price)
	if err != nil {
		return nil, bookErr(err)
	}
	return qtys, nil
}

// Page reads one page of a side. See book.Side.Page for cursor semantics.
func (e *Engine) Page(side types.Side, priceCount, orderCount int, cursor book.Cursor) (book.Page, error) {
	page, err := e.book.Side(side).Page(priceCount, orderCount, cursor)
	if err != nil {
		return book.Page{}, bookErr(err)
	}
	return page, nil
}

// Depth returns up to n aggregated levels per side.
func (e *Engine) Depth(n int) (bids, asks []book.Level) {
	return e.book.Bids.Depth(n), e.book.Asks.Depth(n)
}

// Resting is the number of live orders on both sides.
func (e *Engine) Resting() int { return e.book.Orders.Len() }

// Crossed reports whether the best bid is at or above the best ask.
func (e *Engine) Crossed() bool { return e.book.Crossed() }

// Order returns a snapshot of a live order.
func (e *Engine) Order(id uint64) (*types.Order, error) {
	o, err := e.liveOrder(id)
	if err != nil {
		return nil, err
	}
	return o.Clone(), nil
}

// Orders returns snapshots of all live orders by id.
func (e *Engine) Orders() []*types.Order {
	live := e.book.Orders.All()
	out := make([]*types.Order, len(live))
	for i, o := range live {
		out[i] = o.Clone()
	}
	return out
}

func (e *Engine) liveOrder(id uint64) (*types.Order, error) {
	if o, ok := e.book.Orders.Get(id); ok {
		return o, nil
	}
	if status, ok := e.closed.get(id); ok {
		return nil, errors.Wrapf(ErrOrderTerminal, "order %d is %s", id, status)
	}
	return nil, errors.Wrapf(ErrOrderNotFound, "order %d", id)
}

func bookErr(err error) error {
	switch {
	case errors.Is(err, book.ErrInvalidPageSize):
		return errors.Wrap(ErrInvalidPageSize, err.Error())
	case errors.Is(err, book.ErrStaleCursor):
		return errors.Wrap(ErrStaleCursor, err.Error())
	case errors.Is(err, book.ErrInvalidPrice):
		return errors.Wrap(ErrPrecisionViolation, err.Error())
	}
	return errors.Wrap(ErrBookInvariant, err.Error())
}

// invariant aborts on a book inconsistency. Matching plans and applies under
// the same lock, so reaching it means the book is corrupt.
func invariant(err error, format string, args ...interface{}) {
	if err != nil {
		panic(errors.Wrapf(ErrBookInvariant, format+": %v", append(args, err)...))
	}
}

func (e *Engine) reserve(ctx context.Context, trader, asset string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return nil
	}
	if err := e.settlement.Reserve(ctx, trader, asset, amount); err != nil {
		return errors.Wrapf(err, "reserve %s %s for %s", amount, asset, trader)
	}
	return nil
}

func (e *Engine) release(ctx context.Context, c *changes, trader, asset string, amount decimal.Decimal) {
	if !amount.IsPositive() {
		return
	}
	c.fail(e.settlement.Release(ctx, trader, asset, amount))
}

// closedIndex remembers the status of the last n closed orders.
type closedIndex struct {
	status map[uint64]types.OrderStatus
	ring   []uint64
	next   int
}

func newClosedIndex(n int) *closedIndex {
	return &closedIndex{
		status: make(map[uint64]types.OrderStatus, n),
		ring:   make([]uint64, 0, n),
	}
}

func (c *closedIndex) add(id uint64, status types.OrderStatus) {
	if len(c.ring) < cap(c.ring) {
		c.ring = append(c.ring, id)
	} else {
		delete(c.status, c.ring[c.next])
		c.ring[c.next] = id
		c.next = (c.next + 1) % len(c.ring)
	}
	c.status[id] = status
}

func (c *closedIndex) get(id uint64) (types.OrderStatus, bool) {
	status, ok := c.status[id]
	return status, ok
}

func (c *closedIndex) len() int { return len(c.status) }
