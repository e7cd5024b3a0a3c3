// Package exchange routes trader and operator requests to the per-pair
// matching engines. It owns the locking discipline, authorization and the
// persistence and publication of every committed change.
package exchange

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/PxPatel/clob-exchange/internal/api/logger"
	"github.com/PxPatel/clob-exchange/internal/events"
	"github.com/PxPatel/clob-exchange/internal/matching"
	"github.com/PxPatel/clob-exchange/internal/metrics"
	"github.com/PxPatel/clob-exchange/internal/sequence"
	"github.com/PxPatel/clob-exchange/internal/storage"
	"github.com/PxPatel/clob-exchange/internal/storage/memory"
	"github.com/PxPatel/clob-exchange/internal/types"
)

// Authorizer decides who may run operator calls.
type Authorizer interface {
	IsAdmin(caller string) bool
	// IsAuctionAdmin covers auction mode, auction price and auction matching.
	IsAuctionAdmin(caller string) bool
}

// Options wires the exchange. Settlement and Authorizer are required; the
// rest fall back to in-memory or no-op implementations.
type Options struct {
	Settlement matching.Settlement
	Authorizer Authorizer
	Orders     storage.OrderStore
	Trades     storage.TradeStore
	Publisher  events.Publisher
	Metrics    *metrics.Metrics
	OrderIDs   matching.IDSource
	TradeIDs   matching.IDSource
	Clock      func() time.Time
}

const (
	defaultStoreSize = 100000
	// events waiting for the broker; beyond this they are dropped and counted
	publishQueueSize = 8192
	publishTimeout   = 10 * time.Second
)

type market struct {
	mu     sync.RWMutex
	engine *matching.Engine
}

// Exchange is safe for concurrent use. Each pair has its own lock: mutations
// take it exclusively, reads share it. mu only guards the pair map and the
// live order index and is never held while waiting for a pair lock.
type Exchange struct {
	settlement matching.Settlement
	auth       Authorizer
	orders     storage.OrderStore
	trades     storage.TradeStore
	publisher  events.Publisher
	metrics    *metrics.Metrics
	orderIDs   matching.IDSource
	tradeIDs   matching.IDSource
	now        func() time.Time

	mu      sync.RWMutex
	markets map[string]*market
	pairOf  map[uint64]string
}

func New(opts Options) (*Exchange, error) {
	if opts.Settlement == nil {
		return nil, errors.New("exchange: settlement is required")
	}
	if opts.Authorizer == nil {
		return nil, errors.New("exchange: authorizer is required")
	}
	x := &Exchange{
		settlement: opts.Settlement,
		auth:       opts.Authorizer,
		orders:     opts.Orders,
		trades:     opts.Trades,
		publisher:  opts.Publisher,
		metrics:    opts.Metrics,
		orderIDs:   opts.OrderIDs,
		tradeIDs:   opts.TradeIDs,
		now:        opts.Clock,
		markets:    make(map[string]*market),
		pairOf:     make(map[uint64]string),
	}
	if x.orders == nil {
		x.orders = memory.NewOrderStore(defaultStoreSize)
	}
	if x.trades == nil {
		x.trades = memory.NewTradeStore(defaultStoreSize)
	}
	if x.metrics == nil {
		x.metrics = metrics.New()
	}
	if x.publisher == nil {
		x.publisher = events.Nop{}
	} else {
		// deliveries leave the pair lock and the request's context behind
		x.publisher = events.NewQueue(x.publisher, publishQueueSize, publishTimeout, func(pair string, err error) {
			x.persistFailed("events", pair, err)
		})
	}
	// ids are exchange-wide so GetOrder needs no pair
	if x.orderIDs == nil {
		x.orderIDs = sequence.New(0)
	}
	if x.tradeIDs == nil {
		x.tradeIDs = sequence.New(0)
	}
	if x.now == nil {
		x.now = func() time.Time { return time.Now().UTC() }
	}
	return x, nil
}

// Close delivers queued events, then closes the publisher and both stores.
func (x *Exchange) Close() error {
	var first error
	for _, c := range []interface{ Close() error }{x.publisher, x.trades, x.orders} {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Metrics returns the collector set the exchange records into.
func (x *Exchange) Metrics() *metrics.Metrics { return x.metrics }

func (x *Exchange) market(pairID string) (*market, error) {
	x.mu.RLock()
	m, ok := x.markets[pairID]
	x.mu.RUnlock()
	if !ok {
		return nil, errors.Wrapf(matching.ErrInvalidPair, "%q", pairID)
	}
	return m, nil
}

func (x *Exchange) sortedMarkets() []*market {
	x.mu.RLock()
	ids := make([]string, 0, len(x.markets))
	for id := range x.markets {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]*market, len(ids))
	for i, id := range ids {
		out[i] = x.markets[id]
	}
	x.mu.RUnlock()
	return out
}

// AddPair lists a new trading pair. Only admins may list pairs.
func (x *Exchange) AddPair(ctx context.Context, caller string, pair *types.Pair) error {
	if !x.auth.IsAdmin(caller) {
		return errors.Wrapf(matching.ErrUnauthorized, "%s cannot add pairs", caller)
	}
	if pair == nil {
		return errors.Wrap(matching.ErrInvalidPairConfig, "nil pair")
	}

	x.mu.Lock()
	if _, ok := x.markets[pair.ID]; ok {
		x.mu.Unlock()
		return errors.Wrapf(matching.ErrPairExists, "%q", pair.ID)
	}
	engine, err := matching.NewEngine(pair, matching.Options{
		Settlement: x.settlement,
		OrderIDs:   x.orderIDs,
		TradeIDs:   x.tradeIDs,
		Clock:      x.now,
	})
	if err != nil {
		x.mu.Unlock()
		return err
	}
	x.markets[pair.ID] = &market{engine: engine}
	x.mu.Unlock()

	logger.Info("Trading pair listed", map[string]interface{}{
		"pair":  pair.ID,
		"mode":  pair.AuctionMode.String(),
		"admin": caller,
	})
	x.publishPair(ctx, engine.Pair())
	return nil
}

// Pairs returns every listed pair sorted by id.
func (x *Exchange) Pairs() []*types.Pair {
	markets := x.sortedMarkets()
	out := make([]*types.Pair, len(markets))
	for i, m := range markets {
		m.mu.RLock()
		out[i] = m.engine.Pair()
		m.mu.RUnlock()
	}
	return out
}

func (x *Exchange) Pair(pairID string) (*types.Pair, error) {
	m, err := x.market(pairID)
	if err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.engine.Pair(), nil
}

// SubmitOrder places a new order on pairID.
func (x *Exchange) SubmitOrder(ctx context.Context, pairID string, req matching.OrderRequest) (*matching.Result, error) {
	defer x.metrics.Observe("submit", time.Now())
	m, err := x.market(pairID)
	if err != nil {
		x.reject(pairID, "submit", err)
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	res, err := m.engine.SubmitOrder(ctx, req)
	if err != nil {
		x.reject(pairID, "submit", err)
		return nil, err
	}
	x.metrics.OrderAccepted(pairID, res.Order.Side.String(), res.Order.Kind.String())
	x.commit(ctx, pairID, m.engine, res)
	return res, nil
}

// CancelOrder cancels one live order owned by trader.
func (x *Exchange) CancelOrder(ctx context.Context, trader string, id uint64) (*matching.Result, error) {
	defer x.metrics.Observe("cancel", time.Now())
	pairID, m, err := x.locate(id)
	if err != nil {
		x.reject(pairID, "cancel", err)
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	res, err := m.engine.CancelOrder(ctx, trader, id)
	if err != nil {
		x.reject(pairID, "cancel", err)
		return nil, err
	}
	x.commit(ctx, pairID, m.engine, res)
	return res, nil
}

// CancelReplaceOrder swaps a live order for one at a new price and
// quantity. Result.Order is the replacement.
func (x *Exchange) CancelReplaceOrder(ctx context.Context, trader string, id uint64, clientOrderID string, price, qty decimal.Decimal) (*matching.Result, error) {
	defer x.metrics.Observe("replace", time.Now())
	pairID, m, err := x.locate(id)
	if err != nil {
		x.reject(pairID, "replace", err)
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	res, err := m.engine.CancelReplaceOrder(ctx, trader, id, clientOrderID, price, qty)
	if err != nil {
		x.reject(pairID, "replace", err)
		return nil, err
	}
	x.metrics.OrderAccepted(pairID, res.Order.Side.String(), res.Order.Kind.String())
	x.commit(ctx, pairID, m.engine, res)
	return res, nil
}

// CancelAllOrders cancels every listed id trader owns, across pairs. The
// outcomes follow the order of ids; ids that could not be canceled carry
// their error.
func (x *Exchange) CancelAllOrders(ctx context.Context, trader string, ids []uint64) []matching.CancelOutcome {
	defer x.metrics.Observe("cancel_all", time.Now())
	outcomes := make([]matching.CancelOutcome, len(ids))
	groups := make(map[string][]int)
	var pairs []string
	for i, id := range ids {
		outcomes[i].OrderID = id
		x.mu.RLock()
		pairID, ok := x.pairOf[id]
		x.mu.RUnlock()
		if !ok {
			outcomes[i].Err = x.closedOrMissing(id)
			continue
		}
		if _, seen := groups[pairID]; !seen {
			pairs = append(pairs, pairID)
		}
		groups[pairID] = append(groups[pairID], i)
	}

	for _, pairID := range pairs {
		idx := groups[pairID]
		m, err := x.market(pairID)
		if err != nil {
			for _, i := range idx {
				outcomes[i].Err = err
			}
			continue
		}
		batch := make([]uint64, len(idx))
		for j, i := range idx {
			batch[j] = ids[i]
		}

		m.mu.Lock()
		got, res, err := m.engine.CancelAllOrders(ctx, trader, batch)
		if err != nil {
			m.mu.Unlock()
			x.reject(pairID, "cancel_all", err)
			for _, i := range idx {
				outcomes[i].Err = err
			}
			continue
		}
		x.commit(ctx, pairID, m.engine, res)
		m.mu.Unlock()

		for j, i := range idx {
			outcomes[i] = got[j]
		}
	}
	return outcomes
}

// MatchAuctionOrders runs one batch of auction fills on pairID.
func (x *Exchange) MatchAuctionOrders(ctx context.Context, caller, pairID string, maxOrders int) (*matching.Result, error) {
	defer x.metrics.Observe("auction_match", time.Now())
	if !x.auth.IsAuctionAdmin(caller) {
		return nil, errors.Wrapf(matching.ErrUnauthorized, "%s cannot run auction matching", caller)
	}
	m, err := x.market(pairID)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	res, err := m.engine.MatchAuctionOrders(ctx, maxOrders)
	if err != nil {
		if !errors.Is(err, matching.ErrNoAuctionMatch) {
			x.reject(pairID, "auction_match", err)
		}
		return nil, err
	}
	logger.Info("Auction batch matched", map[string]interface{}{
		"pair":   pairID,
		"trades": len(res.Trades),
		"admin":  caller,
	})
	x.commit(ctx, pairID, m.engine, res)
	return res, nil
}

// UnsolicitedCancel cancels up to max orders from the best end of one side
// of pairID on an admin's behalf.
func (x *Exchange) UnsolicitedCancel(ctx context.Context, caller, pairID string, side types.Side, max int) (*matching.Result, error) {
	if !x.auth.IsAdmin(caller) {
		return nil, errors.Wrapf(matching.ErrUnauthorized, "%s cannot cancel other traders' orders", caller)
	}
	m, err := x.market(pairID)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	res, err := m.engine.UnsolicitedCancel(ctx, side, max)
	if err != nil {
		return nil, err
	}
	logger.Warn("Unsolicited cancel", map[string]interface{}{
		"pair":     pairID,
		"side":     side.String(),
		"canceled": len(res.Updated),
		"admin":    caller,
	})
	x.commit(ctx, pairID, m.engine, res)
	return res, nil
}

// locate finds the pair a live order rests on.
func (x *Exchange) locate(id uint64) (string, *market, error) {
	x.mu.RLock()
	pairID, ok := x.pairOf[id]
	x.mu.RUnlock()
	if !ok {
		return "", nil, x.closedOrMissing(id)
	}
	m, err := x.market(pairID)
	return pairID, m, err
}

func (x *Exchange) closedOrMissing(id uint64) error {
	o, err := x.orders.Get(id)
	if err == nil && o.IsTerminal() {
		return errors.Wrapf(matching.ErrOrderTerminal, "order %d is %s", id, o.Status)
	}
	return errors.Wrapf(matching.ErrOrderNotFound, "order %d", id)
}

// commit makes a committed engine result visible: live index, stores,
// events and metrics. The caller holds the pair's write lock so snapshots
// reach the stores in commit order. Store and publish failures are logged
// and counted; the book change stands.
func (x *Exchange) commit(ctx context.Context, pairID string, engine *matching.Engine, res *matching.Result) {
	x.mu.Lock()
	for _, o := range res.Updated {
		if o.IsTerminal() {
			delete(x.pairOf, o.ID)
		} else {
			x.pairOf[o.ID] = pairID
		}
	}
	x.mu.Unlock()

	if res.SettlementErr != nil {
		x.metrics.SettlementError(pairID)
		logger.Error("Settlement failed after commit", map[string]interface{}{
			"pair":  pairID,
			"error": res.SettlementErr.Error(),
		})
	}

	for _, o := range res.Updated {
		if err := x.orders.Save(o); err != nil {
			x.persistFailed("orders", pairID, err)
		}
	}
	if len(res.Trades) > 0 {
		batch := make([]*types.Trade, len(res.Trades))
		for i := range res.Trades {
			batch[i] = &res.Trades[i]
			x.metrics.Trade(pairID, res.Trades[i].Auction, res.Trades[i].QuoteAmount.InexactFloat64())
		}
		if err := x.trades.SaveBatch(batch); err != nil {
			x.persistFailed("trades", pairID, err)
		}
	}

	evts := events.FromChanges(pairID, x.now(), res.Trades, res.Updated)
	if err := x.publisher.Publish(ctx, evts...); err != nil {
		x.persistFailed("events", pairID, err)
	}
	x.metrics.Resting(pairID, engine.Resting())
}

func (x *Exchange) persistFailed(sink, pairID string, err error) {
	x.metrics.PersistError(sink)
	logger.Error("Failed to persist committed change", map[string]interface{}{
		"sink":  sink,
		"pair":  pairID,
		"error": err.Error(),
	})
}

func (x *Exchange) reject(pairID, op string, err error) {
	if pairID == "" {
		pairID = "unknown"
	}
	x.metrics.Rejected(pairID, op, ErrorName(err))
	logger.Debug("Request rejected", map[string]interface{}{
		"pair":  pairID,
		"op":    op,
		"error": err.Error(),
	})
}

func (x *Exchange) publishPair(ctx context.Context, p *types.Pair) {
	evt := events.Event{Kind: events.KindPair, Pair: p.ID, At: x.now(), State: p}
	if err := x.publisher.Publish(ctx, evt); err != nil {
		x.persistFailed("events", p.ID, err)
	}
}

// ErrorName is the wire name of the engine code inside err, or "INTERNAL".
func ErrorName(err error) string {
	var code matching.ErrorCode
	if errors.As(err, &code) {
		return code.Name()
	}
	return "INTERNAL"
}
