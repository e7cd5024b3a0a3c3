package matching

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/PxPatel/clob-exchange/internal/types"
)

type plannedFill struct {
	makerID uint64
	price   decimal.Decimal
	qty     decimal.Decimal
}

// matchPlan is a read-only walk of the opposite side: the fills an order
// would get, in the order they will be applied.
type matchPlan struct {
	fills  []plannedFill
	filled decimal.Decimal
	quote  decimal.Decimal
}

// SubmitOrder validates, matches and rests an order. Every failure happens
// before the book or any balance changes.
func (e *Engine) SubmitOrder(ctx context.Context, req OrderRequest) (*Result, error) {
	o, err := e.draft(req)
	if err != nil {
		return nil, err
	}
	plan, err := e.prepare(o)
	if err != nil {
		return nil, err
	}

	asset, amount := reservation(e.pair, o, plan.quote)
	if err := e.reserve(ctx, o.Trader, asset, amount); err != nil {
		return nil, err
	}
	o.Reserved = amount

	c := newChanges()
	e.commit(ctx, c, o, plan)
	return c.result(o), nil
}

// prepare plans the match for o and applies the time-in-force checks that
// depend on it.
func (e *Engine) prepare(o *types.Order) (matchPlan, error) {
	if !rulesFor(e.pair.AuctionMode).continuous {
		// auction phases only collect orders
		if o.TimeInForce == types.PO && e.wouldCross(o) {
			return matchPlan{}, errors.Wrapf(ErrPostOnlyWouldCross, "%s at %s", o.Side, o.Price)
		}
		return matchPlan{filled: decimal.Zero, quote: decimal.Zero}, nil
	}

	plan := e.planMatch(o)
	if o.TimeInForce == types.FOK && plan.filled.LessThan(o.Quantity) {
		return matchPlan{}, errors.Wrapf(ErrFillOrKillUnsatisfiable, "%s of %s available", plan.filled, o.Quantity)
	}
	if o.TimeInForce == types.PO && len(plan.fills) > 0 {
		return matchPlan{}, errors.Wrapf(ErrPostOnlyWouldCross, "%s at %s", o.Side, o.Price)
	}
	return plan, nil
}

// priceFilter returns the test a maker price must pass for o to trade with
// it. Market orders are bounded by the pair's slippage band around best.
func (e *Engine) priceFilter(o *types.Order, best decimal.Decimal) func(decimal.Decimal) bool {
	limit := o.Price
	if o.Kind == types.Market {
		band := e.pair.AllowedSlippagePercent.Shift(-2)
		if o.Side == types.Buy {
			limit = best.Mul(decimal.NewFromInt(1).Add(band))
		} else {
			limit = best.Mul(decimal.NewFromInt(1).Sub(band))
		}
	}
	if o.Side == types.Buy {
		return func(p decimal.Decimal) bool { return p.LessThanOrEqual(limit) }
	}
	return func(p decimal.Decimal) bool { return p.GreaterThanOrEqual(limit) }
}

func (e *Engine) wouldCross(o *types.Order) bool {
	best, ok := e.book.Side(o.Side.Opposite()).Best()
	return ok && e.priceFilter(o, best)(best)
}

func (e *Engine) planMatch(o *types.Order) matchPlan {
	plan := matchPlan{filled: decimal.Zero, quote: decimal.Zero}
	opposite := e.book.Side(o.Side.Opposite())
	best, ok := opposite.Best()
	if !ok {
		return plan
	}
	canMatch := e.priceFilter(o, best)

	remaining := o.Quantity
	opposite.Walk(func(price decimal.Decimal, id uint64, qty decimal.Decimal) bool {
		if !canMatch(price) {
			return false
		}
		fill := decimal.Min(remaining, qty)
		plan.fills = append(plan.fills, plannedFill{makerID: id, price: price, qty: fill})
		plan.filled = plan.filled.Add(fill)
		plan.quote = plan.quote.Add(e.pair.QuoteAmount(price, fill))
		remaining = remaining.Sub(fill)
		return remaining.IsPositive()
	})
	return plan
}

// commit assigns o its id and applies plan: fills at maker prices in queue
// order, then the remainder rests or is canceled.
func (e *Engine) commit(ctx context.Context, c *changes, o *types.Order, plan matchPlan) {
	now := e.now()
	o.ID = e.orderIDs.Next()
	o.CreatedAt = now
	o.UpdatedAt = now
	if o.ClientOrderID != "" {
		e.clientIDs[clientKey(o.Trader, o.ClientOrderID)] = o.ID
	}
	c.touch(o)

	opposite := e.book.Side(o.Side.Opposite())
	takerRate, makerRate := e.pair.TakerRateBps, e.pair.MakerRateBps
	for _, f := range plan.fills {
		head, ok := opposite.PeekBest()
		if !ok || head.OrderID != f.makerID {
			invariant(ErrBookInvariant, "planned maker %d is not at the head", f.makerID)
		}
		maker, _ := e.book.Orders.Get(f.makerID)
		invariant(opposite.ReduceHead(f.qty), "reduce maker %d", f.makerID)

		if o.Side == types.Buy {
			e.execute(ctx, c, o, maker, f.price, f.qty, maker, takerRate, makerRate)
		} else {
			e.execute(ctx, c, maker, o, f.price, f.qty, maker, makerRate, takerRate)
		}
		e.settleResting(ctx, c, maker)
	}

	switch {
	case o.Remaining().IsZero():
		e.close(ctx, c, o, types.StatusFilled)
	case o.Kind == types.Limit && (o.TimeInForce == types.GTC || o.TimeInForce == types.PO):
		invariant(e.book.Side(o.Side).Insert(o.Price, o.ID, o.Remaining()), "rest order %d", o.ID)
		invariant(e.book.Orders.Add(o), "register order %d", o.ID)
		e.trimReservation(ctx, c, o)
	default:
		// IOC and market remainders never rest
		e.close(ctx, c, o, types.StatusCanceled)
	}
}

// execute books one fill between buy and sell at price and settles it.
func (e *Engine) execute(ctx context.Context, c *changes, buy, sell *types.Order, price, qty decimal.Decimal, maker *types.Order, buyRate, sellRate uint32) {
	p := e.pair
	quote := p.QuoteAmount(price, qty)
	buyFee, sellFee := fillFees(p, qty, quote, buyRate, sellRate)
	now := e.now()

	applyFill(buy, qty, quote, buyFee, quote, now)
	applyFill(sell, qty, quote, sellFee, qty, now)

	trade := types.Trade{
		TradeID:      e.tradeIDs.Next(),
		PairID:       p.ID,
		BuyOrderID:   buy.ID,
		SellOrderID:  sell.ID,
		Buyer:        buy.Trader,
		Seller:       sell.Trader,
		MakerOrderID: maker.ID,
		MakerSide:    maker.Side,
		Price:        price,
		Quantity:     qty,
		QuoteAmount:  quote,
		BuyFee:       buyFee,
		SellFee:      sellFee,
		Timestamp:    now,
	}
	trade.TakerOrderID = buy.ID
	if buy == maker {
		trade.TakerOrderID = sell.ID
	}
	e.recordTrade(ctx, c, buy, sell, trade)
}

func (e *Engine) recordTrade(ctx context.Context, c *changes, buy, sell *types.Order, trade types.Trade) {
	p := e.pair
	c.trades = append(c.trades, trade)
	c.touch(buy)
	c.touch(sell)

	c.fail(e.settlement.Execute(ctx, Execution{
		PairID:      p.ID,
		TradeID:     trade.TradeID,
		Buyer:       buy.Trader,
		Seller:      sell.Trader,
		BaseAsset:   p.BaseSymbol,
		QuoteAsset:  p.QuoteSymbol,
		BaseAmount:  trade.Quantity,
		QuoteAmount: trade.QuoteAmount,
		BuyFee:      trade.BuyFee,
		SellFee:     trade.SellFee,
	}))
	if trade.BuyFee.IsPositive() {
		c.fail(e.settlement.TransferFee(ctx, p.BaseSymbol, trade.BuyFee))
	}
	if trade.SellFee.IsPositive() {
		c.fail(e.settlement.TransferFee(ctx, p.QuoteSymbol, trade.SellFee))
	}
}

func applyFill(o *types.Order, qty, quote, fee, consumed decimal.Decimal, now time.Time) {
	o.QuantityFilled = o.QuantityFilled.Add(qty)
	o.TotalAmount = o.TotalAmount.Add(quote)
	o.TotalFee = o.TotalFee.Add(fee)
	o.Reserved = o.Reserved.Sub(consumed)
	o.UpdatedAt = now
	if o.Remaining().IsZero() {
		o.Status = types.StatusFilled
	} else {
		o.Status = types.StatusPartial
	}
}

// settleResting finishes a resting order after it traded: a filled order
// leaves the registry, a partial buy gives back reservation it no longer
// needs.
func (e *Engine) settleResting(ctx context.Context, c *changes, o *types.Order) {
	if o.Status == types.StatusFilled {
		e.close(ctx, c, o, types.StatusFilled)
		return
	}
	e.trimReservation(ctx, c, o)
}

// trimReservation releases quote held by a resting buy beyond what its
// remainder can cost at its limit price.
func (e *Engine) trimReservation(ctx context.Context, c *changes, o *types.Order) {
	if o.Side != types.Buy {
		return
	}
	need := e.pair.QuoteAmount(o.Price, o.Remaining())
	excess := o.Reserved.Sub(need)
	if !excess.IsPositive() {
		return
	}
	e.release(ctx, c, o.Trader, e.pair.QuoteSymbol, excess)
	o.Reserved = need
	c.touch(o)
}

// close moves o to a terminal status, drops it from the registry and
// releases whatever it still holds. The caller removes it from the book.
func (e *Engine) close(ctx context.Context, c *changes, o *types.Order, status types.OrderStatus) {
	o.Status = status
	o.UpdatedAt = e.now()
	e.release(ctx, c, o.Trader, heldAsset(e.pair, o.Side), o.Reserved)
	o.Reserved = decimal.Zero
	e.book.Orders.Delete(o.ID)
	e.closed.add(o.ID, status)
	if o.ClientOrderID != "" {
		key := clientKey(o.Trader, o.ClientOrderID)
		if e.clientIDs[key] == o.ID {
			delete(e.clientIDs, key)
		}
	}
	c.touch(o)
}
