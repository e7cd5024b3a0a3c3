package matching

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/PxPatel/clob-exchange/internal/types"
)

// modeRules describes what one auction mode permits.
type modeRules struct {
	orders     bool // new orders accepted
	continuous bool // incoming orders match immediately
	cancels    bool // cancel and cancel-replace accepted
	withdraw   bool // the pair's base asset may leave the exchange
	transfer   bool // internal transfers of the base asset
}

var rules = map[types.AuctionMode]modeRules{
	types.AuctionOff:         {orders: true, continuous: true, cancels: true, withdraw: true, transfer: true},
	types.AuctionLiveTrading: {orders: true, continuous: true, cancels: true, transfer: true},
	types.AuctionOpen:        {orders: true, cancels: true, transfer: true},
	types.AuctionClosing:     {orders: true, cancels: true, transfer: true},
	types.AuctionPaused:      {transfer: true},
	types.AuctionMatching:    {transfer: true},
	types.AuctionRestricted:  {},
}

func rulesFor(m types.AuctionMode) modeRules { return rules[m] }

// AcceptsOrders reports whether mode m takes new orders.
func AcceptsOrders(m types.AuctionMode) bool { return rulesFor(m).orders }

// AcceptsCancels reports whether mode m takes cancels.
func AcceptsCancels(m types.AuctionMode) bool { return rulesFor(m).cancels }

// AllowsWithdraw reports whether the base asset of a pair in mode m may be
// withdrawn.
func AllowsWithdraw(m types.AuctionMode) bool { return rulesFor(m).withdraw }

// AllowsTransfer reports whether the base asset may move between accounts.
func AllowsTransfer(m types.AuctionMode) bool { return rulesFor(m).transfer }

// IsAuction reports whether orders rest without matching in mode m.
func IsAuction(m types.AuctionMode) bool {
	r, ok := rules[m]
	return ok && r.orders && !r.continuous
}

// ValidateTransition is the single rule for auction mode changes: a pair may
// return to continuous trading only with an uncrossed book.
func ValidateTransition(from, to types.AuctionMode, crossed bool) error {
	if _, ok := rules[to]; !ok {
		return errors.Wrapf(ErrInvalidArgument, "unknown auction mode %d", to)
	}
	if from == to {
		return nil
	}
	if rulesFor(to).continuous && crossed {
		return errors.Wrapf(ErrCrossedBookOnTransition, "%s -> %s", from, to)
	}
	return nil
}

// MatchAuctionOrders fills crossing orders at the auction price, at most
// maxOrders fills per call. Both sides pay the maker rate. Callers repeat the
// call until it reports ErrNoAuctionMatch.
func (e *Engine) MatchAuctionOrders(ctx context.Context, maxOrders int) (*Result, error) {
	p := e.pair
	if p.AuctionMode != types.AuctionMatching {
		return nil, errors.Wrapf(ErrAuctionNotMatching, "mode %s", p.AuctionMode)
	}
	if !p.AuctionPrice.IsPositive() {
		return nil, ErrAuctionPriceNotSet
	}
	if maxOrders <= 0 {
		return nil, errors.Wrapf(ErrInvalidArgument, "max orders %d", maxOrders)
	}

	price := p.AuctionPrice
	c := newChanges()
	for n := 0; n < maxOrders; n++ {
		bid, ok := e.book.Bids.PeekBest()
		if !ok {
			break
		}
		ask, ok := e.book.Asks.PeekBest()
		if !ok {
			break
		}
		if bid.Price.LessThan(price) || ask.Price.GreaterThan(price) {
			break
		}

		qty := decimal.Min(bid.Quantity, ask.Quantity)
		buy, _ := e.book.Orders.Get(bid.OrderID)
		sell, _ := e.book.Orders.Get(ask.OrderID)
		invariant(e.book.Bids.ReduceHead(qty), "reduce bid %d", buy.ID)
		invariant(e.book.Asks.ReduceHead(qty), "reduce ask %d", sell.ID)

		e.auctionFill(ctx, c, buy, sell, price, qty)
		e.settleResting(ctx, c, buy)
		e.settleResting(ctx, c, sell)
	}
	if len(c.trades) == 0 {
		return nil, errors.Wrapf(ErrNoAuctionMatch, "at %s", price)
	}
	return c.result(nil), nil
}

// auctionFill books an auction fill. The older order is recorded as maker
// and there is no taker.
func (e *Engine) auctionFill(ctx context.Context, c *changes, buy, sell *types.Order, price, qty decimal.Decimal) {
	p := e.pair
	quote := p.QuoteAmount(price, qty)
	buyFee, sellFee := fillFees(p, qty, quote, p.MakerRateBps, p.MakerRateBps)
	now := e.now()

	applyFill(buy, qty, quote, buyFee, quote, now)
	applyFill(sell, qty, quote, sellFee, qty, now)

	maker := buy
	if sell.ID < buy.ID {
		maker = sell
	}
	e.recordTrade(ctx, c, buy, sell, types.Trade{
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
		Auction:      true,
		Timestamp:    now,
	})
}
