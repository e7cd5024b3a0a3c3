package matching

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/PxPatel/clob-exchange/internal/types"
)

// CancelOutcome is the per-id result of CancelAllOrders.
type CancelOutcome struct {
	OrderID  uint64 `json:"order_id"`
	Canceled bool   `json:"canceled"`
	Err      error  `json:"-"`
}

func (e *Engine) checkCancels() error {
	if !AcceptsCancels(e.pair.AuctionMode) {
		return errors.Wrapf(ErrAuctionStateForbidsCancel, "mode %s", e.pair.AuctionMode)
	}
	return nil
}

func (e *Engine) ownedOrder(trader string, id uint64) (*types.Order, error) {
	o, err := e.liveOrder(id)
	if err != nil {
		return nil, err
	}
	if o.Trader != trader {
		return nil, errors.Wrapf(ErrUnauthorized, "order %d belongs to another trader", id)
	}
	return o, nil
}

// CancelOrder cancels a resting order owned by trader.
func (e *Engine) CancelOrder(ctx context.Context, trader string, id uint64) (*Result, error) {
	if err := e.checkCancels(); err != nil {
		return nil, err
	}
	o, err := e.ownedOrder(trader, id)
	if err != nil {
		return nil, err
	}
	c := newChanges()
	e.cancelResting(ctx, c, o)
	return c.result(o), nil
}

// CancelReplaceOrder atomically cancels id and submits a replacement with the
// same side, kind and time in force. The replacement joins the tail of its
// price queue. If the replacement is rejected or cannot be funded the
// original order is left untouched.
func (e *Engine) CancelReplaceOrder(ctx context.Context, trader string, id uint64, clientOrderID string, price, qty decimal.Decimal) (*Result, error) {
	if err := e.checkCancels(); err != nil {
		return nil, err
	}
	orig, err := e.ownedOrder(trader, id)
	if err != nil {
		return nil, err
	}

	o, err := e.draft(OrderRequest{
		Trader:        trader,
		ClientOrderID: clientOrderID,
		Side:          orig.Side,
		Kind:          orig.Kind,
		TimeInForce:   orig.TimeInForce,
		Price:         price,
		Quantity:      qty,
		replaces:      orig.ID,
	})
	if err != nil {
		return nil, err
	}
	// the original sits on the replacement's own side, so it never changes
	// what the replacement would match against
	plan, err := e.prepare(o)
	if err != nil {
		return nil, err
	}

	held := heldAsset(e.pair, orig.Side)
	asset, amount := reservation(e.pair, o, plan.quote)
	if orig.Reserved.IsPositive() {
		if err := e.settlement.Release(ctx, trader, held, orig.Reserved); err != nil {
			return nil, errors.Wrapf(err, "release order %d", orig.ID)
		}
	}
	if err := e.reserve(ctx, trader, asset, amount); err != nil {
		if orig.Reserved.IsPositive() {
			if rerr := e.settlement.Reserve(ctx, trader, held, orig.Reserved); rerr != nil {
				invariant(rerr, "restore reservation of order %d", orig.ID)
			}
		}
		return nil, err
	}
	o.Reserved = amount

	c := newChanges()
	orig.Reserved = decimal.Zero
	e.cancelResting(ctx, c, orig)
	e.commit(ctx, c, o, plan)
	return c.result(o), nil
}

// CancelAllOrders cancels every listed order trader owns. Unknown, closed and
// foreign ids are skipped and reported in the outcomes.
func (e *Engine) CancelAllOrders(ctx context.Context, trader string, ids []uint64) ([]CancelOutcome, *Result, error) {
	if err := e.checkCancels(); err != nil {
		return nil, nil, err
	}
	c := newChanges()
	outcomes := make([]CancelOutcome, len(ids))
	for i, id := range ids {
		outcomes[i].OrderID = id
		o, err := e.ownedOrder(trader, id)
		if err != nil {
			outcomes[i].Err = err
			continue
		}
		e.cancelResting(ctx, c, o)
		outcomes[i].Canceled = true
	}
	return outcomes, c.result(nil), nil
}

// UnsolicitedCancel cancels up to max orders from the best end of one side
// regardless of owner or auction mode. Operators use it to uncross a book
// before leaving an auction.
func (e *Engine) UnsolicitedCancel(ctx context.Context, side types.Side, max int) (*Result, error) {
	if max <= 0 {
		return nil, errors.Wrapf(ErrInvalidArgument, "max %d", max)
	}
	var ids []uint64
	e.book.Side(side).Walk(func(_ decimal.Decimal, id uint64, _ decimal.Decimal) bool {
		ids = append(ids, id)
		return len(ids) < max
	})

	c := newChanges()
	for _, id := range ids {
		o, _ := e.book.Orders.Get(id)
		e.cancelResting(ctx, c, o)
	}
	return c.result(nil), nil
}

func (e *Engine) cancelResting(ctx context.Context, c *changes, o *types.Order) {
	_, err := e.book.Side(o.Side).Remove(o.Price, o.ID)
	invariant(err, "unqueue order %d", o.ID)
	e.close(ctx, c, o, types.StatusCanceled)
}
