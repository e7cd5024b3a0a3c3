package exchange

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/PxPatel/clob-exchange/internal/api/logger"
	"github.com/PxPatel/clob-exchange/internal/matching"
	"github.com/PxPatel/clob-exchange/internal/types"
)

// configure runs one operator change on pairID under its write lock and
// publishes the resulting pair state.
func (x *Exchange) configure(ctx context.Context, caller, pairID, op string, auction bool, fn func(*matching.Engine) error) error {
	allowed := x.auth.IsAdmin(caller)
	if auction {
		allowed = x.auth.IsAuctionAdmin(caller)
	}
	if !allowed {
		return errors.Wrapf(matching.ErrUnauthorized, "%s cannot %s", caller, op)
	}
	m, err := x.market(pairID)
	if err != nil {
		return err
	}

	m.mu.Lock()
	err = fn(m.engine)
	state := m.engine.Pair()
	m.mu.Unlock()
	if err != nil {
		x.reject(pairID, op, err)
		return err
	}

	logger.Info("Pair configuration changed", map[string]interface{}{
		"pair":  pairID,
		"op":    op,
		"mode":  state.AuctionMode.String(),
		"admin": caller,
	})
	x.publishPair(ctx, state)
	return nil
}

func (x *Exchange) SetAuctionMode(ctx context.Context, caller, pairID string, mode types.AuctionMode) error {
	return x.configure(ctx, caller, pairID, "set_auction_mode", true, func(e *matching.Engine) error {
		return e.SetAuctionMode(mode)
	})
}

func (x *Exchange) SetAuctionPrice(ctx context.Context, caller, pairID string, price decimal.Decimal) error {
	return x.configure(ctx, caller, pairID, "set_auction_price", true, func(e *matching.Engine) error {
		return e.SetAuctionPrice(price)
	})
}

func (x *Exchange) SetTradeAmountBounds(ctx context.Context, caller, pairID string, min, max decimal.Decimal) error {
	return x.configure(ctx, caller, pairID, "set_trade_amounts", false, func(e *matching.Engine) error {
		return e.SetTradeAmountBounds(min, max)
	})
}

func (x *Exchange) SetFeeRates(ctx context.Context, caller, pairID string, makerBps, takerBps uint32) error {
	return x.configure(ctx, caller, pairID, "set_fee_rates", false, func(e *matching.Engine) error {
		return e.SetFeeRates(makerBps, takerBps)
	})
}

func (x *Exchange) SetAllowedSlippage(ctx context.Context, caller, pairID string, pct decimal.Decimal) error {
	return x.configure(ctx, caller, pairID, "set_slippage", false, func(e *matching.Engine) error {
		return e.SetAllowedSlippage(pct)
	})
}

func (x *Exchange) EnableOrderKind(ctx context.Context, caller, pairID string, kind types.OrderKind, enabled bool) error {
	return x.configure(ctx, caller, pairID, "enable_order_kind", false, func(e *matching.Engine) error {
		return e.EnableOrderKind(kind, enabled)
	})
}

// CanWithdraw reports whether asset may leave the exchange: no pair trading
// it as base may be in a mode that locks withdrawals.
func (x *Exchange) CanWithdraw(asset string) bool {
	return x.everyBasePair(asset, matching.AllowsWithdraw)
}

// CanTransfer reports whether asset may move between accounts.
func (x *Exchange) CanTransfer(asset string) bool {
	return x.everyBasePair(asset, matching.AllowsTransfer)
}

func (x *Exchange) everyBasePair(asset string, allowed func(types.AuctionMode) bool) bool {
	for _, m := range x.sortedMarkets() {
		m.mu.RLock()
		p := m.engine.Pair()
		m.mu.RUnlock()
		if p.BaseSymbol == asset && !allowed(p.AuctionMode) {
			return false
		}
	}
	return true
}
