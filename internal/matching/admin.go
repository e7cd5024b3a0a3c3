package matching

import (
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/PxPatel/clob-exchange/internal/types"
)

// SetAuctionMode moves the pair to mode. Entering continuous trading requires
// an uncrossed book and clears the auction price.
func (e *Engine) SetAuctionMode(mode types.AuctionMode) error {
	if err := ValidateTransition(e.pair.AuctionMode, mode, e.book.Crossed()); err != nil {
		return err
	}
	e.pair.AuctionMode = mode
	if rulesFor(mode).continuous {
		e.pair.AuctionPrice = decimal.Zero
	}
	return nil
}

// SetAuctionPrice sets the clearing price used by MatchAuctionOrders. It is
// only meaningful while an auction is running.
func (e *Engine) SetAuctionPrice(price decimal.Decimal) error {
	if rulesFor(e.pair.AuctionMode).continuous {
		return errors.Wrapf(ErrAuctionNotActive, "mode %s", e.pair.AuctionMode)
	}
	if !price.IsPositive() {
		return errors.Wrap(ErrInvalidArgument, "auction price must be positive")
	}
	if !exact(price, e.pair.QuoteDisplayDecimals) {
		return errors.Wrapf(ErrPrecisionViolation, "auction price %s", price)
	}
	e.pair.AuctionPrice = price
	return nil
}

func (e *Engine) SetTradeAmountBounds(min, max decimal.Decimal) error {
	if err := validateBounds(min, max); err != nil {
		return err
	}
	e.pair.MinTradeAmount, e.pair.MaxTradeAmount = min, max
	return nil
}

func (e *Engine) SetFeeRates(makerBps, takerBps uint32) error {
	if err := validateRates(makerBps, takerBps); err != nil {
		return err
	}
	e.pair.MakerRateBps, e.pair.TakerRateBps = makerBps, takerBps
	return nil
}

func (e *Engine) SetAllowedSlippage(pct decimal.Decimal) error {
	if err := validateSlippage(pct); err != nil {
		return err
	}
	e.pair.AllowedSlippagePercent = pct
	return nil
}

// EnableOrderKind adds or removes kind from the pair's accepted kinds.
func (e *Engine) EnableOrderKind(kind types.OrderKind, enabled bool) error {
	if kind != types.Market && kind != types.Limit {
		return errors.Wrapf(ErrUnsupportedOrderKind, "kind %s", kind)
	}
	kinds := e.pair.AllowedKinds[:0:0]
	for _, k := range e.pair.AllowedKinds {
		if k != kind {
			kinds = append(kinds, k)
		}
	}
	if enabled {
		kinds = append(kinds, kind)
	}
	e.pair.AllowedKinds = kinds
	return nil
}
