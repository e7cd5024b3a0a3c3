package matching

import (
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/PxPatel/clob-exchange/internal/types"
)

const maxRateBps = 10000

// ValidatePair checks a pair definition before it is listed.
func ValidatePair(p *types.Pair) error {
	switch {
	case p.ID == "":
		return errors.Wrap(ErrInvalidPairConfig, "empty pair id")
	case p.BaseSymbol == "" || p.QuoteSymbol == "" || p.BaseSymbol == p.QuoteSymbol:
		return errors.Wrapf(ErrInvalidPairConfig, "symbols %q/%q", p.BaseSymbol, p.QuoteSymbol)
	case p.BaseDecimals < 0 || p.QuoteDecimals < 0 || p.BaseDisplayDecimals < 0 || p.QuoteDisplayDecimals < 0:
		return errors.Wrap(ErrInvalidPairConfig, "negative decimals")
	case p.BaseDisplayDecimals > p.BaseDecimals || p.QuoteDisplayDecimals > p.QuoteDecimals:
		return errors.Wrap(ErrInvalidPairConfig, "display decimals exceed native decimals")
	}
	if err := validateBounds(p.MinTradeAmount, p.MaxTradeAmount); err != nil {
		return err
	}
	if err := validateRates(p.MakerRateBps, p.TakerRateBps); err != nil {
		return err
	}
	if err := validateSlippage(p.AllowedSlippagePercent); err != nil {
		return err
	}
	for _, k := range p.AllowedKinds {
		if k != types.Market && k != types.Limit {
			return errors.Wrapf(ErrUnsupportedOrderKind, "kind %s", k)
		}
	}
	if _, ok := rules[p.AuctionMode]; !ok {
		return errors.Wrapf(ErrInvalidPairConfig, "auction mode %d", p.AuctionMode)
	}
	return nil
}

func validateBounds(min, max decimal.Decimal) error {
	if !min.IsPositive() || max.LessThan(min) {
		return errors.Wrapf(ErrInvalidPairConfig, "trade amount bounds [%s, %s]", min, max)
	}
	return nil
}

func validateRates(maker, taker uint32) error {
	if maker > maxRateBps || taker > maxRateBps {
		return errors.Wrapf(ErrInvalidPairConfig, "fee rates %d/%d bps", maker, taker)
	}
	return nil
}

func validateSlippage(pct decimal.Decimal) error {
	if pct.IsNegative() || pct.GreaterThan(decimal.NewFromInt(100)) {
		return errors.Wrapf(ErrInvalidPairConfig, "slippage %s%%", pct)
	}
	return nil
}

// exact reports whether v has no digits beyond places. Values are floored
// before comparison so nothing is ever rounded up into validity.
func exact(v decimal.Decimal, places int32) bool {
	return v.Equal(v.Truncate(places))
}

// OrderRequest is what a trader submits.
type OrderRequest struct {
	Trader        string
	ClientOrderID string
	Side          types.Side
	Kind          types.OrderKind
	TimeInForce   types.TimeInForce
	Price         decimal.Decimal
	Quantity      decimal.Decimal

	// replaces is the order a cancel-replace closes; its client id may be
	// reused by the replacement.
	replaces uint64
}

// draft validates req against the pair and mode and returns the order it
// describes. Nothing is mutated.
func (e *Engine) draft(req OrderRequest) (*types.Order, error) {
	p := e.pair
	mode := p.AuctionMode
	if !AcceptsOrders(mode) {
		return nil, errors.Wrapf(ErrAuctionStateForbidsOrders, "mode %s", mode)
	}

	if req.Kind == types.Stop || req.Kind == types.StopLimit {
		return nil, errors.Wrapf(ErrUnsupportedOrderKind, "kind %s", req.Kind)
	}
	if req.Kind > types.StopLimit {
		return nil, errors.Wrapf(ErrInvalidOrder, "kind %d", req.Kind)
	}
	if !p.KindAllowed(req.Kind) {
		return nil, errors.Wrapf(ErrOrderKindNotEnabled, "kind %s on %s", req.Kind, p.ID)
	}
	if req.Trader == "" {
		return nil, errors.Wrap(ErrInvalidOrder, "missing trader")
	}
	if req.Side > types.Sell || req.TimeInForce > types.PO {
		return nil, errors.Wrap(ErrInvalidOrder, "side or time in force out of range")
	}
	if !req.Quantity.IsPositive() {
		return nil, errors.Wrap(ErrInvalidOrder, "quantity must be positive")
	}
	if !exact(req.Quantity, p.BaseDisplayDecimals) {
		return nil, errors.Wrapf(ErrPrecisionViolation, "quantity %s allows %d decimals", req.Quantity, p.BaseDisplayDecimals)
	}

	tif := req.TimeInForce
	price := req.Price
	switch req.Kind {
	case types.Limit:
		if !price.IsPositive() {
			return nil, errors.Wrap(ErrInvalidOrder, "limit price must be positive")
		}
		if !exact(price, p.QuoteDisplayDecimals) {
			return nil, errors.Wrapf(ErrPrecisionViolation, "price %s allows %d decimals", price, p.QuoteDisplayDecimals)
		}
	case types.Market:
		if tif == types.PO {
			return nil, errors.Wrap(ErrInvalidOrder, "market orders cannot be post-only")
		}
		price = decimal.Zero
	}

	if IsAuction(mode) {
		if req.Kind == types.Market || tif == types.IOC || tif == types.FOK {
			return nil, errors.Wrapf(ErrAuctionStateForbidsOrders, "%s %s cannot rest in mode %s", req.Kind, tif, mode)
		}
		if mode == types.AuctionOpen && tif == types.PO {
			tif = types.GTC
		}
	}

	notionalPrice := price
	if req.Kind == types.Market {
		best, ok := e.book.Side(req.Side.Opposite()).Best()
		if !ok {
			return nil, errors.Wrapf(ErrNoLiquidity, "%s market order on %s", req.Side, p.ID)
		}
		notionalPrice = best
	}
	notional := p.QuoteAmount(notionalPrice, req.Quantity)
	if notional.LessThan(p.MinTradeAmount) || notional.GreaterThan(p.MaxTradeAmount) {
		return nil, errors.Wrapf(ErrTradeAmountOutOfRange, "notional %s not in [%s, %s]", notional, p.MinTradeAmount, p.MaxTradeAmount)
	}

	if req.ClientOrderID != "" {
		if owner, taken := e.clientIDs[clientKey(req.Trader, req.ClientOrderID)]; taken && owner != req.replaces {
			return nil, errors.Wrapf(ErrDuplicateClientOrderID, "%s", req.ClientOrderID)
		}
	}

	return &types.Order{
		ClientOrderID:  req.ClientOrderID,
		Trader:         req.Trader,
		PairID:         p.ID,
		Side:           req.Side,
		Kind:           req.Kind,
		TimeInForce:    tif,
		Price:          price,
		Quantity:       req.Quantity,
		QuantityFilled: decimal.Zero,
		TotalAmount:    decimal.Zero,
		TotalFee:       decimal.Zero,
		Reserved:       decimal.Zero,
		Status:         types.StatusNew,
	}, nil
}

func clientKey(trader, clientID string) string {
	return trader + "\x00" + clientID
}
