package matching

import (
	"github.com/shopspring/decimal"

	"github.com/PxPatel/clob-exchange/internal/types"
)

const bpsShift = 4 // 1 bp = 10^-4

// feeFor charges rateBps basis points of amount, floored to decimals.
func feeFor(amount decimal.Decimal, rateBps uint32, decimals int32) decimal.Decimal {
	if rateBps == 0 || amount.IsZero() {
		return decimal.Zero
	}
	return amount.Mul(decimal.NewFromInt(int64(rateBps))).Shift(-bpsShift).Truncate(decimals)
}

// fillFees returns the fee each side of a fill pays in the asset it
// receives: the buyer in base, the seller in quote.
func fillFees(p *types.Pair, qty, quote decimal.Decimal, buyRate, sellRate uint32) (buyFee, sellFee decimal.Decimal) {
	return feeFor(qty, buyRate, p.BaseDecimals), feeFor(quote, sellRate, p.QuoteDecimals)
}

// reservation is what settlement must hold before an order may trade: base
// for a sell, quote for a buy. Market buys reserve exactly the planned cost.
func reservation(p *types.Pair, o *types.Order, plannedQuote decimal.Decimal) (asset string, amount decimal.Decimal) {
	if o.Side == types.Sell {
		return p.BaseSymbol, o.Quantity
	}
	if o.Kind == types.Market {
		return p.QuoteSymbol, plannedQuote
	}
	return p.QuoteSymbol, p.QuoteAmount(o.Price, o.Quantity)
}

// heldAsset is the asset reserved for an order of side s.
func heldAsset(p *types.Pair, s types.Side) string {
	if s == types.Sell {
		return p.BaseSymbol
	}
	return p.QuoteSymbol
}
