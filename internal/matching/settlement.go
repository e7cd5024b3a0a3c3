package matching

import (
	"context"

	"github.com/shopspring/decimal"
)

// Settlement holds and moves trader funds for the engine. Reserve is the only
// call whose failure the engine expects; everything after a successful
// reservation moves funds that are already held.
type Settlement interface {
	// Reserve moves amount of asset from the trader's available balance to
	// the reserved balance. It fails with ErrInsufficientFunds.
	Reserve(ctx context.Context, trader, asset string, amount decimal.Decimal) error
	// Release returns reserved funds to the available balance.
	Release(ctx context.Context, trader, asset string, amount decimal.Decimal) error
	// Execute settles one fill out of both parties' reservations, crediting
	// each side net of its fee.
	Execute(ctx context.Context, x Execution) error
	// TransferFee credits a collected fee to the exchange.
	TransferFee(ctx context.Context, asset string, amount decimal.Decimal) error
}

// Execution is the fund movement of one fill. The buyer pays QuoteAmount out
// of reserved quote and receives BaseAmount-BuyFee; the seller pays
// BaseAmount out of reserved base and receives QuoteAmount-SellFee.
type Execution struct {
	PairID      string
	TradeID     uint64
	Buyer       string
	Seller      string
	BaseAsset   string
	QuoteAsset  string
	BaseAmount  decimal.Decimal
	QuoteAmount decimal.Decimal
	BuyFee      decimal.Decimal
	SellFee     decimal.Decimal
}
