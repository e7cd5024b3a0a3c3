package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is the engine's record of a trader's order. Amounts are in human
// units of the pair's assets; TotalFee is denominated in the asset the order
// receives (base for BUY, quote for SELL).
type Order struct {
	ID             uint64          `json:"id"`
	ClientOrderID  string          `json:"client_order_id"`
	Trader         string          `json:"trader"`
	PairID         string          `json:"pair"`
	Side           Side            `json:"side"`
	Kind           OrderKind       `json:"kind"`
	TimeInForce    TimeInForce     `json:"time_in_force"`
	Price          decimal.Decimal `json:"price"`
	Quantity       decimal.Decimal `json:"quantity"`
	QuantityFilled decimal.Decimal `json:"quantity_filled"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	TotalFee       decimal.Decimal `json:"total_fee"`
	Reserved       decimal.Decimal `json:"reserved"`
	Status         OrderStatus     `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// Remaining is the unfilled quantity.
func (o *Order) Remaining() decimal.Decimal {
	return o.Quantity.Sub(o.QuantityFilled)
}

func (o *Order) IsTerminal() bool {
	return o.Status.IsTerminal()
}

// Clone returns a copy safe to hand out while the original keeps changing.
func (o *Order) Clone() *Order {
	c := *o
	return &c
}
