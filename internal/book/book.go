package book

import (
	"github.com/shopspring/decimal"

	"github.com/PxPatel/clob-exchange/internal/types"
)

// Book is both sides of one pair plus its registry.
type Book struct {
	Bids   *Side
	Asks   *Side
	Orders *Registry
}

func New(priceDecimals int32) *Book {
	return &Book{
		Bids:   NewSide(types.Buy, priceDecimals),
		Asks:   NewSide(types.Sell, priceDecimals),
		Orders: NewRegistry(),
	}
}

// Side returns the side orders of the given direction rest on.
func (b *Book) Side(side types.Side) *Side {
	if side == types.Buy {
		return b.Bids
	}
	return b.Asks
}

// Crossed reports whether the best bid is at or above the best ask.
func (b *Book) Crossed() bool {
	bid, ok := b.Bids.Best()
	if !ok {
		return false
	}
	ask, ok := b.Asks.Best()
	if !ok {
		return false
	}
	return bid.GreaterThanOrEqual(ask)
}

// BestPrices returns the top of both sides; zero values mean an empty side.
func (b *Book) BestPrices() (bid, bidQty, ask, askQty decimal.Decimal) {
	bid, bidQty, ask, askQty = decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero
	if p, ok := b.Bids.Best(); ok {
		bid, bidQty = p, b.Bids.Aggregate(p)
	}
	if p, ok := b.Asks.Best(); ok {
		ask, askQty = p, b.Asks.Aggregate(p)
	}
	return bid, bidQty, ask, askQty
}
